/*
 * Copyright 2019 Kopano and its licensors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License, version 3,
 * as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package session

import (
	"context"
	"errors"
	"time"
)

// Errors used by this package.
var (
	ErrNotFound = errors.New("session: not found")
)

// idTokenKeySuffix is appended to the session identifier to form the store
// key of the identity token belonging to a session.
const idTokenKeySuffix = ":id_token"

// TokenPair holds the OAuth2 tokens of a session as received from the
// identity provider. A TokenPair is owned exclusively by the session store
// and is never exposed to clients.
type TokenPair struct {
	AccessToken       string    `json:"access_token"`
	AccessTokenExpiry time.Time `json:"access_token_expiry"`
	RefreshToken      string    `json:"refresh_token,omitempty"`

	Scopes         []string `json:"scopes,omitempty"`
	RegistrationID string   `json:"registration_id,omitempty"`
}

// A Store is a TTL bound mapping from session identifiers to the OAuth2
// tokens and the identity token of the identified session. Every write
// resets the entry's lifetime to the configured session duration, reads
// never extend it. All implementations must be safe for concurrent use.
type Store interface {
	// Put upserts the provided token pair under the provided session
	// identifier, resetting the entry's TTL.
	Put(ctx context.Context, sessionID string, pair *TokenPair) error
	// PutIDToken upserts the provided identity token under a key derived
	// from the provided session identifier, with the same TTL as Put.
	PutIDToken(ctx context.Context, sessionID string, idToken string) error
	// Get returns the token pair stored under the provided session
	// identifier or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*TokenPair, error)
	// GetIDToken returns the identity token stored for the provided session
	// identifier or ErrNotFound.
	GetIDToken(ctx context.Context, sessionID string) (string, error)
	// Delete removes both the token pair entry and the derived identity
	// token entry of the provided session identifier. It is idempotent and
	// returns no error when nothing was stored.
	Delete(ctx context.Context, sessionID string) error
}
