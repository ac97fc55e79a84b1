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

package kbridge

import (
	"context"
)

// key is an unexported type for keys defined in this package.
// This prevents collisions with keys defined in other packages.
type key int

// sessionClaimsKey is the key for SessionClaims in Contexts. It is
// unexported; clients use kbridge.NewSessionClaimsContext and
// kbridge.FromSessionClaimsContext instead of using this key directly.
var sessionClaimsKey key

// NewSessionClaimsContext returns a new Context that carries value claims.
func NewSessionClaimsContext(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// FromSessionClaimsContext returns the SessionClaims value stored in ctx,
// if any.
func FromSessionClaimsContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(*SessionClaims)
	return claims, ok
}
