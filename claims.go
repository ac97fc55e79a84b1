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
	"errors"

	"github.com/dgrijalva/jwt-go"
)

// Additional claims used by kbridge session tokens.
const (
	EmailClaim = "email"
	NameClaim  = "name"
)

// SessionClaims define the claims found in session tokens issued by kbridge.
// The token's jti claim holds the session identifier and is the only value
// used to look up server side session data.
type SessionClaims struct {
	jwt.StandardClaims

	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Valid implements the jwt.Claims interface. In addition to the standard
// claims validation it requires the exp and jti claims to be set - a session
// token without lifetime or session identifier must never resolve to a
// session.
func (c SessionClaims) Valid() error {
	if c.ExpiresAt == 0 {
		return errors.New("exp claim not valid")
	}
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if c.Id == "" {
		return errors.New("jti claim not valid")
	}

	return nil
}
