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

package signing

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"stash.kopano.io/kc/kbridge"
)

// Errors used by this package.
var (
	ErrInvalidSessionToken = errors.New("signing: invalid session token")
)

// Config defines the data required to create a new Codec.
type Config struct {
	Issuer          string
	SessionDuration time.Duration

	SigningMethod jwt.SigningMethod
	SigningKey    *rsa.PrivateKey
}

// A Codec issues and verifies kbridge session tokens. Tokens are signed
// compact JWTs carrying the session identifier in the jti claim together
// with display claims of the identified user. A Codec is safe to use from
// multiple Go routines.
type Codec struct {
	issuer          string
	sessionDuration time.Duration

	signingMethod jwt.SigningMethod
	signingKey    *rsa.PrivateKey
	validationKey *rsa.PublicKey
}

// NewCodec creates a new Codec from the provided parameters. The public key
// used for verification is derived from the signing key once here, since the
// key pair is immutable for the process lifetime.
func NewCodec(c *Config) (*Codec, error) {
	if c.Issuer == "" {
		return nil, errors.New("signing: issuer required")
	}
	if c.SessionDuration <= 0 {
		return nil, errors.New("signing: session duration must be positive")
	}
	if c.SigningKey == nil {
		return nil, errors.New("signing: signing key required")
	}

	signingMethod := c.SigningMethod
	if signingMethod == nil {
		signingMethod = jwt.SigningMethodRS256
	}
	if _, ok := signingMethod.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("signing: unsupported signing method: %s", signingMethod.Alg())
	}

	return &Codec{
		issuer:          c.Issuer,
		sessionDuration: c.SessionDuration,

		signingMethod: signingMethod,
		signingKey:    c.SigningKey,
		validationKey: &c.SigningKey.PublicKey,
	}, nil
}

// Issue creates a new serialized session token for the provided session
// identifier and user details. The token is bound to the associated Codec's
// issuer and expires after the configured session duration.
func (c *Codec) Issue(sessionID string, subject string, email string, name string) (string, error) {
	now := time.Now()

	claims := &kbridge.SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			Id:        sessionID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(c.sessionDuration).Unix(),
		},

		Email: email,
		Name:  name,
	}

	token := jwt.NewWithClaims(c.signingMethod, claims)

	return token.SignedString(c.signingKey)
}

// Verify parses and validates the provided serialized session token. It
// returns the contained claims when the token's signature verifies against
// the associated Codec's key, the token is not expired and the issuer
// matches. Any other token, including garbage input, yields
// ErrInvalidSessionToken - never a panic and never claims of another session.
func (c *Codec) Verify(tokenString string) (*kbridge.SessionClaims, error) {
	claims := &kbridge.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != c.signingMethod.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return c.validationKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSessionToken
	}

	if !claims.VerifyIssuer(c.issuer, true) {
		return nil, ErrInvalidSessionToken
	}

	return claims, nil
}
