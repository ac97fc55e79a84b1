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
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"stash.kopano.io/kc/kbridge"
)

var testSigningKey *rsa.PrivateKey

func init() {
	var err error
	testSigningKey, err = rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		panic(err)
	}
}

func newTestCodec(t *testing.T, issuer string, duration time.Duration) *Codec {
	codec, err := NewCodec(&Config{
		Issuer:          issuer,
		SessionDuration: duration,
		SigningKey:      testSigningKey,
	})
	if err != nil {
		t.Fatal(err)
	}

	return codec
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)

	tokenString, err := codec.Issue("session-id-1", "user1", "user1@kopano.local", "User One")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := codec.Verify(tokenString)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Id != "session-id-1" {
		t.Errorf("verify returned wrong session id: got %v want %v", claims.Id, "session-id-1")
	}
	if claims.Subject != "user1" {
		t.Errorf("verify returned wrong subject: got %v want %v", claims.Subject, "user1")
	}
	if claims.Email != "user1@kopano.local" {
		t.Errorf("verify returned wrong email: got %v", claims.Email)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)

	tokenString, err := codec.Issue("session-id-2", "user1", "", "")
	if err != nil {
		t.Fatal(err)
	}

	// Flip a character inside the payload segment.
	parts := strings.Split(tokenString, ".")
	payload := []byte(parts[1])
	pos := len(payload) / 2
	if payload[pos] == 'A' {
		payload[pos] = 'B'
	} else {
		payload[pos] = 'A'
	}
	parts[1] = string(payload)
	tampered := strings.Join(parts, ".")
	if tampered == tokenString {
		t.Fatal("tampering failed to change the token")
	}

	if _, err := codec.Verify(tampered); err != ErrInvalidSessionToken {
		t.Errorf("tampered token verified: got %v want %v", err, ErrInvalidSessionToken)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)

	claims := &kbridge.SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    "https://bff.local",
			Subject:   "user1",
			Id:        "session-id-3",
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-1 * time.Hour).Unix(),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := codec.Verify(tokenString); err != ErrInvalidSessionToken {
		t.Errorf("expired token verified: got %v want %v", err, ErrInvalidSessionToken)
	}
}

func TestVerifyTokenWithoutExpiry(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)

	claims := &kbridge.SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:   "https://bff.local",
			Subject:  "user1",
			Id:       "session-id-4",
			IssuedAt: time.Now().Unix(),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := codec.Verify(tokenString); err != ErrInvalidSessionToken {
		t.Errorf("token without exp verified: got %v want %v", err, ErrInvalidSessionToken)
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)
	other := newTestCodec(t, "https://other.local", time.Minute)

	tokenString, err := other.Issue("session-id-5", "user1", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := codec.Verify(tokenString); err != ErrInvalidSessionToken {
		t.Errorf("token of foreign issuer verified: got %v want %v", err, ErrInvalidSessionToken)
	}
}

func TestVerifyGarbage(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)

	for _, tokenString := range []string{"", "garbage", "a.b.c", "e30.e30."} {
		if _, err := codec.Verify(tokenString); err != ErrInvalidSessionToken {
			t.Errorf("garbage %q verified: got %v want %v", tokenString, err, ErrInvalidSessionToken)
		}
	}
}

func TestReissueIsIndependent(t *testing.T) {
	codec := newTestCodec(t, "https://bff.local", time.Minute)

	first, err := codec.Issue("session-id-6", "user1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	// The iat claim has second granularity, cross into the next second to
	// get a distinct token.
	time.Sleep(1100 * time.Millisecond)
	second, err := codec.Issue("session-id-6", "user1", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Error("re-issued token is identical to the first one")
	}
	for _, tokenString := range []string{first, second} {
		claims, verifyErr := codec.Verify(tokenString)
		if verifyErr != nil {
			t.Fatal(verifyErr)
		}
		if claims.Id != "session-id-6" {
			t.Errorf("verify returned wrong session id: got %v", claims.Id)
		}
	}
}
