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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, sessionDuration time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
	})

	return NewRedisStore(client, sessionDuration), mr
}

func testTokenPair() *TokenPair {
	return &TokenPair{
		AccessToken:       "A1",
		AccessTokenExpiry: time.Now().Add(300 * time.Second).Round(time.Second),
		RefreshToken:      "R1",
		Scopes:            []string{"openid", "profile"},
		RegistrationID:    "keycloak",
	}
}

func TestRedisStoreRoundtrip(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	pair := testTokenPair()
	if err := store.Put(ctx, "sid-1", pair); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != pair.AccessToken {
		t.Errorf("got wrong access token: %v", got.AccessToken)
	}
	if got.RefreshToken != pair.RefreshToken {
		t.Errorf("got wrong refresh token: %v", got.RefreshToken)
	}
	if !got.AccessTokenExpiry.Equal(pair.AccessTokenExpiry) {
		t.Errorf("got wrong access token expiry: %v want %v", got.AccessTokenExpiry, pair.AccessTokenExpiry)
	}
}

func TestRedisStoreGetAbsent(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Minute)

	if _, err := store.Get(context.Background(), "unknown"); err != ErrNotFound {
		t.Errorf("got %v want %v", err, ErrNotFound)
	}
	if _, err := store.GetIDToken(context.Background(), "unknown"); err != ErrNotFound {
		t.Errorf("got %v want %v", err, ErrNotFound)
	}
}

func TestRedisStoreIDToken(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	if err := store.PutIDToken(ctx, "sid-2", "ID1"); err != nil {
		t.Fatal(err)
	}

	idToken, err := store.GetIDToken(ctx, "sid-2")
	if err != nil {
		t.Fatal(err)
	}
	if idToken != "ID1" {
		t.Errorf("got wrong id token: %v", idToken)
	}

	// The identity token entry must not be confused with the token pair
	// entry of the same session.
	if _, err := store.Get(ctx, "sid-2"); err != ErrNotFound {
		t.Errorf("got %v want %v", err, ErrNotFound)
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "sid-3", testTokenPair()); err != nil {
		t.Fatal(err)
	}
	if err := store.PutIDToken(ctx, "sid-3", "ID1"); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, "sid-3"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "sid-3"); err != nil {
		t.Errorf("second delete failed: %v", err)
	}

	if _, err := store.Get(ctx, "sid-3"); err != ErrNotFound {
		t.Errorf("token pair still retrievable after delete: %v", err)
	}
	if _, err := store.GetIDToken(ctx, "sid-3"); err != ErrNotFound {
		t.Errorf("id token still retrievable after delete: %v", err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "sid-4", testTokenPair()); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("sid-4"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl after put: %v", ttl)
	}

	// A rewrite resets the TTL.
	mr.FastForward(30 * time.Second)
	if err := store.Put(ctx, "sid-4", testTokenPair()); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("sid-4"); ttl != time.Minute {
		t.Errorf("ttl not reset on rewrite: %v", ttl)
	}

	// Expiry removes the entry.
	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "sid-4"); err != ErrNotFound {
		t.Errorf("entry still retrievable after expiry: %v", err)
	}
}
