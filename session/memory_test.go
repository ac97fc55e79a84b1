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
)

func TestMemoryMapStoreRoundtrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryMapStore(ctx, time.Minute)

	pair := testTokenPair()
	if err := store.Put(ctx, "sid-1", pair); err != nil {
		t.Fatal(err)
	}
	if err := store.PutIDToken(ctx, "sid-1", "ID1"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != pair.AccessToken {
		t.Errorf("got wrong access token: %v", got.AccessToken)
	}

	idToken, err := store.GetIDToken(ctx, "sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if idToken != "ID1" {
		t.Errorf("got wrong id token: %v", idToken)
	}
}

func TestMemoryMapStoreDeleteIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryMapStore(ctx, time.Minute)

	if err := store.Put(ctx, "sid-2", testTokenPair()); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "sid-2"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "sid-2"); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "sid-2"); err != ErrNotFound {
		t.Errorf("entry still retrievable after delete: %v", err)
	}
}

func TestMemoryMapStoreExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryMapStore(ctx, 10*time.Millisecond)

	if err := store.Put(ctx, "sid-3", testTokenPair()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := store.Get(ctx, "sid-3"); err != ErrNotFound {
		t.Errorf("entry still retrievable after expiry: %v", err)
	}
}
