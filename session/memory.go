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
	"time"

	"github.com/orcaman/concurrent-map"
)

const purgeExpiredInterval = 30 * time.Second

// memoryMapStore is a Store backed by an in process concurrent map. It is
// meant for development and testing setups without a Redis server. Expired
// entries are rejected on read and purged periodically.
type memoryMapStore struct {
	table           cmap.ConcurrentMap
	sessionDuration time.Duration
}

type memoryRecord struct {
	pair    *TokenPair
	idToken string
	expiry  time.Time
}

// NewMemoryMapStore creates a new in memory Store. The provided context
// controls the lifetime of the purge loop.
func NewMemoryMapStore(ctx context.Context, sessionDuration time.Duration) Store {
	s := &memoryMapStore{
		table:           cmap.New(),
		sessionDuration: sessionDuration,
	}

	// Cleanup function.
	go func() {
		ticker := time.NewTicker(purgeExpiredInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.purgeExpired()
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

func (s *memoryMapStore) purgeExpired() {
	var expired []string
	now := time.Now()
	for entry := range s.table.IterBuffered() {
		record := entry.Val.(*memoryRecord)
		if record.expiry.Before(now) {
			expired = append(expired, entry.Key)
		}
	}
	for _, key := range expired {
		s.table.Remove(key)
	}
}

func (s *memoryMapStore) get(key string) (*memoryRecord, bool) {
	stored, found := s.table.Get(key)
	if !found {
		return nil, false
	}
	record := stored.(*memoryRecord)
	if record.expiry.Before(time.Now()) {
		return nil, false
	}

	return record, true
}

// Put implements the Store interface.
func (s *memoryMapStore) Put(ctx context.Context, sessionID string, pair *TokenPair) error {
	s.table.Set(sessionID, &memoryRecord{
		pair:   pair,
		expiry: time.Now().Add(s.sessionDuration),
	})

	return nil
}

// PutIDToken implements the Store interface.
func (s *memoryMapStore) PutIDToken(ctx context.Context, sessionID string, idToken string) error {
	s.table.Set(sessionID+idTokenKeySuffix, &memoryRecord{
		idToken: idToken,
		expiry:  time.Now().Add(s.sessionDuration),
	})

	return nil
}

// Get implements the Store interface.
func (s *memoryMapStore) Get(ctx context.Context, sessionID string) (*TokenPair, error) {
	record, found := s.get(sessionID)
	if !found {
		return nil, ErrNotFound
	}

	return record.pair, nil
}

// GetIDToken implements the Store interface.
func (s *memoryMapStore) GetIDToken(ctx context.Context, sessionID string) (string, error) {
	record, found := s.get(sessionID + idTokenKeySuffix)
	if !found {
		return "", ErrNotFound
	}

	return record.idToken, nil
}

// Delete implements the Store interface.
func (s *memoryMapStore) Delete(ctx context.Context, sessionID string) error {
	s.table.Remove(sessionID)
	s.table.Remove(sessionID + idTokenKeySuffix)

	return nil
}
