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
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a Redis server, using per key expiry. The
// Redis server serializes writes per key, no additional locking is done
// here.
type RedisStore struct {
	client          *redis.Client
	sessionDuration time.Duration
}

// NewRedisStore creates a new RedisStore using the provided client and
// session duration as entry TTL.
func NewRedisStore(client *redis.Client, sessionDuration time.Duration) *RedisStore {
	return &RedisStore{
		client:          client,
		sessionDuration: sessionDuration,
	}
}

// Put implements the Store interface.
func (s *RedisStore) Put(ctx context.Context, sessionID string, pair *TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, sessionID, data, s.sessionDuration).Err()
}

// PutIDToken implements the Store interface.
func (s *RedisStore) PutIDToken(ctx context.Context, sessionID string, idToken string) error {
	return s.client.Set(ctx, sessionID+idTokenKeySuffix, idToken, s.sessionDuration).Err()
}

// Get implements the Store interface.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*TokenPair, error) {
	data, err := s.client.Get(ctx, sessionID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	pair := &TokenPair{}
	if err := json.Unmarshal(data, pair); err != nil {
		return nil, err
	}

	return pair, nil
}

// GetIDToken implements the Store interface.
func (s *RedisStore) GetIDToken(ctx context.Context, sessionID string) (string, error) {
	idToken, err := s.client.Get(ctx, sessionID+idTokenKeySuffix).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return idToken, nil
}

// Delete implements the Store interface.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionID, sessionID+idTokenKeySuffix).Err()
}
