/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package storage

import (
	"context"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/storage/log"
	"github.com/redis/go-redis/v9"
)

var _ SessionDatabase = (*RedisSessionDatabase)(nil)

// RedisSessionDatabase is a SessionDatabase backed by Redis. Expiry is delegated to Redis.
type RedisSessionDatabase struct {
	client     redis.UniversalClient
	underlying *cache.Cache[any]
	// prefix is prepended to all keys, so multiple issuers can share a Redis database.
	prefix string
}

// NewRedisSessionDatabase creates a RedisSessionDatabase using an initialized client.
func NewRedisSessionDatabase(client redis.UniversalClient, prefix string) *RedisSessionDatabase {
	return &RedisSessionDatabase{
		client:     client,
		underlying: cache.New[any](redisstore.NewRedis(client)),
		prefix:     prefix,
	}
}

func (s *RedisSessionDatabase) GetStore(ttl time.Duration, keys ...string) SessionStore {
	var prefixes []string
	if len(s.prefix) > 0 {
		prefixes = append(prefixes, s.prefix)
	}
	log.Logger().
		WithField(core.LogFieldStore, strings.Join(keys, "/")).
		Debug("Creating Redis session store")
	return cacheSessionStore{
		underlying: s.underlying,
		ttl:        ttl,
		prefixes:   append(prefixes, keys...),
	}
}

func (s *RedisSessionDatabase) Close() {
	if err := s.client.Close(); err != nil {
		log.Logger().WithError(err).Warn("Failed to close Redis client")
	}
}

// ping checks whether the Redis server can be reached.
func (s *RedisSessionDatabase) ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
