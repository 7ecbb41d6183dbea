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
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	memcachestore "github.com/eko/gocache/store/memcache/v4"
)

var _ SessionDatabase = (*MemcachedSessionDatabase)(nil)

// MemcachedConfig holds the configuration for the memcached session database.
type MemcachedConfig struct {
	Address []string `koanf:"address"`
}

// isConfigured returns true if config the indicates Memcached support should be enabled.
func (r MemcachedConfig) isConfigured() bool {
	return len(r.Address) > 0
}

// MemcachedSessionDatabase is a SessionDatabase backed by one or more memcached servers.
type MemcachedSessionDatabase struct {
	client     *memcache.Client
	underlying *cache.Cache[any]
}

// NewMemcachedSessionDatabase creates a new MemcachedSessionDatabase using an initialized memcache.Client.
func NewMemcachedSessionDatabase(client *memcache.Client) *MemcachedSessionDatabase {
	memcachedStore := memcachestore.NewMemcache(client, store.WithExpiration(defaultSessionDataTTL))
	return &MemcachedSessionDatabase{
		client:     client,
		underlying: cache.New[any](memcachedStore),
	}
}

func (s MemcachedSessionDatabase) GetStore(ttl time.Duration, keys ...string) SessionStore {
	return memcachedSessionStore{
		cacheSessionStore{
			underlying: s.underlying,
			ttl:        ttl,
			prefixes:   keys,
		},
	}
}

func (s MemcachedSessionDatabase) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// memcachedSessionStore wraps the generic store because memcached reports deleting a missing key as an error.
type memcachedSessionStore struct {
	cacheSessionStore
}

func (m memcachedSessionStore) Delete(key string) error {
	err := m.cacheSessionStore.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

// newMemcachedClient creates a memcache.Client for the configured servers.
func newMemcachedClient(config MemcachedConfig) (*memcache.Client, error) {
	selector := new(memcache.ServerList)
	if err := selector.SetServers(config.Address...); err != nil {
		return nil, fmt.Errorf("invalid memcached server address: %w", err)
	}
	return memcache.NewFromSelector(selector), nil
}
