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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
)

var _ SessionStore = (*cacheSessionStore)(nil)

// cacheSessionStore is a SessionStore backed by a gocache cache. Values are stored as JSON.
type cacheSessionStore struct {
	underlying *cache.Cache[any]
	ttl        time.Duration
	prefixes   []string
}

func (s cacheSessionStore) Delete(key string) error {
	err := s.underlying.Delete(context.Background(), s.getFullKey(key))
	if err != nil && !errors.Is(err, store.NotFound{}) {
		return err
	}
	return nil
}

func (s cacheSessionStore) Exists(key string) bool {
	_, err := s.underlying.Get(context.Background(), s.getFullKey(key))
	return err == nil
}

func (s cacheSessionStore) Get(key string, target interface{}) error {
	val, err := s.underlying.Get(context.Background(), s.getFullKey(key))
	if err != nil {
		if errors.Is(err, store.NotFound{}) {
			return ErrNotFound
		}
		return err
	}
	var data []byte
	switch v := val.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unexpected session store value type: %T", val)
	}
	return json.Unmarshal(data, target)
}

func (s cacheSessionStore) Put(key string, value interface{}) error {
	if s.ttl <= 0 {
		// an entry that is already expired is never stored, it would live forever in some backends
		return s.Delete(key)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.underlying.Set(context.Background(), s.getFullKey(key), data, store.WithExpiration(s.ttl))
}

func (s cacheSessionStore) getFullKey(key string) string {
	return strings.Join(append(append([]string{}, s.prefixes...), key), "/")
}
