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
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/store/go_cache/v4"
	"github.com/nuts-foundation/nuts-issuer/storage/log"
	gocacheclient "github.com/patrickmn/go-cache"
)

var _ SessionDatabase = (*InMemorySessionDatabase)(nil)

var sessionStorePruneInterval = 10 * time.Minute

// InMemorySessionDatabase is an in memory database that holds session data on a KV basis.
// Keys could be issuance sessions, deferred credential requests, auth server states, etc.
// All entries are stored with a TTL, so they will be removed automatically.
type InMemorySessionDatabase struct {
	client     *gocacheclient.Cache
	underlying *cache.Cache[any]
	pruner     *pruner
}

// NewInMemorySessionDatabase creates a new in memory session database.
func NewInMemorySessionDatabase() *InMemorySessionDatabase {
	// the go-cache janitor can't be stopped, so we prune ourselves
	gocacheClient := gocacheclient.New(5*time.Minute, 0)
	result := &InMemorySessionDatabase{
		client:     gocacheClient,
		underlying: cache.New[any](go_cache.NewGoCache(gocacheClient)),
	}
	result.pruner = startPruning(sessionStorePruneInterval, func() int {
		before := gocacheClient.ItemCount()
		gocacheClient.DeleteExpired()
		return before - gocacheClient.ItemCount()
	})
	return result
}

func (s *InMemorySessionDatabase) GetStore(ttl time.Duration, keys ...string) SessionStore {
	return cacheSessionStore{
		underlying: s.underlying,
		ttl:        ttl,
		prefixes:   keys,
	}
}

func (s *InMemorySessionDatabase) Close() {
	s.pruner.stop()
}

// pruner periodically removes expired entries from a backend that does not expire entries by itself.
type pruner struct {
	cancel   context.CancelFunc
	routines sync.WaitGroup
}

func startPruning(interval time.Duration, prune func() int) *pruner {
	ctx, cancel := context.WithCancel(context.Background())
	result := &pruner{cancel: cancel}
	ticker := time.NewTicker(interval)
	result.routines.Add(1)
	go func() {
		defer result.routines.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				valsPruned := prune()
				if valsPruned > 0 {
					log.Logger().Debugf("Pruned %d expired session variables", valsPruned)
				}
			}
		}
	}()
	return result
}

// stop signals the pruner to stop and waits for it to finish.
func (p *pruner) stop() {
	p.cancel()
	p.routines.Wait()
}
