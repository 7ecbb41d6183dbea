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

package replay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/nuts-foundation/nuts-issuer/auth/log"
)

// DefaultSize is the number of identifiers a Cache holds when no size is configured.
const DefaultSize = 10000

// ErrReplayed is returned when an identifier has been presented before and is still remembered.
var ErrReplayed = errors.New("identifier already used")

var sweepInterval = time.Minute

// Cache remembers identifiers (jti values, nonces) for a bounded time.
// When the cache is full, the least recently used identifiers are evicted.
type Cache struct {
	name    string
	ttl     time.Duration
	entries gcache.Cache
	// mux makes the check and the mark of an identifier one operation
	mux      sync.Mutex
	cancel   context.CancelFunc
	routines sync.WaitGroup
}

// New creates a Cache holding at most size identifiers, each for the given ttl.
// Call Start to sweep expired identifiers in the background.
func New(name string, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{
		name:    name,
		ttl:     ttl,
		entries: gcache.New(size).LRU().Build(),
	}
}

// Use marks the identifier as used. It returns ErrReplayed if the identifier was already used and did not expire.
func (c *Cache) Use(id string) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if _, err := c.entries.GetIFPresent(id); err == nil {
		return ErrReplayed
	}
	return c.entries.SetWithExpire(id, true, c.ttl)
}

// Len returns the number of identifiers currently remembered, including expired ones that were not swept yet.
func (c *Cache) Len() int {
	return c.entries.Len(false)
}

// Start starts the background sweeper.
func (c *Cache) Start() {
	var ctx context.Context
	ctx, c.cancel = context.WithCancel(context.Background())
	c.routines.Add(1)
	go func() {
		defer c.routines.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if swept := c.sweep(); swept > 0 {
					log.Logger().Debugf("Swept %d expired identifiers from %s replay cache", swept, c.name)
				}
			}
		}
	}()
}

// Stop stops the background sweeper, if started.
func (c *Cache) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.routines.Wait()
	}
}

// sweep removes expired identifiers. A lookup evicts an expired entry from gcache.
func (c *Cache) sweep() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	swept := 0
	for _, key := range c.entries.Keys(false) {
		if _, err := c.entries.GetIFPresent(key); errors.Is(err, gcache.KeyNotFoundError) {
			swept++
		}
	}
	return swept
}
