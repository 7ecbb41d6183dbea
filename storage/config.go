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
	"fmt"
	"strings"
	"time"
)

// defaultSessionDataTTL is used by backends that require a default expiration.
const defaultSessionDataTTL = 5 * time.Minute

// DefaultConfig returns the default configuration for the storage engine.
func DefaultConfig() Config {
	return Config{}
}

// Config specifies config for the storage engine.
type Config struct {
	Session SessionConfig `koanf:"session"`
}

// SessionConfig selects the session database. At most one backend may be configured, when none is the session data is kept in memory.
type SessionConfig struct {
	Redis     RedisConfig     `koanf:"redis"`
	Memcached MemcachedConfig `koanf:"memcached"`
	SQL       SQLConfig       `koanf:"sql"`
}

func (c SessionConfig) validate() error {
	if configured := c.backends(); len(configured) > 1 {
		return fmt.Errorf("only one session database can be configured, found: %s", strings.Join(configured, ", "))
	}
	return nil
}

// backends returns the names of the configured session database backends.
func (c SessionConfig) backends() []string {
	var configured []string
	if c.Redis.isConfigured() {
		configured = append(configured, "redis")
	}
	if c.Memcached.isConfigured() {
		configured = append(configured, "memcached")
	}
	if c.SQL.isConfigured() {
		configured = append(configured, "sql")
	}
	return configured
}

// backend returns the name of the session database backend in use.
func (c SessionConfig) backend() string {
	if configured := c.backends(); len(configured) > 0 {
		return configured[0]
	}
	return "memory"
}
