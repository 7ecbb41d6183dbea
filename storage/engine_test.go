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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStorageEngine_Configure(t *testing.T) {
	t.Run("in-memory by default", func(t *testing.T) {
		engine := NewTestStorageEngine(t)

		assert.IsType(t, &InMemorySessionDatabase{}, engine.GetSessionDatabase())
	})
	t.Run("redis", func(t *testing.T) {
		redisServer := miniredis.RunT(t)
		engine := New()
		engine.config.Session.Redis = RedisConfig{Address: redisServer.Addr(), Database: "issuer"}

		require.NoError(t, engine.Configure(core.ServerConfig{}))
		defer engine.Shutdown()

		assert.IsType(t, &RedisSessionDatabase{}, engine.GetSessionDatabase())
	})
	t.Run("redis not reachable", func(t *testing.T) {
		port, err := getRandomAvailablePort()
		require.NoError(t, err)
		engine := New()
		engine.config.Session.Redis = RedisConfig{Address: fmt.Sprintf("localhost:%d", port)}

		err = engine.Configure(core.ServerConfig{})

		assert.ErrorContains(t, err, "unable to connect to Redis session database")
	})
	t.Run("sql", func(t *testing.T) {
		engine := New()
		engine.config.Session.SQL = SQLConfig{ConnectionString: "sqlite:file::memory:"}

		require.NoError(t, engine.Configure(core.ServerConfig{}))
		defer engine.Shutdown()

		assert.IsType(t, &SQLSessionDatabase{}, engine.GetSessionDatabase())
	})
	t.Run("multiple backends", func(t *testing.T) {
		engine := New()
		engine.config.Session.Redis = RedisConfig{Address: "localhost:6379"}
		engine.config.Session.SQL = SQLConfig{ConnectionString: "sqlite:file::memory:"}

		err := engine.Configure(core.ServerConfig{})

		assert.EqualError(t, err, "only one session database can be configured, found: redis, sql")
	})
}

func TestRedisConfig_parse(t *testing.T) {
	t.Run("host:port", func(t *testing.T) {
		opts, err := RedisConfig{Address: "localhost:1234", Username: "user", Password: "pass"}.parse()

		require.NoError(t, err)
		assert.Equal(t, "localhost:1234", opts.Addr)
		assert.Equal(t, "user", opts.Username)
		assert.Equal(t, "pass", opts.Password)
	})
	t.Run("truststore without TLS", func(t *testing.T) {
		_, err := RedisConfig{Address: "localhost:1234", TLS: RedisTLSConfig{TrustStoreFile: "truststore.pem"}}.parse()

		assert.EqualError(t, err, "TLS configured but not connecting to a Redis TLS server")
	})
	t.Run("sentinel", func(t *testing.T) {
		base, err := RedisConfig{Address: "rediss://localhost:1234"}.parse()
		require.NoError(t, err)

		opts, err := RedisSentinelConfig{Master: "master", Nodes: []string{"a:1", "b:2"}}.parse(*base)

		require.NoError(t, err)
		assert.Equal(t, "master", opts.MasterName)
		assert.Empty(t, opts.TLSConfig.ServerName)
	})
	t.Run("sentinel without nodes", func(t *testing.T) {
		_, err := RedisSentinelConfig{Master: "master"}.parse(redisOptionsForTest())

		assert.EqualError(t, err, "node addresses are not configured")
	})
}

func TestInMemorySessionDatabase_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("Close() waits for pruning to finish to avoid leaking goroutines", func(t *testing.T) {
		sessionStorePruneInterval = 10 * time.Millisecond
		defer func() {
			sessionStorePruneInterval = 10 * time.Minute
		}()
		db := NewInMemorySessionDatabase()
		require.NoError(t, db.GetStore(time.Millisecond, "prune").Put(testKey, testValue))
		time.Sleep(50 * time.Millisecond) // make sure pruning is running

		db.Close()

		assert.Equal(t, 0, db.client.ItemCount())
	})
}

func redisOptionsForTest() redis.Options {
	return redis.Options{Addr: "localhost:6379"}
}

func TestStorageEngine_Diagnostics(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		results := New().Diagnostics()

		require.Len(t, results, 1)
		assert.Equal(t, "session_database", results[0].Name())
		assert.Equal(t, "memory", results[0].String())
	})
	t.Run("redis", func(t *testing.T) {
		engine := New()
		engine.config.Session.Redis = RedisConfig{Address: "localhost:6379"}

		assert.Equal(t, "redis", engine.Diagnostics()[0].String())
	})
}
