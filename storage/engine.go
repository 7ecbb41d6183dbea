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
	"fmt"
	"time"

	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/storage/log"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// New creates a new instance of the storage engine.
func New() *StorageEngine {
	return &StorageEngine{
		config: DefaultConfig(),
	}
}

var _ Engine = (*StorageEngine)(nil)
var _ core.Injectable = (*StorageEngine)(nil)
var _ core.Configurable = (*StorageEngine)(nil)
var _ core.Runnable = (*StorageEngine)(nil)

// StorageEngine creates the session database that holds all expiring issuer state.
type StorageEngine struct {
	config          Config
	sessionDatabase SessionDatabase
}

// Name returns the name of the storage engine.
func (e *StorageEngine) Name() string {
	return "Storage"
}

// Config returns a pointer to the engine config.
func (e *StorageEngine) Config() interface{} {
	return &e.config
}

// Configure creates the session database for the configured backend.
func (e *StorageEngine) Configure(_ core.ServerConfig) error {
	if err := e.config.Session.validate(); err != nil {
		return err
	}
	sessionConfig := e.config.Session
	switch {
	case sessionConfig.Redis.isConfigured():
		redis.SetLogger(redisLogWriter{logger: log.Logger()})
		client, err := createRedisClient(sessionConfig.Redis)
		if err != nil {
			return fmt.Errorf("unable to configure Redis session database: %w", err)
		}
		db := NewRedisSessionDatabase(client, sessionConfig.Redis.Database)
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := db.ping(ctx); err != nil {
			db.Close()
			return fmt.Errorf("unable to connect to Redis session database: %w", err)
		}
		log.Logger().Info("Using Redis session database")
		e.sessionDatabase = db
	case sessionConfig.Memcached.isConfigured():
		client, err := newMemcachedClient(sessionConfig.Memcached)
		if err != nil {
			return err
		}
		log.Logger().Info("Using Memcached session database")
		e.sessionDatabase = NewMemcachedSessionDatabase(client)
	case sessionConfig.SQL.isConfigured():
		gormDB, err := openSQLDatabase(sessionConfig.SQL)
		if err != nil {
			return err
		}
		db, err := NewSQLSessionDatabase(gormDB)
		if err != nil {
			return fmt.Errorf("unable to create SQL session database: %w", err)
		}
		log.Logger().Info("Using SQL session database")
		e.sessionDatabase = db
	default:
		log.Logger().Info("Using in-memory session database, sessions are lost on restart")
		e.sessionDatabase = NewInMemorySessionDatabase()
	}
	return nil
}

// Start does nothing, the session database is ready after Configure.
func (e *StorageEngine) Start() error {
	return nil
}

// Shutdown closes the session database.
func (e *StorageEngine) Shutdown() error {
	if e.sessionDatabase != nil {
		e.sessionDatabase.Close()
	}
	return nil
}

// GetSessionDatabase returns the configured SessionDatabase.
func (e *StorageEngine) GetSessionDatabase() SessionDatabase {
	return e.sessionDatabase
}

// Diagnostics returns the type of the session database.
func (e *StorageEngine) Diagnostics() []core.DiagnosticResult {
	return []core.DiagnosticResult{
		&core.GenericDiagnosticResult{Title: "session_database", Outcome: e.config.Session.backend()},
	}
}
