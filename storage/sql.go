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
	"strings"
	"time"

	"github.com/nuts-foundation/nuts-issuer/storage/log"
	sqliteDriver "github.com/nuts-foundation/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

const sqliteConnectionPrefix = "sqlite:"

// SQLConfig specifies config for the SQL session database.
// The connection string selects the driver: postgres://, mysql://, sqlserver:// or sqlite:<dsn>.
type SQLConfig struct {
	ConnectionString string `koanf:"connection"`
}

func (c SQLConfig) isConfigured() bool {
	return c.ConnectionString != ""
}

func dialectorFor(connectionString string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(connectionString, "postgres://") || strings.HasPrefix(connectionString, "postgresql://"):
		return postgres.Open(connectionString), nil
	case strings.HasPrefix(connectionString, "mysql://"):
		return mysql.Open(strings.TrimPrefix(connectionString, "mysql://")), nil
	case strings.HasPrefix(connectionString, "sqlserver://"):
		return sqlserver.Open(connectionString), nil
	case strings.HasPrefix(connectionString, sqliteConnectionPrefix):
		return sqlite.New(sqlite.Config{
			DriverName: sqliteDriver.DriverName,
			DSN:        strings.TrimPrefix(connectionString, sqliteConnectionPrefix),
		}), nil
	}
	return nil, errors.New("unsupported SQL database connection string")
}

// openSQLDatabase opens a gorm database for the given connection string.
func openSQLDatabase(config SQLConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(config.ConnectionString)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormLogrusLogger{
			underlying:    log.Logger(),
			slowThreshold: 200 * time.Millisecond,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQL database: %w", err)
	}
	if _, isSQLite := dialector.(*sqlite.Dialector); isSQLite {
		// a single connection keeps in-memory databases shared and avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
