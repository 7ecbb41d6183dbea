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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSQLSessionDatabase(t *testing.T) *SQLSessionDatabase {
	gormDB, err := openSQLDatabase(SQLConfig{ConnectionString: "sqlite:file::memory:?cache=shared"})
	require.NoError(t, err)
	db, err := NewSQLSessionDatabase(gormDB)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestSQLSessionDatabase(t *testing.T) {
	db := newTestSQLSessionDatabase(t)

	testSessionDatabase(t, db)

	t.Run("entry expires", func(t *testing.T) {
		store := db.GetStore(time.Minute, "expiring")
		require.NoError(t, store.Put(testKey, testValue))
		nowFunc = func() time.Time {
			return time.Now().Add(2 * time.Minute)
		}
		defer func() {
			nowFunc = time.Now
		}()

		var actual testType
		assert.ErrorIs(t, store.Get(testKey, &actual), ErrNotFound)
		assert.False(t, store.Exists(testKey))
	})
	t.Run("prune removes expired entries", func(t *testing.T) {
		store := db.GetStore(time.Minute, "pruning")
		require.NoError(t, store.Put(testKey, testValue))
		nowFunc = func() time.Time {
			return time.Now().Add(2 * time.Minute)
		}
		defer func() {
			nowFunc = time.Now
		}()

		assert.GreaterOrEqual(t, db.prune(), 1)
		var count int64
		db.db.Model(&sessionStoreRecord{}).Where(&sessionStoreRecord{Store: "pruning"}).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func Test_dialectorFor(t *testing.T) {
	for _, connection := range []string{"postgres://localhost/issuer", "postgresql://localhost/issuer", "mysql://user@tcp(localhost)/issuer", "sqlserver://localhost?database=issuer", "sqlite:file:issuer.db"} {
		t.Run(connection, func(t *testing.T) {
			dialector, err := dialectorFor(connection)

			require.NoError(t, err)
			assert.Implements(t, (*gorm.Dialector)(nil), dialector)
		})
	}
	t.Run("unsupported", func(t *testing.T) {
		_, err := dialectorFor("oracle://localhost")

		assert.EqualError(t, err, "unsupported SQL database connection string")
	})
}
