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

	"github.com/nuts-foundation/nuts-issuer/core"
)

// NewTestStorageEngine creates a configured storage engine with an in-memory session database, closed when the test ends.
func NewTestStorageEngine(t testing.TB) *StorageEngine {
	result := New()
	if err := result.Configure(*core.NewServerConfig()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = result.Shutdown()
	})
	return result
}

// NewTestInMemorySessionDatabase creates an in-memory session database, closed when the test ends.
func NewTestInMemorySessionDatabase(t testing.TB) *InMemorySessionDatabase {
	db := NewInMemorySessionDatabase()
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
