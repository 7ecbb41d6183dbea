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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionDatabase_errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	db := NewRedisSessionDatabase(client, "issuer")
	store := db.GetStore(time.Minute, "sessions")
	expectedKey := "issuer/sessions/" + testKey
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get fails", func(t *testing.T) {
		mock.ExpectGet(expectedKey).SetErr(errors.New("connection refused"))

		var actual testType
		err := store.Get(testKey, &actual)

		assert.EqualError(t, err, "connection refused")
	})
	t.Run("not found", func(t *testing.T) {
		mock.ExpectGet(expectedKey).RedisNil()

		var actual testType
		err := store.Get(testKey, &actual)

		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("broken JSON", func(t *testing.T) {
		mock.ExpectGet(expectedKey).SetVal("{")

		var actual testType
		err := store.Get(testKey, &actual)

		var syntaxErr *json.SyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
	})
	t.Run("exists is false when get fails", func(t *testing.T) {
		mock.ExpectGet(expectedKey).SetErr(errors.New("connection refused"))

		assert.False(t, store.Exists(testKey))
	})
	t.Run("delete fails", func(t *testing.T) {
		mock.ExpectDel(expectedKey).SetErr(errors.New("connection refused"))

		err := store.Delete(testKey)

		require.Error(t, err)
		assert.EqualError(t, err, "connection refused")
	})
}
