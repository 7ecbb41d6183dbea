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

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURLPaths(t *testing.T) {
	assert.Equal(t, "http://example.com/path", JoinURLPaths("http://example.com", "/path"))
	assert.Equal(t, "http://example.com/path", JoinURLPaths("http://example.com/", "path"))
	assert.Equal(t, "http://example.com/path/", JoinURLPaths("http://example.com/", "/path/"))
	assert.Equal(t, "https://example.com/openid4vci/token", JoinURLPaths("https://example.com/", "/openid4vci", "token"))
	assert.Equal(t, "http://example.com", JoinURLPaths("http://example.com", ""))
	assert.Equal(t, "", JoinURLPaths())
}

func TestParseBaseURL(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		u, err := ParseBaseURL("https://issuer.example.com/tenant", true)
		require.NoError(t, err)
		assert.Equal(t, "issuer.example.com", u.Host)
		assert.Equal(t, "/tenant", u.Path)
	})
	t.Run("http is allowed outside strict mode", func(t *testing.T) {
		_, err := ParseBaseURL("http://localhost:8080", false)
		assert.NoError(t, err)
	})
	t.Run("http in strict mode", func(t *testing.T) {
		_, err := ParseBaseURL("http://issuer.example.com", true)
		assert.EqualError(t, err, "scheme must be https")
	})
	t.Run("query", func(t *testing.T) {
		_, err := ParseBaseURL("https://issuer.example.com?a=b", false)
		assert.EqualError(t, err, "URL must not contain a query or fragment")
	})
	t.Run("no host", func(t *testing.T) {
		_, err := ParseBaseURL("https:///path", false)
		assert.EqualError(t, err, "URL missing host")
	})
	t.Run("no scheme", func(t *testing.T) {
		_, err := ParseBaseURL("issuer.example.com", false)
		assert.EqualError(t, err, "URL missing scheme")
	})
}
