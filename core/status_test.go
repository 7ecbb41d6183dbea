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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diagnosableEngine struct {
	testEngine
}

func (d *diagnosableEngine) Diagnostics() []DiagnosticResult {
	return []DiagnosticResult{
		&GenericDiagnosticResult{Title: "sessions", Outcome: 2},
		&NestedDiagnosticResult{Title: "store", Outcome: []DiagnosticResult{
			&GenericDiagnosticResult{Title: "type", Outcome: "redis"},
		}},
	}
}

func newStatusTestServer() *echo.Echo {
	system := NewSystem()
	system.RegisterEngine(&diagnosableEngine{})
	status := NewStatusEngine(system)
	system.RegisterEngine(status)
	server := echo.New()
	status.Routes(server)
	return server
}

func TestStatusEngine_Routes(t *testing.T) {
	server := newStatusTestServer()
	get := func(path string, accept string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, path, nil)
		if accept != "" {
			request.Header.Set(echo.HeaderAccept, accept)
		}
		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("status", func(t *testing.T) {
		recorder := get("/status", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "OK", recorder.Body.String())
	})
	t.Run("engines", func(t *testing.T) {
		recorder := get("/status/engines", "")

		assert.Equal(t, "Test\nStatus", recorder.Body.String())
	})
	t.Run("diagnostics as text", func(t *testing.T) {
		recorder := get("/status/diagnostics", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "status\n\tversion: development")
		assert.Contains(t, recorder.Body.String(), "test\n\tsessions: 2\n\tstore: type: redis")
	})
	t.Run("diagnostics as JSON", func(t *testing.T) {
		recorder := get("/status/diagnostics", echo.MIMEApplicationJSON)

		require.Equal(t, http.StatusOK, recorder.Code)
		var result map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
		assert.Equal(t, float64(2), result["test"]["sessions"])
		assert.Equal(t, map[string]interface{}{"type": "redis"}, result["test"]["store"])
		assert.Equal(t, []interface{}{"Test", "Status"}, result["status"]["registered_engines"])
	})
}
