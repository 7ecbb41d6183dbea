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
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// NewStatusEngine creates a new Engine for viewing all engines
func NewStatusEngine(system *System) *StatusEngine {
	return &StatusEngine{system: system, startTime: time.Now()}
}

// StatusEngine exposes a liveness endpoint, the list of registered engines and their diagnostics.
type StatusEngine struct {
	system    *System
	startTime time.Time
}

// Name returns the name of the engine.
func (s *StatusEngine) Name() string {
	return "Status"
}

// Routes registers the status endpoints.
func (s *StatusEngine) Routes(router EchoRouter) {
	router.GET("/status/diagnostics", s.diagnosticsOverview)
	router.GET("/status/engines", s.enginesOverview)
	router.GET("/status", statusOK)
}

// Diagnostics returns the version and uptime of the issuer, and the registered engines.
func (s *StatusEngine) Diagnostics() []DiagnosticResult {
	return []DiagnosticResult{
		&GenericDiagnosticResult{Title: "version", Outcome: Version()},
		&GenericDiagnosticResult{Title: "git_commit", Outcome: GitCommit},
		&GenericDiagnosticResult{Title: "os_arch", Outcome: OSArch()},
		&GenericDiagnosticResult{Title: "uptime", Outcome: time.Since(s.startTime).Truncate(time.Second).String()},
		&GenericDiagnosticResult{Title: "registered_engines", Outcome: s.listAllEngines()},
	}
}

func (s *StatusEngine) diagnosticsOverview(ctx echo.Context) error {
	diagnostics := s.collectDiagnostics()
	if strings.Contains(ctx.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		result := make(map[string]interface{}, len(diagnostics))
		for engine, results := range diagnostics {
			result[engine] = DiagnosticResultMap(results)
		}
		return ctx.JSON(http.StatusOK, result)
	}
	return ctx.String(http.StatusOK, diagnosticsSummaryAsText(diagnostics))
}

func (s *StatusEngine) collectDiagnostics() map[string][]DiagnosticResult {
	result := make(map[string][]DiagnosticResult)
	s.system.VisitEngines(func(engine Engine) {
		diagnosable, ok := engine.(Diagnosable)
		if !ok {
			return
		}
		name := "unknown"
		if named, ok := engine.(Named); ok {
			name = strings.ToLower(named.Name())
		}
		result[name] = diagnosable.Diagnostics()
	})
	return result
}

func diagnosticsSummaryAsText(diagnostics map[string][]DiagnosticResult) string {
	engines := make([]string, 0, len(diagnostics))
	for engine := range diagnostics {
		engines = append(engines, engine)
	}
	sort.Strings(engines)
	var lines []string
	for _, engine := range engines {
		lines = append(lines, engine)
		for _, result := range diagnostics[engine] {
			lines = append(lines, "\t"+result.Name()+": "+result.String())
		}
	}
	return strings.Join(lines, "\n")
}

func (s *StatusEngine) enginesOverview(ctx echo.Context) error {
	return ctx.String(http.StatusOK, strings.Join(s.listAllEngines(), "\n"))
}

func (s *StatusEngine) listAllEngines() []string {
	var names []string
	s.system.VisitEngines(func(engine Engine) {
		if named, ok := engine.(Named); ok {
			names = append(names, named.Name())
		}
	})
	return names
}

// statusOK returns 200 OK with a "OK" body
func statusOK(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "OK")
}
