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
	"fmt"
	"strings"
)

// Diagnosable allows the implementer, mostly engines, to return diagnostics.
type Diagnosable interface {
	Diagnostics() []DiagnosticResult
}

// DiagnosticResult are the result of different checks giving information on how well the system is doing
type DiagnosticResult interface {
	// Name returns a simple and understandable name of the check
	Name() string

	// String returns the outcome of the check formatted as string
	String() string

	// Result returns the outcome of the check in its original format, used for JSON output.
	Result() interface{}
}

// GenericDiagnosticResult is an implementation of the DiagnosticResult interface that contains a generic value.
type GenericDiagnosticResult struct {
	Title   string
	Outcome interface{}
}

// Name returns the name of the GenericDiagnosticResult
func (r *GenericDiagnosticResult) Name() string {
	return r.Title
}

// String returns the outcome of the GenericDiagnosticResult as string
func (r *GenericDiagnosticResult) String() string {
	return fmt.Sprintf("%v", r.Outcome)
}

func (r *GenericDiagnosticResult) Result() interface{} {
	return r.Outcome
}

// NestedDiagnosticResult is an implementation of the DiagnosticResult interface that contains a slice of DiagnosticResult's.
type NestedDiagnosticResult struct {
	Title   string
	Outcome []DiagnosticResult
}

// Name returns the name of the NestedDiagnosticResult
func (r *NestedDiagnosticResult) Name() string {
	return r.Title
}

// String returns the outcome of the NestedDiagnosticResult, one result per line.
func (r *NestedDiagnosticResult) String() string {
	lines := make([]string, 0, len(r.Outcome))
	for _, result := range r.Outcome {
		lines = append(lines, result.Name()+": "+result.String())
	}
	return strings.Join(lines, ", ")
}

// Result returns the nested results as map.
func (r *NestedDiagnosticResult) Result() interface{} {
	return DiagnosticResultMap(r.Outcome)
}

// DiagnosticResultMap converts the results to a map, keyed by their name.
func DiagnosticResultMap(results []DiagnosticResult) map[string]interface{} {
	output := make(map[string]interface{}, len(results))
	for _, result := range results {
		output[result.Name()] = result.Result()
	}
	return output
}
