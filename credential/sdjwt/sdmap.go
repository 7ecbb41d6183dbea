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

package sdjwt

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// DecoyMode tells how many decoy digests are added to an object.
type DecoyMode string

const (
	// DecoyModeNone adds no decoys.
	DecoyModeNone DecoyMode = "NONE"
	// DecoyModeFixed adds exactly Decoys decoys.
	DecoyModeFixed DecoyMode = "FIXED"
	// DecoyModeRandom adds between 1 and Decoys decoys.
	DecoyModeRandom DecoyMode = "RANDOM"
)

// Map is a selective disclosure map: it describes per claim, recursively, whether it is selectively disclosable.
type Map struct {
	Fields    map[string]Field `json:"fields"`
	DecoyMode DecoyMode        `json:"decoyMode,omitempty"`
	Decoys    int              `json:"decoys,omitempty"`
}

// Field describes a single claim of a Map.
type Field struct {
	// SD makes the claim selectively disclosable.
	SD bool `json:"sd"`
	// Children describes the claims of an object value.
	Children *Map `json:"children,omitempty"`
}

// MapFromPaths creates a Map in which the claims at the given dotted paths (e.g. credentialSubject.firstName) are disclosable.
func MapFromPaths(paths []string, decoyMode DecoyMode, decoys int) *Map {
	result := &Map{Fields: map[string]Field{}, DecoyMode: decoyMode, Decoys: decoys}
	for _, path := range paths {
		current := result
		parts := strings.Split(path, ".")
		for i, name := range parts {
			field := current.Fields[name]
			if i == len(parts)-1 {
				field.SD = true
				current.Fields[name] = field
				break
			}
			if field.Children == nil {
				field.Children = &Map{Fields: map[string]Field{}, DecoyMode: decoyMode, Decoys: decoys}
			}
			current.Fields[name] = field
			current = field.Children
		}
	}
	return result
}

func (m *Map) field(name string) (Field, bool) {
	if m == nil {
		return Field{}, false
	}
	field, ok := m.Fields[name]
	return field, ok
}

func (m *Map) decoyCount() int {
	if m == nil || m.Decoys <= 0 {
		return 0
	}
	switch m.DecoyMode {
	case DecoyModeFixed:
		return m.Decoys
	case DecoyModeRandom:
		n, err := rand.Int(rand.Reader, big.NewInt(int64(m.Decoys)))
		if err != nil {
			return m.Decoys
		}
		return int(n.Int64()) + 1
	}
	return 0
}
