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

package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// JWTPrefix marks a mapping key as JWT claim instead of credential document property.
const JWTPrefix = "jwt:"

// ErrUnknownFunction is returned when a mapping refers to a data function that does not exist.
var ErrUnknownFunction = errors.New("unknown data function")

var templatePattern = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9-]*)(?::(.*))?>$`)

// Context holds the values data functions may use.
type Context struct {
	IssuerDID  string
	SubjectDID string
	// Now is the instant timestamps are derived from. The current time is used when zero.
	Now time.Time
}

// Result is the outcome of applying a mapping.
type Result struct {
	// Document is the credential document with the mapped values merged in.
	Document map[string]interface{}
	// JWTClaims holds the values of the jwt: prefixed keys, without prefix.
	JWTClaims map[string]interface{}
}

type entry struct {
	path     []string
	jwt      bool
	call     *Call
	constant interface{}
}

func (e entry) key() string {
	key := strings.Join(e.path, ".")
	if e.jwt {
		return JWTPrefix + key
	}
	return key
}

// Apply merges the mapping into a copy of the document. The mapping mirrors the structure of the document;
// string leaves of the form <function> or <function:arguments> are replaced with the result of that data function,
// other leaves are set as is. Keys may also be dotted paths.
// Functions are evaluated in key order, last references are evaluated after all other functions.
func Apply(document map[string]interface{}, mapping map[string]interface{}, ctx Context) (*Result, error) {
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}
	result := &Result{
		Document:  map[string]interface{}{},
		JWTClaims: map[string]interface{}{},
	}
	if document != nil {
		result.Document = deepCopy(document).(map[string]interface{})
	}
	entries := flatten(nil, mapping, false)
	sort.SliceStable(entries, func(i, j int) bool {
		iLast := entries[i].call != nil && entries[i].call.Name == lastFunction
		jLast := entries[j].call != nil && entries[j].call.Name == lastFunction
		if iLast != jLast {
			return jLast
		}
		return entries[i].key() < entries[j].key()
	})
	history := map[string]interface{}{}
	for _, current := range entries {
		value := current.constant
		if current.call != nil {
			function, ok := functions[current.call.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s (at %s)", ErrUnknownFunction, current.call.Name, current.key())
			}
			call := *current.call
			call.Context = ctx
			call.History = history
			call.Document = result.Document
			var err error
			if value, err = function(call); err != nil {
				return nil, fmt.Errorf("data function %s (at %s): %w", call.Name, current.key(), err)
			}
			history[current.key()] = value
		}
		if current.jwt {
			result.JWTClaims[strings.Join(current.path, ".")] = value
			continue
		}
		if err := set(result.Document, current.path, value); err != nil {
			return nil, fmt.Errorf("unable to map %s: %w", current.key(), err)
		}
	}
	return result, nil
}

func flatten(path []string, mapping map[string]interface{}, jwt bool) []entry {
	var result []entry
	for key, value := range mapping {
		isJWT := jwt
		if len(path) == 0 && strings.HasPrefix(key, JWTPrefix) {
			key = strings.TrimPrefix(key, JWTPrefix)
			isJWT = true
		}
		current := append(append([]string{}, path...), strings.Split(key, ".")...)
		switch v := value.(type) {
		case map[string]interface{}:
			if !isJWT {
				result = append(result, flatten(current, v, isJWT)...)
				continue
			}
		case string:
			if call := parseCall(v); call != nil {
				result = append(result, entry{path: current, jwt: isJWT, call: call})
				continue
			}
		}
		result = append(result, entry{path: current, jwt: isJWT, constant: value})
	}
	return result
}

func parseCall(template string) *Call {
	match := templatePattern.FindStringSubmatch(template)
	if match == nil {
		return nil
	}
	return &Call{Name: match[1], Args: match[2]}
}

func set(document map[string]interface{}, path []string, value interface{}) error {
	current := document
	for i, key := range path[:len(path)-1] {
		next, exists := current[key]
		if !exists || next == nil {
			created := map[string]interface{}{}
			current[key] = created
			current = created
			continue
		}
		nextMap, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s is not an object", strings.Join(path[:i+1], "."))
		}
		current = nextMap
	}
	current[path[len(path)-1]] = value
	return nil
}

func deepCopy(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, item := range v {
			result[key] = deepCopy(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = deepCopy(item)
		}
		return result
	}
	return value
}

// CompleteJWTClaims derives the registered JWT claims that were not mapped explicitly from the document:
// jti from id, exp from expirationDate (or validUntil), iat and nbf from issuanceDate (or validFrom).
func (r *Result) CompleteJWTClaims() {
	complete := func(claim string, properties ...string) {
		if _, exists := r.JWTClaims[claim]; exists {
			return
		}
		for _, property := range properties {
			value, ok := r.Document[property].(string)
			if !ok {
				continue
			}
			if claim == "jti" {
				r.JWTClaims[claim] = value
				return
			}
			if instant, err := time.Parse(time.RFC3339, value); err == nil {
				r.JWTClaims[claim] = instant.Unix()
				return
			}
		}
	}
	complete("jti", "id")
	complete("exp", "expirationDate", "validUntil")
	complete("iat", "issuanceDate", "validFrom")
	complete("nbf", "issuanceDate", "validFrom")
}
