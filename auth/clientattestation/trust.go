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

package clientattestation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// LoadTrustedKeys reads the keys of the trusted attesters from a JSON file that maps attester (iss) to its JWK Set:
//
//	{"https://attester.example.com": {"keys": [...]}}
//
// Every attester in issuers must have at least one key. Private key material is stripped.
func LoadTrustedKeys(file string, issuers []string) (map[string]jwk.Set, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read trusted attester keys (file=%s): %w", file, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse trusted attester keys (file=%s): %w", file, err)
	}
	result := make(map[string]jwk.Set, len(issuers))
	for _, issuer := range issuers {
		keySet, ok := raw[issuer]
		if !ok {
			return nil, fmt.Errorf("no keys for trusted attester %s", issuer)
		}
		set, err := jwk.Parse(keySet)
		if err != nil {
			return nil, fmt.Errorf("invalid keys for trusted attester %s: %w", issuer, err)
		}
		if set.Len() == 0 {
			return nil, fmt.Errorf("no keys for trusted attester %s", issuer)
		}
		public, err := jwk.PublicSetOf(set)
		if err != nil {
			return nil, fmt.Errorf("invalid keys for trusted attester %s: %w", issuer, err)
		}
		result[issuer] = public
	}
	return result, nil
}
