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
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minio/sha256-simd"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

// Disclosure is a salted claim that was removed from the SD-JWT payload and replaced by its digest.
type Disclosure struct {
	Salt  string
	Name  string
	Value interface{}
	// Encoded is the base64url encoded JSON array [salt, name, value], as it appears in the SD-JWT.
	Encoded string
}

// NewDisclosure creates a disclosure for the claim with a fresh 128 bit salt.
func NewDisclosure(name string, value interface{}) (*Disclosure, error) {
	salt := nutsCrypto.GenerateSalt()
	data, err := json.Marshal([]interface{}{salt, name, value})
	if err != nil {
		return nil, fmt.Errorf("unable to marshal disclosure of %s: %w", name, err)
	}
	return &Disclosure{
		Salt:    salt,
		Name:    name,
		Value:   value,
		Encoded: base64.RawURLEncoding.EncodeToString(data),
	}, nil
}

// ParseDisclosure decodes an encoded object property disclosure.
func ParseDisclosure(encoded string) (*Disclosure, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid disclosure encoding: %w", err)
	}
	var parts []interface{}
	if err = json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("invalid disclosure: %w", err)
	}
	if len(parts) != 3 {
		return nil, errors.New("invalid disclosure: expected [salt, name, value]")
	}
	salt, saltOK := parts[0].(string)
	name, nameOK := parts[1].(string)
	if !saltOK || !nameOK {
		return nil, errors.New("invalid disclosure: salt and name must be strings")
	}
	return &Disclosure{Salt: salt, Name: name, Value: parts[2], Encoded: encoded}, nil
}

// Digest returns the base64url encoded SHA-256 digest of the encoded disclosure.
func (d Disclosure) Digest() string {
	return digest(d.Encoded)
}

func digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func decoyDigest() string {
	return digest(nutsCrypto.GenerateSalt())
}
