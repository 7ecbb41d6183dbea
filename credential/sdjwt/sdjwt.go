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

// Package sdjwt implements Selective Disclosure JWTs (SD-JWT) and the SD-JWT VC credential format.
package sdjwt

import (
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

const (
	// DigestsClaim holds the digests of the disclosable claims of an object.
	DigestsClaim = "_sd"
	// AlgorithmClaim holds the hash algorithm used for the digests.
	AlgorithmClaim = "_sd_alg"
	// AlgorithmSHA256 is the only supported digest algorithm.
	AlgorithmSHA256 = "sha-256"
	// Separator separates the issuer-signed JWT and the disclosures.
	Separator = "~"
)

// ErrInvalidSDJWT is returned when an SD-JWT can't be parsed or its disclosures don't match.
var ErrInvalidSDJWT = errors.New("invalid SD-JWT")

// Payload is an SD-JWT payload with the disclosable claims replaced by their digests.
type Payload struct {
	Claims      map[string]interface{}
	Disclosures []Disclosure
}

// CreatePayload replaces the claims marked disclosable in sdMap by digests and returns those claims as disclosures.
// Nested objects are processed first, so a disclosable object may itself contain disclosable claims.
// A nil sdMap makes nothing disclosable.
func CreatePayload(claims map[string]interface{}, sdMap *Map) (*Payload, error) {
	undisclosed, disclosures, err := undisclose(claims, sdMap)
	if err != nil {
		return nil, err
	}
	if len(disclosures) > 0 || hasDigests(undisclosed) {
		undisclosed[AlgorithmClaim] = AlgorithmSHA256
	}
	return &Payload{Claims: undisclosed, Disclosures: disclosures}, nil
}

func undisclose(claims map[string]interface{}, sdMap *Map) (map[string]interface{}, []Disclosure, error) {
	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make(map[string]interface{}, len(claims))
	var digests []string
	var disclosures []Disclosure
	for _, name := range names {
		value := claims[name]
		field, _ := sdMap.field(name)
		if object, isObject := value.(map[string]interface{}); isObject && field.Children != nil {
			nested, nestedDisclosures, err := undisclose(object, field.Children)
			if err != nil {
				return nil, nil, err
			}
			value = nested
			disclosures = append(disclosures, nestedDisclosures...)
		}
		if !field.SD {
			result[name] = value
			continue
		}
		disclosure, err := NewDisclosure(name, value)
		if err != nil {
			return nil, nil, err
		}
		digests = append(digests, disclosure.Digest())
		disclosures = append(disclosures, *disclosure)
	}
	if len(digests) > 0 {
		for i := sdMap.decoyCount(); i > 0; i-- {
			digests = append(digests, decoyDigest())
		}
	}
	if len(digests) > 0 {
		// sorted, so the order does not reveal the original claim order
		sort.Strings(digests)
		result[DigestsClaim] = digests
	}
	return result, disclosures, nil
}

func hasDigests(claims map[string]interface{}) bool {
	_, ok := claims[DigestsClaim]
	return ok
}

// SDJWT is an issued SD-JWT: the issuer-signed JWT and the encoded disclosures.
type SDJWT struct {
	JWT         string
	Disclosures []string
	// KeyBinding is the key binding JWT of a presentation, empty at issuance.
	KeyBinding string
}

// String returns the compact serialization: <JWT>~<disclosure>~...~<key binding JWT>
func (s SDJWT) String() string {
	var builder strings.Builder
	builder.WriteString(s.JWT)
	builder.WriteString(Separator)
	for _, disclosure := range s.Disclosures {
		builder.WriteString(disclosure)
		builder.WriteString(Separator)
	}
	builder.WriteString(s.KeyBinding)
	return builder.String()
}

// Parse splits a compact SD-JWT into its parts, without verifying anything.
// Both the issuance form (ending with ~) and the form with a key binding JWT are accepted.
func Parse(input string) (*SDJWT, error) {
	parts := strings.Split(input, Separator)
	if len(parts) < 2 || parts[0] == "" {
		return nil, fmt.Errorf("%w: missing separator", ErrInvalidSDJWT)
	}
	result := &SDJWT{JWT: parts[0]}
	last := len(parts) - 1
	for i, part := range parts[1:] {
		if part == "" {
			continue
		}
		if i+1 == last && strings.Count(part, ".") == 2 {
			result.KeyBinding = part
			continue
		}
		result.Disclosures = append(result.Disclosures, part)
	}
	return result, nil
}

// Sign signs the payload and returns the SD-JWT.
func Sign(key nutsCrypto.SigningKey, payload Payload, headers map[string]interface{}) (*SDJWT, error) {
	token, err := nutsCrypto.SignJWT(key, payload.Claims, headers)
	if err != nil {
		return nil, err
	}
	result := &SDJWT{JWT: token}
	for _, disclosure := range payload.Disclosures {
		result.Disclosures = append(result.Disclosures, disclosure.Encoded)
	}
	return result, nil
}

// Verify checks the signature of the issuer-signed JWT and returns the payload with all given disclosures applied.
func Verify(input string, publicKey crypto.PublicKey, alg jwa.SignatureAlgorithm) (map[string]interface{}, error) {
	parsed, err := Parse(input)
	if err != nil {
		return nil, err
	}
	payload, err := jws.Verify([]byte(parsed.JWT), jws.WithKey(alg, publicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSDJWT, err)
	}
	var claims map[string]interface{}
	if err = json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSDJWT, err)
	}
	return Disclose(claims, parsed.Disclosures)
}

// Disclose replaces the digests in the claims by the claims of the matching disclosures.
// Digests without a disclosure (decoys included) are dropped, disclosures that match no digest are an error.
func Disclose(claims map[string]interface{}, encodedDisclosures []string) (map[string]interface{}, error) {
	byDigest := make(map[string]*Disclosure, len(encodedDisclosures))
	for _, encoded := range encodedDisclosures {
		disclosure, err := ParseDisclosure(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSDJWT, err)
		}
		byDigest[disclosure.Digest()] = disclosure
	}
	result, err := disclose(claims, byDigest)
	if err != nil {
		return nil, err
	}
	if len(byDigest) > 0 {
		return nil, fmt.Errorf("%w: %d disclosure(s) not referenced by the payload", ErrInvalidSDJWT, len(byDigest))
	}
	delete(result, AlgorithmClaim)
	return result, nil
}

func disclose(claims map[string]interface{}, byDigest map[string]*Disclosure) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(claims))
	for name, value := range claims {
		if name == DigestsClaim {
			continue
		}
		processed, err := discloseValue(value, byDigest)
		if err != nil {
			return nil, err
		}
		result[name] = processed
	}
	var digests []interface{}
	switch d := claims[DigestsClaim].(type) {
	case []interface{}:
		digests = d
	case []string:
		for _, item := range d {
			digests = append(digests, item)
		}
	}
	for _, current := range digests {
		digestValue, ok := current.(string)
		if !ok {
			return nil, fmt.Errorf("%w: digest is not a string", ErrInvalidSDJWT)
		}
		disclosure, found := byDigest[digestValue]
		if !found {
			continue
		}
		delete(byDigest, digestValue)
		if _, exists := result[disclosure.Name]; exists {
			return nil, fmt.Errorf("%w: claim %s is disclosed more than once", ErrInvalidSDJWT, disclosure.Name)
		}
		value, err := discloseValue(disclosure.Value, byDigest)
		if err != nil {
			return nil, err
		}
		result[disclosure.Name] = value
	}
	return result, nil
}

func discloseValue(value interface{}, byDigest map[string]*Disclosure) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return disclose(v, byDigest)
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			processed, err := discloseValue(item, byDigest)
			if err != nil {
				return nil, err
			}
			result[i] = processed
		}
		return result, nil
	}
	return value, nil
}
