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

package credential

import (
	"errors"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/go-did/did"
)

// ErrInvalidIssuer is returned when a credential is issued without a valid issuer identifier.
var ErrInvalidIssuer = errors.New("invalid issuer")

// ErrMissingHolderKey is returned when a credential must be bound to a holder key, but none was given.
var ErrMissingHolderKey = errors.New("missing holder key")

// Holder identifies the holder a credential is bound to, as recovered from the proof of possession.
type Holder struct {
	// DID is the holder DID, set when the proof referred to the key with a DID URL.
	DID string
	// KeyID is the kid from the proof, if any.
	KeyID string
	// Key is the public key of the holder. It is always set for proofs that embed their key.
	Key jwk.Key
}

// Confirmation returns the cnf claim for holder binding (RFC 7800): the JWK when available, the kid otherwise.
func (h Holder) Confirmation() (map[string]interface{}, error) {
	if h.Key != nil {
		return map[string]interface{}{"jwk": h.Key}, nil
	}
	if h.KeyID != "" {
		return map[string]interface{}{"kid": h.KeyID}, nil
	}
	return nil, ErrMissingHolderKey
}

// IssuerKeyID returns the kid to put in the header of a credential issued by issuerID.
// When the issuer is a DID and the key ID is not a DID URL, the key ID is made relative to the DID.
func IssuerKeyID(issuerID string, keyID string) string {
	if _, err := did.ParseDID(issuerID); err != nil || keyID == "" {
		return keyID
	}
	if _, err := did.ParseDIDURL(keyID); err == nil {
		return keyID
	}
	return issuerID + "#" + strings.TrimPrefix(keyID, "#")
}
