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

package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Key reference types, the discriminant of a serialized key reference.
const (
	// KeyTypeJWK is a private key held in the key reference itself, as JWK.
	KeyTypeJWK = "jwk"
	// KeyTypeAzureKeyVault is a key held in Azure Key Vault (software or HSM protected).
	KeyTypeAzureKeyVault = "azure-keyvault"
	// KeyTypeVaultTransit is a key held by the Hashicorp Vault transit secrets engine.
	KeyTypeVaultTransit = "vault-transit"
	// KeyTypeExternal is a key held by an external signing service (e.g. an HSM proxy).
	KeyTypeExternal = "external"
)

// KeyReference is the decoded form of a serialized issuer key reference, e.g.:
//
//	{"type":"jwk","jwk":{"kty":"EC","crv":"P-256","d":"...","x":"...","y":"..."}}
//	{"type":"azure-keyvault","keyName":"issuer-key","keyVersion":"b86c2e6a"}
//	{"type":"vault-transit","keyName":"issuer-key"}
//	{"type":"external","keyName":"issuer-key"}
type KeyReference struct {
	Type string `json:"type"`
	// JWK holds the private key for KeyTypeJWK.
	JWK json.RawMessage `json:"jwk,omitempty"`
	// KeyName identifies the key in a remote backend.
	KeyName string `json:"keyName,omitempty"`
	// KeyVersion optionally pins a version of the remote key, the latest is used when empty.
	KeyVersion string `json:"keyVersion,omitempty"`
	// KID overrides the key ID used in JWS/COSE headers.
	KID string `json:"kid,omitempty"`
}

// ParseKeyReference decodes a serialized key reference. A bare JWK (an object with "kty") is accepted as a jwk reference.
func ParseKeyReference(input string) (*KeyReference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKeyReference)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, errors.Join(ErrInvalidKeyReference, err)
	}
	if _, isJWK := fields["kty"]; isJWK {
		return &KeyReference{Type: KeyTypeJWK, JWK: json.RawMessage(trimmed)}, nil
	}
	var result KeyReference
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, errors.Join(ErrInvalidKeyReference, err)
	}
	if err := result.validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r KeyReference) validate() error {
	switch r.Type {
	case KeyTypeJWK:
		if len(r.JWK) == 0 {
			return fmt.Errorf("%w: missing jwk", ErrInvalidKeyReference)
		}
	case KeyTypeAzureKeyVault, KeyTypeVaultTransit, KeyTypeExternal:
		if r.KeyName == "" {
			return fmt.Errorf("%w: missing keyName for %s key", ErrInvalidKeyReference, r.Type)
		}
	case "":
		return fmt.Errorf("%w: missing type", ErrInvalidKeyReference)
	default:
		return fmt.Errorf("%w: unknown type '%s'", ErrInvalidKeyReference, r.Type)
	}
	return nil
}

// String returns the serialized form of the key reference.
func (r KeyReference) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}
