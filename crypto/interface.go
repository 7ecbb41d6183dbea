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
	"context"
	"crypto"
	"errors"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

// ErrKeyNotFound is returned when a referenced key does not exist in its backend.
var ErrKeyNotFound = errors.New("key not found")

// ErrUnsupportedKeyType is returned when a key is not an EC, RSA or Ed25519 key, or uses an unsupported curve.
var ErrUnsupportedKeyType = errors.New("unsupported key type")

// ErrInvalidKeyReference is returned when a serialized key reference can't be decoded.
var ErrInvalidKeyReference = errors.New("invalid key reference")

// SigningKey is a key that can sign, regardless of where the private key material lives.
// Sign follows the crypto.Signer contract: ECDSA signatures are ASN.1 DER encoded, the digest is computed by the caller.
type SigningKey interface {
	crypto.Signer
	// KID returns the key ID, used in JWS and COSE headers.
	KID() string
	// Algorithm returns the signature algorithm used with this key.
	Algorithm() jwa.SignatureAlgorithm
	// PrivateKey returns the private key when it is available locally.
	// Keys held by a remote backend (HSM, cloud KMS, transit engine) return false.
	PrivateKey() (crypto.PrivateKey, bool)
}

// KeyResolver resolves a serialized key reference into a SigningKey.
type KeyResolver interface {
	// Resolve decodes the key reference and returns a SigningKey backed by the referenced backend.
	// It returns ErrInvalidKeyReference when the reference can't be decoded and ErrKeyNotFound when the backend does not know the key.
	Resolve(ctx context.Context, keyReference string) (SigningKey, error)
}
