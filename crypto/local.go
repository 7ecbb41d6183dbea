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
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

var _ SigningKey = (*localKey)(nil)

// localKey is a SigningKey whose private key is held in memory.
type localKey struct {
	signer crypto.Signer
	kid    string
	alg    jwa.SignatureAlgorithm
}

// NewLocalKey wraps an in-memory private key as SigningKey. When kid is empty the JWK thumbprint is used.
func NewLocalKey(privateKey crypto.Signer, kid string) (SigningKey, error) {
	alg, err := SignatureAlgorithm(privateKey.Public())
	if err != nil {
		return nil, err
	}
	if kid == "" {
		publicJWK, err := jwk.FromRaw(privateKey.Public())
		if err != nil {
			return nil, err
		}
		if kid, err = Thumbprint(publicJWK); err != nil {
			return nil, err
		}
	}
	return &localKey{signer: privateKey, kid: kid, alg: alg}, nil
}

// GenerateKey generates a new P-256 key pair held in memory.
func GenerateKey() (SigningKey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewLocalKey(privateKey, "")
}

// localKeyFromJWK creates a SigningKey from a private JWK. The kid and alg of the JWK are honored when set.
func localKeyFromJWK(data []byte, kidOverride string) (SigningKey, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyReference, err)
	}
	if !IsPrivateJWK(key) {
		return nil, fmt.Errorf("%w: jwk does not contain a private key", ErrInvalidKeyReference)
	}
	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, err
	}
	signer, ok := raw.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, raw)
	}
	kid := kidOverride
	if kid == "" {
		kid = key.KeyID()
	}
	result, err := NewLocalKey(signer, kid)
	if err != nil {
		return nil, err
	}
	if alg, ok := key.Algorithm().(jwa.SignatureAlgorithm); ok && alg != "" {
		result.(*localKey).alg = alg
	}
	return result, nil
}

// JWKKeyReference serializes a local key as jwk key reference.
func JWKKeyReference(key SigningKey) (string, error) {
	privateKey, ok := key.PrivateKey()
	if !ok {
		return "", errors.New("key is not held locally")
	}
	privateJWK, err := jwk.FromRaw(privateKey)
	if err != nil {
		return "", err
	}
	_ = privateJWK.Set(jwk.KeyIDKey, key.KID())
	data, err := json.Marshal(privateJWK)
	if err != nil {
		return "", err
	}
	return KeyReference{Type: KeyTypeJWK, JWK: data}.String(), nil
}

func (l localKey) Public() crypto.PublicKey {
	return l.signer.Public()
}

func (l localKey) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return l.signer.Sign(rand, digest, opts)
}

func (l localKey) KID() string {
	return l.kid
}

func (l localKey) Algorithm() jwa.SignatureAlgorithm {
	return l.alg
}

func (l localKey) PrivateKey() (crypto.PrivateKey, bool) {
	return l.signer, true
}
