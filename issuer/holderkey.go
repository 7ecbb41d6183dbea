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

package issuer

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multicodec"
	"github.com/nuts-foundation/go-did/did"
	"github.com/nuts-foundation/nuts-issuer/credential"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

// ErrUnsupportedDIDMethod is returned when the kid of a proof refers to a DID method that can't be resolved.
var ErrUnsupportedDIDMethod = errors.New("unsupported DID method")

var errInvalidPublicKeyLength = errors.New("invalid did:key: invalid public key length")

// HolderKeyResolver resolves the kid of a proof of possession to the key of the holder.
type HolderKeyResolver interface {
	// ResolveHolderKey returns the holder identified by the kid, with its public key set.
	ResolveHolderKey(ctx context.Context, kid string) (*credential.Holder, error)
}

var _ HolderKeyResolver = (*DIDKeyResolver)(nil)

// DIDKeyResolver resolves did:jwk and did:key URLs to the key they embed.
// Other DID methods are resolved by Next, when set.
type DIDKeyResolver struct {
	Next HolderKeyResolver
}

func (r DIDKeyResolver) ResolveHolderKey(ctx context.Context, kid string) (*credential.Holder, error) {
	keyID, err := did.ParseDIDURL(kid)
	if err != nil {
		return nil, fmt.Errorf("kid is not a DID URL: %w", err)
	}
	var publicKey crypto.PublicKey
	switch keyID.DID.Method {
	case "jwk":
		publicKey, err = parseDIDJWK(keyID.DID.ID)
	case "key":
		publicKey, err = parseDIDKey(keyID.DID.ID)
	default:
		if r.Next != nil {
			return r.Next.ResolveHolderKey(ctx, kid)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDIDMethod, keyID.DID.Method)
	}
	if err != nil {
		return nil, err
	}
	key, err := jwk.FromRaw(publicKey)
	if err != nil {
		return nil, err
	}
	_ = key.Set(jwk.KeyIDKey, kid)
	return &credential.Holder{
		DID:   keyID.DID.String(),
		KeyID: kid,
		Key:   key,
	}, nil
}

// parseDIDJWK decodes the method specific ID of a did:jwk, rejecting JWKs that contain a private key.
func parseDIDJWK(id string) (crypto.PublicKey, error) {
	encoded := strings.TrimRight(id, "=")
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return nil, fmt.Errorf("invalid did:jwk: %w", err)
		}
	}
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, fmt.Errorf("invalid did:jwk: %w", err)
	}
	if nutsCrypto.IsPrivateJWK(key) {
		return nil, errors.New("invalid did:jwk: private keys are forbidden")
	}
	var result interface{}
	if err := key.Raw(&result); err != nil {
		return nil, fmt.Errorf("invalid did:jwk: %w", err)
	}
	return result, nil
}

// parseDIDKey decodes the multibase (base58btc) multicodec public key of a did:key.
func parseDIDKey(id string) (crypto.PublicKey, error) {
	if len(id) == 0 || id[0] != 'z' {
		return nil, errors.New("did:key does not start with 'z'")
	}
	data, err := base58.Decode(id[1:])
	if err != nil {
		return nil, fmt.Errorf("did:key: invalid base58btc: %w", err)
	}
	reader := bytes.NewReader(data)
	keyType, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, fmt.Errorf("did:key: invalid multicodec value: %w", err)
	}
	keyBytes, _ := io.ReadAll(reader)
	switch multicodec.Code(keyType) {
	case multicodec.Ed25519Pub:
		if len(keyBytes) != ed25519.PublicKeySize {
			return nil, errInvalidPublicKeyLength
		}
		return ed25519.PublicKey(keyBytes), nil
	case multicodec.P256Pub:
		return unmarshalCompressedEC(elliptic.P256(), 33, keyBytes)
	case multicodec.P384Pub:
		return unmarshalCompressedEC(elliptic.P384(), 49, keyBytes)
	case multicodec.P521Pub:
		return unmarshalCompressedEC(elliptic.P521(), -1, keyBytes)
	case multicodec.RsaPub:
		key, err := x509.ParsePKCS1PublicKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("did:key: invalid PKCS#1 encoded RSA public key: %w", err)
		}
		return key, nil
	}
	return nil, fmt.Errorf("did:key: unsupported public key type: 0x%x", keyType)
}

func unmarshalCompressedEC(curve elliptic.Curve, expectedLength int, data []byte) (*ecdsa.PublicKey, error) {
	if expectedLength != -1 && len(data) != expectedLength {
		return nil, errInvalidPublicKeyLength
	}
	x, y := elliptic.UnmarshalCompressed(curve, data)
	if x == nil {
		return nil, errors.New("did:key: invalid compressed EC point")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
