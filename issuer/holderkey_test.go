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
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multicodec"
	"github.com/nuts-foundation/nuts-issuer/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func didJWK(t *testing.T, key interface{}) string {
	publicJWK, err := jwk.FromRaw(key)
	require.NoError(t, err)
	data, err := json.Marshal(publicJWK)
	require.NoError(t, err)
	return "did:jwk:" + base64.RawURLEncoding.EncodeToString(data)
}

func didKey(code multicodec.Code, key []byte) string {
	data := binary.AppendUvarint(nil, uint64(code))
	return "did:key:z" + base58.Encode(append(data, key...))
}

type staticHolderKeyResolver struct {
	holder *credential.Holder
}

func (s staticHolderKeyResolver) ResolveHolderKey(_ context.Context, _ string) (*credential.Holder, error) {
	return s.holder, nil
}

func TestDIDKeyResolver_ResolveHolderKey(t *testing.T) {
	ctx := context.Background()
	ecKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	t.Run("did:jwk", func(t *testing.T) {
		id := didJWK(t, ecKey.Public())

		holder, err := DIDKeyResolver{}.ResolveHolderKey(ctx, id+"#0")

		require.NoError(t, err)
		assert.Equal(t, id, holder.DID)
		assert.Equal(t, id+"#0", holder.KeyID)
		var raw ecdsa.PublicKey
		require.NoError(t, holder.Key.Raw(&raw))
		assert.True(t, ecKey.PublicKey.Equal(&raw))
	})
	t.Run("did:jwk with private key", func(t *testing.T) {
		id := didJWK(t, ecKey)

		_, err := DIDKeyResolver{}.ResolveHolderKey(ctx, id+"#0")

		assert.EqualError(t, err, "invalid did:jwk: private keys are forbidden")
	})
	t.Run("did:key P-256", func(t *testing.T) {
		id := didKey(multicodec.P256Pub, elliptic.MarshalCompressed(elliptic.P256(), ecKey.X, ecKey.Y))

		holder, err := DIDKeyResolver{}.ResolveHolderKey(ctx, id+"#"+id[8:])

		require.NoError(t, err)
		assert.Equal(t, id, holder.DID)
		var raw ecdsa.PublicKey
		require.NoError(t, holder.Key.Raw(&raw))
		assert.True(t, ecKey.PublicKey.Equal(&raw))
	})
	t.Run("did:key Ed25519", func(t *testing.T) {
		publicKey, _, _ := ed25519.GenerateKey(rand.Reader)
		id := didKey(multicodec.Ed25519Pub, publicKey)

		holder, err := DIDKeyResolver{}.ResolveHolderKey(ctx, id+"#"+id[8:])

		require.NoError(t, err)
		var raw ed25519.PublicKey
		require.NoError(t, holder.Key.Raw(&raw))
		assert.Equal(t, publicKey, raw)
	})
	t.Run("did:key with invalid key length", func(t *testing.T) {
		id := didKey(multicodec.Ed25519Pub, []byte{1, 2, 3})

		_, err := DIDKeyResolver{}.ResolveHolderKey(ctx, id+"#0")

		assert.ErrorIs(t, err, errInvalidPublicKeyLength)
	})
	t.Run("did:key with unsupported key type", func(t *testing.T) {
		id := didKey(multicodec.Secp256k1Pub, make([]byte, 33))

		_, err := DIDKeyResolver{}.ResolveHolderKey(ctx, id+"#0")

		assert.ErrorContains(t, err, "did:key: unsupported public key type")
	})
	t.Run("unsupported method", func(t *testing.T) {
		_, err := DIDKeyResolver{}.ResolveHolderKey(ctx, "did:web:example.com#key-1")

		assert.ErrorIs(t, err, ErrUnsupportedDIDMethod)
	})
	t.Run("unsupported method, resolved by next", func(t *testing.T) {
		expected := &credential.Holder{DID: "did:web:example.com", KeyID: "did:web:example.com#key-1"}
		resolver := DIDKeyResolver{Next: staticHolderKeyResolver{holder: expected}}

		holder, err := resolver.ResolveHolderKey(ctx, "did:web:example.com#key-1")

		require.NoError(t, err)
		assert.Same(t, expected, holder)
	})
	t.Run("not a DID URL", func(t *testing.T) {
		_, err := DIDKeyResolver{}.ResolveHolderKey(ctx, "key-1")

		assert.ErrorContains(t, err, "kid is not a DID URL")
	})
}
