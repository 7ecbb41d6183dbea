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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"testing"

	vault "github.com/hashicorp/vault/api"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func vaultKeySecret(t *testing.T, privateKey *ecdsa.PrivateKey) *vault.Secret {
	der, err := x509.MarshalPKIXPublicKey(privateKey.Public())
	require.NoError(t, err)
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return &vault.Secret{Data: map[string]interface{}{
		"latest_version": 2,
		"keys": map[string]interface{}{
			"2": map[string]interface{}{"public_key": string(publicKeyPEM)},
		},
	}}
}

func TestVault_Resolve(t *testing.T) {
	ctx := context.Background()
	privateKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	ref := KeyReference{Type: KeyTypeVaultTransit, KeyName: "issuer", KID: "did:web:example.com#issuer"}

	t.Run("ok", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "transit/keys/issuer").Return(vaultKeySecret(t, privateKey), nil)

		key, err := resolveVaultKey(ctx, client, "transit", ref)

		require.NoError(t, err)
		assert.Equal(t, "did:web:example.com#issuer", key.KID())
		assert.Equal(t, jwa.ES256, key.Algorithm())
		assert.True(t, privateKey.PublicKey.Equal(key.Public()))
	})
	t.Run("sign", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "transit/keys/issuer").Return(vaultKeySecret(t, privateKey), nil)
		client.EXPECT().WriteWithContext(gomock.Any(), "transit/sign/issuer", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, data map[string]interface{}) (*vault.Secret, error) {
				assert.Equal(t, true, data["prehashed"])
				assert.Equal(t, "sha2-256", data["hash_algorithm"])
				assert.Equal(t, int64(2), data["key_version"])
				digest, err := base64.StdEncoding.DecodeString(data["input"].(string))
				require.NoError(t, err)
				signature, err := privateKey.Sign(rand.Reader, digest, nil)
				require.NoError(t, err)
				return &vault.Secret{Data: map[string]interface{}{"signature": "vault:v2:" + base64.StdEncoding.EncodeToString(signature)}}, nil
			})
		key, err := resolveVaultKey(ctx, client, "transit", ref)
		require.NoError(t, err)

		signature, err := SignBytes(key, []byte("hello"))

		require.NoError(t, err)
		assert.NoError(t, VerifyBytes(key.Public(), key.Algorithm(), []byte("hello"), signature))
	})
	t.Run("invalid signature format", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "transit/keys/issuer").Return(vaultKeySecret(t, privateKey), nil)
		client.EXPECT().WriteWithContext(gomock.Any(), "transit/sign/issuer", gomock.Any()).Return(&vault.Secret{Data: map[string]interface{}{"signature": "abc"}}, nil)
		key, err := resolveVaultKey(ctx, client, "transit", ref)
		require.NoError(t, err)

		_, err = SignBytes(key, []byte("hello"))

		assert.EqualError(t, err, "invalid signature format returned by Vault")
	})
	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "transit/keys/issuer").Return(nil, nil)

		_, err := resolveVaultKey(ctx, client, "transit", ref)

		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
	t.Run("unknown version", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "transit/keys/issuer").Return(vaultKeySecret(t, privateKey), nil)
		versioned := ref
		versioned.KeyVersion = "5"

		_, err := resolveVaultKey(ctx, client, "transit", versioned)

		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestVault_checkConnection(t *testing.T) {
	ctx := context.Background()
	t.Run("ok", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "auth/token/lookup-self").Return(&vault.Secret{Data: map[string]interface{}{"policies": []string{"default"}}}, nil)

		assert.NoError(t, checkVaultConnection(ctx, client))
	})
	t.Run("error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "auth/token/lookup-self").Return(nil, errors.New("403"))

		assert.EqualError(t, checkVaultConnection(ctx, client), "unable to connect to Vault: unable to retrieve token status: 403")
	})
	t.Run("empty token data", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := NewMocklogicaler(ctrl)
		client.EXPECT().ReadWithContext(ctx, "auth/token/lookup-self").Return(&vault.Secret{}, nil)

		assert.EqualError(t, checkVaultConnection(ctx, client), "could not read token information on auth/token/lookup-self")
	})
}
