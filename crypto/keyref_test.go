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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyReference(t *testing.T) {
	t.Run("jwk", func(t *testing.T) {
		ref, err := ParseKeyReference(`{"type":"jwk","jwk":{"kty":"EC"}}`)

		require.NoError(t, err)
		assert.Equal(t, KeyTypeJWK, ref.Type)
		assert.JSONEq(t, `{"kty":"EC"}`, string(ref.JWK))
	})
	t.Run("bare jwk", func(t *testing.T) {
		ref, err := ParseKeyReference(`{"kty":"EC","crv":"P-256"}`)

		require.NoError(t, err)
		assert.Equal(t, KeyTypeJWK, ref.Type)
	})
	t.Run("azure", func(t *testing.T) {
		ref, err := ParseKeyReference(`{"type":"azure-keyvault","keyName":"issuer","keyVersion":"1"}`)

		require.NoError(t, err)
		assert.Equal(t, "issuer", ref.KeyName)
		assert.Equal(t, "1", ref.KeyVersion)
	})
	t.Run("errors", func(t *testing.T) {
		for name, input := range map[string]string{
			"empty":            "",
			"not JSON":         "issuer-key",
			"missing type":     `{"keyName":"issuer"}`,
			"unknown type":     `{"type":"pkcs11","keyName":"issuer"}`,
			"missing jwk":      `{"type":"jwk"}`,
			"missing key name": `{"type":"vault-transit"}`,
			"external no name": `{"type":"external"}`,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ParseKeyReference(input)

				assert.ErrorIs(t, err, ErrInvalidKeyReference)
			})
		}
	})
}

func TestCrypto_Resolve(t *testing.T) {
	ctx := context.Background()
	instance := NewCryptoInstance()

	t.Run("jwk round trip", func(t *testing.T) {
		key, _ := GenerateKey()
		ref, err := JWKKeyReference(key)
		require.NoError(t, err)

		resolved, err := instance.Resolve(ctx, ref)

		require.NoError(t, err)
		assert.Equal(t, key.KID(), resolved.KID())
		assert.Equal(t, key.Public(), resolved.Public())
		_, isLocal := resolved.PrivateKey()
		assert.True(t, isLocal)
	})
	t.Run("jwk without private key", func(t *testing.T) {
		_, err := instance.Resolve(ctx, `{"type":"jwk","jwk":{"kty":"EC","crv":"P-256","x":"MKBCTNIcKUSDii11ySs3526iDZ8AiTo7Tu6KPAqv7D4","y":"4Etl6SRW2YiLUrN5vfvVHuhp7x8PxltmWWlbbM4IFyM"}}`)

		assert.ErrorIs(t, err, ErrInvalidKeyReference)
	})
	t.Run("backend not configured", func(t *testing.T) {
		for _, ref := range []string{
			`{"type":"azure-keyvault","keyName":"issuer"}`,
			`{"type":"vault-transit","keyName":"issuer"}`,
			`{"type":"external","keyName":"issuer"}`,
		} {
			_, err := instance.Resolve(ctx, ref)

			assert.ErrorIs(t, err, ErrInvalidKeyReference)
		}
	})
}
