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
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	key, err := nutsCrypto.GenerateKey()
	require.NoError(t, err)
	return NewTokenService(key, "https://issuer.example.com")
}

func TestTokenService(t *testing.T) {
	t.Run("mint and verify", func(t *testing.T) {
		service := newTestTokenService(t)

		token, err := service.Mint(Token{SessionID: "session", Target: TargetAccess, ID: "jti", Thumbprint: "thumbprint"}, time.Minute)
		require.NoError(t, err)
		result, err := service.Verify(token, TargetAccess)

		require.NoError(t, err)
		assert.Equal(t, "session", result.SessionID)
		assert.Equal(t, TargetAccess, result.Target)
		assert.Equal(t, "jti", result.ID)
		assert.Equal(t, "thumbprint", result.Thumbprint)
		assert.WithinDuration(t, time.Now().Add(time.Minute), result.Expiry, 2*time.Second)
	})
	t.Run("other target", func(t *testing.T) {
		service := newTestTokenService(t)
		token, err := service.Mint(Token{SessionID: "session", Target: TargetToken}, time.Minute)
		require.NoError(t, err)

		_, err = service.Verify(token, TargetAccess)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		service := newTestTokenService(t)
		service.now = func() time.Time {
			return time.Now().Add(-time.Hour)
		}
		token, err := service.Mint(Token{SessionID: "session", Target: TargetAccess}, time.Minute)
		require.NoError(t, err)
		service.now = time.Now

		_, err = service.Verify(token, TargetAccess)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("signed with another key", func(t *testing.T) {
		token, err := newTestTokenService(t).Mint(Token{SessionID: "session", Target: TargetAccess}, time.Minute)
		require.NoError(t, err)

		_, err = newTestTokenService(t).Verify(token, TargetAccess)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("other issuer", func(t *testing.T) {
		service := newTestTokenService(t)
		token, err := service.Mint(Token{SessionID: "session", Target: TargetAccess}, time.Minute)
		require.NoError(t, err)
		other := *service
		other.issuer = "https://other.example.com"

		_, err = other.Verify(token, TargetAccess)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := newTestTokenService(t).Verify("not-a-token", TargetAccess)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("public key", func(t *testing.T) {
		service := newTestTokenService(t)

		key, err := service.PublicKey()

		require.NoError(t, err)
		assert.Equal(t, string(jwk.ForSignature), key.KeyUsage())
		assert.Equal(t, service.key.KID(), key.KeyID())
		assert.False(t, nutsCrypto.IsPrivateJWK(key))
	})
}
