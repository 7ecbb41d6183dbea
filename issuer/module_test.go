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
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/nuts-foundation/nuts-issuer/core"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/nuts-foundation/nuts-issuer/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testLoginURL = "https://login.example.com/login"
const testCallbackURL = "https://backend.example.com/sessions/$id/events"

type issuerTestContext struct {
	issuer      *Issuer
	keyResolver *nutsCrypto.MockKeyResolver
	issuerKey   nutsCrypto.SigningKey
	holderKey   *ecdsa.PrivateKey
	sender      *recordingSender
}

func testCredentialConfigurations() []CredentialConfigurationConfig {
	configurations := testConfigurations()
	var result []CredentialConfigurationConfig
	for id, configuration := range configurations {
		result = append(result, CredentialConfigurationConfig{ID: id, CredentialConfiguration: configuration})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

func newIssuerTestContext(t *testing.T) issuerTestContext {
	ctrl := gomock.NewController(t)
	issuerKey, err := nutsCrypto.GenerateKey()
	require.NoError(t, err)
	holderKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ctx := issuerTestContext{
		keyResolver: nutsCrypto.NewMockKeyResolver(ctrl),
		issuerKey:   issuerKey,
		holderKey:   holderKey,
		sender:      &recordingSender{},
	}
	ctx.keyResolver.EXPECT().Resolve(gomock.Any(), testIssuerKeyReference).Return(issuerKey, nil).AnyTimes()
	ctx.issuer = NewIssuer(ctx.keyResolver, storage.NewTestStorageEngine(t), nil)
	ctx.issuer.config.BaseURL = testIssuerURL
	ctx.issuer.config.Authentication.URL = testLoginURL
	ctx.issuer.config.CredentialConfigurations = testCredentialConfigurations()
	require.NoError(t, ctx.issuer.Configure(core.ServerConfig{}))
	ctx.issuer.callbacks.sender = ctx.sender
	t.Cleanup(func() {
		_ = ctx.issuer.Shutdown()
	})
	return ctx
}

func badgeRequest(method AuthenticationMethod) IssuanceRequest {
	return IssuanceRequest{
		IssuerKey:                 testIssuerKeyReference,
		IssuerDID:                 testIssuerDID,
		CredentialConfigurationID: "OpenBadgeCredential_jwt_vc_json",
		CredentialData: map[string]interface{}{
			"credentialSubject": map[string]interface{}{"achievement": "Go"},
		},
		AuthenticationMethod: method,
	}
}

func identityRequest(method AuthenticationMethod) IssuanceRequest {
	return IssuanceRequest{
		IssuerKey:                 testIssuerKeyReference,
		IssuerDID:                 testIssuerDID,
		CredentialConfigurationID: "Identity_sd_jwt",
		CredentialData:            map[string]interface{}{"given_name": "Jane"},
		AuthenticationMethod:      method,
	}
}

func (c issuerTestContext) offer(t *testing.T, requests ...IssuanceRequest) *Offer {
	offer, err := c.issuer.CreateOffer(context.Background(), requests, OfferOptions{CallbackURL: testCallbackURL})
	require.NoError(t, err)
	return offer
}

// preAuthorizedToken creates a pre-authorized offer for the requests and exchanges its code.
func (c issuerTestContext) preAuthorizedToken(t *testing.T, requests ...IssuanceRequest) (*Offer, *openid4vci.TokenResponse) {
	offer := c.offer(t, requests...)
	response, err := c.issuer.Token(context.Background(), openid4vci.TokenRequest{
		GrantType:         openid4vci.PreAuthorizedCodeGrant,
		PreAuthorizedCode: offer.CredentialOffer.Grants.PreAuthorizedCode.PreAuthorizedCode,
		TxCode:            requests[0].TxCodeValue,
	}, ClientBinding{})
	require.NoError(t, err)
	return offer, response
}

func (c issuerTestContext) proof(t *testing.T, nonce string) *openid4vci.Proof {
	return &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: jwtProofWithJWK(t, c.holderKey, nonce)}
}

func (c issuerTestContext) session(t *testing.T, id string) IssuanceSession {
	session, err := c.issuer.sessions.Get(id)
	require.NoError(t, err)
	return *session
}

func TestIssuer_Configure(t *testing.T) {
	newIssuer := func(t *testing.T) (*Issuer, *nutsCrypto.MockKeyResolver) {
		keyResolver := nutsCrypto.NewMockKeyResolver(gomock.NewController(t))
		result := NewIssuer(keyResolver, storage.NewTestStorageEngine(t), nil)
		result.config.BaseURL = testIssuerURL + "/"
		result.config.CredentialConfigurations = testCredentialConfigurations()
		return result, keyResolver
	}
	t.Run("ok", func(t *testing.T) {
		instance, _ := newIssuer(t)

		err := instance.Configure(core.ServerConfig{})

		require.NoError(t, err)
		assert.Equal(t, testIssuerURL, instance.baseURL)
		assert.Len(t, instance.configurations, 3)
		assert.NotNil(t, instance.tokens)
	})
	t.Run("token key from key resolver", func(t *testing.T) {
		instance, keyResolver := newIssuer(t)
		instance.config.TokenKey = "token-key"
		tokenKey, _ := nutsCrypto.GenerateKey()
		keyResolver.EXPECT().Resolve(gomock.Any(), "token-key").Return(tokenKey, nil)

		err := instance.Configure(core.ServerConfig{})

		require.NoError(t, err)
		key, err := instance.tokens.PublicKey()
		require.NoError(t, err)
		assert.Equal(t, tokenKey.KID(), key.KeyID())
	})
	t.Run("token key can't be resolved", func(t *testing.T) {
		instance, keyResolver := newIssuer(t)
		instance.config.TokenKey = "token-key"
		keyResolver.EXPECT().Resolve(gomock.Any(), "token-key").Return(nil, nutsCrypto.ErrKeyNotFound)

		err := instance.Configure(core.ServerConfig{})

		assert.ErrorIs(t, err, nutsCrypto.ErrKeyNotFound)
	})
	t.Run("strictmode requires token key", func(t *testing.T) {
		instance, _ := newIssuer(t)

		err := instance.Configure(core.ServerConfig{Strictmode: true})

		assert.EqualError(t, err, "in strictmode issuer.tokenkey must be set")
	})
	t.Run("strictmode requires https", func(t *testing.T) {
		instance, _ := newIssuer(t)
		instance.config.BaseURL = "http://issuer.example.com"

		err := instance.Configure(core.ServerConfig{Strictmode: true})

		assert.EqualError(t, err, "invalid issuer.baseurl: scheme must be https")
	})
	t.Run("callback trust store can't be read", func(t *testing.T) {
		instance, _ := newIssuer(t)
		instance.config.Callback.TrustStoreFile = "missing.pem"

		err := instance.Configure(core.ServerConfig{})

		assert.ErrorContains(t, err, "issuer.callback.truststorefile: unable to read trust store")
	})
	t.Run("missing base URL", func(t *testing.T) {
		instance, _ := newIssuer(t)
		instance.config.BaseURL = ""

		err := instance.Configure(core.ServerConfig{})

		assert.EqualError(t, err, "issuer.baseurl must be set")
	})
	t.Run("invalid credential configuration", func(t *testing.T) {
		instance, _ := newIssuer(t)
		instance.config.CredentialConfigurations = append(instance.config.CredentialConfigurations, CredentialConfigurationConfig{
			ID:                      "mDL",
			CredentialConfiguration: openid4vci.CredentialConfiguration{Format: openid4vci.MsoMdocFormat, DocType: "x"},
		})

		err := instance.Configure(core.ServerConfig{})

		assert.EqualError(t, err, "issuer.credentialconfigurations[3]: duplicate id mDL")
	})
}

func TestConfig_credentialConfigurations(t *testing.T) {
	testCases := []struct {
		name          string
		configuration CredentialConfigurationConfig
		expected      string
	}{
		{"missing id", CredentialConfigurationConfig{CredentialConfiguration: openid4vci.CredentialConfiguration{Format: openid4vci.JWTVCJSONFormat}}, "issuer.credentialconfigurations[0]: missing id"},
		{"missing vct", CredentialConfigurationConfig{ID: "a", CredentialConfiguration: openid4vci.CredentialConfiguration{Format: openid4vci.DCSDJWTFormat}}, "issuer.credentialconfigurations[0]: missing vct"},
		{"missing doctype", CredentialConfigurationConfig{ID: "a", CredentialConfiguration: openid4vci.CredentialConfiguration{Format: openid4vci.MsoMdocFormat}}, "issuer.credentialconfigurations[0]: missing doctype"},
		{"unsupported format", CredentialConfigurationConfig{ID: "a", CredentialConfiguration: openid4vci.CredentialConfiguration{Format: "ldp_vc"}}, `issuer.credentialconfigurations[0]: unsupported format "ldp_vc"`},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			config := DefaultConfig()
			config.CredentialConfigurations = []CredentialConfigurationConfig{testCase.configuration}

			_, err := config.credentialConfigurations()

			assert.EqualError(t, err, testCase.expected)
		})
	}
	t.Run("legacy jwt_vc format", func(t *testing.T) {
		config := DefaultConfig()
		config.CredentialConfigurations = []CredentialConfigurationConfig{
			{ID: "a", CredentialConfiguration: openid4vci.CredentialConfiguration{Format: openid4vci.JWTVCFormat}},
		}

		result, err := config.credentialConfigurations()

		require.NoError(t, err)
		assert.Contains(t, result, "a")
	})
}

func TestIssuer_sessionExpired(t *testing.T) {
	ctx := newIssuerTestContext(t)
	offer := ctx.offer(t, badgeRequest(""))
	store := ctx.issuer.sessions.(*sessionStore)
	store.now = func() time.Time {
		return time.Now().Add(time.Hour)
	}

	_, err := ctx.issuer.SessionStatus(context.Background(), offer.SessionID)

	assert.True(t, errors.Is(err, ErrSessionNotFound))
	ctx.issuer.callbacks.wait()
	require.Equal(t, []CallbackType{CallbackIssuanceExpired}, ctx.sender.types())
	assert.Equal(t, StatusExpired, ctx.sender.callbacks[0].Data["status"])
}

func TestIssuer_Diagnostics(t *testing.T) {
	ctx := newIssuerTestContext(t)

	results := core.DiagnosticResultMap(ctx.issuer.Diagnostics())

	assert.Equal(t, testIssuerURL, results["base_url"])
	assert.Equal(t, []string{"Identity_sd_jwt", "OpenBadgeCredential_jwt_vc_json", "mDL"}, results["credential_configurations"])
	assert.Equal(t, true, results["external_authentication"])
}
