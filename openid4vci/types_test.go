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

package openid4vci

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRequest_GetProof(t *testing.T) {
	t.Run("proof", func(t *testing.T) {
		request := CredentialRequest{Proof: &Proof{ProofType: ProofTypeJWT, JWT: "a"}, Proofs: &Proofs{JWT: []string{"b"}}}

		assert.Equal(t, "a", request.GetProof().JWT)
	})
	t.Run("proofs.jwt", func(t *testing.T) {
		request := CredentialRequest{Proofs: &Proofs{JWT: []string{"b", "c"}}}

		assert.Equal(t, &Proof{ProofType: ProofTypeJWT, JWT: "b"}, request.GetProof())
	})
	t.Run("proofs.cwt", func(t *testing.T) {
		request := CredentialRequest{Proofs: &Proofs{CWT: []string{"d"}}}

		assert.Equal(t, &Proof{ProofType: ProofTypeCWT, CWT: "d"}, request.GetProof())
	})
	t.Run("none", func(t *testing.T) {
		assert.Nil(t, CredentialRequest{}.GetProof())
		assert.Nil(t, CredentialRequest{Proofs: &Proofs{}}.GetProof())
	})
}

func TestCredentialRequest_CredentialTypes(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, CredentialRequest{CredentialDefinition: &CredentialDefinition{Type: []string{"A", "B"}}, Types: []string{"C"}}.CredentialTypes())
	assert.Equal(t, []string{"C"}, CredentialRequest{Types: []string{"C"}}.CredentialTypes())
	assert.Empty(t, CredentialRequest{}.CredentialTypes())
}

func TestCredentialResponse_JSON(t *testing.T) {
	response := CredentialResponse{
		Format:           MsoMdocFormat,
		Credential:       "abc",
		CustomParameters: map[string]interface{}{"credential_encoding": "issuer-signed", "format": "ignored"},
	}

	data, err := json.Marshal(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"format":"mso_mdoc","credential":"abc","credential_encoding":"issuer-signed"}`, string(data))

	var parsed CredentialResponse
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "abc", parsed.Credential)
	assert.Equal(t, map[string]interface{}{"credential_encoding": "issuer-signed"}, parsed.CustomParameters)
}

func TestTokenResponse_JSON(t *testing.T) {
	expiresIn := 300
	response := (&TokenResponse{AccessToken: "token", TokenType: TokenTypeBearer, ExpiresIn: &expiresIn}).With("c_nonce", "nonce")

	data, err := json.Marshal(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"token","token_type":"Bearer","expires_in":300,"c_nonce":"nonce"}`, string(data))

	var parsed TokenResponse
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "nonce", parsed.Get("c_nonce"))
	assert.Equal(t, "", parsed.Get("other"))
}

func TestParseTokenRequest(t *testing.T) {
	t.Run("tx_code", func(t *testing.T) {
		request := ParseTokenRequest(url.Values{"grant_type": {PreAuthorizedCodeGrant}, "pre-authorized_code": {"code"}, "tx_code": {"1234"}})

		assert.Equal(t, PreAuthorizedCodeGrant, request.GrantType)
		assert.Equal(t, "code", request.PreAuthorizedCode)
		assert.Equal(t, "1234", request.TxCode)
	})
	t.Run("legacy user_pin", func(t *testing.T) {
		request := ParseTokenRequest(url.Values{"user_pin": {"4321"}})

		assert.Equal(t, "4321", request.TxCode)
	})
}

func TestParseAuthorizationRequest(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		params := url.Values{
			"response_type":         {"code"},
			"client_id":             {"wallet"},
			"redirect_uri":          {"https://wallet.example.com/cb"},
			"scope":                 {"openid  UniversityDegree"},
			"authorization_details": {`[{"type":"openid_credential","credential_configuration_id":"UniversityDegree_jwt_vc_json"}]`},
		}

		request, err := ParseAuthorizationRequest(params)

		require.NoError(t, err)
		assert.Equal(t, []string{"openid", "UniversityDegree"}, request.Scope)
		assert.True(t, request.HasScope("UniversityDegree"))
		require.Len(t, request.AuthorizationDetails, 1)
		assert.Equal(t, "UniversityDegree_jwt_vc_json", request.AuthorizationDetails[0].CredentialConfigurationID)
	})
	t.Run("invalid authorization_details", func(t *testing.T) {
		_, err := ParseAuthorizationRequest(url.Values{"authorization_details": {"{"}})

		assert.ErrorContains(t, err, "invalid authorization_details")
	})
	t.Run("invalid redirect_uri", func(t *testing.T) {
		_, err := ParseAuthorizationRequest(url.Values{"redirect_uri": {"not a url"}})

		assert.ErrorContains(t, err, "invalid redirect_uri")
	})
}

func TestCredentialOfferURI(t *testing.T) {
	assert.Equal(t, "openid-credential-offer://?credential_offer_uri=https%3A%2F%2Fissuer.example.com%2Fopenid4vci%2FcredentialOffer%3Fid%3D1",
		CredentialOfferURI("https://issuer.example.com/openid4vci/credentialOffer?id=1"))
}

func TestRedirectWithParams(t *testing.T) {
	result, err := RedirectWithParams("https://wallet.example.com/cb?a=b", map[string]string{"code": "123", "state": ""})

	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example.com/cb?a=b&code=123", result)
}

func TestCredentialOffer_JSON(t *testing.T) {
	offer := CredentialOffer{
		CredentialIssuer:           "https://issuer.example.com",
		CredentialConfigurationIDs: []string{"OpenBadgeCredential_jwt_vc_json"},
		Grants: Grants{PreAuthorizedCode: &PreAuthorizedCodeGrantParams{
			PreAuthorizedCode: "code",
			TxCode:            &TxCode{InputMode: "numeric", Length: 4},
		}},
	}

	data, err := json.Marshal(offer)

	require.NoError(t, err)
	assert.JSONEq(t, `{
		"credential_issuer":"https://issuer.example.com",
		"credential_configuration_ids":["OpenBadgeCredential_jwt_vc_json"],
		"grants":{"urn:ietf:params:oauth:grant-type:pre-authorized_code":{"pre-authorized_code":"code","tx_code":{"input_mode":"numeric","length":4}}}
	}`, string(data))
}
