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
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// CredentialOffer defines credentials offered by the issuer to the wallet.
// Specified by https://openid.net/specs/openid-4-verifiable-credential-issuance-1_0.html#name-credential-offer
type CredentialOffer struct {
	// CredentialIssuer defines the identifier of the credential issuer.
	CredentialIssuer string `json:"credential_issuer"`
	// CredentialConfigurationIDs lists the credential configurations (from the issuer metadata) that are offered.
	CredentialConfigurationIDs []string `json:"credential_configuration_ids"`
	// Grants defines the grants that can be used to obtain an access token.
	Grants Grants `json:"grants"`
}

// Grants contains the grants through which an offer can be redeemed.
type Grants struct {
	AuthorizationCode *AuthorizationCodeGrantParams `json:"authorization_code,omitempty"`
	PreAuthorizedCode *PreAuthorizedCodeGrantParams `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code,omitempty"`
}

// AuthorizationCodeGrantParams holds the parameters of the authorization_code grant of an offer.
type AuthorizationCodeGrantParams struct {
	// IssuerState binds the authorization request to the issuance session.
	IssuerState string `json:"issuer_state,omitempty"`
}

// PreAuthorizedCodeGrantParams holds the parameters of the pre-authorized code grant of an offer.
type PreAuthorizedCodeGrantParams struct {
	PreAuthorizedCode string `json:"pre-authorized_code"`
	// TxCode is set when a transaction code must be sent with the token request.
	TxCode *TxCode `json:"tx_code,omitempty"`
}

// TxCode describes the transaction code (PIN) the wallet should ask the user for.
type TxCode struct {
	InputMode   string `json:"input_mode,omitempty"`
	Length      int    `json:"length,omitempty"`
	Description string `json:"description,omitempty"`
}

// CredentialOfferURI returns the openid-credential-offer URI that refers to the offer at the given URL.
func CredentialOfferURI(offerURL string) string {
	return CredentialOfferScheme + "?credential_offer_uri=" + url.QueryEscape(offerURL)
}

// CredentialDefinition defines the type and context of a W3C credential.
type CredentialDefinition struct {
	Context           []string               `json:"@context,omitempty" koanf:"context"`
	Type              []string               `json:"type,omitempty" koanf:"type"`
	CredentialSubject map[string]interface{} `json:"credentialSubject,omitempty" koanf:"credentialsubject"`
}

// Proof is a proof of possession of the holder key. ProofType tells which of the other fields is set.
type Proof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt,omitempty"`
	CWT       string `json:"cwt,omitempty"`
}

// Proofs holds proofs of the newer credential request syntax, one list per proof type.
type Proofs struct {
	JWT []string `json:"jwt,omitempty"`
	CWT []string `json:"cwt,omitempty"`
}

// CredentialRequest defines the credential request sent by the wallet to the issuer.
// Specified by https://openid.net/specs/openid-4-verifiable-credential-issuance-1_0.html#name-credential-request.
type CredentialRequest struct {
	Format                    string                `json:"format,omitempty"`
	CredentialConfigurationID string                `json:"credential_configuration_id,omitempty"`
	CredentialDefinition      *CredentialDefinition `json:"credential_definition,omitempty"`
	// Types is the legacy (draft 11) location of the credential types.
	Types   []string `json:"types,omitempty"`
	VCT     string   `json:"vct,omitempty"`
	DocType string   `json:"doctype,omitempty"`
	Proof   *Proof   `json:"proof,omitempty"`
	Proofs  *Proofs  `json:"proofs,omitempty"`
}

// GetProof returns the proof of the request. When only the newer proofs syntax is used, the first proof is returned.
func (r CredentialRequest) GetProof() *Proof {
	if r.Proof != nil {
		return r.Proof
	}
	if r.Proofs != nil {
		if len(r.Proofs.JWT) > 0 {
			return &Proof{ProofType: ProofTypeJWT, JWT: r.Proofs.JWT[0]}
		}
		if len(r.Proofs.CWT) > 0 {
			return &Proof{ProofType: ProofTypeCWT, CWT: r.Proofs.CWT[0]}
		}
	}
	return nil
}

// CredentialTypes returns the requested W3C credential types, from the credential definition or the legacy types field.
func (r CredentialRequest) CredentialTypes() []string {
	if r.CredentialDefinition != nil && len(r.CredentialDefinition.Type) > 0 {
		return r.CredentialDefinition.Type
	}
	return r.Types
}

// CredentialResponse defines the credential response sent by the issuer to the wallet.
// Specified by https://openid.net/specs/openid-4-verifiable-credential-issuance-1_0.html#name-credential-response.
type CredentialResponse struct {
	Format     string `json:"format,omitempty"`
	Credential string `json:"credential,omitempty"`
	// AcceptanceToken is set instead of Credential when issuance is deferred.
	AcceptanceToken string  `json:"acceptance_token,omitempty"`
	TransactionID   string  `json:"transaction_id,omitempty"`
	CNonce          *string `json:"c_nonce,omitempty"`
	CNonceExpiresIn *int    `json:"c_nonce_expires_in,omitempty"`
	// CustomParameters are added to the top level of the JSON response.
	CustomParameters map[string]interface{} `json:"-"`
}

// MarshalJSON adds the custom parameters to the response.
func (r CredentialResponse) MarshalJSON() ([]byte, error) {
	type Alias CredentialResponse
	data, err := json.Marshal(Alias(r))
	if err != nil || len(r.CustomParameters) == 0 {
		return data, err
	}
	result := make(map[string]interface{})
	for key, value := range r.CustomParameters {
		result[key] = value
	}
	// base parameters take precedence
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// UnmarshalJSON collects unknown top-level parameters into CustomParameters.
func (r *CredentialResponse) UnmarshalJSON(data []byte) error {
	type Alias CredentialResponse
	var result Alias
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	params := map[string]interface{}{}
	_ = json.Unmarshal(data, &params)
	for _, key := range []string{"format", "credential", "acceptance_token", "transaction_id", "c_nonce", "c_nonce_expires_in"} {
		delete(params, key)
	}
	*r = CredentialResponse(result)
	if len(params) > 0 {
		r.CustomParameters = params
	}
	return nil
}

// BatchCredentialRequest requests multiple credentials at once.
type BatchCredentialRequest struct {
	CredentialRequests []CredentialRequest `json:"credential_requests"`
}

// BatchCredentialResponse holds the responses to a BatchCredentialRequest, in the same order.
type BatchCredentialResponse struct {
	CredentialResponses []CredentialResponse `json:"credential_responses"`
	CNonce              *string              `json:"c_nonce,omitempty"`
	CNonceExpiresIn     *int                 `json:"c_nonce_expires_in,omitempty"`
}

// TokenRequest is an OAuth2 token request, as sent to the token endpoint (form encoded).
type TokenRequest struct {
	GrantType         string
	Code              string
	RedirectURI       string
	ClientID          string
	CodeVerifier      string
	PreAuthorizedCode string
	// TxCode is the transaction code, the legacy user_pin parameter is accepted as well.
	TxCode string
}

// ParseTokenRequest reads a TokenRequest from form parameters.
func ParseTokenRequest(params url.Values) TokenRequest {
	result := TokenRequest{
		GrantType:         params.Get("grant_type"),
		Code:              params.Get("code"),
		RedirectURI:       params.Get("redirect_uri"),
		ClientID:          params.Get("client_id"),
		CodeVerifier:      params.Get("code_verifier"),
		PreAuthorizedCode: params.Get("pre-authorized_code"),
		TxCode:            params.Get("tx_code"),
	}
	if result.TxCode == "" {
		result.TxCode = params.Get("user_pin")
	}
	return result
}

// TokenResponse is the OAuth access token response.
// Through With() and Get() additional parameters (for OpenID4VCI, for instance) can be set and retrieved.
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   *int    `json:"expires_in,omitempty"`
	TokenType   string  `json:"token_type"`
	Scope       *string `json:"scope,omitempty"`

	additionalParams map[string]interface{}
}

var _ json.Unmarshaler = (*TokenResponse)(nil)
var _ json.Marshaler = (*TokenResponse)(nil)

func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	type Alias TokenResponse
	var result Alias
	// base parameters
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	// extension parameters
	additionalParams := map[string]interface{}{}
	_ = json.Unmarshal(data, &additionalParams) // can't fail, already unmarshalled
	delete(additionalParams, "access_token")
	delete(additionalParams, "expires_in")
	delete(additionalParams, "token_type")
	delete(additionalParams, "scope")
	*t = TokenResponse(result)
	if len(additionalParams) > 0 {
		t.additionalParams = additionalParams
	}
	return nil
}

func (t TokenResponse) MarshalJSON() ([]byte, error) {
	result := make(map[string]interface{})
	for key, value := range t.additionalParams {
		result[key] = value
	}
	result["access_token"] = t.AccessToken
	result["token_type"] = t.TokenType
	if t.ExpiresIn != nil {
		result["expires_in"] = *t.ExpiresIn
	}
	if t.Scope != nil {
		result["scope"] = *t.Scope
	}
	return json.Marshal(result)
}

// With adds a parameter to the token response.
// It's a builder-style function.
// It should not be used to set any of the base parameters (access_token, expires_in, token_type, scope).
func (t *TokenResponse) With(key string, value interface{}) *TokenResponse {
	if t.additionalParams == nil {
		t.additionalParams = make(map[string]interface{})
	}
	t.additionalParams[key] = value
	return t
}

// Get returns the value of the additional parameter with the given key as a string.
// If the key does not exist or the value is not a string, it returns an empty string.
func (t TokenResponse) Get(key string) string {
	if val, ok := t.additionalParams[key].(string); ok {
		return val
	}
	return ""
}

// AuthorizationDetail is an entry of the authorization_details parameter (RFC9396) requesting a credential.
type AuthorizationDetail struct {
	Type                      string                `json:"type"`
	CredentialConfigurationID string                `json:"credential_configuration_id,omitempty"`
	Format                    string                `json:"format,omitempty"`
	VCT                       string                `json:"vct,omitempty"`
	DocType                   string                `json:"doctype,omitempty"`
	CredentialDefinition      *CredentialDefinition `json:"credential_definition,omitempty"`
	Types                     []string              `json:"types,omitempty"`
}

// AuthorizationRequest is an OAuth2 authorization request, possibly pushed (RFC9126).
type AuthorizationRequest struct {
	ResponseType         string                `json:"response_type"`
	ClientID             string                `json:"client_id"`
	RedirectURI          string                `json:"redirect_uri,omitempty"`
	Scope                []string              `json:"scope,omitempty"`
	State                string                `json:"state,omitempty"`
	IssuerState          string                `json:"issuer_state,omitempty"`
	AuthorizationDetails []AuthorizationDetail `json:"authorization_details,omitempty"`
	CodeChallenge        string                `json:"code_challenge,omitempty"`
	CodeChallengeMethod  string                `json:"code_challenge_method,omitempty"`
	RequestURI           string                `json:"request_uri,omitempty"`
}

// ParseAuthorizationRequest reads an AuthorizationRequest from query or form parameters.
func ParseAuthorizationRequest(params url.Values) (AuthorizationRequest, error) {
	result := AuthorizationRequest{
		ResponseType:        params.Get("response_type"),
		ClientID:            params.Get("client_id"),
		RedirectURI:         params.Get("redirect_uri"),
		State:               params.Get("state"),
		IssuerState:         params.Get("issuer_state"),
		CodeChallenge:       params.Get("code_challenge"),
		CodeChallengeMethod: params.Get("code_challenge_method"),
		RequestURI:          params.Get("request_uri"),
	}
	if scope := strings.TrimSpace(params.Get("scope")); scope != "" {
		result.Scope = strings.Fields(scope)
	}
	if details := params.Get("authorization_details"); details != "" {
		if err := json.Unmarshal([]byte(details), &result.AuthorizationDetails); err != nil {
			return AuthorizationRequest{}, fmt.Errorf("invalid authorization_details: %w", err)
		}
	}
	if result.RedirectURI != "" {
		if _, err := url.ParseRequestURI(result.RedirectURI); err != nil {
			return AuthorizationRequest{}, fmt.Errorf("invalid redirect_uri: %w", err)
		}
	}
	return result, nil
}

// HasScope returns true if the request has the given scope.
func (r AuthorizationRequest) HasScope(scope string) bool {
	return slices.Contains(r.Scope, scope)
}

// PushedAuthorizationResponse is the response of the pushed authorization request endpoint.
type PushedAuthorizationResponse struct {
	RequestURI string `json:"request_uri"`
	ExpiresIn  int    `json:"expires_in"`
}

// RedirectWithParams appends the given parameters to the query of the redirect URI.
func RedirectWithParams(redirectURI string, params map[string]string) (string, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	for key, value := range params {
		if value != "" {
			query.Set(key, value)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
