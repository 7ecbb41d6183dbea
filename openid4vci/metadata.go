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

// CredentialIssuerMetadata represents the metadata of an OpenID4VCI credential issuer.
// Specified by https://openid.net/specs/openid-4-verifiable-credential-issuance-1_0.html#name-credential-issuer-metadata
type CredentialIssuerMetadata struct {
	CredentialIssuer                  string                             `json:"credential_issuer"`
	CredentialEndpoint                string                             `json:"credential_endpoint"`
	BatchCredentialEndpoint           string                             `json:"batch_credential_endpoint,omitempty"`
	DeferredCredentialEndpoint        string                             `json:"deferred_credential_endpoint,omitempty"`
	AuthorizationServers              []string                           `json:"authorization_servers,omitempty"`
	CredentialConfigurationsSupported map[string]CredentialConfiguration `json:"credential_configurations_supported"`
	Display                           []map[string]interface{}           `json:"display,omitempty"`
}

// CredentialConfiguration describes a credential the issuer can issue.
type CredentialConfiguration struct {
	Format                               string                       `json:"format" koanf:"format"`
	Scope                                string                       `json:"scope,omitempty" koanf:"scope"`
	CryptographicBindingMethodsSupported []string                     `json:"cryptographic_binding_methods_supported,omitempty" koanf:"bindingmethods"`
	CredentialSigningAlgValuesSupported  []string                     `json:"credential_signing_alg_values_supported,omitempty" koanf:"signingalgs"`
	ProofTypesSupported                  map[string]ProofTypeMetadata `json:"proof_types_supported,omitempty" koanf:"-"`
	CredentialDefinition                 *CredentialDefinition        `json:"credential_definition,omitempty" koanf:"definition"`
	VCT                                  string                       `json:"vct,omitempty" koanf:"vct"`
	DocType                              string                       `json:"doctype,omitempty" koanf:"doctype"`
	Display                              []map[string]interface{}     `json:"display,omitempty" koanf:"display"`
}

// ProofTypeMetadata describes a supported proof type.
type ProofTypeMetadata struct {
	ProofSigningAlgValuesSupported []string `json:"proof_signing_alg_values_supported"`
}

// ProviderMetadata is the OAuth2 authorization server (and OpenID provider) metadata of the issuer.
// Specified by RFC8414 and https://openid.net/specs/openid-4-verifiable-credential-issuance-1_0.html#name-oauth-20-authorization-serv
type ProviderMetadata struct {
	Issuer                                     string   `json:"issuer"`
	AuthorizationEndpoint                      string   `json:"authorization_endpoint"`
	PushedAuthorizationRequestEndpoint         string   `json:"pushed_authorization_request_endpoint"`
	TokenEndpoint                              string   `json:"token_endpoint"`
	JWKSURI                                    string   `json:"jwks_uri"`
	GrantTypesSupported                        []string `json:"grant_types_supported"`
	ResponseTypesSupported                     []string `json:"response_types_supported"`
	CodeChallengeMethodsSupported              []string `json:"code_challenge_methods_supported"`
	DPoPSigningAlgValuesSupported              []string `json:"dpop_signing_alg_values_supported,omitempty"`
	TokenEndpointAuthMethodsSupported          []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	PreAuthorizedGrantAnonymousAccessSupported bool     `json:"pre-authorized_grant_anonymous_access_supported"`
}
