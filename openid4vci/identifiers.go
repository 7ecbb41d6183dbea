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

// CredentialIssuerMetadataWellKnownPath defines the well-known path for OpenID4VCI Credential Issuer Metadata.
const CredentialIssuerMetadataWellKnownPath = "/.well-known/openid-credential-issuer"

// AuthorizationServerMetadataWellKnownPath defines the well-known path for OAuth2 Authorization Server Metadata (RFC8414).
const AuthorizationServerMetadataWellKnownPath = "/.well-known/oauth-authorization-server"

// OpenIDConfigurationWellKnownPath defines the well-known path for OpenID Connect Provider Metadata.
const OpenIDConfigurationWellKnownPath = "/.well-known/openid-configuration"

// Endpoint paths, relative to the issuer base URL.
const (
	AuthorizationPath     = "/openid4vci/authorize"
	PushedAuthorizePath   = "/openid4vci/par"
	TokenPath             = "/openid4vci/token"
	CredentialPath        = "/openid4vci/credential"
	BatchCredentialPath   = "/openid4vci/batch_credential"
	DeferredPath          = "/openid4vci/credential_deferred"
	CredentialOfferPath   = "/openid4vci/credentialOffer"
	AuthCallbackPath      = "/openid4vci/callback"
	JWKSPath              = "/openid4vci/jwks"
	CredentialOfferScheme = "openid-credential-offer://"
)

const (
	// PreAuthorizedCodeGrant is the grant type used for pre-authorized code grant from the OpenID4VCI specification.
	PreAuthorizedCodeGrant = "urn:ietf:params:oauth:grant-type:pre-authorized_code"
	// AuthorizationCodeGrant is the OAuth2 authorization code grant type.
	AuthorizationCodeGrant = "authorization_code"
	// RequestURIPrefix is the prefix of request_uri values handed out by the pushed authorization endpoint.
	RequestURIPrefix = "urn:ietf:params:oauth:request_uri:"
	// AuthorizationDetailsType is the type of authorization_details entries requesting credentials.
	AuthorizationDetailsType = "openid_credential"
)

// Credential formats.
const (
	// JWTVCJSONFormat is the format of W3C credentials signed as JWT.
	JWTVCJSONFormat = "jwt_vc_json"
	// JWTVCFormat is the legacy name of JWTVCJSONFormat.
	JWTVCFormat = "jwt_vc"
	// SDJWTVCFormat is the format of SD-JWT VC credentials.
	SDJWTVCFormat = "vc+sd-jwt"
	// DCSDJWTFormat is the newer name of SDJWTVCFormat.
	DCSDJWTFormat = "dc+sd-jwt"
	// MsoMdocFormat is the format of ISO 18013-5 mdoc credentials.
	MsoMdocFormat = "mso_mdoc"
)

// Proof types.
const (
	// ProofTypeJWT is the proof type for JWT proofs.
	ProofTypeJWT = "jwt"
	// ProofTypeCWT is the proof type for CWT (COSE_Sign1) proofs.
	ProofTypeCWT = "cwt"
	// JWTTypeOpenID4VCIProof defines the OpenID4VCI JWT-subtype (used as typ claim in the JWT).
	JWTTypeOpenID4VCIProof = "openid4vci-proof+jwt"
	// CWTTypeOpenID4VCIProof defines the content type of OpenID4VCI CWT proofs.
	CWTTypeOpenID4VCIProof = "openid4vci-proof+cwt"
)

// Token types.
const (
	TokenTypeBearer = "Bearer"
	TokenTypeDPoP   = "DPoP"
)
