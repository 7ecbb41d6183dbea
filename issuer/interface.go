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
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// ModuleName is the name of the issuer engine.
const ModuleName = "Issuer"

// ErrInvalidIssuanceRequest is returned when an offer is created for invalid issuance requests.
var ErrInvalidIssuanceRequest = errors.New("invalid issuance request")

// OfferOptions are the per-offer overrides of the issuer configuration.
type OfferOptions struct {
	// TTL is the lifetime of the session, the configured session TTL when zero.
	TTL time.Duration
	// CallbackURL receives the lifecycle callbacks of the session. $id is replaced with the session ID.
	CallbackURL string
	// Formats restricts the (normalized) credential formats of the requests, any format is allowed when empty.
	Formats []string
}

// Offer is a created credential offer.
type Offer struct {
	// SessionID is the ID of the issuance session that serves the offer.
	SessionID string
	// CredentialOffer is the offer itself.
	CredentialOffer openid4vci.CredentialOffer
	// URI is the credential offer URI (openid-credential-offer://?credential_offer_uri=...) to hand to the wallet.
	URI string
}

// AccessToken is a token presented on the credential, batch credential or deferred credential endpoint.
type AccessToken struct {
	// Token is the access token, or acceptance token for the deferred credential endpoint.
	Token string
	// DPoPThumbprint is the thumbprint of the key of the validated DPoP proof sent along, if any.
	DPoPThumbprint string
}

// ClientBinding is the client authentication established by the token endpoint before the grant is processed.
type ClientBinding struct {
	// DPoPThumbprint is the thumbprint of the key of the validated DPoP proof, the access token is bound to it.
	DPoPThumbprint string
	// AttestedClientID is the client ID from a validated client attestation.
	AttestedClientID string
}

// AdministrationAPI is used by the issuer back-end to create offers and follow issuance sessions.
type AdministrationAPI interface {
	// CreateOffer creates an issuance session for the given issuance requests and returns its credential offer.
	CreateOffer(ctx context.Context, requests []IssuanceRequest, options OfferOptions) (*Offer, error)
	// SessionStatus returns the status of the given session. It returns ErrSessionNotFound for unknown or expired sessions.
	SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
}

// OpenID4VCI implements the OpenID4VCI credential issuer and its authorization server.
// Protocol failures are returned as openid4vci.Error.
type OpenID4VCI interface {
	// Metadata returns the credential issuer metadata.
	Metadata() openid4vci.CredentialIssuerMetadata
	// ProviderMetadata returns the authorization server metadata.
	ProviderMetadata() openid4vci.ProviderMetadata
	// JWKS returns the public key that signs the tokens of the authorization server.
	JWKS() (jwk.Set, error)
	// CredentialOffer returns the credential offer of the given session.
	CredentialOffer(ctx context.Context, sessionID string) (*openid4vci.CredentialOffer, error)
	// PushAuthorizationRequest stores the authorization request for a later authorization request referring to it.
	PushAuthorizationRequest(ctx context.Context, request openid4vci.AuthorizationRequest) (*openid4vci.PushedAuthorizationResponse, error)
	// Authorize handles an authorization request and returns the URL to redirect the user-agent to.
	Authorize(ctx context.Context, request openid4vci.AuthorizationRequest) (string, error)
	// AuthorizationCallback handles the result of the external authentication service and returns the URL to redirect the user-agent to.
	AuthorizationCallback(ctx context.Context, state string, result string) (string, error)
	// Token exchanges an authorization code or pre-authorized code for an access token.
	Token(ctx context.Context, request openid4vci.TokenRequest, binding ClientBinding) (*openid4vci.TokenResponse, error)
	// Credential issues the requested credential.
	Credential(ctx context.Context, access AccessToken, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error)
	// BatchCredential issues all requested credentials, or none of them.
	BatchCredential(ctx context.Context, access AccessToken, request openid4vci.BatchCredentialRequest) (*openid4vci.BatchCredentialResponse, error)
	// DeferredCredential issues the credential of which issuance was deferred, identified by the acceptance token.
	DeferredCredential(ctx context.Context, access AccessToken) (*openid4vci.CredentialResponse, error)
}
