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
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// CreateOffer creates an issuance session for the given issuance requests and returns its credential offer.
// The pre-authorized code grant is offered for AuthenticationPreAuthorized, the authorization code grant otherwise.
func (i *Issuer) CreateOffer(_ context.Context, requests []IssuanceRequest, options OfferOptions) (*Offer, error) {
	if err := i.validateIssuanceRequests(requests, options.Formats); err != nil {
		return nil, err
	}
	ttl := options.TTL
	if ttl <= 0 {
		ttl = i.config.SessionTTL
	}
	if options.CallbackURL != "" {
		if _, err := url.ParseRequestURI(options.CallbackURL); err != nil {
			return nil, fmt.Errorf("%w: invalid callback URL: %w", ErrInvalidIssuanceRequest, err)
		}
	}
	session := IssuanceSession{
		ID:               uuid.NewString(),
		IssuanceRequests: requests,
		TxCode:           requests[0].TxCode,
		TxCodeValue:      requests[0].TxCodeValue,
		CallbackURL:      options.CallbackURL,
		Status:           StatusActive,
	}
	offer := openid4vci.CredentialOffer{CredentialIssuer: i.baseURL}
	for _, request := range requests {
		if !slices.Contains(offer.CredentialConfigurationIDs, request.CredentialConfigurationID) {
			offer.CredentialConfigurationIDs = append(offer.CredentialConfigurationIDs, request.CredentialConfigurationID)
		}
	}
	if session.authenticationMethod() == AuthenticationPreAuthorized {
		session.CodeID = uuid.NewString()
		code, err := i.tokens.Mint(Token{SessionID: session.ID, Target: TargetToken, ID: session.CodeID}, ttl)
		if err != nil {
			return nil, fmt.Errorf("unable to create pre-authorized code: %w", err)
		}
		offer.Grants.PreAuthorizedCode = &openid4vci.PreAuthorizedCodeGrantParams{
			PreAuthorizedCode: code,
			TxCode:            session.TxCode,
		}
	} else {
		offer.Grants.AuthorizationCode = &openid4vci.AuthorizationCodeGrantParams{IssuerState: session.ID}
	}
	session.CredentialOffer = offer
	if err := i.sessions.Put(session, ttl); err != nil {
		return nil, err
	}
	i.metrics.sessionStatus(StatusActive)
	log.Logger().
		WithField(core.LogFieldSessionID, session.ID).
		Infof("Issuance session created (credentials=%d, authentication=%s)", len(requests), session.authenticationMethod())
	offerURL := i.url(openid4vci.CredentialOfferPath) + "?" + url.Values{"id": []string{session.ID}}.Encode()
	return &Offer{
		SessionID:       session.ID,
		CredentialOffer: offer,
		URI:             openid4vci.CredentialOfferURI(offerURL),
	}, nil
}

func (i *Issuer) validateIssuanceRequests(requests []IssuanceRequest, formats []string) error {
	if len(requests) == 0 {
		return fmt.Errorf("%w: no issuance requests", ErrInvalidIssuanceRequest)
	}
	method := requests[0].AuthenticationMethod
	for index, request := range requests {
		invalid := func(format string, args ...interface{}) error {
			return fmt.Errorf("%w: request %d: %s", ErrInvalidIssuanceRequest, index, fmt.Sprintf(format, args...))
		}
		configuration, ok := i.configurations[request.CredentialConfigurationID]
		if !ok {
			return invalid("unknown credential configuration %q", request.CredentialConfigurationID)
		}
		if len(formats) > 0 && !slices.Contains(formats, normalizeFormat(configuration.Format)) {
			return invalid("credential configuration %q has format %s, expected %s", request.CredentialConfigurationID, configuration.Format, strings.Join(formats, " or "))
		}
		if request.IssuerKey == "" {
			return invalid("missing issuer key")
		}
		if request.AuthenticationMethod != method {
			return invalid("all requests must use the same authentication method")
		}
		if request.AuthenticationMethod != "" && !request.AuthenticationMethod.valid() {
			return invalid("unsupported authentication method %q", request.AuthenticationMethod)
		}
		if request.AuthenticationMethod.External() && i.config.Authentication.URL == "" {
			return invalid("authentication method %s requires issuer.authentication.url", request.AuthenticationMethod)
		}
		if request.TxCode != nil && request.TxCodeValue == "" {
			return invalid("missing txCodeValue")
		}
		if request.TxCodeValue != "" && request.TxCode == nil {
			return invalid("txCodeValue requires txCode")
		}
		if request.ExpiresIn < 0 {
			return invalid("expiresIn must not be negative")
		}
	}
	return nil
}

// SessionStatus returns the status of the given session.
func (i *Issuer) SessionStatus(_ context.Context, sessionID string) (*SessionStatus, error) {
	session, err := i.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	result := session.status()
	return &result, nil
}

// CredentialOffer returns the credential offer of the given session.
func (i *Issuer) CredentialOffer(_ context.Context, sessionID string) (*openid4vci.CredentialOffer, error) {
	session, err := i.sessions.Get(sessionID)
	if err != nil {
		return nil, protocolError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, err)
	}
	if session.IsClosed {
		return nil, newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errSessionClosed)
	}
	return &session.CredentialOffer, nil
}

// Metadata returns the credential issuer metadata, listing the proof types each credential configuration accepts.
func (i *Issuer) Metadata() openid4vci.CredentialIssuerMetadata {
	configurations := make(map[string]openid4vci.CredentialConfiguration, len(i.configurations))
	algorithms := ProofAlgorithms()
	for id, configuration := range i.configurations {
		configuration.ProofTypesSupported = map[string]openid4vci.ProofTypeMetadata{
			openid4vci.ProofTypeJWT: {ProofSigningAlgValuesSupported: algorithms},
		}
		if configuration.Format == openid4vci.MsoMdocFormat {
			configuration.ProofTypesSupported[openid4vci.ProofTypeCWT] = openid4vci.ProofTypeMetadata{ProofSigningAlgValuesSupported: algorithms}
		}
		if len(configuration.CryptographicBindingMethodsSupported) == 0 {
			if configuration.Format == openid4vci.MsoMdocFormat {
				configuration.CryptographicBindingMethodsSupported = []string{"cose_key"}
			} else {
				configuration.CryptographicBindingMethodsSupported = []string{"jwk", "did:jwk", "did:key"}
			}
		}
		configurations[id] = configuration
	}
	return openid4vci.CredentialIssuerMetadata{
		CredentialIssuer:                  i.baseURL,
		CredentialEndpoint:                i.url(openid4vci.CredentialPath),
		BatchCredentialEndpoint:           i.url(openid4vci.BatchCredentialPath),
		DeferredCredentialEndpoint:        i.url(openid4vci.DeferredPath),
		AuthorizationServers:              []string{i.baseURL},
		CredentialConfigurationsSupported: configurations,
	}
}

// ProviderMetadata returns the metadata of the authorization server, which is the credential issuer itself.
func (i *Issuer) ProviderMetadata() openid4vci.ProviderMetadata {
	return openid4vci.ProviderMetadata{
		Issuer:                             i.baseURL,
		AuthorizationEndpoint:              i.url(openid4vci.AuthorizationPath),
		PushedAuthorizationRequestEndpoint: i.url(openid4vci.PushedAuthorizePath),
		TokenEndpoint:                      i.url(openid4vci.TokenPath),
		JWKSURI:                            i.url(openid4vci.JWKSPath),
		GrantTypesSupported:                []string{openid4vci.AuthorizationCodeGrant, openid4vci.PreAuthorizedCodeGrant},
		ResponseTypesSupported:             []string{"code"},
		CodeChallengeMethodsSupported:      []string{codeChallengeS256, codeChallengePlain},
		DPoPSigningAlgValuesSupported:      ProofAlgorithms(),
		TokenEndpointAuthMethodsSupported:  []string{"none", "attest_jwt_client_auth"},
		// wallets are authenticated by the pre-authorized code (and transaction code), not by a client ID
		PreAuthorizedGrantAnonymousAccessSupported: true,
	}
}

// JWKS returns the key set with the public token key.
func (i *Issuer) JWKS() (jwk.Set, error) {
	key, err := i.tokens.PublicKey()
	if err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, err
	}
	return set, nil
}
