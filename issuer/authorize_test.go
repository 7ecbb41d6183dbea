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
	"net/url"
	"strings"
	"testing"

	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedirectURI = "https://wallet.example.com/cb"

func testAuthorizationRequest(issuerState string) openid4vci.AuthorizationRequest {
	return openid4vci.AuthorizationRequest{
		ResponseType: "code",
		ClientID:     "wallet",
		RedirectURI:  testRedirectURI,
		State:        "client-state",
		IssuerState:  issuerState,
		AuthorizationDetails: []openid4vci.AuthorizationDetail{{
			Type:                      openid4vci.AuthorizationDetailsType,
			CredentialConfigurationID: "OpenBadgeCredential_jwt_vc_json",
		}},
		CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallengeMethod: codeChallengeS256,
	}
}

func assertProtocolError(t *testing.T, err error, code openid4vci.ErrorCode) openid4vci.Error {
	t.Helper()
	var protocolErr openid4vci.Error
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, code, protocolErr.Code)
	return protocolErr
}

func redirectQuery(t *testing.T, redirectURL string, prefix string) url.Values {
	t.Helper()
	require.True(t, strings.HasPrefix(redirectURL, prefix), redirectURL)
	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	return parsed.Query()
}

func TestIssuer_Authorize(t *testing.T) {
	t.Run("without authentication, redirects with code", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, badgeRequest(AuthenticationNone))

		redirectURL, err := ctx.issuer.Authorize(context.Background(), testAuthorizationRequest(offer.SessionID))

		require.NoError(t, err)
		query := redirectQuery(t, redirectURL, testRedirectURI)
		assert.Equal(t, "client-state", query.Get("state"))
		code, err := ctx.issuer.tokens.Verify(query.Get("code"), TargetToken)
		require.NoError(t, err)
		session := ctx.session(t, offer.SessionID)
		assert.Equal(t, session.CodeID, code.ID)
		require.NotNil(t, session.AuthorizationRequest)
		assert.Equal(t, "wallet", session.AuthorizationRequest.ClientID)
	})
	t.Run("with external authentication, redirects to login page", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, badgeRequest(AuthenticationPassword))

		redirectURL, err := ctx.issuer.Authorize(context.Background(), testAuthorizationRequest(offer.SessionID))

		require.NoError(t, err)
		query := redirectQuery(t, redirectURL, testLoginURL)
		session := ctx.session(t, offer.SessionID)
		assert.Equal(t, session.AuthServerState, query.Get("state"))
		assert.Empty(t, session.CodeID)
	})
	t.Run("scope instead of authorization details", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, identityRequest(AuthenticationNone))
		request := testAuthorizationRequest(offer.SessionID)
		request.AuthorizationDetails = nil
		request.Scope = []string{"openid", "identity"}

		_, err := ctx.issuer.Authorize(context.Background(), request)

		assert.NoError(t, err)
	})
	t.Run("pushed authorization request", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, badgeRequest(AuthenticationNone))
		pushed, err := ctx.issuer.PushAuthorizationRequest(context.Background(), testAuthorizationRequest(offer.SessionID))
		require.NoError(t, err)
		assert.Equal(t, openid4vci.RequestURIPrefix+offer.SessionID, pushed.RequestURI)
		assert.InDelta(t, 300, pushed.ExpiresIn, 5)

		redirectURL, err := ctx.issuer.Authorize(context.Background(), openid4vci.AuthorizationRequest{
			ClientID:   "wallet",
			RequestURI: pushed.RequestURI,
		})

		require.NoError(t, err)
		query := redirectQuery(t, redirectURL, testRedirectURI)
		assert.NotEmpty(t, query.Get("code"))
		assert.Equal(t, "client-state", query.Get("state"))
	})
	t.Run("request_uri without pushed request", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, badgeRequest(AuthenticationNone))

		_, err := ctx.issuer.Authorize(context.Background(), openid4vci.AuthorizationRequest{RequestURI: openid4vci.RequestURIPrefix + offer.SessionID})

		assertProtocolError(t, err, openid4vci.InvalidRequest)
	})
	t.Run("request_uri with other client_id", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, badgeRequest(AuthenticationNone))
		pushed, err := ctx.issuer.PushAuthorizationRequest(context.Background(), testAuthorizationRequest(offer.SessionID))
		require.NoError(t, err)

		_, err = ctx.issuer.Authorize(context.Background(), openid4vci.AuthorizationRequest{ClientID: "other", RequestURI: pushed.RequestURI})

		assertProtocolError(t, err, openid4vci.InvalidRequest)
	})
	t.Run("invalid requests", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer := ctx.offer(t, badgeRequest(AuthenticationNone))
		preAuthorized := ctx.offer(t, badgeRequest(""))
		testCases := []struct {
			name     string
			modify   func(request *openid4vci.AuthorizationRequest)
			expected openid4vci.ErrorCode
		}{
			{"unknown session", func(request *openid4vci.AuthorizationRequest) { request.IssuerState = "unknown" }, openid4vci.InvalidRequest},
			{"missing issuer_state", func(request *openid4vci.AuthorizationRequest) { request.IssuerState = "" }, openid4vci.InvalidRequest},
			{"pre-authorized session", func(request *openid4vci.AuthorizationRequest) { request.IssuerState = preAuthorized.SessionID }, openid4vci.InvalidRequest},
			{"response_type", func(request *openid4vci.AuthorizationRequest) { request.ResponseType = "token" }, openid4vci.UnsupportedResponseType},
			{"missing client_id", func(request *openid4vci.AuthorizationRequest) { request.ClientID = "" }, openid4vci.InvalidRequest},
			{"missing redirect_uri", func(request *openid4vci.AuthorizationRequest) { request.RedirectURI = "" }, openid4vci.InvalidRequest},
			{"unsupported code_challenge_method", func(request *openid4vci.AuthorizationRequest) { request.CodeChallengeMethod = "S512" }, openid4vci.InvalidRequest},
			{"code_challenge_method without challenge", func(request *openid4vci.AuthorizationRequest) { request.CodeChallenge = "" }, openid4vci.InvalidRequest},
			{"no matching credential", func(request *openid4vci.AuthorizationRequest) {
				request.AuthorizationDetails[0].CredentialConfigurationID = "mDL"
			}, openid4vci.InvalidScope},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				request := testAuthorizationRequest(offer.SessionID)
				testCase.modify(&request)

				_, err := ctx.issuer.Authorize(context.Background(), request)

				protocolErr := assertProtocolError(t, err, testCase.expected)
				assert.Equal(t, openid4vci.AuthorizationError, protocolErr.Kind)
			})
		}
		// failed requests don't touch the session
		assert.Nil(t, ctx.session(t, offer.SessionID).AuthorizationRequest)
	})
}

func TestIssuer_AuthorizationCallback(t *testing.T) {
	authorize := func(t *testing.T, ctx issuerTestContext) (*Offer, string) {
		offer := ctx.offer(t, badgeRequest(AuthenticationPassword))
		redirectURL, err := ctx.issuer.Authorize(context.Background(), testAuthorizationRequest(offer.SessionID))
		require.NoError(t, err)
		return offer, redirectQuery(t, redirectURL, testLoginURL).Get("state")
	}
	t.Run("accepted", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer, state := authorize(t, ctx)

		redirectURL, err := ctx.issuer.AuthorizationCallback(context.Background(), state, AuthenticationAccepted)

		require.NoError(t, err)
		query := redirectQuery(t, redirectURL, testRedirectURI)
		assert.NotEmpty(t, query.Get("code"))
		assert.Equal(t, "client-state", query.Get("state"))
		session := ctx.session(t, offer.SessionID)
		assert.Empty(t, session.AuthServerState)
		assert.NotEmpty(t, session.CodeID)
		// the state can't be used twice
		_, err = ctx.issuer.AuthorizationCallback(context.Background(), state, AuthenticationAccepted)
		assertProtocolError(t, err, openid4vci.InvalidRequest)
	})
	t.Run("rejected", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		offer, state := authorize(t, ctx)

		redirectURL, err := ctx.issuer.AuthorizationCallback(context.Background(), state, AuthenticationRejected)

		require.NoError(t, err)
		query := redirectQuery(t, redirectURL, testRedirectURI)
		assert.Equal(t, "access_denied", query.Get("error"))
		assert.Empty(t, query.Get("code"))
		session := ctx.session(t, offer.SessionID)
		assert.Equal(t, StatusRejectedByUser, session.Status)
		assert.True(t, session.IsClosed)
		ctx.issuer.callbacks.wait()
		assert.Equal(t, []CallbackType{CallbackIssuanceStatus}, ctx.sender.types())
	})
	t.Run("unknown state", func(t *testing.T) {
		ctx := newIssuerTestContext(t)

		_, err := ctx.issuer.AuthorizationCallback(context.Background(), "unknown", AuthenticationAccepted)

		assertProtocolError(t, err, openid4vci.InvalidRequest)
	})
	t.Run("unsupported result", func(t *testing.T) {
		ctx := newIssuerTestContext(t)
		_, state := authorize(t, ctx)

		_, err := ctx.issuer.AuthorizationCallback(context.Background(), state, "maybe")

		assertProtocolError(t, err, openid4vci.InvalidRequest)
	})
}
