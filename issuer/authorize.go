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
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-issuer/core"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// PKCE code challenge methods (RFC 7636).
const (
	codeChallengeS256  = "S256"
	codeChallengePlain = "plain"
)

// Results reported by the external authentication service on the callback endpoint.
const (
	AuthenticationAccepted = "accepted"
	AuthenticationRejected = "rejected"
)

// PushAuthorizationRequest validates the authorization request and stores it on the session identified by issuer_state.
// The returned request_uri refers to the stored request.
func (i *Issuer) PushAuthorizationRequest(_ context.Context, request openid4vci.AuthorizationRequest) (*openid4vci.PushedAuthorizationResponse, error) {
	if request.RequestURI != "" {
		return nil, newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errors.New("request_uri is not allowed in a pushed authorization request"))
	}
	if request.IssuerState == "" {
		return nil, newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errors.New("missing issuer_state"))
	}
	session, err := i.sessions.Update(request.IssuerState, func(session *IssuanceSession) error {
		if err := i.validateAuthorizationRequest(*session, request); err != nil {
			return err
		}
		session.AuthorizationRequest = &request
		return nil
	})
	if err != nil {
		return nil, protocolError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, err)
	}
	log.Logger().
		WithField(core.LogFieldSessionID, session.ID).
		Debug("Authorization request pushed")
	return &openid4vci.PushedAuthorizationResponse{
		RequestURI: openid4vci.RequestURIPrefix + session.ID,
		ExpiresIn:  int(math.Max(0, math.Floor(session.remaining(i.now()).Seconds()))),
	}, nil
}

// Authorize handles an authorization request, either pushed before (request_uri) or passed in full.
// It redirects to the external authentication service when the session requires end-user authentication,
// otherwise it redirects to the client with an authorization code.
func (i *Issuer) Authorize(_ context.Context, request openid4vci.AuthorizationRequest) (string, error) {
	var sessionID string
	pushed := request.RequestURI != ""
	if pushed {
		if !strings.HasPrefix(request.RequestURI, openid4vci.RequestURIPrefix) {
			return "", newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errors.New("invalid request_uri"))
		}
		sessionID = strings.TrimPrefix(request.RequestURI, openid4vci.RequestURIPrefix)
	} else {
		if request.IssuerState == "" {
			return "", newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errors.New("missing issuer_state"))
		}
		sessionID = request.IssuerState
	}
	var redirectURL string
	session, err := i.sessions.Update(sessionID, func(session *IssuanceSession) error {
		authorizationRequest := request
		if pushed {
			if session.AuthorizationRequest == nil {
				return newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errors.New("no authorization request was pushed for request_uri"))
			}
			if request.ClientID != "" && request.ClientID != session.AuthorizationRequest.ClientID {
				return newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errors.New("client_id does not match the pushed authorization request"))
			}
			authorizationRequest = *session.AuthorizationRequest
		}
		if err := i.validateAuthorizationRequest(*session, authorizationRequest); err != nil {
			return err
		}
		session.AuthorizationRequest = &authorizationRequest
		var err error
		if session.authenticationMethod().External() {
			session.AuthServerState = nutsCrypto.GenerateNonce()
			redirectURL, err = openid4vci.RedirectWithParams(i.config.Authentication.URL, map[string]string{
				"state": session.AuthServerState,
			})
			return err
		}
		redirectURL, err = i.authorizationResponse(session)
		return err
	})
	if err != nil {
		return "", protocolError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, err)
	}
	log.Logger().
		WithField(core.LogFieldSessionID, session.ID).
		Infof("Authorization request accepted (authentication=%s)", session.authenticationMethod())
	return redirectURL, nil
}

// AuthorizationCallback handles the result of the external authentication service for the session holding the state.
// A rejection closes the session and redirects to the client with access_denied.
func (i *Issuer) AuthorizationCallback(_ context.Context, state string, result string) (string, error) {
	if result != "" && result != AuthenticationAccepted && result != AuthenticationRejected {
		return "", newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, fmt.Errorf("unsupported authentication result: %s", result))
	}
	session, err := i.sessions.GetByAuthServerState(state)
	if err != nil {
		return "", protocolError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, err)
	}
	var redirectURL string
	var closed bool
	session, err = i.sessions.Update(session.ID, func(session *IssuanceSession) error {
		if session.IsClosed {
			return newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errSessionClosed)
		}
		if session.AuthServerState != state || session.AuthorizationRequest == nil {
			return ErrSessionNotFound
		}
		session.AuthServerState = ""
		var err error
		if result == AuthenticationRejected {
			closed = session.close(StatusRejectedByUser, "end-user rejected the authorization")
			redirectURL, err = openid4vci.RedirectWithParams(session.AuthorizationRequest.RedirectURI, map[string]string{
				"error": string(openid4vci.AccessDenied),
				"state": session.AuthorizationRequest.State,
			})
			return err
		}
		redirectURL, err = i.authorizationResponse(session)
		return err
	})
	if err != nil {
		return "", protocolError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, err)
	}
	if closed {
		i.sessionClosed(*session)
	}
	return redirectURL, nil
}

// authorizationResponse mints the authorization code of the session and returns the redirect URL that delivers it.
func (i *Issuer) authorizationResponse(session *IssuanceSession) (string, error) {
	codeID := uuid.NewString()
	code, err := i.tokens.Mint(Token{SessionID: session.ID, Target: TargetToken, ID: codeID}, session.remaining(i.now()))
	if err != nil {
		return "", err
	}
	session.CodeID = codeID
	return openid4vci.RedirectWithParams(session.AuthorizationRequest.RedirectURI, map[string]string{
		"code":  code,
		"state": session.AuthorizationRequest.State,
	})
}

func (i *Issuer) validateAuthorizationRequest(session IssuanceSession, request openid4vci.AuthorizationRequest) error {
	invalid := func(code openid4vci.ErrorCode, message string) error {
		return newError(openid4vci.AuthorizationError, code, errors.New(message))
	}
	if session.IsClosed {
		return newError(openid4vci.AuthorizationError, openid4vci.InvalidRequest, errSessionClosed)
	}
	if session.authenticationMethod() == AuthenticationPreAuthorized {
		return invalid(openid4vci.InvalidRequest, "issuance session uses the pre-authorized code flow")
	}
	if request.ResponseType != "code" {
		return invalid(openid4vci.UnsupportedResponseType, "response_type must be code")
	}
	if request.ClientID == "" {
		return invalid(openid4vci.InvalidRequest, "missing client_id")
	}
	if request.RedirectURI == "" {
		return invalid(openid4vci.InvalidRequest, "missing redirect_uri")
	}
	if request.CodeChallenge == "" && request.CodeChallengeMethod != "" {
		return invalid(openid4vci.InvalidRequest, "code_challenge_method without code_challenge")
	}
	if request.CodeChallenge != "" && request.CodeChallengeMethod != "" &&
		request.CodeChallengeMethod != codeChallengeS256 && request.CodeChallengeMethod != codeChallengePlain {
		return invalid(openid4vci.InvalidRequest, "unsupported code_challenge_method")
	}
	if len(authorizedRequests(session, i.configurations, request)) == 0 {
		return invalid(openid4vci.InvalidScope, "authorization request does not match any offered credential")
	}
	return nil
}
