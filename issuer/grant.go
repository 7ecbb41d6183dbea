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
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// Token exchanges a pre-authorized code or authorization code for an access token and the first c_nonce.
// A code can be exchanged once. A failed exchange leaves the session unchanged, so the holder may retry a mistyped transaction code.
func (i *Issuer) Token(_ context.Context, request openid4vci.TokenRequest, binding ClientBinding) (*openid4vci.TokenResponse, error) {
	var code string
	switch request.GrantType {
	case openid4vci.PreAuthorizedCodeGrant:
		code = request.PreAuthorizedCode
	case openid4vci.AuthorizationCodeGrant:
		code = request.Code
	default:
		return nil, newError(openid4vci.TokenError, openid4vci.UnsupportedGrantType, fmt.Errorf("unsupported grant_type: %s", request.GrantType))
	}
	if code == "" {
		return nil, newError(openid4vci.TokenError, openid4vci.InvalidRequest, errors.New("missing code"))
	}
	codeToken, err := i.tokens.Verify(code, TargetToken)
	if err != nil {
		return nil, newError(openid4vci.TokenError, openid4vci.InvalidGrant, err)
	}

	var accessToken, nonce string
	var tokenExpiresIn, nonceExpiresIn int
	session, err := i.sessions.Update(codeToken.SessionID, func(session *IssuanceSession) error {
		if session.IsClosed {
			return newError(openid4vci.TokenError, openid4vci.InvalidGrant, errSessionClosed)
		}
		if session.CodeID == "" || subtle.ConstantTimeCompare([]byte(session.CodeID), []byte(codeToken.ID)) != 1 {
			return newError(openid4vci.TokenError, openid4vci.InvalidGrant, errors.New("code has been used or replaced"))
		}
		if err := i.validateGrant(*session, request, binding); err != nil {
			return err
		}
		ttl := i.config.TokenTTL
		if remaining := session.remaining(i.now()); remaining < ttl {
			ttl = remaining
		}
		accessTokenID := uuid.NewString()
		var err error
		accessToken, err = i.tokens.Mint(Token{
			SessionID:  session.ID,
			Target:     TargetAccess,
			ID:         accessTokenID,
			Thumbprint: binding.DPoPThumbprint,
		}, ttl)
		if err != nil {
			return err
		}
		tokenExpiresIn = int(math.Max(0, math.Floor(ttl.Seconds())))
		session.CodeID = ""
		session.AccessTokenID = accessTokenID
		session.DPoPThumbprint = binding.DPoPThumbprint
		nonce, nonceExpiresIn = i.nonces.IssueNonce(session)
		return nil
	})
	if err != nil {
		return nil, protocolError(openid4vci.TokenError, openid4vci.InvalidGrant, err)
	}

	tokenType := openid4vci.TokenTypeBearer
	if binding.DPoPThumbprint != "" {
		tokenType = openid4vci.TokenTypeDPoP
	}
	log.Logger().
		WithField(core.LogFieldSessionID, session.ID).
		Infof("Access token issued (grant_type=%s, token_type=%s)", request.GrantType, tokenType)
	i.callbacks.dispatch(*session, CallbackRequestedToken, map[string]interface{}{
		"grantType": request.GrantType,
		"tokenType": tokenType,
	})
	response := &openid4vci.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   &tokenExpiresIn,
		TokenType:   tokenType,
	}
	return response.With("c_nonce", nonce).With("c_nonce_expires_in", nonceExpiresIn), nil
}

// validateGrant checks the grant specific parameters of the token request against the session.
func (i *Issuer) validateGrant(session IssuanceSession, request openid4vci.TokenRequest, binding ClientBinding) error {
	invalidGrant := func(message string) error {
		return newError(openid4vci.TokenError, openid4vci.InvalidGrant, errors.New(message))
	}
	preAuthorized := session.authenticationMethod() == AuthenticationPreAuthorized
	if request.GrantType == openid4vci.PreAuthorizedCodeGrant {
		if !preAuthorized {
			return invalidGrant("issuance session does not use the pre-authorized code flow")
		}
		if session.TxCodeValue != "" && subtle.ConstantTimeCompare([]byte(session.TxCodeValue), []byte(request.TxCode)) != 1 {
			return invalidGrant("invalid transaction code")
		}
		return nil
	}
	authorizationRequest := session.AuthorizationRequest
	if preAuthorized || authorizationRequest == nil {
		return invalidGrant("issuance session has no authorization request")
	}
	if request.RedirectURI != authorizationRequest.RedirectURI {
		return invalidGrant("redirect_uri does not match the authorization request")
	}
	if request.ClientID != "" && request.ClientID != authorizationRequest.ClientID {
		return invalidGrant("client_id does not match the authorization request")
	}
	if binding.AttestedClientID != "" && binding.AttestedClientID != authorizationRequest.ClientID {
		return newError(openid4vci.TokenError, openid4vci.InvalidClient, errors.New("attested client does not match the authorization request"))
	}
	if authorizationRequest.CodeChallenge != "" {
		if request.CodeVerifier == "" {
			return invalidGrant("missing code_verifier")
		}
		if !verifyCodeChallenge(authorizationRequest.CodeChallenge, authorizationRequest.CodeChallengeMethod, request.CodeVerifier) {
			return invalidGrant("code_verifier does not match the code_challenge")
		}
	}
	return nil
}

// verifyCodeChallenge checks the PKCE code verifier. The method defaults to plain (RFC 7636, section 4.3).
func verifyCodeChallenge(challenge string, method string, verifier string) bool {
	expected := verifier
	if method == codeChallengeS256 {
		digest := sha256.Sum256([]byte(verifier))
		expected = base64.RawURLEncoding.EncodeToString(digest[:])
	}
	return subtle.ConstantTimeCompare([]byte(challenge), []byte(expected)) == 1
}
