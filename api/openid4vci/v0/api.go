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

package v0

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-issuer/auth"
	"github.com/nuts-foundation/nuts-issuer/auth/clientattestation"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/crypto/dpop"
	"github.com/nuts-foundation/nuts-issuer/issuer"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

const apiModuleName = issuer.ModuleName + "/OpenID4VCI"

// dpopHeader is the HTTP header carrying a DPoP proof.
const dpopHeader = "DPoP"

var _ core.ErrorWriter = (*protocolErrorWriter)(nil)

type protocolErrorWriter struct {
}

func (p protocolErrorWriter) Write(echoContext echo.Context, _ int, _ string, err error) error {
	// If not already a protocol error, make it one (code=server_error).
	var protocolError openid4vci.Error
	if !errors.As(err, &protocolError) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) && echoErr.Code < http.StatusInternalServerError {
			protocolError = openid4vci.Error{Err: err, Code: openid4vci.InvalidRequest, StatusCode: echoErr.Code}
		} else {
			protocolError = openid4vci.Error{
				Err:        err,
				Code:       openid4vci.ServerError,
				StatusCode: http.StatusInternalServerError,
			}
		}
	}
	status := protocolError.Status()
	// OpenID4VCI errors contain an extra message which we don't want to return, so log it here.
	log.Logger().Warnf("OpenID4VCI error occurred (status %d): %s", status, err)
	if status == http.StatusUnauthorized {
		echoContext.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer error="`+string(protocolError.Code)+`"`)
	}
	if protocolError.Code == openid4vci.ServerError {
		// don't leak internal errors
		protocolError.Err = nil
	}
	return echoContext.JSON(status, protocolError)
}

// protocolStatusCodeResolver resolves the status code of protocol errors, used for logging.
type protocolStatusCodeResolver struct{}

func (protocolStatusCodeResolver) ResolveStatusCode(err error) int {
	var protocolError openid4vci.Error
	if errors.As(err, &protocolError) {
		return protocolError.Status()
	}
	return http.StatusInternalServerError
}

// Wrapper exposes the credential issuer and its authorization server over HTTP.
type Wrapper struct {
	Issuer issuer.OpenID4VCI
	Guards auth.ProofOfPossessionGuards
}

// Routes registers the API routes
func (w Wrapper) Routes(router core.EchoRouter) {
	router.GET(openid4vci.CredentialIssuerMetadataWellKnownPath, w.handleCredentialIssuerMetadata, operation("GetCredentialIssuerMetadata"))
	router.GET(openid4vci.AuthorizationServerMetadataWellKnownPath, w.handleProviderMetadata, operation("GetAuthorizationServerMetadata"))
	router.GET(openid4vci.OpenIDConfigurationWellKnownPath, w.handleProviderMetadata, operation("GetOpenIDConfiguration"))
	router.GET(openid4vci.JWKSPath, w.handleJWKS, operation("GetJWKS"))
	router.GET(openid4vci.CredentialOfferPath, w.handleCredentialOffer, operation("GetCredentialOffer"))
	router.POST(openid4vci.PushedAuthorizePath, w.handlePushedAuthorizationRequest, operation("PushAuthorizationRequest"))
	router.GET(openid4vci.AuthorizationPath, w.handleAuthorize, operation("Authorize"))
	router.GET(openid4vci.AuthCallbackPath, w.handleAuthorizationCallback, operation("AuthorizationCallback"))
	router.POST(openid4vci.TokenPath, w.handleToken, operation("RequestAccessToken"))
	router.POST(openid4vci.CredentialPath, w.handleCredential, operation("RequestCredential"))
	router.POST(openid4vci.BatchCredentialPath, w.handleBatchCredential, operation("RequestBatchCredential"))
	router.POST(openid4vci.DeferredPath, w.handleDeferredCredential, operation("RequestDeferredCredential"))
}

func operation(operationID string) echo.MiddlewareFunc {
	return core.Operation{
		ID:       operationID,
		Module:   apiModuleName,
		Resolver: protocolStatusCodeResolver{},
		Writer:   &protocolErrorWriter{},
	}.Middleware()
}

func (w Wrapper) handleCredentialIssuerMetadata(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, w.Issuer.Metadata())
}

func (w Wrapper) handleProviderMetadata(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, w.Issuer.ProviderMetadata())
}

func (w Wrapper) handleJWKS(ctx echo.Context) error {
	set, err := w.Issuer.JWKS()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, set)
}

func (w Wrapper) handleCredentialOffer(ctx echo.Context) error {
	sessionID := ctx.QueryParam("id")
	if sessionID == "" {
		return openid4vci.Error{Kind: openid4vci.AuthorizationError, Code: openid4vci.InvalidRequest, Err: errors.New("missing id")}
	}
	offer, err := w.Issuer.CredentialOffer(ctx.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, offer)
}

func (w Wrapper) handlePushedAuthorizationRequest(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return invalidRequest(openid4vci.AuthorizationError, err)
	}
	request, err := openid4vci.ParseAuthorizationRequest(params)
	if err != nil {
		return invalidRequest(openid4vci.AuthorizationError, err)
	}
	response, err := w.Issuer.PushAuthorizationRequest(ctx.Request().Context(), request)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, response)
}

func (w Wrapper) handleAuthorize(ctx echo.Context) error {
	request, err := openid4vci.ParseAuthorizationRequest(ctx.QueryParams())
	if err != nil {
		return invalidRequest(openid4vci.AuthorizationError, err)
	}
	redirectURL, err := w.Issuer.Authorize(ctx.Request().Context(), request)
	if err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, redirectURL)
}

func (w Wrapper) handleAuthorizationCallback(ctx echo.Context) error {
	redirectURL, err := w.Issuer.AuthorizationCallback(ctx.Request().Context(), ctx.QueryParam("state"), ctx.QueryParam("result"))
	if err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, redirectURL)
}

func (w Wrapper) handleToken(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return invalidRequest(openid4vci.TokenError, err)
	}
	binding, err := w.clientBinding(ctx)
	if err != nil {
		return err
	}
	response, err := w.Issuer.Token(ctx.Request().Context(), openid4vci.ParseTokenRequest(params), *binding)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.JSON(http.StatusOK, response)
}

func (w Wrapper) handleCredential(ctx echo.Context) error {
	access, err := w.accessToken(ctx, openid4vci.CredentialError)
	if err != nil {
		return err
	}
	var request openid4vci.CredentialRequest
	if err := ctx.Bind(&request); err != nil {
		return invalidRequest(openid4vci.CredentialError, err)
	}
	response, err := w.Issuer.Credential(ctx.Request().Context(), *access, request)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, response)
}

func (w Wrapper) handleBatchCredential(ctx echo.Context) error {
	access, err := w.accessToken(ctx, openid4vci.BatchCredentialError)
	if err != nil {
		return err
	}
	var request openid4vci.BatchCredentialRequest
	if err := ctx.Bind(&request); err != nil {
		return invalidRequest(openid4vci.BatchCredentialError, err)
	}
	response, err := w.Issuer.BatchCredential(ctx.Request().Context(), *access, request)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, response)
}

// handleDeferredCredential redeems the acceptance token sent as access token. The request body is not used.
func (w Wrapper) handleDeferredCredential(ctx echo.Context) error {
	access, err := w.accessToken(ctx, openid4vci.DeferredCredentialError)
	if err != nil {
		return err
	}
	response, err := w.Issuer.DeferredCredential(ctx.Request().Context(), *access)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, response)
}

// clientBinding validates the DPoP proof and client attestation sent to the token endpoint.
func (w Wrapper) clientBinding(ctx echo.Context) (*issuer.ClientBinding, error) {
	result := issuer.ClientBinding{}
	request := ctx.Request()
	if proof := request.Header.Get(dpopHeader); proof != "" {
		thumbprint, err := w.Guards.DPoP().Validate(proof, dpop.Request{Method: request.Method, URL: w.requestURL(ctx)})
		if err != nil {
			return nil, openid4vci.Error{Kind: openid4vci.TokenError, Code: openid4vci.InvalidDPoPProof, Err: err}
		}
		result.DPoPThumbprint = thumbprint
	} else if w.Guards.DPoPRequired() {
		return nil, openid4vci.Error{Kind: openid4vci.TokenError, Code: openid4vci.InvalidDPoPProof, Err: errors.New("missing DPoP proof")}
	}
	validator := w.Guards.ClientAttestation()
	attestation := request.Header.Get(clientattestation.AttestationHeader)
	pop := request.Header.Get(clientattestation.PoPHeader)
	if validator == nil || (attestation == "" && pop == "") {
		return &result, nil
	}
	if attestation == "" || pop == "" {
		return nil, openid4vci.Error{Kind: openid4vci.TokenError, Code: openid4vci.InvalidClient, Err: errors.New("client attestation requires both attestation and proof-of-possession")}
	}
	attested, err := validator.Validate(attestation, pop, w.Issuer.ProviderMetadata().Issuer)
	if err != nil {
		return nil, openid4vci.Error{Kind: openid4vci.TokenError, Code: openid4vci.InvalidClient, Err: err}
	}
	result.AttestedClientID = attested.ClientID
	return &result, nil
}

// accessToken reads the access token from the Authorization header, validating the DPoP proof when sent.
func (w Wrapper) accessToken(ctx echo.Context, kind openid4vci.ErrorKind) (*issuer.AccessToken, error) {
	request := ctx.Request()
	scheme, token, ok := strings.Cut(request.Header.Get(echo.HeaderAuthorization), " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, openid4vci.Error{Kind: kind, Code: openid4vci.InvalidToken, Err: errors.New("missing access token")}
	}
	proof := request.Header.Get(dpopHeader)
	switch {
	case strings.EqualFold(scheme, openid4vci.TokenTypeBearer):
		if proof != "" {
			return nil, openid4vci.Error{Kind: kind, Code: openid4vci.InvalidDPoPProof, Err: errors.New("DPoP proof sent with bearer token")}
		}
		return &issuer.AccessToken{Token: token}, nil
	case strings.EqualFold(scheme, openid4vci.TokenTypeDPoP):
		if proof == "" {
			return nil, openid4vci.Error{Kind: kind, Code: openid4vci.InvalidDPoPProof, Err: errors.New("missing DPoP proof")}
		}
		thumbprint, err := w.Guards.DPoP().Validate(proof, dpop.Request{Method: request.Method, URL: w.requestURL(ctx), AccessToken: token})
		if err != nil {
			return nil, openid4vci.Error{Kind: kind, Code: openid4vci.InvalidDPoPProof, Err: err}
		}
		return &issuer.AccessToken{Token: token, DPoPThumbprint: thumbprint}, nil
	}
	return nil, openid4vci.Error{Kind: kind, Code: openid4vci.InvalidToken, Err: errors.New("unsupported authorization scheme")}
}

// requestURL returns the public URL of the request, DPoP proofs are bound to it.
func (w Wrapper) requestURL(ctx echo.Context) string {
	return w.Issuer.ProviderMetadata().Issuer + ctx.Request().URL.Path
}

func invalidRequest(kind openid4vci.ErrorKind, err error) error {
	return openid4vci.Error{Kind: kind, Code: openid4vci.InvalidRequest, Err: err}
}
