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

package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

const (
	// SessionTTLParam is the query parameter or header that overrides the session lifetime, in seconds.
	SessionTTLParam = "sessionTtl"
	// StatusCallbackParam is the query parameter or header that sets the URL receiving the session callbacks.
	StatusCallbackParam = "statusCallbackUri"
)

// formats maps the format path segment to the credential formats that may be issued through it.
var formats = map[string][]string{
	"jwt":   {openid4vci.JWTVCJSONFormat},
	"sdjwt": {openid4vci.SDJWTVCFormat},
	"mdoc":  {openid4vci.MsoMdocFormat},
}

var _ core.ErrorStatusCodeResolver = (*Wrapper)(nil)

// OfferResponse is returned when a credential offer is created.
type OfferResponse struct {
	// CredentialOfferURI is the openid-credential-offer:// URI to hand to the wallet.
	CredentialOfferURI string `json:"credentialOfferUri"`
	// SessionID identifies the issuance session, for retrieving its status.
	SessionID string `json:"sessionId"`
}

// Wrapper implements the issuer administration API.
type Wrapper struct {
	Issuer issuer.AdministrationAPI
}

// ResolveStatusCode maps errors returned by this API to specific HTTP status codes.
func (w *Wrapper) ResolveStatusCode(err error) int {
	return core.ResolveStatusCode(err, map[error]int{
		issuer.ErrSessionNotFound:        http.StatusNotFound,
		issuer.ErrInvalidIssuanceRequest: http.StatusBadRequest,
	})
}

// Routes registers the API routes
func (w *Wrapper) Routes(router core.EchoRouter) {
	router.POST("/issuer/openid4vc/:format/issue", w.Issue, w.operation("Issue"))
	router.POST("/issuer/openid4vc/:format/issueBatch", w.IssueBatch, w.operation("IssueBatch"))
	router.GET("/issuer/openid4vc/sessions/:id", w.GetSessionStatus, w.operation("GetSessionStatus"))
}

func (w *Wrapper) operation(operationID string) echo.MiddlewareFunc {
	return core.Operation{ID: operationID, Module: issuer.ModuleName, Resolver: w}.Middleware()
}

// Issue creates a credential offer for a single issuance request.
func (w *Wrapper) Issue(ctx echo.Context) error {
	var request issuer.IssuanceRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}
	return w.createOffer(ctx, []issuer.IssuanceRequest{request})
}

// IssueBatch creates a single credential offer for all given issuance requests.
func (w *Wrapper) IssueBatch(ctx echo.Context) error {
	var requests []issuer.IssuanceRequest
	if err := ctx.Bind(&requests); err != nil {
		return err
	}
	return w.createOffer(ctx, requests)
}

// GetSessionStatus returns the status of an issuance session.
func (w *Wrapper) GetSessionStatus(ctx echo.Context) error {
	status, err := w.Issuer.SessionStatus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

func (w *Wrapper) createOffer(ctx echo.Context, requests []issuer.IssuanceRequest) error {
	options, err := offerOptions(ctx)
	if err != nil {
		return err
	}
	offer, err := w.Issuer.CreateOffer(ctx.Request().Context(), requests, *options)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, OfferResponse{CredentialOfferURI: offer.URI, SessionID: offer.SessionID})
}

func offerOptions(ctx echo.Context) (*issuer.OfferOptions, error) {
	format := ctx.Param("format")
	allowed, ok := formats[format]
	if !ok {
		return nil, core.NotFoundError("unsupported credential format: %s", format)
	}
	result := issuer.OfferOptions{
		Formats:     allowed,
		CallbackURL: param(ctx, StatusCallbackParam),
	}
	if ttl := param(ctx, SessionTTLParam); ttl != "" {
		seconds, err := strconv.Atoi(ttl)
		if err != nil || seconds <= 0 {
			return nil, core.InvalidInputError("invalid %s: must be a positive number of seconds", SessionTTLParam)
		}
		result.TTL = time.Duration(seconds) * time.Second
	}
	return &result, nil
}

// param returns the query parameter, or the header with the same name when the query parameter is absent.
func param(ctx echo.Context, name string) string {
	if value := ctx.QueryParam(name); value != "" {
		return value
	}
	return ctx.Request().Header.Get(name)
}
