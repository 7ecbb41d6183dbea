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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const issuanceRequest = `{"issuerKey":"key","issuerDid":"did:web:issuer.example.com","credentialConfigurationId":"mDL","mdocData":{"org.iso.18013.5.1":{"family_name":"Doe"}}}`

type testContext struct {
	issuer *issuer.MockAdministrationAPI
	echo   *echo.Echo
}

func newTestContext(t *testing.T) testContext {
	ctx := testContext{
		issuer: issuer.NewMockAdministrationAPI(gomock.NewController(t)),
		echo:   echo.New(),
	}
	ctx.echo.HTTPErrorHandler = core.CreateHTTPErrorHandler()
	(&Wrapper{Issuer: ctx.issuer}).Routes(ctx.echo)
	return ctx
}

func (c testContext) post(path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	recorder := httptest.NewRecorder()
	c.echo.ServeHTTP(recorder, request)
	return recorder
}

func (c testContext) get(path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	c.echo.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

var testOffer = &issuer.Offer{SessionID: "session", URI: openid4vci.CredentialOfferScheme + "?credential_offer_uri=x"}

func TestWrapper_Issue(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any(), issuer.OfferOptions{Formats: []string{openid4vci.MsoMdocFormat}}).
			DoAndReturn(func(_ interface{}, requests []issuer.IssuanceRequest, _ issuer.OfferOptions) (*issuer.Offer, error) {
				require.Len(t, requests, 1)
				assert.Equal(t, "mDL", requests[0].CredentialConfigurationID)
				assert.Equal(t, "Doe", requests[0].MdocData["org.iso.18013.5.1"]["family_name"])
				return testOffer, nil
			})

		recorder := ctx.post("/issuer/openid4vc/mdoc/issue", issuanceRequest, nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		var response OfferResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, OfferResponse{CredentialOfferURI: testOffer.URI, SessionID: "session"}, response)
	})
	t.Run("session TTL and callback from query", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any(), issuer.OfferOptions{
			TTL:         time.Minute,
			CallbackURL: "https://backend.example.com/events",
			Formats:     []string{openid4vci.JWTVCJSONFormat},
		}).Return(testOffer, nil)

		recorder := ctx.post("/issuer/openid4vc/jwt/issue?sessionTtl=60&statusCallbackUri=https://backend.example.com/events", issuanceRequest, nil)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("session TTL and callback from headers", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any(), issuer.OfferOptions{
			TTL:         2 * time.Minute,
			CallbackURL: "https://backend.example.com/events",
			Formats:     []string{openid4vci.SDJWTVCFormat},
		}).Return(testOffer, nil)

		recorder := ctx.post("/issuer/openid4vc/sdjwt/issue", issuanceRequest, map[string]string{
			SessionTTLParam:     "120",
			StatusCallbackParam: "https://backend.example.com/events",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("invalid session TTL", func(t *testing.T) {
		ctx := newTestContext(t)

		recorder := ctx.post("/issuer/openid4vc/mdoc/issue?sessionTtl=soon", issuanceRequest, nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "invalid sessionTtl")
	})
	t.Run("unsupported format", func(t *testing.T) {
		ctx := newTestContext(t)

		recorder := ctx.post("/issuer/openid4vc/ldp/issue", issuanceRequest, nil)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
	t.Run("invalid issuance request", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("%w: request 0: missing issuer key", issuer.ErrInvalidIssuanceRequest))

		recorder := ctx.post("/issuer/openid4vc/mdoc/issue", issuanceRequest, nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "application/problem+json", recorder.Header().Get(echo.HeaderContentType))
		assert.Contains(t, recorder.Body.String(), "missing issuer key")
	})
	t.Run("invalid body", func(t *testing.T) {
		ctx := newTestContext(t)

		recorder := ctx.post("/issuer/openid4vc/mdoc/issue", "{", nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
	t.Run("other errors", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("failed"))

		recorder := ctx.post("/issuer/openid4vc/mdoc/issue", issuanceRequest, nil)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestWrapper_IssueBatch(t *testing.T) {
	ctx := newTestContext(t)
	ctx.issuer.EXPECT().CreateOffer(gomock.Any(), gomock.Len(2), gomock.Any()).Return(testOffer, nil)

	recorder := ctx.post("/issuer/openid4vc/mdoc/issueBatch", "["+issuanceRequest+","+issuanceRequest+"]", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestWrapper_GetSessionStatus(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().SessionStatus(gomock.Any(), "session").Return(&issuer.SessionStatus{ID: "session", Status: issuer.StatusActive}, nil)

		recorder := ctx.get("/issuer/openid4vc/sessions/session")

		require.Equal(t, http.StatusOK, recorder.Code)
		var status issuer.SessionStatus
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
		assert.Equal(t, issuer.StatusActive, status.Status)
		assert.False(t, status.IsClosed)
	})
	t.Run("unknown session", func(t *testing.T) {
		ctx := newTestContext(t)
		ctx.issuer.EXPECT().SessionStatus(gomock.Any(), "unknown").Return(nil, issuer.ErrSessionNotFound)

		recorder := ctx.get("/issuer/openid4vc/sessions/unknown")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
