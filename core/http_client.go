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

package core

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxLoggedResponseBody is the number of response body bytes logged for unexpected responses.
const maxLoggedResponseBody = 100

// HttpError is returned when a remote server (signing service, callback endpoint) responds with an unexpected status.
type HttpError struct {
	error
	StatusCode   int
	ResponseBody []byte
}

// TestResponseCode returns a HttpError if the status code of the response isn't the expected one.
func TestResponseCode(expectedStatusCode int, response *http.Response) error {
	return TestResponseCodeWithLog(expectedStatusCode, response, nil)
}

// TestResponseCodeWithLog is TestResponseCode that also logs the (clipped) response body to log, if not nil.
func TestResponseCodeWithLog(expectedStatusCode int, response *http.Response, log *logrus.Entry) error {
	if response.StatusCode == expectedStatusCode {
		return nil
	}
	var body []byte
	if response.Body != nil {
		body, _ = io.ReadAll(response.Body)
	}
	if log != nil {
		entry := log
		if response.Request != nil {
			entry = entry.WithField("http_request_path", response.Request.URL.Path)
		}
		entry.Infof("Unexpected HTTP response (len=%d): %s", len(body), clip(body))
	}
	return HttpError{
		error:        fmt.Errorf("server returned HTTP %d (expected: %d)", response.StatusCode, expectedStatusCode),
		StatusCode:   response.StatusCode,
		ResponseBody: body,
	}
}

func clip(body []byte) string {
	if len(body) <= maxLoggedResponseBody {
		return string(body)
	}
	return string(body[:maxLoggedResponseBody]) + "...(clipped)"
}

// HTTPRequestDoer defines the Do method of the http.Client interface.
type HTTPRequestDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewStrictHTTPClient creates the client for outbound calls of the issuer.
// It refuses plain HTTP when strictmode is enabled, identifies itself with the issuer's User-Agent
// and propagates the trace context of the request.
// A nil tlsConfig uses the system roots with TLS 1.2 as minimum.
func NewStrictHTTPClient(strictmode bool, timeout time.Duration, tlsConfig *tls.Config) *StrictHTTPClient {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	transport := http.DefaultTransport
	// tests may replace the default transport
	if httpTransport, ok := transport.(*http.Transport); ok {
		httpTransport = httpTransport.Clone()
		httpTransport.TLSClientConfig = tlsConfig
		transport = httpTransport
	}
	return &StrictHTTPClient{
		client:     &http.Client{Transport: transport, Timeout: timeout},
		strictMode: strictmode,
	}
}

// StrictHTTPClient is the HTTPRequestDoer returned by NewStrictHTTPClient.
type StrictHTTPClient struct {
	client     *http.Client
	strictMode bool
}

// Do executes the request.
func (s *StrictHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if s.strictMode && req.URL.Scheme != "https" {
		return nil, errors.New("strictmode is enabled, but request is not over HTTPS")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent())
	}
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	return s.client.Do(req)
}

// UserAgent returns the User-Agent of outbound requests.
func UserAgent() string {
	return "nuts-issuer/" + Version()
}
