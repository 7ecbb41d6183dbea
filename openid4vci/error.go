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

import (
	"encoding/json"
	"net/http"
)

// ErrorCode specifies error codes as defined by the OpenID4VCI and OAuth2 specs.
type ErrorCode string

const (
	// InvalidRequest is returned when the request is malformed, or refers to an unknown or closed issuance session.
	InvalidRequest ErrorCode = "invalid_request"
	// InvalidClient is returned when client authentication (e.g. a client attestation) failed.
	InvalidClient ErrorCode = "invalid_client"
	// InvalidGrant is returned when (in addition to cases defined by OAuth2):
	// - the Authorization Server expects a PIN in the pre-authorized flow but the client provides the wrong PIN
	// - the End-User provides the wrong Pre-Authorized Code or the Pre-Authorized Code has expired
	InvalidGrant ErrorCode = "invalid_grant"
	// InvalidToken is returned when the Credential Request contains the wrong Access Token or the Access Token is missing.
	InvalidToken ErrorCode = "invalid_token"
	// InvalidScope is returned when the requested scope or authorization details match no credential configuration.
	InvalidScope ErrorCode = "invalid_scope"
	// AccessDenied is returned when the End-User rejected the authorization.
	AccessDenied ErrorCode = "access_denied"
	// UnsupportedGrantType is returned when the Authorization Server does not support the requested grant type.
	UnsupportedGrantType ErrorCode = "unsupported_grant_type"
	// UnsupportedResponseType is returned when the Authorization Server does not support the requested response type.
	UnsupportedResponseType ErrorCode = "unsupported_response_type"
	// ServerError is returned when the Authorization Server encounters an unexpected condition that prevents it from fulfilling the request.
	ServerError ErrorCode = "server_error"
	// UnsupportedCredentialType is returned when the credential issuer does not support the requested credential type.
	UnsupportedCredentialType ErrorCode = "unsupported_credential_type"
	// UnsupportedCredentialFormat is returned when the credential issuer does not support the requested credential format.
	UnsupportedCredentialFormat ErrorCode = "unsupported_credential_format"
	// InvalidOrMissingProof is returned when the Credential Request did not contain a proof,
	// or proof was invalid, i.e. it was not bound to a Credential Issuer provided nonce
	InvalidOrMissingProof ErrorCode = "invalid_or_missing_proof"
	// InvalidDPoPProof is returned when the DPoP proof of a request is missing or invalid.
	InvalidDPoPProof ErrorCode = "invalid_dpop_proof"
	// IssuancePending is returned by the deferred credential endpoint when the credential is not ready yet.
	IssuancePending ErrorCode = "issuance_pending"
)

// ErrorKind identifies the endpoint an Error originated from.
type ErrorKind string

const (
	AuthorizationError      ErrorKind = "authorization"
	TokenError              ErrorKind = "token"
	CredentialError         ErrorKind = "credential"
	BatchCredentialError    ErrorKind = "batch_credential"
	DeferredCredentialError ErrorKind = "deferred_credential"
)

// Error is an error that signals the error was (probably) caused by the client (e.g. bad request),
// or that the client can recover from the error (e.g. retry). Errors are specified by the OpenID4VCI specification.
type Error struct {
	// Kind is the endpoint the error originated from.
	Kind ErrorKind `json:"-"`
	// Code is the error code as defined by the OpenID4VCI spec.
	Code ErrorCode `json:"error"`
	// Err is the underlying error, may be omitted. Its message is returned as error_description.
	Err error `json:"-"`
	// StatusCode is the HTTP status code that should be returned to the client.
	// When not set, it is derived from Kind and Code.
	StatusCode int `json:"-"`
	// Request is the request that caused the error, used for logging and callbacks.
	Request interface{} `json:"-"`
	// CNonce is a fresh nonce the client should use in its next proof.
	CNonce *string `json:"c_nonce,omitempty"`
	// CNonceExpiresIn is the lifetime of CNonce in seconds.
	CNonceExpiresIn *int `json:"c_nonce_expires_in,omitempty"`
}

// Error returns the error message, which is either the underlying error or the code if there is no underlying error
func (e Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + " - " + e.Err.Error()
}

func (e Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error.
func (e Error) Status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Code {
	case ServerError:
		return http.StatusInternalServerError
	case InvalidClient, InvalidToken:
		return http.StatusUnauthorized
	case InvalidDPoPProof:
		if e.Kind == TokenError {
			return http.StatusBadRequest
		}
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

// MarshalJSON renders the error as OAuth2/OpenID4VCI error response body.
func (e Error) MarshalJSON() ([]byte, error) {
	result := map[string]interface{}{
		"error": e.Code,
	}
	if e.Err != nil {
		result["error_description"] = e.Err.Error()
	}
	if e.CNonce != nil {
		result["c_nonce"] = *e.CNonce
	}
	if e.CNonceExpiresIn != nil {
		result["c_nonce_expires_in"] = *e.CNonceExpiresIn
	}
	return json.Marshal(result)
}

// WithNonce returns a copy of the error carrying the given nonce.
func (e Error) WithNonce(nonce string, expiresIn int) Error {
	e.CNonce = &nonce
	e.CNonceExpiresIn = &expiresIn
	return e
}
