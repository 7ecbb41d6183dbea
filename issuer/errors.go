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
	"errors"

	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// protocolError converts an error of the session store or credential generator into the protocol error of the endpoint.
// An unknown, expired or closed session is reported with notFound: invalid_request at the authorization endpoint,
// invalid_grant at the token endpoint and invalid_token at the credential endpoints.
func protocolError(kind openid4vci.ErrorKind, notFound openid4vci.ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	var protocolErr openid4vci.Error
	if errors.As(err, &protocolErr) {
		if protocolErr.Kind == "" {
			protocolErr.Kind = kind
		}
		return protocolErr
	}
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrDeferredRequestNotFound) || errors.Is(err, ErrInvalidToken) {
		return openid4vci.Error{Kind: kind, Code: notFound, Err: err}
	}
	return openid4vci.Error{Kind: kind, Code: openid4vci.ServerError, Err: err}
}

func newError(kind openid4vci.ErrorKind, code openid4vci.ErrorCode, err error) openid4vci.Error {
	return openid4vci.Error{Kind: kind, Code: code, Err: err}
}

var errSessionClosed = errors.New("issuance session is closed")
