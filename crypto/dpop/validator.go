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

package dpop

import (
	"errors"
	"fmt"
	"time"

	"github.com/nuts-foundation/nuts-issuer/auth/replay"
)

// ErrReplayed is returned when a DPoP proof reuses the jti of an earlier proof.
var ErrReplayed = errors.New("DPoP proof replayed")

// Validator validates DPoP proofs presented on incoming requests.
type Validator struct {
	// MaxAge is the maximum age of a proof, measured from its iat claim.
	MaxAge time.Duration
	replay *replay.Cache
	now    func() time.Time
}

// NewValidator creates a Validator that remembers the jti of accepted proofs in the given replay cache.
func NewValidator(maxAge time.Duration, replayCache *replay.Cache) *Validator {
	return &Validator{
		MaxAge: maxAge,
		replay: replayCache,
		now:    time.Now,
	}
}

// Request describes the HTTP request a DPoP proof was presented on.
type Request struct {
	Method string
	URL    string
	// AccessToken is the access token sent along, if any. When set, the proof must carry the matching ath claim.
	AccessToken string
	// Thumbprint is the key thumbprint the access token is bound to, if any.
	Thumbprint string
}

// Validate parses and validates the given proof for the given request.
// It returns the JWK thumbprint of the proof key.
func (v *Validator) Validate(proof string, request Request) (string, error) {
	token, err := Parse(proof)
	if err != nil {
		return "", err
	}
	if _, err := token.Match(request.Thumbprint, request.Method, request.URL); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDPoP, err)
	}
	now := v.now()
	issuedAt := token.Token.IssuedAt()
	if issuedAt.After(now.Add(clockSkew)) {
		return "", fmt.Errorf("%w: iat is in the future", ErrInvalidDPoP)
	}
	if v.MaxAge > 0 && issuedAt.Before(now.Add(-v.MaxAge)) {
		return "", fmt.Errorf("%w: proof is too old", ErrInvalidDPoP)
	}
	if request.AccessToken != "" && token.ATH() != AccessTokenHash(request.AccessToken) {
		return "", fmt.Errorf("%w: ath does not match access token", ErrInvalidDPoP)
	}
	if v.replay != nil {
		if err := v.replay.Use(token.Token.JwtID()); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDPoP, ErrReplayed)
		}
	}
	return token.Thumbprint()
}
