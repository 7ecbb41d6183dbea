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

// Package clientattestation validates OAuth 2.0 Attestation-Based Client Authentication headers.
package clientattestation

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-issuer/auth/replay"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

const (
	// AttestationHeader is the HTTP header carrying the client attestation JWT.
	AttestationHeader = "OAuth-Client-Attestation"
	// PoPHeader is the HTTP header carrying the client attestation proof-of-possession JWT.
	PoPHeader = "OAuth-Client-Attestation-PoP"
	// AttestationType is the typ header value of a client attestation.
	AttestationType = "oauth-client-attestation+jwt"
	// PoPType is the typ header value of a client attestation proof-of-possession.
	PoPType = "oauth-client-attestation-pop+jwt"
)

const maxJtiLength = 256

const clockSkew = 5 * time.Second

// ErrInvalidAttestation is returned when a client attestation or its proof-of-possession is invalid.
var ErrInvalidAttestation = errors.New("invalid client attestation")

// Validator validates (attestation, proof-of-possession) pairs.
// Attestations must be signed by a key of a trusted attester.
// Without trusted attesters the validator is permissive: attestations of any issuer are accepted unverified.
type Validator struct {
	trustedKeys map[string]jwk.Set
	maxAge      time.Duration
	replay      *replay.Cache
	now         func() time.Time
}

// NewValidator creates a Validator that accepts attestations signed by the keys of the given attesters (issuer to JWK Set).
// The jti of accepted proofs is remembered in the given replay cache.
func NewValidator(trustedKeys map[string]jwk.Set, maxAge time.Duration, replayCache *replay.Cache) *Validator {
	return &Validator{
		trustedKeys: trustedKeys,
		maxAge:      maxAge,
		replay:      replayCache,
		now:         time.Now,
	}
}

// Permissive returns true when attestations of any issuer are accepted.
func (v *Validator) Permissive() bool {
	return len(v.trustedKeys) == 0
}

// Result holds the outcome of a successful validation.
type Result struct {
	// ClientID is the subject of the attestation.
	ClientID string
	// Issuer is the attester.
	Issuer string
	// Thumbprint is the JWK thumbprint of the attested client instance key.
	Thumbprint string
}

// Validate validates the attestation and its proof-of-possession. The audience of the PoP must equal the given audience, if not empty.
func (v *Validator) Validate(attestation string, pop string, audience string) (*Result, error) {
	attestationToken, err := v.parseAttestation(attestation)
	if err != nil {
		return nil, err
	}
	clientKey, err := confirmationKey(attestationToken)
	if err != nil {
		return nil, err
	}
	popToken, err := v.parsePoP(pop, clientKey)
	if err != nil {
		return nil, err
	}
	if popToken.Issuer() != attestationToken.Subject() {
		return nil, fmt.Errorf("%w: PoP iss does not match attestation sub", ErrInvalidAttestation)
	}
	if audience != "" && !slices.Contains(popToken.Audience(), audience) {
		return nil, fmt.Errorf("%w: PoP aud does not match %s", ErrInvalidAttestation, audience)
	}
	if v.replay != nil {
		if err := v.replay.Use(popToken.JwtID()); err != nil {
			return nil, fmt.Errorf("%w: PoP jti replayed", ErrInvalidAttestation)
		}
	}
	thumbprint, err := nutsCrypto.Thumbprint(clientKey)
	if err != nil {
		return nil, err
	}
	return &Result{
		ClientID:   attestationToken.Subject(),
		Issuer:     attestationToken.Issuer(),
		Thumbprint: thumbprint,
	}, nil
}

// parseAttestation parses the attestation and verifies its signature against the keys of the attester it names.
// In permissive mode the signature isn't verified.
func (v *Validator) parseAttestation(attestation string) (jwt.Token, error) {
	if _, err := protectedHeaders(attestation, AttestationType); err != nil {
		return nil, err
	}
	token, err := jwt.ParseString(attestation, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, errors.Join(ErrInvalidAttestation, err)
	}
	if !v.Permissive() {
		keys, trusted := v.trustedKeys[token.Issuer()]
		if !trusted {
			return nil, fmt.Errorf("%w: untrusted issuer: %s", ErrInvalidAttestation, token.Issuer())
		}
		_, err = jws.Verify([]byte(attestation), jws.WithKeySet(keys, jws.WithRequireKid(false), jws.WithInferAlgorithmFromKey(true)))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid attestation signature: %w", ErrInvalidAttestation, err)
		}
	}
	if token.Expiration().IsZero() {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidAttestation)
	}
	if !token.Expiration().After(v.now()) {
		return nil, fmt.Errorf("%w: attestation expired", ErrInvalidAttestation)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidAttestation)
	}
	return token, nil
}

func (v *Validator) parsePoP(pop string, clientKey jwk.Key) (jwt.Token, error) {
	headers, err := protectedHeaders(pop, PoPType)
	if err != nil {
		return nil, err
	}
	token, err := jwt.ParseString(pop, jwt.WithKey(headers.Algorithm(), clientKey), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid PoP signature: %w", ErrInvalidAttestation, err)
	}
	if token.JwtID() == "" {
		return nil, fmt.Errorf("%w: missing PoP jti claim", ErrInvalidAttestation)
	}
	if len(token.JwtID()) > maxJtiLength {
		return nil, fmt.Errorf("%w: PoP jti claim too long", ErrInvalidAttestation)
	}
	issuedAt := token.IssuedAt()
	if issuedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing PoP iat claim", ErrInvalidAttestation)
	}
	now := v.now()
	if issuedAt.After(now.Add(clockSkew)) || (v.maxAge > 0 && issuedAt.Before(now.Add(-v.maxAge))) {
		return nil, fmt.Errorf("%w: PoP iat outside of accepted window", ErrInvalidAttestation)
	}
	return token, nil
}

// protectedHeaders checks the single signature of the JWS uses an asymmetric algorithm and has the expected typ.
func protectedHeaders(token string, expectedType string) (jws.Headers, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidAttestation, err)
	}
	if len(message.Signatures()) != 1 {
		return nil, fmt.Errorf("%w: invalid number of signatures", ErrInvalidAttestation)
	}
	headers := message.Signatures()[0].ProtectedHeaders()
	if !slices.Contains(nutsCrypto.SupportedAlgorithms, headers.Algorithm()) {
		return nil, fmt.Errorf("%w: invalid alg: %s", ErrInvalidAttestation, headers.Algorithm())
	}
	if headers.Type() != "" && headers.Type() != expectedType {
		return nil, fmt.Errorf("%w: invalid type: %s", ErrInvalidAttestation, headers.Type())
	}
	return headers, nil
}

// confirmationKey returns the public key from the cnf.jwk claim of the attestation.
func confirmationKey(token jwt.Token) (jwk.Key, error) {
	raw, ok := token.Get("cnf")
	if !ok {
		return nil, fmt.Errorf("%w: missing cnf claim", ErrInvalidAttestation)
	}
	cnf, ok := raw.(map[string]interface{})
	if !ok || cnf["jwk"] == nil {
		return nil, fmt.Errorf("%w: missing cnf.jwk claim", ErrInvalidAttestation)
	}
	data, err := json.Marshal(cnf["jwk"])
	if err != nil {
		return nil, err
	}
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cnf.jwk claim: %w", ErrInvalidAttestation, err)
	}
	if nutsCrypto.IsPrivateJWK(key) {
		return nil, fmt.Errorf("%w: cnf.jwk contains a private key", ErrInvalidAttestation)
	}
	return key, nil
}
