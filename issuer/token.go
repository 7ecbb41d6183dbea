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
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

// TokenTarget is the audience of a token minted by the TokenService, it tells what the token may be used for.
type TokenTarget string

const (
	// TargetToken is the audience of authorization codes and pre-authorized codes, redeemed at the token endpoint.
	TargetToken TokenTarget = "TOKEN"
	// TargetAccess is the audience of access tokens, used at the credential endpoints.
	TargetAccess TokenTarget = "ACCESS"
	// TargetDeferredCredential is the audience of acceptance tokens, used at the deferred credential endpoint.
	TargetDeferredCredential TokenTarget = "DEFERRED_CREDENTIAL"
)

// ErrInvalidToken is returned when a token can't be verified, has expired or has another target.
var ErrInvalidToken = errors.New("invalid token")

// Token contains the claims of a token minted by the TokenService.
type Token struct {
	// SessionID is the issuance session the token belongs to (sub claim).
	SessionID string
	// Target is the aud claim.
	Target TokenTarget
	// ID is the jti claim. For acceptance tokens it's the ID of the deferred credential.
	ID string
	// Thumbprint is the JWK thumbprint (cnf.jkt) of the DPoP key the token is bound to.
	Thumbprint string
	// Expiry is the exp claim.
	Expiry time.Time
}

// TokenService mints and verifies the tokens of the issuer (codes, access tokens, acceptance tokens)
// as JWTs, signed with the internal token key.
type TokenService struct {
	key    nutsCrypto.SigningKey
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService that signs with the given key. The issuer is put in the iss claim.
func NewTokenService(key nutsCrypto.SigningKey, issuer string) *TokenService {
	return &TokenService{key: key, issuer: issuer, now: time.Now}
}

// Mint creates a token that is valid for the given TTL.
func (s TokenService) Mint(token Token, ttl time.Duration) (string, error) {
	now := s.now()
	claims := map[string]interface{}{
		jwt.IssuerKey:     s.issuer,
		jwt.SubjectKey:    token.SessionID,
		jwt.AudienceKey:   []string{string(token.Target)},
		jwt.IssuedAtKey:   now.Unix(),
		jwt.ExpirationKey: now.Add(ttl).Unix(),
	}
	if token.ID != "" {
		claims[jwt.JwtIDKey] = token.ID
	}
	if token.Thumbprint != "" {
		claims["cnf"] = map[string]interface{}{"jkt": token.Thumbprint}
	}
	result, err := nutsCrypto.SignJWT(s.key, claims, map[string]interface{}{jws.TypeKey: "JWT"})
	if err != nil {
		return "", fmt.Errorf("unable to mint %s token: %w", token.Target, err)
	}
	return result, nil
}

// Verify checks the signature, issuer, expiry and target of the token and returns its claims.
func (s TokenService) Verify(token string, target TokenTarget) (*Token, error) {
	parsed, err := nutsCrypto.ParseJWT(token, s.key.Public(), s.key.Algorithm(),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(string(target)),
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithAcceptableSkew(5*time.Second))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if parsed.Subject() == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	result := &Token{
		SessionID: parsed.Subject(),
		Target:    target,
		ID:        parsed.JwtID(),
		Expiry:    parsed.Expiration(),
	}
	if cnf, ok := parsed.Get("cnf"); ok {
		if cnfMap, ok := cnf.(map[string]interface{}); ok {
			result.Thumbprint, _ = cnfMap["jkt"].(string)
		}
	}
	return result, nil
}

// PublicKey returns the public JWK of the token key, to be published in the JWK set of the issuer.
func (s TokenService) PublicKey() (jwk.Key, error) {
	key, err := nutsCrypto.PublicJWK(s.key)
	if err != nil {
		return nil, err
	}
	_ = key.Set(jwk.KeyUsageKey, jwk.ForSignature)
	return key, nil
}
