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

package sdjwt

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-issuer/credential"
	"github.com/nuts-foundation/nuts-issuer/credential/jwtvc"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

const (
	// TypeVCSDJWT is the typ header of SD-JWT VCs.
	TypeVCSDJWT = "vc+sd-jwt"
	// TypeDCSDJWT is the typ header of SD-JWT VCs in the newer dc+sd-jwt format.
	TypeDCSDJWT = "dc+sd-jwt"
	// VCTClaim holds the credential type of an SD-JWT VC.
	VCTClaim = "vct"
	// ConfirmationClaim holds the holder key.
	ConfirmationClaim = "cnf"
)

var nowFunc = time.Now

// VCOptions contains the parameters of an SD-JWT VC besides its claims.
type VCOptions struct {
	// IssuerID is the issuer identifier, it's required.
	IssuerID string
	// VCT is the credential type, it's required.
	VCT string
	// Holder is the holder the credential is bound to through the cnf claim.
	Holder credential.Holder
	// SelectiveDisclosure tells which of the credential claims are disclosable.
	SelectiveDisclosure *Map
	// Claims are additional, always visible JWT claims (e.g. jti, exp, nbf).
	Claims map[string]interface{}
	// Type is the typ header, TypeVCSDJWT when empty.
	Type string
	// Headers are additional protected headers.
	Headers map[string]interface{}
}

// IssueVC creates an SD-JWT VC (https://datatracker.ietf.org/doc/draft-ietf-oauth-sd-jwt-vc/) from the credential claims.
// Only the credential claims can be made disclosable, the registered claims (iss, vct, cnf, iat, ...) are always visible.
func IssueVC(key nutsCrypto.SigningKey, claims map[string]interface{}, options VCOptions) (*SDJWT, error) {
	if options.IssuerID == "" {
		return nil, fmt.Errorf("%w: missing issuer", credential.ErrInvalidIssuer)
	}
	if options.VCT == "" {
		return nil, fmt.Errorf("missing %s", VCTClaim)
	}
	payload, err := CreatePayload(claims, options.SelectiveDisclosure)
	if err != nil {
		return nil, err
	}
	payload.Claims[jwt.IssuerKey] = options.IssuerID
	payload.Claims[VCTClaim] = options.VCT
	payload.Claims[jwt.IssuedAtKey] = nowFunc().Unix()
	// cnf is optional for SD-JWT VCs, but a credential without holder key can't be presented with key binding
	if cnf, err := options.Holder.Confirmation(); err == nil {
		payload.Claims[ConfirmationClaim] = cnf
	}
	if options.Holder.DID != "" {
		payload.Claims[jwt.SubjectKey] = options.Holder.DID
	}
	for name, value := range options.Claims {
		payload.Claims[name] = value
	}
	typ := options.Type
	if typ == "" {
		typ = TypeVCSDJWT
	}
	headers := map[string]interface{}{
		jws.TypeKey:  typ,
		jws.KeyIDKey: credential.IssuerKeyID(options.IssuerID, key.KID()),
	}
	for name, value := range options.Headers {
		headers[name] = value
	}
	result, err := Sign(key, *payload, headers)
	if err != nil {
		return nil, fmt.Errorf("unable to sign SD-JWT VC: %w", err)
	}
	return result, nil
}

// IssueW3C creates a W3C JWT-VC with selectively disclosable credential properties: sdMap applies to the vc claim.
func IssueW3C(key nutsCrypto.SigningKey, document map[string]interface{}, sdMap *Map, options jwtvc.Options) (*SDJWT, error) {
	if options.IssuerID == "" {
		return nil, fmt.Errorf("%w: missing issuer DID", credential.ErrInvalidIssuer)
	}
	claims, err := jwtvc.Claims(document, options)
	if err != nil {
		return nil, err
	}
	payload, err := CreatePayload(claims, &Map{Fields: map[string]Field{jwtvc.VCClaim: {Children: sdMap}}})
	if err != nil {
		return nil, err
	}
	headers := map[string]interface{}{
		jws.TypeKey:  "JWT",
		jws.KeyIDKey: credential.IssuerKeyID(options.IssuerID, key.KID()),
	}
	for name, value := range options.Headers {
		headers[name] = value
	}
	result, err := Sign(key, *payload, headers)
	if err != nil {
		return nil, fmt.Errorf("unable to sign JWT-VC: %w", err)
	}
	return result, nil
}
