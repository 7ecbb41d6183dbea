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

// Package jwtvc issues W3C Verifiable Credentials secured as JWT (jwt_vc_json).
package jwtvc

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/go-did/vc"
	"github.com/nuts-foundation/nuts-issuer/credential"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

// VCClaim is the JWT claim that holds the credential document.
const VCClaim = "vc"

// nowFunc is used to store a function that returns the current time. This can be changed when you want to mock the current time.
var nowFunc = time.Now

// Options contains the parameters of a JWT-VC besides the credential document.
type Options struct {
	// IssuerID is the issuer DID, it's required.
	IssuerID string
	// Holder is the holder the credential is bound to.
	Holder credential.Holder
	// Claims are additional JWT claims (e.g. jti, exp, nbf), they take precedence over the defaults.
	Claims map[string]interface{}
	// Headers are additional protected headers.
	Headers map[string]interface{}
}

// Sign creates a JWT-VC for the given credential document according to https://www.w3.org/TR/vc-data-model/#json-web-token.
// The document is not modified.
func Sign(key nutsCrypto.SigningKey, document map[string]interface{}, options Options) (string, error) {
	if options.IssuerID == "" {
		return "", fmt.Errorf("%w: missing issuer DID", credential.ErrInvalidIssuer)
	}
	claims, err := Claims(document, options)
	if err != nil {
		return "", err
	}
	headers := map[string]interface{}{
		jws.TypeKey:  "JWT",
		jws.KeyIDKey: credential.IssuerKeyID(options.IssuerID, key.KID()),
	}
	for name, value := range options.Headers {
		headers[name] = value
	}
	token, err := nutsCrypto.SignJWT(key, claims, headers)
	if err != nil {
		return "", fmt.Errorf("unable to sign JWT-VC: %w", err)
	}
	return token, nil
}

// Claims builds the JWT claims of a JWT-VC: iss, sub (or cnf when the holder has no DID), iat and vc.
func Claims(document map[string]interface{}, options Options) (map[string]interface{}, error) {
	credentialDocument := Document(document, options.IssuerID, options.Holder.DID)
	claims := map[string]interface{}{
		jwt.IssuerKey:   options.IssuerID,
		jwt.IssuedAtKey: nowFunc().Unix(),
		VCClaim:         credentialDocument,
	}
	if options.Holder.DID != "" {
		claims[jwt.SubjectKey] = options.Holder.DID
	} else if options.Holder.Key != nil {
		cnf, err := options.Holder.Confirmation()
		if err != nil {
			return nil, err
		}
		claims["cnf"] = cnf
	}
	for name, value := range options.Claims {
		claims[name] = value
	}
	return claims, nil
}

// Document returns a copy of the credential document with issuer, subject id and the default context and type filled in.
func Document(document map[string]interface{}, issuerID string, subjectID string) map[string]interface{} {
	result := make(map[string]interface{}, len(document)+2)
	for name, value := range document {
		result[name] = value
	}
	if _, ok := result["@context"]; !ok {
		result["@context"] = []interface{}{vc.VCContextV1URI().String()}
	}
	if _, ok := result["type"]; !ok {
		result["type"] = []interface{}{vc.VerifiableCredentialTypeV1URI().String()}
	}
	if issuer, isObject := result["issuer"].(map[string]interface{}); isObject {
		copied := copyMap(issuer)
		copied["id"] = issuerID
		result["issuer"] = copied
	} else {
		result["issuer"] = issuerID
	}
	if subjectID != "" {
		if subject, isObject := result["credentialSubject"].(map[string]interface{}); isObject {
			if _, hasID := subject["id"]; !hasID {
				copied := copyMap(subject)
				copied["id"] = subjectID
				result["credentialSubject"] = copied
			}
		} else if result["credentialSubject"] == nil {
			result["credentialSubject"] = map[string]interface{}{"id": subjectID}
		}
	}
	return result
}

// Parse verifies the JWT-VC with the issuer public key and returns the token and the credential document.
func Parse(token string, publicKey crypto.PublicKey, alg jwa.SignatureAlgorithm) (jwt.Token, map[string]interface{}, error) {
	parsed, err := nutsCrypto.ParseJWT(token, publicKey, alg)
	if err != nil {
		return nil, nil, err
	}
	raw, ok := parsed.Get(VCClaim)
	if !ok {
		return nil, nil, errors.New("missing vc claim")
	}
	document, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil, errors.New("vc claim is not an object")
	}
	return parsed, document, nil
}

func copyMap(input map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(input))
	for name, value := range input {
		result[name] = value
	}
	return result
}
