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
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/nuts-foundation/nuts-issuer/credential"
	"github.com/nuts-foundation/nuts-issuer/credential/jwtvc"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issuerDID = "did:web:issuer.example.com"

func TestIssueVC(t *testing.T) {
	key, _ := nutsCrypto.GenerateKey()
	holderKey, _ := nutsCrypto.GenerateKey()
	holderJWK, _ := nutsCrypto.PublicJWK(holderKey)
	nowFunc = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	defer func() { nowFunc = time.Now }()

	t.Run("round trip recovers the full payload", func(t *testing.T) {
		sdMap := MapFromPaths([]string{"given_name", "address.street"}, DecoyModeRandom, 4)

		issued, err := IssueVC(key, identityClaims(), VCOptions{
			IssuerID:            issuerDID,
			VCT:                 "identity_credential",
			Holder:              credential.Holder{Key: holderJWK},
			SelectiveDisclosure: sdMap,
			Claims:              map[string]interface{}{"exp": int64(1740830400)},
		})

		require.NoError(t, err)
		claims, err := Verify(issued.String(), key.Public(), key.Algorithm())
		require.NoError(t, err)
		for name, value := range identityClaims() {
			assert.Equal(t, value, claims[name], name)
		}
		assert.Equal(t, issuerDID, claims["iss"])
		assert.Equal(t, "identity_credential", claims["vct"])
		assert.Equal(t, float64(1709294400), claims["iat"])
		assert.Equal(t, float64(1740830400), claims["exp"])
		cnf := claims["cnf"].(map[string]interface{})
		assert.Equal(t, holderJWK.KeyID(), cnf["jwk"].(map[string]interface{})["kid"])
	})
	t.Run("headers", func(t *testing.T) {
		issued, err := IssueVC(key, identityClaims(), VCOptions{
			IssuerID: issuerDID,
			VCT:      "identity_credential",
			Type:     TypeDCSDJWT,
		})

		require.NoError(t, err)
		message, err := jws.Parse([]byte(issued.JWT))
		require.NoError(t, err)
		headers := message.Signatures()[0].ProtectedHeaders()
		assert.Equal(t, TypeDCSDJWT, headers.Type())
		assert.Equal(t, issuerDID+"#"+key.KID(), headers.KeyID())
		assert.Empty(t, issued.Disclosures)
	})
	t.Run("holder DID", func(t *testing.T) {
		issued, err := IssueVC(key, identityClaims(), VCOptions{
			IssuerID: issuerDID,
			VCT:      "identity_credential",
			Holder:   credential.Holder{DID: "did:example:holder", KeyID: "did:example:holder#key-1"},
		})

		require.NoError(t, err)
		claims, err := Verify(issued.String(), key.Public(), key.Algorithm())
		require.NoError(t, err)
		assert.Equal(t, "did:example:holder", claims["sub"])
		assert.Equal(t, map[string]interface{}{"kid": "did:example:holder#key-1"}, claims["cnf"])
	})
	t.Run("missing issuer", func(t *testing.T) {
		_, err := IssueVC(key, identityClaims(), VCOptions{VCT: "identity_credential"})

		assert.ErrorIs(t, err, credential.ErrInvalidIssuer)
	})
	t.Run("missing vct", func(t *testing.T) {
		_, err := IssueVC(key, identityClaims(), VCOptions{IssuerID: issuerDID})

		assert.EqualError(t, err, "missing vct")
	})
}

func TestIssueW3C(t *testing.T) {
	key, _ := nutsCrypto.GenerateKey()
	document := map[string]interface{}{
		"type": []interface{}{"VerifiableCredential", "UniversityDegree"},
		"credentialSubject": map[string]interface{}{
			"degree": "MSc",
			"name":   "Erika Mustermann",
		},
	}
	sdMap := MapFromPaths([]string{"credentialSubject.name"}, DecoyModeNone, 0)

	issued, err := IssueW3C(key, document, sdMap, jwtvc.Options{IssuerID: issuerDID, Holder: credential.Holder{DID: "did:example:holder"}})

	require.NoError(t, err)
	require.Len(t, issued.Disclosures, 1)
	undisclosed, err := nutsCrypto.ParseJWT(issued.JWT, key.Public(), key.Algorithm())
	require.NoError(t, err)
	vcClaim, _ := undisclosed.Get(jwtvc.VCClaim)
	subject := vcClaim.(map[string]interface{})["credentialSubject"].(map[string]interface{})
	assert.NotContains(t, subject, "name")
	assert.Equal(t, "MSc", subject["degree"])

	claims, err := Verify(issued.String(), key.Public(), key.Algorithm())
	require.NoError(t, err)
	disclosedSubject := claims[jwtvc.VCClaim].(map[string]interface{})["credentialSubject"].(map[string]interface{})
	assert.Equal(t, "Erika Mustermann", disclosedSubject["name"])
	assert.Equal(t, "did:example:holder", disclosedSubject["id"])
}
