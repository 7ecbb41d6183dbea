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
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityClaims() map[string]interface{} {
	return map[string]interface{}{
		"given_name":  "Erika",
		"family_name": "Mustermann",
		"address": map[string]interface{}{
			"street":   "Heidestrasse 17",
			"locality": "Köln",
			"country":  "DE",
		},
		"nationalities": []interface{}{"DE"},
	}
}

func TestNewDisclosure(t *testing.T) {
	disclosure, err := NewDisclosure("given_name", "Erika")
	require.NoError(t, err)

	data, err := base64.RawURLEncoding.DecodeString(disclosure.Encoded)
	require.NoError(t, err)
	var parts []interface{}
	require.NoError(t, json.Unmarshal(data, &parts))
	assert.Equal(t, []interface{}{disclosure.Salt, "given_name", "Erika"}, parts)
	assert.Len(t, disclosure.Salt, 22)

	parsed, err := ParseDisclosure(disclosure.Encoded)
	require.NoError(t, err)
	assert.Equal(t, *disclosure, *parsed)
	assert.Equal(t, disclosure.Digest(), parsed.Digest())
}

func TestDisclosure_Digest(t *testing.T) {
	// example from the SD-JWT specification
	disclosure := Disclosure{Encoded: "WyI2cU1RdlJMNWhhaiIsICJmYW1pbHlfbmFtZSIsICJNw7ZiaXVzIl0"}

	assert.Equal(t, "uutlBuYeMDyjLLTpf6Jxi7yNkEF35jdyWMn9U7b_RYY", disclosure.Digest())
}

func TestParseDisclosure(t *testing.T) {
	t.Run("invalid encoding", func(t *testing.T) {
		_, err := ParseDisclosure("not base64!")
		assert.ErrorContains(t, err, "invalid disclosure encoding")
	})
	t.Run("array element disclosure", func(t *testing.T) {
		encoded := base64.RawURLEncoding.EncodeToString([]byte(`["salt", "DE"]`))
		_, err := ParseDisclosure(encoded)
		assert.EqualError(t, err, "invalid disclosure: expected [salt, name, value]")
	})
	t.Run("name is not a string", func(t *testing.T) {
		encoded := base64.RawURLEncoding.EncodeToString([]byte(`["salt", 1, "DE"]`))
		_, err := ParseDisclosure(encoded)
		assert.EqualError(t, err, "invalid disclosure: salt and name must be strings")
	})
}

func TestMapFromPaths(t *testing.T) {
	sdMap := MapFromPaths([]string{"given_name", "address.street", "address.locality"}, DecoyModeFixed, 2)

	assert.True(t, sdMap.Fields["given_name"].SD)
	address := sdMap.Fields["address"]
	assert.False(t, address.SD)
	require.NotNil(t, address.Children)
	assert.True(t, address.Children.Fields["street"].SD)
	assert.True(t, address.Children.Fields["locality"].SD)
	assert.Equal(t, 2, address.Children.Decoys)
	assert.Equal(t, DecoyModeFixed, address.Children.DecoyMode)
}

func TestCreatePayload(t *testing.T) {
	t.Run("top level and nested claims", func(t *testing.T) {
		sdMap := MapFromPaths([]string{"given_name", "address.street"}, DecoyModeNone, 0)

		payload, err := CreatePayload(identityClaims(), sdMap)

		require.NoError(t, err)
		assert.Len(t, payload.Disclosures, 2)
		assert.NotContains(t, payload.Claims, "given_name")
		assert.Equal(t, "Mustermann", payload.Claims["family_name"])
		assert.Equal(t, AlgorithmSHA256, payload.Claims[AlgorithmClaim])
		assert.Len(t, payload.Claims[DigestsClaim], 1)
		address := payload.Claims["address"].(map[string]interface{})
		assert.NotContains(t, address, "street")
		assert.Equal(t, "Köln", address["locality"])
		assert.Len(t, address[DigestsClaim], 1)
		assert.NotContains(t, address, AlgorithmClaim)
	})
	t.Run("disclosable object with disclosable claims", func(t *testing.T) {
		sdMap := MapFromPaths([]string{"address", "address.country"}, DecoyModeNone, 0)

		payload, err := CreatePayload(identityClaims(), sdMap)

		require.NoError(t, err)
		require.Len(t, payload.Disclosures, 2)
		assert.Equal(t, "country", payload.Disclosures[0].Name)
		assert.Equal(t, "address", payload.Disclosures[1].Name)
		assert.Contains(t, payload.Disclosures[1].Value, DigestsClaim)
	})
	t.Run("fixed decoys", func(t *testing.T) {
		sdMap := MapFromPaths([]string{"given_name"}, DecoyModeFixed, 3)

		payload, err := CreatePayload(identityClaims(), sdMap)

		require.NoError(t, err)
		digests := payload.Claims[DigestsClaim].([]string)
		assert.Len(t, digests, 4)
		assert.True(t, sortedStrings(digests))
	})
	t.Run("random decoys", func(t *testing.T) {
		sdMap := MapFromPaths([]string{"given_name"}, DecoyModeRandom, 3)

		payload, err := CreatePayload(identityClaims(), sdMap)

		require.NoError(t, err)
		digests := payload.Claims[DigestsClaim].([]string)
		assert.GreaterOrEqual(t, len(digests), 2)
		assert.LessOrEqual(t, len(digests), 4)
	})
	t.Run("nothing disclosable", func(t *testing.T) {
		payload, err := CreatePayload(identityClaims(), nil)

		require.NoError(t, err)
		assert.Empty(t, payload.Disclosures)
		assert.Equal(t, identityClaims(), payload.Claims)
	})
}

func TestParse(t *testing.T) {
	t.Run("issuance form", func(t *testing.T) {
		parsed, err := Parse("a.b.c~d1~d2~")

		require.NoError(t, err)
		assert.Equal(t, "a.b.c", parsed.JWT)
		assert.Equal(t, []string{"d1", "d2"}, parsed.Disclosures)
		assert.Empty(t, parsed.KeyBinding)
		assert.Equal(t, "a.b.c~d1~d2~", parsed.String())
	})
	t.Run("with key binding", func(t *testing.T) {
		parsed, err := Parse("a.b.c~d1~x.y.z")

		require.NoError(t, err)
		assert.Equal(t, []string{"d1"}, parsed.Disclosures)
		assert.Equal(t, "x.y.z", parsed.KeyBinding)
		assert.Equal(t, "a.b.c~d1~x.y.z", parsed.String())
	})
	t.Run("without disclosures", func(t *testing.T) {
		parsed, err := Parse("a.b.c~")

		require.NoError(t, err)
		assert.Empty(t, parsed.Disclosures)
	})
	t.Run("plain JWT", func(t *testing.T) {
		_, err := Parse("a.b.c")

		assert.ErrorIs(t, err, ErrInvalidSDJWT)
	})
}

func TestSignAndVerify(t *testing.T) {
	key, _ := nutsCrypto.GenerateKey()
	sdMap := MapFromPaths([]string{"given_name", "family_name", "address", "address.street"}, DecoyModeFixed, 2)
	payload, err := CreatePayload(identityClaims(), sdMap)
	require.NoError(t, err)

	signed, err := Sign(key, *payload, nil)
	require.NoError(t, err)

	t.Run("all disclosures", func(t *testing.T) {
		claims, err := Verify(signed.String(), key.Public(), key.Algorithm())

		require.NoError(t, err)
		assert.Equal(t, identityClaims(), claims)
	})
	t.Run("subset of disclosures", func(t *testing.T) {
		var subset []string
		for _, disclosure := range payload.Disclosures {
			if disclosure.Name == "given_name" {
				subset = append(subset, disclosure.Encoded)
			}
		}
		presentation := SDJWT{JWT: signed.JWT, Disclosures: subset}

		claims, err := Verify(presentation.String(), key.Public(), key.Algorithm())

		require.NoError(t, err)
		assert.Equal(t, "Erika", claims["given_name"])
		assert.NotContains(t, claims, "family_name")
		assert.NotContains(t, claims, "address")
		assert.Equal(t, []interface{}{"DE"}, claims["nationalities"])
	})
	t.Run("disclosure not in payload", func(t *testing.T) {
		other, _ := NewDisclosure("given_name", "Max")
		presentation := SDJWT{JWT: signed.JWT, Disclosures: append(signed.Disclosures, other.Encoded)}

		_, err := Verify(presentation.String(), key.Public(), key.Algorithm())

		assert.ErrorIs(t, err, ErrInvalidSDJWT)
		assert.ErrorContains(t, err, "not referenced by the payload")
	})
	t.Run("wrong key", func(t *testing.T) {
		otherKey, _ := nutsCrypto.GenerateKey()

		_, err := Verify(signed.String(), otherKey.Public(), otherKey.Algorithm())

		assert.ErrorIs(t, err, ErrInvalidSDJWT)
	})
	t.Run("tampered JWT", func(t *testing.T) {
		parts := strings.Split(signed.JWT, ".")
		tampered := SDJWT{JWT: parts[0] + "." + parts[0] + "." + parts[2], Disclosures: signed.Disclosures}

		_, err := Verify(tampered.String(), key.Public(), key.Algorithm())

		assert.Error(t, err)
	})
}

func TestDisclose(t *testing.T) {
	t.Run("claim disclosed twice", func(t *testing.T) {
		first, _ := NewDisclosure("given_name", "Erika")
		second, _ := NewDisclosure("given_name", "Max")
		claims := map[string]interface{}{DigestsClaim: []string{first.Digest(), second.Digest()}}

		_, err := Disclose(claims, []string{first.Encoded, second.Encoded})

		assert.ErrorContains(t, err, "claim given_name is disclosed more than once")
	})
	t.Run("digest is not a string", func(t *testing.T) {
		claims := map[string]interface{}{DigestsClaim: []interface{}{1}}

		_, err := Disclose(claims, nil)

		assert.ErrorContains(t, err, "digest is not a string")
	})
}

func sortedStrings(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}
