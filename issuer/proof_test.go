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
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/go-cose"
)

const testIssuerURL = "https://issuer.example.com"

func signJWTProof(t *testing.T, alg jwa.SignatureAlgorithm, signingKey interface{}, headers map[string]interface{}, claims map[string]interface{}) string {
	token := jwt.New()
	for name, value := range claims {
		require.NoError(t, token.Set(name, value))
	}
	hdrs := jws.NewHeaders()
	for name, value := range headers {
		require.NoError(t, hdrs.Set(name, value))
	}
	signed, err := jwt.Sign(token, jwt.WithKey(alg, signingKey, jws.WithProtectedHeaders(hdrs)))
	require.NoError(t, err)
	return string(signed)
}

func jwtProofWithJWK(t *testing.T, key *ecdsa.PrivateKey, nonce string) string {
	publicJWK, err := jwk.FromRaw(key.Public())
	require.NoError(t, err)
	return signJWTProof(t, jwa.ES256, key, map[string]interface{}{
		jws.TypeKey: openid4vci.JWTTypeOpenID4VCIProof,
		jws.JWKKey:  publicJWK,
	}, map[string]interface{}{
		jwt.AudienceKey: testIssuerURL,
		jwt.IssuedAtKey: time.Now().Unix(),
		"nonce":         nonce,
	})
}

func signCWTProof(t *testing.T, key *ecdsa.PrivateKey, protected map[interface{}]interface{}, unprotected map[interface{}]interface{}, claims map[interface{}]interface{}, tagged bool) string {
	protectedBytes, err := cbor.Marshal(protected)
	require.NoError(t, err)
	payload, err := cbor.Marshal(claims)
	require.NoError(t, err)
	toBeSigned, err := cbor.Marshal([]interface{}{"Signature1", protectedBytes, []byte{}, payload})
	require.NoError(t, err)
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	require.NoError(t, err)
	signature, err := signer.Sign(rand.Reader, toBeSigned)
	require.NoError(t, err)
	if unprotected == nil {
		unprotected = map[interface{}]interface{}{}
	}
	var message interface{} = []interface{}{protectedBytes, unprotected, payload, signature}
	if tagged {
		message = cbor.Tag{Number: coseSign1Tag, Content: message}
	}
	data, err := cbor.Marshal(message)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(data)
}

func cwtClaims(nonce interface{}) map[interface{}]interface{} {
	return map[interface{}]interface{}{
		1:  "wallet",
		3:  testIssuerURL,
		6:  time.Now().Unix(),
		10: nonce,
	}
}

func coseKeyBytes(t *testing.T, key *ecdsa.PrivateKey) cbor.RawMessage {
	coseKey, err := cose.NewKeyFromPublic(key.Public())
	require.NoError(t, err)
	data, err := coseKey.MarshalCBOR()
	require.NoError(t, err)
	return data
}

func selfSignedCertificate(t *testing.T, key *ecdsa.PrivateKey) []byte {
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "wallet"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	data, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	require.NoError(t, err)
	return data
}

func thumbprintOf(t *testing.T, key interface{}) string {
	publicJWK, err := jwk.FromRaw(key)
	require.NoError(t, err)
	result, err := nutsCrypto.Thumbprint(publicJWK)
	require.NoError(t, err)
	return result
}

func TestProofExtractor_JWT(t *testing.T) {
	ctx := context.Background()
	holderKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	extractor := ProofExtractor{KeyResolver: DIDKeyResolver{}}
	t.Run("embedded jwk", func(t *testing.T) {
		proof := jwtProofWithJWK(t, holderKey, "nonce")

		result, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		require.NoError(t, err)
		assert.Equal(t, "nonce", result.Nonce)
		assert.Equal(t, []string{testIssuerURL}, result.Audience)
		assert.WithinDuration(t, time.Now(), result.IssuedAt, 5*time.Second)
		assert.Equal(t, thumbprintOf(t, holderKey.Public()), result.KeyID)
		assert.True(t, holderKey.PublicKey.Equal(result.PublicKey))
		assert.Empty(t, result.Holder.DID)
	})
	t.Run("kid resolved as did:jwk", func(t *testing.T) {
		kid := didJWK(t, holderKey.Public()) + "#0"
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey:  openid4vci.JWTTypeOpenID4VCIProof,
			jws.KeyIDKey: kid,
		}, map[string]interface{}{"nonce": "nonce"})

		result, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		require.NoError(t, err)
		assert.Equal(t, kid, result.KeyID)
		assert.Equal(t, kid[:len(kid)-2], result.Holder.DID)
		assert.True(t, holderKey.PublicKey.Equal(result.PublicKey))
	})
	t.Run("nonce in c_nonce claim", func(t *testing.T) {
		publicJWK, _ := jwk.FromRaw(holderKey.Public())
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey: openid4vci.JWTTypeOpenID4VCIProof,
			jws.JWKKey:  publicJWK,
		}, map[string]interface{}{"c_nonce": "legacy"})

		result, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		require.NoError(t, err)
		assert.Equal(t, "legacy", result.Nonce)
		assert.Empty(t, result.Audience)
	})
	t.Run("nonce takes precedence over c_nonce", func(t *testing.T) {
		publicJWK, _ := jwk.FromRaw(holderKey.Public())
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey: openid4vci.JWTTypeOpenID4VCIProof,
			jws.JWKKey:  publicJWK,
		}, map[string]interface{}{"nonce": "current", "c_nonce": "legacy"})

		result, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		require.NoError(t, err)
		assert.Equal(t, "current", result.Nonce)
	})
	t.Run("kid that can't be resolved", func(t *testing.T) {
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey:  openid4vci.JWTTypeOpenID4VCIProof,
			jws.KeyIDKey: "did:web:example.com#key-1",
		}, map[string]interface{}{"nonce": "nonce"})

		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("neither jwk nor kid", func(t *testing.T) {
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey: openid4vci.JWTTypeOpenID4VCIProof,
		}, map[string]interface{}{"nonce": "nonce"})

		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("private key in jwk header", func(t *testing.T) {
		privateJWK, _ := jwk.FromRaw(holderKey)
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey: openid4vci.JWTTypeOpenID4VCIProof,
			jws.JWKKey:  privateJWK,
		}, map[string]interface{}{"nonce": "nonce"})

		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		assert.EqualError(t, err, "proof jwk header contains private key material")
	})
	t.Run("invalid typ", func(t *testing.T) {
		publicJWK, _ := jwk.FromRaw(holderKey.Public())
		proof := signJWTProof(t, jwa.ES256, holderKey, map[string]interface{}{
			jws.TypeKey: "JWT",
			jws.JWKKey:  publicJWK,
		}, map[string]interface{}{"nonce": "nonce"})

		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		assert.EqualError(t, err, "invalid typ header (expected: openid4vci-proof+jwt): JWT")
	})
	t.Run("symmetric algorithm", func(t *testing.T) {
		proof := signJWTProof(t, jwa.HS256, []byte("secretsecretsecretsecretsecretse"), map[string]interface{}{
			jws.TypeKey:  openid4vci.JWTTypeOpenID4VCIProof,
			jws.KeyIDKey: "key",
		}, map[string]interface{}{"nonce": "nonce"})

		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		assert.EqualError(t, err, "unsupported proof signature algorithm: HS256")
	})
	t.Run("signed by other key than embedded", func(t *testing.T) {
		otherKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		publicJWK, _ := jwk.FromRaw(holderKey.Public())
		proof := signJWTProof(t, jwa.ES256, otherKey, map[string]interface{}{
			jws.TypeKey: openid4vci.JWTTypeOpenID4VCIProof,
			jws.JWKKey:  publicJWK,
		}, map[string]interface{}{"nonce": "nonce"})

		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: proof})

		assert.ErrorContains(t, err, "invalid proof signature")
	})
	t.Run("not a JWT", func(t *testing.T) {
		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: "not a JWT"})

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("missing proof", func(t *testing.T) {
		_, err := extractor.Extract(ctx, nil)

		assert.EqualError(t, err, "missing proof")
	})
	t.Run("unsupported proof type", func(t *testing.T) {
		_, err := extractor.Extract(ctx, &openid4vci.Proof{ProofType: "ldp_vp"})

		assert.EqualError(t, err, "unsupported proof type: ldp_vp")
	})
}

func TestProofExtractor_CWT(t *testing.T) {
	ctx := context.Background()
	holderKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	extractor := ProofExtractor{}
	extract := func(proof string) (*HolderProof, error) {
		return extractor.Extract(ctx, &openid4vci.Proof{ProofType: openid4vci.ProofTypeCWT, CWT: proof})
	}
	baseProtected := func() map[interface{}]interface{} {
		return map[interface{}]interface{}{
			1: int64(cose.AlgorithmES256),
			3: openid4vci.CWTTypeOpenID4VCIProof,
		}
	}
	t.Run("COSE_Key", func(t *testing.T) {
		protected := baseProtected()
		protected[coseKeyHeader] = coseKeyBytes(t, holderKey)
		proof := signCWTProof(t, holderKey, protected, nil, cwtClaims([]byte("nonce")), true)

		result, err := extract(proof)

		require.NoError(t, err)
		assert.Equal(t, "nonce", result.Nonce)
		assert.Equal(t, "wallet", result.Issuer)
		assert.Equal(t, []string{testIssuerURL}, result.Audience)
		assert.WithinDuration(t, time.Now(), result.IssuedAt, 5*time.Second)
		assert.True(t, holderKey.PublicKey.Equal(result.PublicKey))
		assert.Equal(t, thumbprintOf(t, holderKey.Public()), result.KeyID)
	})
	t.Run("COSE_Key wrapped in byte string, untagged message, text nonce", func(t *testing.T) {
		protected := baseProtected()
		protected[coseKeyHeader] = []byte(coseKeyBytes(t, holderKey))
		proof := signCWTProof(t, holderKey, protected, nil, cwtClaims("nonce"), false)

		result, err := extract(proof)

		require.NoError(t, err)
		assert.Equal(t, "nonce", result.Nonce)
		assert.True(t, holderKey.PublicKey.Equal(result.PublicKey))
	})
	t.Run("x5chain with a single certificate", func(t *testing.T) {
		certificate := selfSignedCertificate(t, holderKey)
		protected := baseProtected()
		protected[33] = certificate
		proof := signCWTProof(t, holderKey, protected, nil, cwtClaims([]byte("nonce")), true)

		result, err := extract(proof)

		require.NoError(t, err)
		parsed, err := x509.ParseCertificate(certificate)
		require.NoError(t, err)
		expected, err := jwk.FromRaw(parsed.PublicKey)
		require.NoError(t, err)
		expectedThumbprint, _ := nutsCrypto.Thumbprint(expected)
		actualThumbprint, _ := nutsCrypto.Thumbprint(result.Holder.Key)
		assert.Equal(t, expectedThumbprint, actualThumbprint)
	})
	t.Run("x5chain with multiple certificates, label after other headers", func(t *testing.T) {
		otherKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		protected := baseProtected()
		protected[33] = [][]byte{selfSignedCertificate(t, holderKey), selfSignedCertificate(t, otherKey)}
		protected[4] = []byte("holder-key")
		proof := signCWTProof(t, holderKey, protected, nil, cwtClaims([]byte("nonce")), true)

		result, err := extract(proof)

		require.NoError(t, err)
		assert.True(t, holderKey.PublicKey.Equal(result.PublicKey))
		assert.Equal(t, "holder-key", result.KeyID)
	})
	t.Run("x5chain in unprotected header", func(t *testing.T) {
		proof := signCWTProof(t, holderKey, baseProtected(), map[interface{}]interface{}{
			33: selfSignedCertificate(t, holderKey),
		}, cwtClaims([]byte("nonce")), true)

		result, err := extract(proof)

		require.NoError(t, err)
		assert.True(t, holderKey.PublicKey.Equal(result.PublicKey))
	})
	t.Run("no holder key", func(t *testing.T) {
		proof := signCWTProof(t, holderKey, baseProtected(), nil, cwtClaims([]byte("nonce")), true)

		_, err := extract(proof)

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("invalid certificate", func(t *testing.T) {
		protected := baseProtected()
		protected[33] = []byte{1, 2, 3}
		proof := signCWTProof(t, holderKey, protected, nil, cwtClaims([]byte("nonce")), true)

		_, err := extract(proof)

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("invalid content type", func(t *testing.T) {
		protected := baseProtected()
		protected[3] = "application/cwt"
		protected[coseKeyHeader] = coseKeyBytes(t, holderKey)
		proof := signCWTProof(t, holderKey, protected, nil, cwtClaims([]byte("nonce")), true)

		_, err := extract(proof)

		assert.EqualError(t, err, "invalid content type (expected: openid4vci-proof+cwt): application/cwt")
	})
	t.Run("signed by other key than embedded", func(t *testing.T) {
		otherKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		protected := baseProtected()
		protected[coseKeyHeader] = coseKeyBytes(t, holderKey)
		proof := signCWTProof(t, otherKey, protected, nil, cwtClaims([]byte("nonce")), true)

		_, err := extract(proof)

		assert.ErrorContains(t, err, "invalid proof signature")
	})
	t.Run("not base64", func(t *testing.T) {
		_, err := extract("%%%")

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("not COSE", func(t *testing.T) {
		data, _ := cbor.Marshal(map[string]string{"hello": "world"})

		_, err := extract(base64.RawURLEncoding.EncodeToString(data))

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
	t.Run("other CBOR tag", func(t *testing.T) {
		data, _ := cbor.Marshal(cbor.Tag{Number: 98, Content: []interface{}{}})

		_, err := extract(base64.RawURLEncoding.EncodeToString(data))

		assert.ErrorIs(t, err, ErrNoHolderKey)
	})
}

func TestNormalizeLabels(t *testing.T) {
	result := normalizeLabels(map[interface{}]cbor.RawMessage{
		uint64(1):  cbor.RawMessage{0x01},
		int64(-7):  cbor.RawMessage{0x02},
		"COSE_Key": cbor.RawMessage{0x03},
	})

	assert.Len(t, result, 2)
	assert.Equal(t, cbor.RawMessage{0x01}, result[1])
	assert.Equal(t, cbor.RawMessage{0x02}, result[-7])
}
