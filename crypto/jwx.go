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

package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// SupportedAlgorithms lists the asymmetric JWA signature algorithms accepted for keys and proofs.
var SupportedAlgorithms = []jwa.SignatureAlgorithm{jwa.ES256, jwa.ES384, jwa.ES512, jwa.PS256, jwa.PS384, jwa.PS512, jwa.RS256, jwa.RS384, jwa.RS512, jwa.EdDSA}

// SignatureAlgorithm returns the default JWA signature algorithm for the given public key.
func SignatureAlgorithm(key crypto.PublicKey) (jwa.SignatureAlgorithm, error) {
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256():
			return jwa.ES256, nil
		case elliptic.P384():
			return jwa.ES384, nil
		case elliptic.P521():
			return jwa.ES512, nil
		}
		return "", fmt.Errorf("%w: curve %s", ErrUnsupportedKeyType, k.Curve.Params().Name)
	case *rsa.PublicKey:
		return jwa.PS256, nil
	case ed25519.PublicKey:
		return jwa.EdDSA, nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
}

// hashFor returns the digest function used by the given algorithm, or 0 for EdDSA which signs the message itself.
func hashFor(alg jwa.SignatureAlgorithm) (crypto.Hash, error) {
	switch alg {
	case jwa.ES256, jwa.PS256, jwa.RS256:
		return crypto.SHA256, nil
	case jwa.ES384, jwa.PS384, jwa.RS384:
		return crypto.SHA384, nil
	case jwa.ES512, jwa.PS512, jwa.RS512:
		return crypto.SHA512, nil
	case jwa.EdDSA:
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported signature algorithm: %s", alg)
}

func signerOpts(alg jwa.SignatureAlgorithm, hash crypto.Hash) crypto.SignerOpts {
	switch alg {
	case jwa.PS256, jwa.PS384, jwa.PS512:
		return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: hash}
	}
	return hash
}

// SignBytes signs data with the key's algorithm. The data is hashed here, ECDSA signatures are returned DER encoded.
func SignBytes(key SigningKey, data []byte) ([]byte, error) {
	hash, err := hashFor(key.Algorithm())
	if err != nil {
		return nil, err
	}
	digest := data
	if hash != 0 {
		h := hash.New()
		h.Write(data)
		digest = h.Sum(nil)
	}
	return key.Sign(rand.Reader, digest, signerOpts(key.Algorithm(), hash))
}

// VerifyBytes verifies a signature as produced by SignBytes.
func VerifyBytes(publicKey crypto.PublicKey, alg jwa.SignatureAlgorithm, data []byte, signature []byte) error {
	hash, err := hashFor(alg)
	if err != nil {
		return err
	}
	digest := data
	if hash != 0 {
		h := hash.New()
		h.Write(data)
		digest = h.Sum(nil)
	}
	switch k := publicKey.(type) {
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(k, digest, signature) {
			return errors.New("invalid signature")
		}
		return nil
	case *rsa.PublicKey:
		if opts, ok := signerOpts(alg, hash).(*rsa.PSSOptions); ok {
			return rsa.VerifyPSS(k, hash, digest, signature, opts)
		}
		return rsa.VerifyPKCS1v15(k, hash, digest, signature)
	case ed25519.PublicKey:
		if !ed25519.Verify(k, data, signature) {
			return errors.New("invalid signature")
		}
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedKeyType, publicKey)
}

// PublicJWK returns the public key of the signing key as JWK, with kid and alg set.
func PublicJWK(key SigningKey) (jwk.Key, error) {
	result, err := jwk.FromRaw(key.Public())
	if err != nil {
		return nil, err
	}
	if key.KID() != "" {
		_ = result.Set(jwk.KeyIDKey, key.KID())
	}
	_ = result.Set(jwk.AlgorithmKey, key.Algorithm())
	return result, nil
}

// Thumbprint returns the RFC 7638 SHA-256 thumbprint of the key, base64url encoded.
func Thumbprint(key jwk.Key) (string, error) {
	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// IsPrivateJWK returns true if the JWK contains private key material.
func IsPrivateJWK(key jwk.Key) bool {
	switch k := key.(type) {
	case jwk.RSAPrivateKey, jwk.ECDSAPrivateKey:
		return true
	case jwk.OKPPrivateKey:
		return len(k.D()) > 0
	}
	return false
}

// jwsSigningKey returns the key to pass to jwx: the raw private key when it is local, the SigningKey itself otherwise.
func jwsSigningKey(key SigningKey) interface{} {
	if privateKey, ok := key.PrivateKey(); ok {
		return privateKey
	}
	return key
}

// SignJWT signs the claims as JWT. The kid header is set from the key; headers may add (or override) protected headers.
func SignJWT(key SigningKey, claims map[string]interface{}, headers map[string]interface{}) (string, error) {
	token := jwt.New()
	for k, v := range claims {
		if err := token.Set(k, v); err != nil {
			return "", fmt.Errorf("invalid claim %s: %w", k, err)
		}
	}
	hdrs, err := protectedHeaders(key, headers)
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(key.Algorithm(), jwsSigningKey(key), jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		return "", fmt.Errorf("unable to sign JWT: %w", err)
	}
	return string(signed), nil
}

// SignJWS signs an arbitrary payload as compact JWS.
func SignJWS(key SigningKey, payload []byte, headers map[string]interface{}) (string, error) {
	hdrs, err := protectedHeaders(key, headers)
	if err != nil {
		return "", err
	}
	signed, err := jws.Sign(payload, jws.WithKey(key.Algorithm(), jwsSigningKey(key), jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		return "", fmt.Errorf("unable to sign JWS: %w", err)
	}
	return string(signed), nil
}

func protectedHeaders(key SigningKey, headers map[string]interface{}) (jws.Headers, error) {
	hdrs := jws.NewHeaders()
	if key.KID() != "" {
		_ = hdrs.Set(jws.KeyIDKey, key.KID())
	}
	for k, v := range headers {
		if err := hdrs.Set(k, v); err != nil {
			return nil, fmt.Errorf("invalid header %s: %w", k, err)
		}
	}
	return hdrs, nil
}

// ParseJWT parses and verifies a JWT signed by the given public key, validating exp/nbf/iat.
func ParseJWT(token string, publicKey crypto.PublicKey, alg jwa.SignatureAlgorithm, options ...jwt.ParseOption) (jwt.Token, error) {
	opts := append([]jwt.ParseOption{jwt.WithKey(alg, publicKey), jwt.WithValidate(true)}, options...)
	return jwt.ParseString(token, opts...)
}

// ECDSADERToRaw converts an ASN.1 DER ECDSA signature into the fixed-length r||s form used by JWS and COSE.
func ECDSADERToRaw(signature []byte, curve elliptic.Curve) ([]byte, error) {
	var r, s big.Int
	var inner cryptobyte.String
	input := cryptobyte.String(signature)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(&r) ||
		!inner.ReadASN1Integer(&s) ||
		!inner.Empty() {
		return nil, errors.New("invalid ASN.1 ECDSA signature")
	}
	size := (curve.Params().BitSize + 7) / 8
	result := make([]byte, 2*size)
	r.FillBytes(result[:size])
	s.FillBytes(result[size:])
	return result, nil
}

// ECDSARawToDER converts a fixed-length r||s ECDSA signature into ASN.1 DER.
func ECDSARawToDER(signature []byte) ([]byte, error) {
	if len(signature) == 0 || len(signature)%2 != 0 {
		return nil, errors.New("invalid raw ECDSA signature length")
	}
	half := len(signature) / 2
	r := new(big.Int).SetBytes(signature[:half])
	s := new(big.Int).SetBytes(signature[half:])
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

func ed25519PublicKey(raw []byte) (crypto.PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: invalid ed25519 public key size", ErrUnsupportedKeyType)
	}
	return ed25519.PublicKey(raw), nil
}
