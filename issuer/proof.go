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
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-issuer/credential"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/veraison/go-cose"
)

// ErrNoHolderKey is returned when no holder key could be extracted from a proof of possession.
var ErrNoHolderKey = errors.New("no holder key extracted")

// COSE header and CWT claim labels, see RFC 9052 and RFC 8392.
const (
	coseLabelAlgorithm   int64 = 1
	coseLabelContentType int64 = 3
	coseLabelKeyID       int64 = 4
	coseLabelX5Chain     int64 = 33
	cwtLabelIssuer       int64 = 1
	cwtLabelAudience     int64 = 3
	cwtLabelIssuedAt     int64 = 6
	cwtLabelNonce        int64 = 10
	coseSign1Tag               = 18
)

// coseKeyHeader is the protected header that embeds the holder key of a CWT proof.
const coseKeyHeader = "COSE_Key"

// HolderProof is the result of a validated proof of possession.
type HolderProof struct {
	// Holder contains the key the credential is bound to.
	Holder credential.Holder
	// PublicKey is the raw public key of the holder.
	PublicKey crypto.PublicKey
	// KeyID identifies the proof key: the kid, or the JWK thumbprint when the proof has no kid.
	KeyID string
	// Nonce is the c_nonce the client put in the proof.
	Nonce string
	// Issuer is the client ID of the wallet (iss claim), optional.
	Issuer string
	// Audience is the aud claim.
	Audience []string
	// IssuedAt is the iat claim.
	IssuedAt time.Time
}

// ProofExtractor recovers the holder key from a proof of possession and verifies the proof's signature with it.
// Checks that depend on the session (nonce, audience, age) are left to the caller.
type ProofExtractor struct {
	// KeyResolver resolves kid headers of JWT proofs.
	KeyResolver HolderKeyResolver
}

// Extract dispatches on the proof type. Every failure wraps ErrNoHolderKey or tells why the proof is invalid,
// decode errors never escape as is.
func (p ProofExtractor) Extract(ctx context.Context, proof *openid4vci.Proof) (*HolderProof, error) {
	if proof == nil {
		return nil, errors.New("missing proof")
	}
	switch proof.ProofType {
	case openid4vci.ProofTypeJWT:
		return p.extractJWT(ctx, proof.JWT)
	case openid4vci.ProofTypeCWT:
		return p.extractCWT(proof.CWT)
	}
	return nil, fmt.Errorf("unsupported proof type: %s", proof.ProofType)
}

func (p ProofExtractor) extractJWT(ctx context.Context, token string) (*HolderProof, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT: %w", ErrNoHolderKey, err)
	}
	if len(message.Signatures()) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one signature", ErrNoHolderKey)
	}
	headers := message.Signatures()[0].ProtectedHeaders()
	if typ := headers.Type(); typ != openid4vci.JWTTypeOpenID4VCIProof {
		return nil, fmt.Errorf("invalid typ header (expected: %s): %s", openid4vci.JWTTypeOpenID4VCIProof, typ)
	}
	alg := headers.Algorithm()
	if !slices.Contains(nutsCrypto.SupportedAlgorithms, alg) {
		return nil, fmt.Errorf("unsupported proof signature algorithm: %s", alg)
	}
	result := &HolderProof{KeyID: headers.KeyID()}
	switch {
	case headers.JWK() != nil:
		if nutsCrypto.IsPrivateJWK(headers.JWK()) {
			return nil, errors.New("proof jwk header contains private key material")
		}
		result.Holder = credential.Holder{KeyID: headers.KeyID(), Key: headers.JWK()}
	case headers.KeyID() != "":
		if p.KeyResolver == nil {
			return nil, fmt.Errorf("%w: kid can't be resolved", ErrNoHolderKey)
		}
		holder, err := p.KeyResolver.ResolveHolderKey(ctx, headers.KeyID())
		if err != nil {
			return nil, fmt.Errorf("%w: unable to resolve kid: %w", ErrNoHolderKey, err)
		}
		result.Holder = *holder
	default:
		return nil, fmt.Errorf("%w: proof has neither jwk nor kid header", ErrNoHolderKey)
	}
	if result.Holder.Key == nil {
		return nil, fmt.Errorf("%w: kid resolved to no key", ErrNoHolderKey)
	}
	if err := result.Holder.Key.Raw(&result.PublicKey); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoHolderKey, err)
	}
	if result.KeyID == "" {
		if result.KeyID, err = nutsCrypto.Thumbprint(result.Holder.Key); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoHolderKey, err)
		}
	}
	// exp/iat are checked by the caller, against the configured maximum proof age
	parsed, err := jwt.ParseString(token, jwt.WithKey(alg, result.PublicKey), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("invalid proof signature: %w", err)
	}
	result.Issuer = parsed.Issuer()
	result.Audience = parsed.Audience()
	result.IssuedAt = parsed.IssuedAt()
	// older wallets put the nonce in c_nonce
	if nonce, ok := parsed.Get("nonce"); ok {
		result.Nonce, _ = nonce.(string)
	} else if nonce, ok := parsed.Get("c_nonce"); ok {
		result.Nonce, _ = nonce.(string)
	}
	return result, nil
}

// coseSign1 is a COSE_Sign1 structure with its headers still encoded, so labels can be compared by value.
type coseSign1 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected map[interface{}]cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

func (p ProofExtractor) extractCWT(encoded string) (*HolderProof, error) {
	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid CWT encoding: %w", ErrNoHolderKey, err)
	}
	message, err := decodeCOSESign1(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid COSE_Sign1: %w", ErrNoHolderKey, err)
	}
	protected := map[interface{}]cbor.RawMessage{}
	if len(message.Protected) > 0 {
		if err := cbor.Unmarshal(message.Protected, &protected); err != nil {
			return nil, fmt.Errorf("%w: invalid protected header: %w", ErrNoHolderKey, err)
		}
	}
	protectedHeaders := normalizeLabels(protected)
	unprotectedHeaders := normalizeLabels(message.Unprotected)

	if raw, ok := protectedHeaders[coseLabelContentType]; ok {
		var contentType string
		if err := cbor.Unmarshal(raw, &contentType); err == nil && contentType != openid4vci.CWTTypeOpenID4VCIProof {
			return nil, fmt.Errorf("invalid content type (expected: %s): %s", openid4vci.CWTTypeOpenID4VCIProof, contentType)
		}
	}
	var alg cose.Algorithm
	if raw, ok := protectedHeaders[coseLabelAlgorithm]; !ok {
		return nil, errors.New("missing COSE alg header")
	} else if err := cbor.Unmarshal(raw, &alg); err != nil {
		return nil, fmt.Errorf("invalid COSE alg header: %w", err)
	}

	publicKey, err := coseHolderKey(protected, protectedHeaders, unprotectedHeaders)
	if err != nil {
		return nil, err
	}
	verifier, err := cose.NewVerifier(alg, publicKey)
	if err != nil {
		return nil, fmt.Errorf("unsupported proof key or algorithm: %w", err)
	}
	if err := verifier.Verify(message.toBeSigned(), message.Signature); err != nil {
		return nil, fmt.Errorf("invalid proof signature: %w", err)
	}
	holderKey, err := jwk.FromRaw(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoHolderKey, err)
	}
	result := &HolderProof{
		Holder:    credential.Holder{Key: holderKey},
		PublicKey: publicKey,
	}
	if raw, ok := protectedHeaders[coseLabelKeyID]; ok {
		var kid []byte
		if cbor.Unmarshal(raw, &kid) == nil {
			result.KeyID = string(kid)
		}
	}
	if result.KeyID == "" {
		if result.KeyID, err = nutsCrypto.Thumbprint(holderKey); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoHolderKey, err)
		}
	}
	if err := result.readCWTClaims(message.Payload); err != nil {
		return nil, err
	}
	return result, nil
}

// coseHolderKey looks for the holder key in the protected headers: a COSE_Key, or the first certificate of the x5chain.
// When neither is there, a certificate in the unprotected headers is used.
func coseHolderKey(protected map[interface{}]cbor.RawMessage, protectedHeaders map[int64]cbor.RawMessage, unprotectedHeaders map[int64]cbor.RawMessage) (crypto.PublicKey, error) {
	if raw, ok := protected[coseKeyHeader]; ok {
		return decodeCOSEKey(raw)
	}
	if raw, ok := protectedHeaders[coseLabelX5Chain]; ok {
		return x5ChainKey(raw)
	}
	if raw, ok := unprotectedHeaders[coseLabelX5Chain]; ok {
		return x5ChainKey(raw)
	}
	return nil, fmt.Errorf("%w: proof has neither %s nor x5chain header", ErrNoHolderKey, coseKeyHeader)
}

func decodeCOSEKey(raw cbor.RawMessage) (crypto.PublicKey, error) {
	// some wallets wrap the key in a byte string
	var wrapped []byte
	if err := cbor.Unmarshal(raw, &wrapped); err == nil {
		raw = wrapped
	}
	var key cose.Key
	if err := key.UnmarshalCBOR(raw); err != nil {
		return nil, fmt.Errorf("%w: invalid %s: %w", ErrNoHolderKey, coseKeyHeader, err)
	}
	publicKey, err := key.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s: %w", ErrNoHolderKey, coseKeyHeader, err)
	}
	return publicKey, nil
}

// x5ChainKey returns the public key of the first certificate of an x5chain, which is a single certificate or an array.
func x5ChainKey(raw cbor.RawMessage) (crypto.PublicKey, error) {
	var certificate []byte
	if err := cbor.Unmarshal(raw, &certificate); err != nil {
		var chain [][]byte
		if err := cbor.Unmarshal(raw, &chain); err != nil || len(chain) == 0 {
			return nil, fmt.Errorf("%w: invalid x5chain", ErrNoHolderKey)
		}
		certificate = chain[0]
	}
	parsed, err := x509.ParseCertificate(certificate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid x5chain certificate: %w", ErrNoHolderKey, err)
	}
	return parsed.PublicKey, nil
}

func (h *HolderProof) readCWTClaims(payload []byte) error {
	claims := map[interface{}]cbor.RawMessage{}
	if err := cbor.Unmarshal(payload, &claims); err != nil {
		return fmt.Errorf("invalid CWT claims: %w", err)
	}
	labels := normalizeLabels(claims)
	if raw, ok := labels[cwtLabelIssuer]; ok {
		_ = cbor.Unmarshal(raw, &h.Issuer)
	}
	if raw, ok := labels[cwtLabelAudience]; ok {
		var audience string
		if cbor.Unmarshal(raw, &audience) == nil {
			h.Audience = []string{audience}
		} else {
			_ = cbor.Unmarshal(raw, &h.Audience)
		}
	}
	if raw, ok := labels[cwtLabelIssuedAt]; ok {
		var iat interface{}
		if err := cbor.Unmarshal(raw, &iat); err != nil {
			return fmt.Errorf("invalid CWT iat claim: %w", err)
		}
		switch v := iat.(type) {
		case uint64:
			h.IssuedAt = time.Unix(int64(v), 0)
		case int64:
			h.IssuedAt = time.Unix(v, 0)
		case float64:
			h.IssuedAt = time.Unix(int64(v), 0)
		default:
			return fmt.Errorf("invalid CWT iat claim: %T", iat)
		}
	}
	if raw, ok := labels[cwtLabelNonce]; ok {
		var nonce []byte
		if cbor.Unmarshal(raw, &nonce) == nil {
			h.Nonce = string(nonce)
		} else {
			_ = cbor.Unmarshal(raw, &h.Nonce)
		}
	}
	return nil
}

func decodeCOSESign1(data []byte) (*coseSign1, error) {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err == nil {
		if tag.Number != coseSign1Tag {
			return nil, fmt.Errorf("unexpected CBOR tag: %d", tag.Number)
		}
		data = tag.Content
	}
	var message coseSign1
	if err := cbor.Unmarshal(data, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// toBeSigned returns the Sig_structure of the message (RFC 9052, section 4.4).
func (m coseSign1) toBeSigned() []byte {
	protected := m.Protected
	if protected == nil {
		protected = []byte{}
	}
	result, _ := cbor.Marshal([]interface{}{"Signature1", protected, []byte{}, m.Payload})
	return result
}

// normalizeLabels maps the integer labels of a COSE header or CWT claims map by their value,
// regardless of the CBOR type the label was decoded as.
func normalizeLabels(input map[interface{}]cbor.RawMessage) map[int64]cbor.RawMessage {
	result := make(map[int64]cbor.RawMessage, len(input))
	for label, value := range input {
		switch l := label.(type) {
		case int64:
			result[l] = value
		case uint64:
			if l <= 1<<62 {
				result[int64(l)] = value
			}
		case int:
			result[int64(l)] = value
		}
	}
	return result
}

func decodeBase64(input string) ([]byte, error) {
	input = strings.TrimRight(input, "=")
	if data, err := base64.RawURLEncoding.DecodeString(input); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(input)
}

// ProofAlgorithms returns the JWS algorithms accepted for proofs.
func ProofAlgorithms() []string {
	result := make([]string, 0, len(nutsCrypto.SupportedAlgorithms))
	for _, alg := range nutsCrypto.SupportedAlgorithms {
		result = append(result, alg.String())
	}
	return result
}
