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

package mdoc

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/minio/sha256-simd"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/veraison/go-cose"
)

// ErrInvalidDocument is returned when an mdoc can't be decoded or does not verify.
var ErrInvalidDocument = errors.New("invalid mdoc")

var nowFunc = time.Now

// Options contains the parameters of an mdoc.
type Options struct {
	// DocType is the document type, e.g. org.iso.18013.5.1.mDL.
	DocType string
	// NameSpaces maps namespaces to data element identifiers to their JSON values.
	NameSpaces map[string]map[string]interface{}
	// HolderKey is the public key of the holder device.
	HolderKey crypto.PublicKey
	// X5Chain is the DER encoded issuer certificate chain, leaf first.
	X5Chain [][]byte
	// Validity is the validity of the MSO, DefaultValidity when zero.
	Validity time.Duration
}

// Issue creates and signs an mdoc: every data element becomes a salted IssuerSignedItem,
// its digest goes into the MSO which is signed as COSE_Sign1 with the issuer key.
func Issue(key nutsCrypto.SigningKey, options Options) (*Document, error) {
	if options.DocType == "" {
		return nil, errors.New("missing doctype")
	}
	if len(options.NameSpaces) == 0 {
		return nil, errors.New("missing data elements")
	}
	if options.HolderKey == nil {
		return nil, errors.New("missing holder device key")
	}
	deviceKey, err := cose.NewKeyFromPublic(options.HolderKey)
	if err != nil {
		return nil, fmt.Errorf("unsupported holder device key: %w", err)
	}
	issuerSigned := IssuerSigned{NameSpaces: map[string][]cbor.Tag{}}
	valueDigests := map[string]map[uint64][]byte{}
	for namespace, elements := range options.NameSpaces {
		items, digests, err := signedItems(elements)
		if err != nil {
			return nil, fmt.Errorf("namespace %s: %w", namespace, err)
		}
		issuerSigned.NameSpaces[namespace] = items
		valueDigests[namespace] = digests
	}
	validity := options.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}
	now := nowFunc().UTC().Truncate(time.Second)
	mso := MobileSecurityObject{
		Version:         MSOVersion,
		DigestAlgorithm: DigestAlgorithm,
		ValueDigests:    valueDigests,
		DeviceKeyInfo:   DeviceKeyInfo{DeviceKey: deviceKey},
		DocType:         options.DocType,
		ValidityInfo: ValidityInfo{
			Signed:     now,
			ValidFrom:  now,
			ValidUntil: now.Add(validity),
		},
	}
	issuerSigned.IssuerAuth, err = signMSO(key, mso, options.X5Chain)
	if err != nil {
		return nil, err
	}
	return &Document{DocType: options.DocType, IssuerSigned: issuerSigned}, nil
}

func signedItems(elements map[string]interface{}) ([]cbor.Tag, map[uint64][]byte, error) {
	identifiers := make([]string, 0, len(elements))
	for identifier := range elements {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	items := make([]cbor.Tag, 0, len(identifiers))
	digests := make(map[uint64][]byte, len(identifiers))
	for i, identifier := range identifiers {
		value, err := ElementValue(identifier, elements[identifier])
		if err != nil {
			return nil, nil, err
		}
		item := IssuerSignedItem{
			DigestID:          uint64(i),
			Random:            nutsCrypto.RandomBytes(16),
			ElementIdentifier: identifier,
			ElementValue:      value,
		}
		itemBytes, err := encMode.Marshal(item)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to encode data element %s: %w", identifier, err)
		}
		tagged := cbor.Tag{Number: tagEncodedCBOR, Content: itemBytes}
		digest, err := itemDigest(tagged)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, tagged)
		digests[item.DigestID] = digest
	}
	return items, digests, nil
}

// itemDigest returns the digest over the encoded IssuerSignedItemBytes, tag included.
func itemDigest(item cbor.Tag) ([]byte, error) {
	data, err := encMode.Marshal(item)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func signMSO(key nutsCrypto.SigningKey, mso MobileSecurityObject, x5chain [][]byte) (cbor.RawMessage, error) {
	msoBytes, err := encMode.Marshal(mso)
	if err != nil {
		return nil, fmt.Errorf("unable to encode MSO: %w", err)
	}
	payload, err := encMode.Marshal(cbor.Tag{Number: tagEncodedCBOR, Content: msoBytes})
	if err != nil {
		return nil, err
	}
	signer, err := newSigner(key)
	if err != nil {
		return nil, err
	}
	message := cose.NewSign1Message()
	message.Headers.Protected.SetAlgorithm(signer.Algorithm())
	if key.KID() != "" {
		message.Headers.Unprotected[cose.HeaderLabelKeyID] = []byte(key.KID())
	}
	switch len(x5chain) {
	case 0:
	case 1:
		message.Headers.Unprotected[headerLabelX5Chain] = x5chain[0]
	default:
		certificates := make([]interface{}, len(x5chain))
		for i, certificate := range x5chain {
			certificates[i] = certificate
		}
		message.Headers.Unprotected[headerLabelX5Chain] = certificates
	}
	message.Payload = payload
	if err = message.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("unable to sign MSO: %w", err)
	}
	data, err := (*cose.UntaggedSign1Message)(message).MarshalCBOR()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// COSEAlgorithm returns the COSE algorithm for the JWA signature algorithm.
func COSEAlgorithm(alg jwa.SignatureAlgorithm) (cose.Algorithm, error) {
	switch alg {
	case jwa.ES256:
		return cose.AlgorithmES256, nil
	case jwa.ES384:
		return cose.AlgorithmES384, nil
	case jwa.ES512:
		return cose.AlgorithmES512, nil
	case jwa.PS256:
		return cose.AlgorithmPS256, nil
	case jwa.PS384:
		return cose.AlgorithmPS384, nil
	case jwa.PS512:
		return cose.AlgorithmPS512, nil
	case jwa.EdDSA:
		return algorithmEdDSA, nil
	}
	return 0, fmt.Errorf("unsupported COSE signature algorithm: %s", alg)
}

// newSigner returns the go-cose signer for local keys. Keys without local private key material are signed through
// their SigningKey, the DER encoded ECDSA signatures then have to be converted into the fixed-length COSE form.
func newSigner(key nutsCrypto.SigningKey) (cose.Signer, error) {
	alg, err := COSEAlgorithm(key.Algorithm())
	if err != nil {
		return nil, err
	}
	if privateKey, ok := key.PrivateKey(); ok {
		if signer, ok := privateKey.(crypto.Signer); ok {
			return cose.NewSigner(alg, signer)
		}
	}
	return remoteSigner{key: key, alg: alg}, nil
}

type remoteSigner struct {
	key nutsCrypto.SigningKey
	alg cose.Algorithm
}

func (r remoteSigner) Algorithm() cose.Algorithm {
	return r.alg
}

func (r remoteSigner) Sign(_ io.Reader, content []byte) ([]byte, error) {
	signature, err := nutsCrypto.SignBytes(r.key, content)
	if err != nil {
		return nil, err
	}
	if publicKey, ok := r.key.Public().(*ecdsa.PublicKey); ok {
		return nutsCrypto.ECDSADERToRaw(signature, publicKey.Curve)
	}
	return signature, nil
}

// Bytes returns the CBOR encoding of the document.
func (d Document) Bytes() ([]byte, error) {
	return encMode.Marshal(d)
}

// Bytes returns the CBOR encoding of the IssuerSigned structure.
func (s IssuerSigned) Bytes() ([]byte, error) {
	return encMode.Marshal(s)
}

// ParseDocument decodes a CBOR encoded document.
func ParseDocument(data []byte) (*Document, error) {
	var result Document
	if err := decMode.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &result, nil
}

// ParseIssuerSigned decodes a CBOR encoded IssuerSigned structure, as returned in credential responses.
func ParseIssuerSigned(data []byte) (*IssuerSigned, error) {
	var result IssuerSigned
	if err := decMode.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &result, nil
}

// Verify verifies the issuer signature and the digests of all data elements, and returns the MSO.
func (s IssuerSigned) Verify(issuerKey crypto.PublicKey) (*MobileSecurityObject, error) {
	var message cose.UntaggedSign1Message
	if err := message.UnmarshalCBOR(s.IssuerAuth); err != nil {
		return nil, fmt.Errorf("%w: issuerAuth: %w", ErrInvalidDocument, err)
	}
	alg, err := message.Headers.Protected.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("%w: issuerAuth: %w", ErrInvalidDocument, err)
	}
	verifier, err := cose.NewVerifier(alg, issuerKey)
	if err != nil {
		return nil, err
	}
	if err = (*cose.Sign1Message)(&message).Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var payload cbor.Tag
	if err = decMode.Unmarshal(message.Payload, &payload); err != nil || payload.Number != tagEncodedCBOR {
		return nil, fmt.Errorf("%w: MSO is not tagged encoded CBOR", ErrInvalidDocument)
	}
	msoBytes, ok := payload.Content.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: MSO is not a byte string", ErrInvalidDocument)
	}
	var mso MobileSecurityObject
	if err = decMode.Unmarshal(msoBytes, &mso); err != nil {
		return nil, fmt.Errorf("%w: MSO: %w", ErrInvalidDocument, err)
	}
	for namespace, items := range s.NameSpaces {
		for _, tagged := range items {
			item, err := decodeItem(tagged)
			if err != nil {
				return nil, err
			}
			digest, err := itemDigest(tagged)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(mso.ValueDigests[namespace][item.DigestID], digest) {
				return nil, fmt.Errorf("%w: digest mismatch for %s/%s", ErrInvalidDocument, namespace, item.ElementIdentifier)
			}
		}
	}
	return &mso, nil
}

// Elements returns the decoded data elements per namespace.
func (s IssuerSigned) Elements() (map[string]map[string]interface{}, error) {
	result := make(map[string]map[string]interface{}, len(s.NameSpaces))
	for namespace, items := range s.NameSpaces {
		result[namespace] = make(map[string]interface{}, len(items))
		for _, tagged := range items {
			item, err := decodeItem(tagged)
			if err != nil {
				return nil, err
			}
			result[namespace][item.ElementIdentifier] = item.ElementValue
		}
	}
	return result, nil
}

func decodeItem(tagged cbor.Tag) (*IssuerSignedItem, error) {
	itemBytes, ok := tagged.Content.([]byte)
	if tagged.Number != tagEncodedCBOR || !ok {
		return nil, fmt.Errorf("%w: IssuerSignedItemBytes is not tagged encoded CBOR", ErrInvalidDocument)
	}
	var item IssuerSignedItem
	if err := decMode.Unmarshal(itemBytes, &item); err != nil {
		return nil, fmt.Errorf("%w: IssuerSignedItem: %w", ErrInvalidDocument, err)
	}
	return &item, nil
}

// ParseX5Chain decodes a certificate chain given as PEM or base64 encoded DER certificates.
func ParseX5Chain(chain []string) ([][]byte, error) {
	var result [][]byte
	for i, entry := range chain {
		var der []byte
		if block, _ := pem.Decode([]byte(entry)); block != nil {
			der = block.Bytes
		} else {
			decoded, err := base64.StdEncoding.DecodeString(entry)
			if err != nil {
				return nil, fmt.Errorf("x5chain entry %d is neither PEM nor base64: %w", i, err)
			}
			der = decoded
		}
		if _, err := x509.ParseCertificate(der); err != nil {
			return nil, fmt.Errorf("x5chain entry %d: %w", i, err)
		}
		result = append(result, der)
	}
	return result, nil
}
