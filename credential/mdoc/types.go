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

// Package mdoc issues ISO/IEC 18013-5 mobile documents (mso_mdoc credentials).
package mdoc

import (
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

const (
	// MSOVersion is the version of the Mobile Security Object.
	MSOVersion = "1.0"
	// DigestAlgorithm is the digest algorithm of the value digests.
	DigestAlgorithm = "SHA-256"
	// CredentialEncoding is the value of the credential_encoding response parameter: the credential is an IssuerSigned structure.
	CredentialEncoding = "issuer-signed"
	// DefaultValidity is the validity of an issued mdoc when no explicit validity is given.
	DefaultValidity = 365 * 24 * time.Hour

	tagEncodedCBOR = 24
	tagFullDate    = 1004
	// headerLabelX5Chain is the COSE header holding the X.509 certificate chain (RFC 9360).
	headerLabelX5Chain int64 = 33
	// algorithmEdDSA is PureEdDSA as registered by RFC 8152.
	algorithmEdDSA cose.Algorithm = -8
)

// Document is an issued mdoc. At issuance it holds no DeviceSigned structure.
type Document struct {
	DocType      string       `cbor:"docType"`
	IssuerSigned IssuerSigned `cbor:"issuerSigned"`
}

// IssuerSigned holds the issuer signed data elements and the issuer signature over their digests.
type IssuerSigned struct {
	// NameSpaces maps a namespace to its IssuerSignedItemBytes: tag 24 wrapped, encoded IssuerSignedItems.
	NameSpaces map[string][]cbor.Tag `cbor:"nameSpaces"`
	// IssuerAuth is the untagged COSE_Sign1 over the Mobile Security Object.
	IssuerAuth cbor.RawMessage `cbor:"issuerAuth"`
}

// IssuerSignedItem is a single data element.
type IssuerSignedItem struct {
	DigestID          uint64      `cbor:"digestID"`
	Random            []byte      `cbor:"random"`
	ElementIdentifier string      `cbor:"elementIdentifier"`
	ElementValue      interface{} `cbor:"elementValue"`
}

// MobileSecurityObject is the digest manifest signed by the issuer.
type MobileSecurityObject struct {
	Version         string                       `cbor:"version"`
	DigestAlgorithm string                       `cbor:"digestAlgorithm"`
	ValueDigests    map[string]map[uint64][]byte `cbor:"valueDigests"`
	DeviceKeyInfo   DeviceKeyInfo                `cbor:"deviceKeyInfo"`
	DocType         string                       `cbor:"docType"`
	ValidityInfo    ValidityInfo                 `cbor:"validityInfo"`
}

// DeviceKeyInfo holds the key of the holder device.
type DeviceKeyInfo struct {
	DeviceKey *cose.Key `cbor:"deviceKey"`
}

// ValidityInfo is the validity window of the MSO. Timestamps are encoded as tdate.
type ValidityInfo struct {
	Signed     time.Time `cbor:"signed"`
	ValidFrom  time.Time `cbor:"validFrom"`
	ValidUntil time.Time `cbor:"validUntil"`
}

var encMode = func() cbor.EncMode {
	mode, err := cbor.EncOptions{
		Sort:    cbor.SortCoreDeterministic,
		Time:    cbor.TimeRFC3339,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

var decMode = func() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}()
