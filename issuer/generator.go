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
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/credential/jwtvc"
	"github.com/nuts-foundation/nuts-issuer/credential/mapping"
	"github.com/nuts-foundation/nuts-issuer/credential/mdoc"
	"github.com/nuts-foundation/nuts-issuer/credential/sdjwt"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/nuts-foundation/nuts-issuer/issuer")

// ErrIssuerKey is returned when the issuer key of an issuance request can't be resolved.
var ErrIssuerKey = errors.New("unable to resolve issuer key")

// ErrCredentialGeneration is returned when a credential can't be built or signed.
var ErrCredentialGeneration = errors.New("unable to generate credential")

// ErrUnsupportedFormat is returned for credential configurations with a format that can't be issued.
var ErrUnsupportedFormat = errors.New("unsupported credential format")

// CredentialResult is the outcome of credential generation: the credential, or the ID of a deferred credential.
type CredentialResult struct {
	// Format is the format of the credential as requested.
	Format string
	// Credential is the JWS, SD-JWT or base64url encoded IssuerSigned structure. It's empty when issuance was deferred.
	Credential string
	// CredentialID is set when issuance was deferred.
	CredentialID string
	// CustomParameters are added to the credential response.
	CustomParameters map[string]interface{}

	callbackType CallbackType
	callbackData map[string]interface{}
	// deferredRequest is stored by storeDeferred once the whole batch has been generated.
	deferredRequest *DeferredRequest
}

// Deferred tells whether the credential will be issued later.
func (r CredentialResult) Deferred() bool {
	return r.CredentialID != ""
}

type credentialGenerator struct {
	keyResolver nutsCrypto.KeyResolver
	deferred    DeferredRequestStore
	deferredTTL time.Duration
	callbacks   *callbacks
	metrics     *metrics
	now         func() time.Time
}

// generate issues the credential for the issuance request at index, bound to the holder of the proof.
// When the issuance request is deferred and deferral is allowed, the result holds the credential request to store instead.
// Nothing is stored or dispatched: that's left to storeDeferred and notify, once the session update holds.
func (g *credentialGenerator) generate(ctx context.Context, session IssuanceSession, index int, configuration openid4vci.CredentialConfiguration,
	request openid4vci.CredentialRequest, proof HolderProof, allowDeferral bool) (*CredentialResult, error) {
	ctx, span := tracer.Start(ctx, "issuer.generate", trace.WithAttributes(
		attribute.String("issuer.credential_configuration_id", session.IssuanceRequests[index].CredentialConfigurationID),
		attribute.Int("issuer.request_index", index),
	))
	defer span.End()
	result, err := g.generateCredential(ctx, session, index, configuration, request, proof, allowDeferral)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential generation failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("issuer.credential_format", result.Format), attribute.Bool("issuer.deferred", result.CredentialID != ""))
	return result, nil
}

func (g *credentialGenerator) generateCredential(ctx context.Context, session IssuanceSession, index int, configuration openid4vci.CredentialConfiguration,
	request openid4vci.CredentialRequest, proof HolderProof, allowDeferral bool) (*CredentialResult, error) {
	issuanceRequest := session.IssuanceRequests[index]
	format := request.Format
	if format == "" {
		format = configuration.Format
	}
	logger := log.Logger().
		WithField(core.LogFieldSessionID, session.ID).
		WithField(core.LogFieldCredentialFormat, format).
		WithField(core.LogFieldCredentialConfigurationID, issuanceRequest.CredentialConfigurationID)

	if allowDeferral && issuanceRequest.Deferred {
		credentialID := uuid.NewString()
		return &CredentialResult{
			Format:       format,
			CredentialID: credentialID,
			callbackType: CallbackDeferred,
			callbackData: map[string]interface{}{"credentialId": credentialID},
			deferredRequest: &DeferredRequest{
				CredentialID: credentialID,
				SessionID:    session.ID,
				RequestIndex: index,
				Request:      request,
			},
		}, nil
	}

	key, err := g.keyResolver.Resolve(ctx, issuanceRequest.IssuerKey)
	if err != nil {
		return nil, core.WrapError(ErrIssuerKey, err)
	}
	now := g.now()
	var result *CredentialResult
	var callbackType CallbackType
	var callbackData map[string]interface{}
	switch normalizeFormat(configuration.Format) {
	case openid4vci.JWTVCJSONFormat:
		result, callbackType, callbackData, err = g.issueJWTVC(key, issuanceRequest, configuration, proof, now)
	case openid4vci.SDJWTVCFormat:
		result, callbackType, callbackData, err = g.issueSDJWTVC(key, issuanceRequest, configuration, request, proof, now)
	case openid4vci.MsoMdocFormat:
		result, callbackType, callbackData, err = g.issueMdoc(key, issuanceRequest, configuration, proof)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, configuration.Format)
	}
	if err != nil {
		return nil, core.WrapError(ErrCredentialGeneration, err)
	}
	result.Format = format
	result.callbackType = callbackType
	result.callbackData = callbackData
	logger.WithField(core.LogFieldKeyID, key.KID()).Info("Credential issued")
	if g.metrics != nil {
		g.metrics.credentialIssued(format)
	}
	return result, nil
}

// storeDeferred stores the credential requests of the deferred results.
func (g *credentialGenerator) storeDeferred(results ...*CredentialResult) error {
	for _, result := range results {
		if result.deferredRequest == nil {
			continue
		}
		if err := g.deferred.Put(*result.deferredRequest, g.deferredTTL); err != nil {
			return fmt.Errorf("unable to store deferred credential request (credentialID=%s): %w", result.CredentialID, err)
		}
		log.Logger().
			WithField(core.LogFieldSessionID, result.deferredRequest.SessionID).
			WithField(core.LogFieldCredentialID, result.CredentialID).
			Info("Credential issuance deferred")
	}
	return nil
}

// notify dispatches the callbacks of the results.
func (g *credentialGenerator) notify(session IssuanceSession, results ...*CredentialResult) {
	for _, result := range results {
		if result.callbackType != "" {
			g.callbacks.dispatch(session, result.callbackType, result.callbackData)
		}
	}
}

// mapCredential merges the mapping into the credential data and derives the JWT claims.
func mapCredential(issuanceRequest IssuanceRequest, proof HolderProof, now time.Time) (*mapping.Result, error) {
	mapped, err := mapping.Apply(issuanceRequest.CredentialData, issuanceRequest.Mapping, mapping.Context{
		IssuerDID:  issuanceRequest.IssuerDID,
		SubjectDID: proof.Holder.DID,
		Now:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("credential mapping: %w", err)
	}
	if issuanceRequest.ExpiresIn > 0 {
		if _, ok := mapped.JWTClaims[jwt.ExpirationKey]; !ok {
			mapped.JWTClaims[jwt.ExpirationKey] = now.Add(time.Duration(issuanceRequest.ExpiresIn) * time.Second).Unix()
		}
	}
	return mapped, nil
}

func (g *credentialGenerator) issueJWTVC(key nutsCrypto.SigningKey, issuanceRequest IssuanceRequest, configuration openid4vci.CredentialConfiguration,
	proof HolderProof, now time.Time) (*CredentialResult, CallbackType, map[string]interface{}, error) {
	mapped, err := mapCredential(issuanceRequest, proof, now)
	if err != nil {
		return nil, "", nil, err
	}
	mapped.CompleteJWTClaims()
	document := mapped.Document
	if definition := configuration.CredentialDefinition; definition != nil {
		if _, ok := document["type"]; !ok && len(definition.Type) > 0 {
			document["type"] = stringsToInterfaces(definition.Type)
		}
		if _, ok := document["@context"]; !ok && len(definition.Context) > 0 {
			document["@context"] = stringsToInterfaces(definition.Context)
		}
	}
	options := jwtvc.Options{
		IssuerID: issuanceRequest.IssuerDID,
		Holder:   proof.Holder,
		Claims:   mapped.JWTClaims,
	}
	if issuanceRequest.SelectiveDisclosure != nil {
		issued, err := sdjwt.IssueW3C(key, document, issuanceRequest.SelectiveDisclosure, options)
		if err != nil {
			return nil, "", nil, err
		}
		credential := issued.String()
		return &CredentialResult{Credential: credential}, CallbackSDJWTIssue, map[string]interface{}{"sdjwt": credential}, nil
	}
	credential, err := jwtvc.Sign(key, document, options)
	if err != nil {
		return nil, "", nil, err
	}
	return &CredentialResult{Credential: credential}, CallbackJWTIssue, map[string]interface{}{"jwt": credential}, nil
}

func (g *credentialGenerator) issueSDJWTVC(key nutsCrypto.SigningKey, issuanceRequest IssuanceRequest, configuration openid4vci.CredentialConfiguration,
	request openid4vci.CredentialRequest, proof HolderProof, now time.Time) (*CredentialResult, CallbackType, map[string]interface{}, error) {
	mapped, err := mapCredential(issuanceRequest, proof, now)
	if err != nil {
		return nil, "", nil, err
	}
	typ := sdjwt.TypeVCSDJWT
	if request.Format == openid4vci.DCSDJWTFormat || (request.Format == "" && configuration.Format == openid4vci.DCSDJWTFormat) {
		typ = sdjwt.TypeDCSDJWT
	}
	issued, err := sdjwt.IssueVC(key, mapped.Document, sdjwt.VCOptions{
		IssuerID:            issuanceRequest.IssuerDID,
		VCT:                 configuration.VCT,
		Holder:              proof.Holder,
		SelectiveDisclosure: issuanceRequest.SelectiveDisclosure,
		Claims:              mapped.JWTClaims,
		Type:                typ,
	})
	if err != nil {
		return nil, "", nil, err
	}
	credential := issued.String()
	return &CredentialResult{Credential: credential}, CallbackSDJWTIssue, map[string]interface{}{"sdjwt": credential}, nil
}

func (g *credentialGenerator) issueMdoc(key nutsCrypto.SigningKey, issuanceRequest IssuanceRequest, configuration openid4vci.CredentialConfiguration,
	proof HolderProof) (*CredentialResult, CallbackType, map[string]interface{}, error) {
	x5chain, err := mdoc.ParseX5Chain(issuanceRequest.X5Chain)
	if err != nil {
		return nil, "", nil, err
	}
	var validity time.Duration
	if issuanceRequest.ExpiresIn > 0 {
		validity = time.Duration(issuanceRequest.ExpiresIn) * time.Second
	}
	document, err := mdoc.Issue(key, mdoc.Options{
		DocType:    configuration.DocType,
		NameSpaces: issuanceRequest.MdocData,
		HolderKey:  proof.PublicKey,
		X5Chain:    x5chain,
		Validity:   validity,
	})
	if err != nil {
		return nil, "", nil, err
	}
	documentBytes, err := document.Bytes()
	if err != nil {
		return nil, "", nil, err
	}
	issuerSigned, err := document.IssuerSigned.Bytes()
	if err != nil {
		return nil, "", nil, err
	}
	result := &CredentialResult{
		Credential:       base64.RawURLEncoding.EncodeToString(issuerSigned),
		CustomParameters: map[string]interface{}{"credential_encoding": mdoc.CredentialEncoding},
	}
	return result, CallbackGeneratedMdoc, map[string]interface{}{"cbor": hex.EncodeToString(documentBytes)}, nil
}

func stringsToInterfaces(values []string) []interface{} {
	result := make([]interface{}, len(values))
	for i, value := range values {
		result[i] = value
	}
	return result
}
