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
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// proofClockSkew is how far the iat claim of a proof may lie in the future.
const proofClockSkew = 30 * time.Second

// extractedProof is the outcome of proof extraction, which happens before the session is locked.
type extractedProof struct {
	proof *HolderProof
	err   error
}

// issuance is the credential matched and generated for a single credential request.
type issuance struct {
	index   int
	request openid4vci.CredentialRequest
	result  *CredentialResult
}

func issuedResults(issued []issuance) []*CredentialResult {
	all := make([]*CredentialResult, len(issued))
	for n, item := range issued {
		all[n] = item.result
	}
	return all
}

// Credential issues the credential the request asks for, bound to the key of the proof of possession.
// An invalid proof rotates the c_nonce, which is returned with the error. A generation failure closes the session.
func (i *Issuer) Credential(ctx context.Context, access AccessToken, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error) {
	token, err := i.tokens.Verify(access.Token, TargetAccess)
	if err != nil {
		return nil, newError(openid4vci.CredentialError, openid4vci.InvalidToken, err)
	}
	proofs := []extractedProof{i.extractProof(ctx, request)}
	responses, nonce, err := i.issue(ctx, openid4vci.CredentialError, token, access, []openid4vci.CredentialRequest{request}, proofs)
	if err != nil {
		return nil, err
	}
	response := responses[0]
	if nonce != nil {
		response.CNonce = &nonce.value
		response.CNonceExpiresIn = &nonce.expiresIn
	}
	return &response, nil
}

// BatchCredential issues every requested credential, or none of them. All proofs of a batch must be signed by the same key.
func (i *Issuer) BatchCredential(ctx context.Context, access AccessToken, request openid4vci.BatchCredentialRequest) (*openid4vci.BatchCredentialResponse, error) {
	token, err := i.tokens.Verify(access.Token, TargetAccess)
	if err != nil {
		return nil, newError(openid4vci.BatchCredentialError, openid4vci.InvalidToken, err)
	}
	if len(request.CredentialRequests) == 0 {
		return nil, newError(openid4vci.BatchCredentialError, openid4vci.InvalidRequest, errors.New("no credential requests"))
	}
	format := normalizeFormat(request.CredentialRequests[0].Format)
	for _, credentialRequest := range request.CredentialRequests[1:] {
		if normalizeFormat(credentialRequest.Format) != format {
			return nil, newError(openid4vci.BatchCredentialError, openid4vci.InvalidRequest, errors.New("all credential requests of a batch must have the same format"))
		}
	}
	proofs := make([]extractedProof, len(request.CredentialRequests))
	for index, credentialRequest := range request.CredentialRequests {
		proofs[index] = i.extractProof(ctx, credentialRequest)
	}
	responses, nonce, err := i.issue(ctx, openid4vci.BatchCredentialError, token, access, request.CredentialRequests, proofs)
	if err != nil {
		return nil, err
	}
	result := &openid4vci.BatchCredentialResponse{CredentialResponses: responses}
	if nonce != nil {
		result.CNonce = &nonce.value
		result.CNonceExpiresIn = &nonce.expiresIn
	}
	return result, nil
}

type rotatedNonce struct {
	value     string
	expiresIn int
}

// issue matches and generates the credentials of the requests within a single session update.
// It returns the fresh c_nonce when the session stays open.
func (i *Issuer) issue(ctx context.Context, kind openid4vci.ErrorKind, token *Token, access AccessToken,
	requests []openid4vci.CredentialRequest, proofs []extractedProof) ([]openid4vci.CredentialResponse, *rotatedNonce, error) {
	var issued []issuance
	var nonce *rotatedNonce
	// sessionErr is a protocol error that is returned after the session update was committed
	var sessionErr error
	var closed bool
	session, err := i.sessions.Update(token.SessionID, func(session *IssuanceSession) error {
		if err := i.checkAccess(kind, *session, token, access); err != nil {
			return err
		}
		indices, err := i.matchRequests(kind, *session, requests)
		if err != nil {
			return err
		}
		if err := i.checkProofs(kind, *session, proofs); err != nil {
			value, expiresIn := i.nonces.IssueNonce(session)
			sessionErr = err.WithNonce(value, expiresIn)
			return nil
		}
		issued = make([]issuance, len(requests))
		for n, index := range indices {
			result, err := i.generator.generate(ctx, *session, index, i.configurations[session.IssuanceRequests[index].CredentialConfigurationID],
				requests[n], *proofs[n].proof, true)
			if err != nil {
				log.Logger().
					WithError(err).
					WithField(core.LogFieldSessionID, session.ID).
					Error("Credential issuance failed")
				closed = session.close(StatusUnsuccessful, err.Error())
				sessionErr = newError(kind, openid4vci.ServerError, err)
				return nil
			}
			issued[n] = issuance{index: index, request: requests[n], result: result}
		}
		if err := i.generator.storeDeferred(issuedResults(issued)...); err != nil {
			log.Logger().
				WithError(err).
				WithField(core.LogFieldSessionID, session.ID).
				Error("Credential issuance failed")
			closed = session.close(StatusUnsuccessful, err.Error())
			sessionErr = newError(kind, openid4vci.ServerError, err)
			return nil
		}
		for _, item := range issued {
			if item.result.Deferred() {
				session.Pending = append(session.Pending, item.result.CredentialID)
				if deferredExpiry := i.now().Add(i.config.DeferredTTL); session.ExpirationTimestamp.Before(deferredExpiry) {
					session.ExpirationTimestamp = deferredExpiry
				}
			}
			session.markServed(item.index)
		}
		i.nonces.consume(session)
		if session.complete() {
			closed = session.close(StatusSuccessful, "")
			return nil
		}
		value, expiresIn := i.nonces.IssueNonce(session)
		nonce = &rotatedNonce{value: value, expiresIn: expiresIn}
		return nil
	})
	if err != nil {
		return nil, nil, protocolError(kind, openid4vci.InvalidToken, err)
	}
	if closed {
		i.sessionClosed(*session)
	}
	if sessionErr != nil {
		return nil, nil, sessionErr
	}
	i.generator.notify(*session, issuedResults(issued)...)
	responses := make([]openid4vci.CredentialResponse, len(issued))
	for n, item := range issued {
		response, err := i.credentialResponse(*session, item.result)
		if err != nil {
			return nil, nil, newError(kind, openid4vci.ServerError, err)
		}
		responses[n] = *response
	}
	return responses, nonce, nil
}

// DeferredCredential issues the deferred credential the acceptance token refers to.
// The proof of the original credential request binds the credential, its nonce is not checked again.
func (i *Issuer) DeferredCredential(ctx context.Context, access AccessToken) (*openid4vci.CredentialResponse, error) {
	const kind = openid4vci.DeferredCredentialError
	token, err := i.tokens.Verify(access.Token, TargetDeferredCredential)
	if err != nil {
		return nil, newError(kind, openid4vci.InvalidToken, err)
	}
	deferred, err := i.deferred.Get(token.ID)
	if err != nil {
		return nil, protocolError(kind, openid4vci.InvalidToken, err)
	}
	if deferred.SessionID != token.SessionID {
		return nil, newError(kind, openid4vci.InvalidToken, errors.New("acceptance token does not belong to the deferred credential"))
	}
	proof := i.extractProof(ctx, deferred.Request)
	if proof.err != nil {
		return nil, newError(kind, openid4vci.ServerError, fmt.Errorf("unable to recover holder key of deferred credential: %w", proof.err))
	}
	var result *CredentialResult
	var sessionErr error
	var closed bool
	session, err := i.sessions.Update(token.SessionID, func(session *IssuanceSession) error {
		if session.IsClosed {
			return newError(kind, openid4vci.InvalidToken, errSessionClosed)
		}
		if !slices.Contains(session.Pending, deferred.CredentialID) {
			return newError(kind, openid4vci.InvalidToken, errors.New("deferred credential has been issued already"))
		}
		if session.DPoPThumbprint != "" && session.DPoPThumbprint != access.DPoPThumbprint {
			return newError(kind, openid4vci.InvalidDPoPProof, errors.New("DPoP proof does not match the key the acceptance token is bound to"))
		}
		if deferred.RequestIndex < 0 || deferred.RequestIndex >= len(session.IssuanceRequests) {
			return fmt.Errorf("deferred credential refers to unknown issuance request %d", deferred.RequestIndex)
		}
		issuanceRequest := session.IssuanceRequests[deferred.RequestIndex]
		var err error
		result, err = i.generator.generate(ctx, *session, deferred.RequestIndex, i.configurations[issuanceRequest.CredentialConfigurationID],
			deferred.Request, *proof.proof, false)
		if err != nil {
			log.Logger().
				WithError(err).
				WithField(core.LogFieldSessionID, session.ID).
				WithField(core.LogFieldCredentialID, deferred.CredentialID).
				Error("Deferred credential issuance failed")
			closed = session.close(StatusUnsuccessful, err.Error())
			sessionErr = newError(kind, openid4vci.ServerError, err)
			return nil
		}
		session.redeemPending(deferred.CredentialID)
		if session.complete() {
			closed = session.close(StatusSuccessful, "")
		}
		return nil
	})
	if err != nil {
		return nil, protocolError(kind, openid4vci.InvalidToken, err)
	}
	if closed {
		i.sessionClosed(*session)
	}
	if sessionErr != nil {
		return nil, sessionErr
	}
	i.generator.notify(*session, result)
	return i.credentialResponse(*session, result)
}

func (i *Issuer) extractProof(ctx context.Context, request openid4vci.CredentialRequest) extractedProof {
	proof := request.GetProof()
	if proof == nil {
		return extractedProof{err: errors.New("missing proof")}
	}
	result, err := i.proofs.Extract(ctx, proof)
	return extractedProof{proof: result, err: err}
}

// checkAccess verifies that the access token is the current access token of the session, presented with the DPoP key it's bound to.
func (i *Issuer) checkAccess(kind openid4vci.ErrorKind, session IssuanceSession, token *Token, access AccessToken) error {
	if session.IsClosed {
		return newError(kind, openid4vci.InvalidToken, errSessionClosed)
	}
	if session.AccessTokenID == "" || session.AccessTokenID != token.ID {
		return newError(kind, openid4vci.InvalidToken, errors.New("access token has been replaced"))
	}
	if session.DPoPThumbprint != "" || token.Thumbprint != "" {
		if access.DPoPThumbprint == "" {
			return newError(kind, openid4vci.InvalidDPoPProof, errors.New("missing DPoP proof for DPoP-bound access token"))
		}
		if access.DPoPThumbprint != session.DPoPThumbprint || access.DPoPThumbprint != token.Thumbprint {
			return newError(kind, openid4vci.InvalidDPoPProof, errors.New("DPoP proof does not match the key the access token is bound to"))
		}
	}
	return nil
}

// matchRequests returns the issuance request index for every credential request. Two credential requests never match the same issuance request.
func (i *Issuer) matchRequests(kind openid4vci.ErrorKind, session IssuanceSession, requests []openid4vci.CredentialRequest) ([]int, error) {
	result := make([]int, len(requests))
	for n, request := range requests {
		if request.Format != "" && !supportedFormat(request.Format) {
			return nil, newError(kind, openid4vci.UnsupportedCredentialFormat, fmt.Errorf("unsupported credential format: %s", request.Format))
		}
		index, err := matchIssuanceRequest(session, i.configurations, request)
		if err != nil {
			return nil, newError(kind, openid4vci.InvalidRequest, err)
		}
		result[n] = index
		// later requests of the batch must match another issuance request
		session.Served = append(slices.Clone(session.Served), index)
	}
	return result, nil
}

func supportedFormat(format string) bool {
	switch normalizeFormat(format) {
	case openid4vci.JWTVCJSONFormat, openid4vci.SDJWTVCFormat, openid4vci.MsoMdocFormat:
		return true
	}
	return false
}

// checkProofs validates the proofs against the session: the c_nonce, the audience and the age.
func (i *Issuer) checkProofs(kind openid4vci.ErrorKind, session IssuanceSession, proofs []extractedProof) *openid4vci.Error {
	invalid := func(err error) *openid4vci.Error {
		result := newError(kind, openid4vci.InvalidOrMissingProof, err)
		return &result
	}
	now := i.now()
	for _, proof := range proofs {
		if proof.err != nil {
			return invalid(proof.err)
		}
		if proof.proof.KeyID != proofs[0].proof.KeyID {
			return invalid(errors.New("all proofs of a batch must be signed by the same key"))
		}
		if !i.nonces.ValidateNonce(session, proof.proof.Nonce) {
			return invalid(errors.New("invalid or expired c_nonce"))
		}
		// aud is optional for proofs of anonymous clients (pre-authorized code flow)
		if len(proof.proof.Audience) > 0 && !slices.Contains(proof.proof.Audience, i.baseURL) {
			return invalid(fmt.Errorf("proof audience must be %s", i.baseURL))
		}
		if proof.proof.IssuedAt.IsZero() {
			return invalid(errors.New("proof has no iat claim"))
		}
		if proof.proof.IssuedAt.After(now.Add(proofClockSkew)) {
			return invalid(errors.New("proof is issued in the future"))
		}
		if now.Sub(proof.proof.IssuedAt) > i.config.Proof.MaxAge {
			return invalid(errors.New("proof is too old"))
		}
	}
	return nil
}

// credentialResponse renders the credential, or the acceptance token of a deferred credential.
func (i *Issuer) credentialResponse(session IssuanceSession, result *CredentialResult) (*openid4vci.CredentialResponse, error) {
	response := &openid4vci.CredentialResponse{Format: result.Format}
	if len(session.CustomParameters) > 0 || len(result.CustomParameters) > 0 {
		response.CustomParameters = make(map[string]interface{})
		for key, value := range session.CustomParameters {
			response.CustomParameters[key] = value
		}
		for key, value := range result.CustomParameters {
			response.CustomParameters[key] = value
		}
	}
	if !result.Deferred() {
		response.Credential = result.Credential
		return response, nil
	}
	acceptanceToken, err := i.tokens.Mint(Token{
		SessionID:  session.ID,
		Target:     TargetDeferredCredential,
		ID:         result.CredentialID,
		Thumbprint: session.DPoPThumbprint,
	}, i.config.DeferredTTL)
	if err != nil {
		return nil, err
	}
	response.AcceptanceToken = acceptanceToken
	return response, nil
}
