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
	"slices"
	"time"

	"github.com/nuts-foundation/nuts-issuer/credential/sdjwt"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// Status is the status of an IssuanceSession.
type Status string

const (
	// StatusActive is the status of a session that still accepts requests.
	StatusActive Status = "ACTIVE"
	// StatusSuccessful is the status of a session of which all credentials were issued.
	StatusSuccessful Status = "SUCCESSFUL"
	// StatusUnsuccessful is the status of a session that failed on the issuer side.
	StatusUnsuccessful Status = "UNSUCCESSFUL"
	// StatusRejectedByUser is the status of a session of which the end-user rejected the authorization.
	StatusRejectedByUser Status = "REJECTED_BY_USER"
	// StatusExpired is the status of a session that was accessed after its expiration timestamp.
	StatusExpired Status = "EXPIRED"
)

// Terminal returns true for every status other than StatusActive.
func (s Status) Terminal() bool {
	return s != StatusActive
}

// AuthenticationMethod defines how the holder is authenticated before a credential is issued.
type AuthenticationMethod string

const (
	// AuthenticationPreAuthorized issues through the pre-authorized code grant.
	AuthenticationPreAuthorized AuthenticationMethod = "PRE_AUTHORIZED"
	// AuthenticationNone issues through the authorization code grant without authenticating the end-user.
	AuthenticationNone AuthenticationMethod = "NONE"
	// AuthenticationPassword authenticates the end-user on an external login page.
	AuthenticationPassword AuthenticationMethod = "PWD"
	// AuthenticationIDToken authenticates the end-user with an id_token, obtained by the external authentication service.
	AuthenticationIDToken AuthenticationMethod = "ID_TOKEN"
	// AuthenticationVPToken authenticates the end-user with a vp_token, obtained by the external authentication service.
	AuthenticationVPToken AuthenticationMethod = "VP_TOKEN"
)

// External returns true if the method requires the external authentication service.
func (m AuthenticationMethod) External() bool {
	return m == AuthenticationPassword || m == AuthenticationIDToken || m == AuthenticationVPToken
}

func (m AuthenticationMethod) valid() bool {
	return m == AuthenticationPreAuthorized || m == AuthenticationNone || m.External()
}

// IssuanceRequest specifies a single credential to be issued within an IssuanceSession.
type IssuanceRequest struct {
	// IssuerKey is the serialized reference of the key that signs the credential.
	IssuerKey string `json:"issuerKey"`
	// IssuerDID is the issuer identifier, used as iss claim and credential issuer.
	IssuerDID string `json:"issuerDid"`
	// CredentialConfigurationID refers to one of the configured credential configurations.
	CredentialConfigurationID string `json:"credentialConfigurationId"`
	// CredentialData is the credential document (JWT-VC) or the credential claims (SD-JWT VC).
	CredentialData map[string]interface{} `json:"credentialData,omitempty"`
	// MdocData holds the data elements per namespace of an mdoc.
	MdocData map[string]map[string]interface{} `json:"mdocData,omitempty"`
	// Mapping is merged into CredentialData when the credential is generated, see the mapping package.
	Mapping map[string]interface{} `json:"mapping,omitempty"`
	// SelectiveDisclosure tells which claims of an SD-JWT are disclosable.
	SelectiveDisclosure *sdjwt.Map `json:"selectiveDisclosure,omitempty"`
	// AuthenticationMethod defaults to AuthenticationPreAuthorized.
	AuthenticationMethod AuthenticationMethod `json:"authenticationMethod,omitempty"`
	// TxCode describes the transaction code the holder must present in the pre-authorized code flow.
	TxCode *openid4vci.TxCode `json:"txCode,omitempty"`
	// TxCodeValue is the expected transaction code.
	TxCodeValue string `json:"txCodeValue,omitempty"`
	// X5Chain is the certificate chain of the issuer key (PEM or base64 DER), put in the header of mdoc credentials.
	X5Chain []string `json:"x5Chain,omitempty"`
	// Deferred makes the credential endpoint return an acceptance token instead of the credential.
	Deferred bool `json:"deferred,omitempty"`
	// ExpiresIn is the validity of the issued credential in seconds. Zero means the format default.
	ExpiresIn int `json:"expiresIn,omitempty"`
}

// IssuanceSession is an OpenID4VCI issuance flow, from offer until the last credential is issued.
type IssuanceSession struct {
	ID                   string                           `json:"id"`
	AuthorizationRequest *openid4vci.AuthorizationRequest `json:"authorizationRequest,omitempty"`
	ExpirationTimestamp  time.Time                        `json:"expirationTimestamp"`
	IssuanceRequests     []IssuanceRequest                `json:"issuanceRequests"`
	TxCode               *openid4vci.TxCode               `json:"txCode,omitempty"`
	TxCodeValue          string                           `json:"txCodeValue,omitempty"`
	AuthServerState      string                           `json:"authServerState,omitempty"`
	CredentialOffer      openid4vci.CredentialOffer       `json:"credentialOffer"`
	CNonce               string                           `json:"cNonce,omitempty"`
	CNonceExpiry         time.Time                        `json:"cNonceExpiry,omitempty"`
	CallbackURL          string                           `json:"callbackUrl,omitempty"`
	CustomParameters     map[string]interface{}           `json:"customParameters,omitempty"`
	Status               Status                           `json:"status"`
	StatusReason         string                           `json:"statusReason,omitempty"`
	IsClosed             bool                             `json:"isClosed"`
	// CodeID is the jti of the authorization code or pre-authorized code that may still be redeemed.
	// It is cleared when the code is exchanged for an access token, making the code single-use.
	CodeID string `json:"codeId,omitempty"`
	// AccessTokenID is the jti of the access token issued for this session.
	AccessTokenID string `json:"accessTokenId,omitempty"`
	// DPoPThumbprint binds the access token to the DPoP key used at the token endpoint.
	DPoPThumbprint string `json:"dpopThumbprint,omitempty"`
	// Served holds the indices of the issuance requests that have been issued.
	Served []int `json:"served,omitempty"`
	// Pending holds the credential IDs of deferred credentials that haven't been redeemed.
	Pending []string `json:"pending,omitempty"`
}

// close moves the session to the given terminal status. It returns false if the session was closed already,
// so a status never changes once it is terminal.
func (s *IssuanceSession) close(status Status, reason string) bool {
	if s.IsClosed || s.Status.Terminal() || !status.Terminal() {
		return false
	}
	s.Status = status
	s.StatusReason = reason
	s.IsClosed = true
	s.CNonce = ""
	s.CNonceExpiry = time.Time{}
	s.CodeID = ""
	return true
}

func (s IssuanceSession) expired(now time.Time) bool {
	return !now.Before(s.ExpirationTimestamp)
}

// markServed records the issuance request as issued. It returns true when every request of the session has been
// issued and no deferred credentials are pending.
func (s *IssuanceSession) markServed(index int) bool {
	if !slices.Contains(s.Served, index) {
		s.Served = append(s.Served, index)
	}
	return s.complete()
}

func (s IssuanceSession) complete() bool {
	return len(s.Served) >= len(s.IssuanceRequests) && len(s.Pending) == 0
}

func (s IssuanceSession) served(index int) bool {
	return slices.Contains(s.Served, index)
}

// redeemPending removes the credential ID from the pending list, returns false if it wasn't pending.
func (s *IssuanceSession) redeemPending(credentialID string) bool {
	index := slices.Index(s.Pending, credentialID)
	if index < 0 {
		return false
	}
	s.Pending = slices.Delete(s.Pending, index, index+1)
	return true
}

// authenticationMethod returns how the holder of the session is authenticated. All issuance requests of a session share it.
func (s IssuanceSession) authenticationMethod() AuthenticationMethod {
	if len(s.IssuanceRequests) == 0 || s.IssuanceRequests[0].AuthenticationMethod == "" {
		return AuthenticationPreAuthorized
	}
	return s.IssuanceRequests[0].AuthenticationMethod
}

// remaining returns the time until the session expires.
func (s IssuanceSession) remaining(now time.Time) time.Duration {
	return s.ExpirationTimestamp.Sub(now)
}

// SessionStatus is the status of a session as reported to the issuer administration.
type SessionStatus struct {
	ID                  string    `json:"id"`
	Status              Status    `json:"status"`
	StatusReason        string    `json:"statusReason,omitempty"`
	IsClosed            bool      `json:"isClosed"`
	ExpirationTimestamp time.Time `json:"expirationTimestamp"`
}

func (s IssuanceSession) status() SessionStatus {
	return SessionStatus{
		ID:                  s.ID,
		Status:              s.Status,
		StatusReason:        s.StatusReason,
		IsClosed:            s.IsClosed,
		ExpirationTimestamp: s.ExpirationTimestamp,
	}
}
