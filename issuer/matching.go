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
	"errors"
	"slices"

	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// ErrNoMatchingIssuanceRequest is returned when a credential request matches none of the issuance requests of the session.
var ErrNoMatchingIssuanceRequest = errors.New("no matching issuance request found")

// ErrCredentialAlreadyIssued is returned when a credential request only matches issuance requests that have been served.
var ErrCredentialAlreadyIssued = errors.New("credential has already been issued")

// normalizeFormat maps format aliases to a single name.
func normalizeFormat(format string) string {
	switch format {
	case openid4vci.JWTVCFormat:
		return openid4vci.JWTVCJSONFormat
	case openid4vci.DCSDJWTFormat:
		return openid4vci.SDJWTVCFormat
	}
	return format
}

// credentialDescriptor describes a requested credential by format and its format specific discriminant.
// Both credential requests and authorization details are matched through it.
type credentialDescriptor struct {
	configurationID string
	format          string
	types           []string
	vct             string
	docType         string
}

func describeCredentialRequest(request openid4vci.CredentialRequest) credentialDescriptor {
	return credentialDescriptor{
		configurationID: request.CredentialConfigurationID,
		format:          request.Format,
		types:           request.CredentialTypes(),
		vct:             request.VCT,
		docType:         request.DocType,
	}
}

func describeAuthorizationDetail(detail openid4vci.AuthorizationDetail) credentialDescriptor {
	result := credentialDescriptor{
		configurationID: detail.CredentialConfigurationID,
		format:          detail.Format,
		types:           detail.Types,
		vct:             detail.VCT,
		docType:         detail.DocType,
	}
	if detail.CredentialDefinition != nil && len(detail.CredentialDefinition.Type) > 0 {
		result.types = detail.CredentialDefinition.Type
	}
	return result
}

// matches tells whether the descriptor asks for the credential of the issuance request.
// A credential configuration ID matches on its own, otherwise the format and discriminant must match:
// the exact (ordered) type list for JWT-VCs, vct for SD-JWT VCs and doctype for mdocs.
func (d credentialDescriptor) matches(request IssuanceRequest, configuration openid4vci.CredentialConfiguration) bool {
	if d.configurationID != "" {
		if d.configurationID != request.CredentialConfigurationID {
			return false
		}
		return d.format == "" || normalizeFormat(d.format) == normalizeFormat(configuration.Format)
	}
	if d.format == "" || normalizeFormat(d.format) != normalizeFormat(configuration.Format) {
		return false
	}
	switch normalizeFormat(configuration.Format) {
	case openid4vci.JWTVCJSONFormat:
		return len(d.types) > 0 && slices.Equal(d.types, configuredTypes(request, configuration))
	case openid4vci.SDJWTVCFormat:
		return d.vct != "" && d.vct == configuration.VCT
	case openid4vci.MsoMdocFormat:
		return d.docType != "" && d.docType == configuration.DocType
	}
	return false
}

// configuredTypes returns the credential types of a JWT-VC issuance request: those of the credential definition,
// or those of the credential document when the configuration has no definition.
func configuredTypes(request IssuanceRequest, configuration openid4vci.CredentialConfiguration) []string {
	if configuration.CredentialDefinition != nil && len(configuration.CredentialDefinition.Type) > 0 {
		return configuration.CredentialDefinition.Type
	}
	var result []string
	switch types := request.CredentialData["type"].(type) {
	case []interface{}:
		for _, value := range types {
			if typ, ok := value.(string); ok {
				result = append(result, typ)
			}
		}
	case []string:
		result = types
	case string:
		result = []string{types}
	}
	return result
}

// matchIssuanceRequest returns the index of the first unserved issuance request of the session that the credential request asks for.
// It never falls back to another issuance request.
func matchIssuanceRequest(session IssuanceSession, configurations map[string]openid4vci.CredentialConfiguration, request openid4vci.CredentialRequest) (int, error) {
	descriptor := describeCredentialRequest(request)
	matched := false
	for index, issuanceRequest := range session.IssuanceRequests {
		configuration, ok := configurations[issuanceRequest.CredentialConfigurationID]
		if !ok || !descriptor.matches(issuanceRequest, configuration) {
			continue
		}
		if session.served(index) {
			matched = true
			continue
		}
		return index, nil
	}
	if matched {
		return -1, ErrCredentialAlreadyIssued
	}
	return -1, ErrNoMatchingIssuanceRequest
}

// authorizedRequests returns the issuance requests of the session the authorization request asks for,
// through its authorization details or, without details, through its scope.
func authorizedRequests(session IssuanceSession, configurations map[string]openid4vci.CredentialConfiguration, request openid4vci.AuthorizationRequest) []int {
	var result []int
	for index, issuanceRequest := range session.IssuanceRequests {
		configuration, ok := configurations[issuanceRequest.CredentialConfigurationID]
		if !ok {
			continue
		}
		if len(request.AuthorizationDetails) == 0 {
			if request.HasScope(issuanceRequest.CredentialConfigurationID) || (configuration.Scope != "" && request.HasScope(configuration.Scope)) {
				result = append(result, index)
			}
			continue
		}
		for _, detail := range request.AuthorizationDetails {
			if detail.Type == openid4vci.AuthorizationDetailsType && describeAuthorizationDetail(detail).matches(issuanceRequest, configuration) {
				result = append(result, index)
				break
			}
		}
	}
	return result
}
