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

package auth

import (
	"github.com/nuts-foundation/nuts-issuer/auth/clientattestation"
	"github.com/nuts-foundation/nuts-issuer/crypto/dpop"
)

// ModuleName contains the name of this module
const ModuleName = "Auth"

// ProofOfPossessionGuards gives access to the validators that gate the token endpoint.
type ProofOfPossessionGuards interface {
	// DPoP returns the DPoP proof validator.
	DPoP() *dpop.Validator
	// DPoPRequired returns true if every token request must carry a DPoP proof.
	DPoPRequired() bool
	// ClientAttestation returns the client attestation validator, or nil if client attestation is disabled.
	ClientAttestation() *clientattestation.Validator
}
