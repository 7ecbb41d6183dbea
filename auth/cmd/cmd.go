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

package cmd

import (
	"github.com/nuts-foundation/nuts-issuer/auth"
	"github.com/spf13/pflag"
)

// ConfDPoPRequired is the config key to reject token requests without a DPoP proof
const ConfDPoPRequired = "auth.dpop.required"

// ConfDPoPMaxAge is the config key for the maximum age of a DPoP proof
const ConfDPoPMaxAge = "auth.dpop.maxage"

// ConfDPoPReplayCacheSize is the config key for the number of DPoP proof identifiers kept to detect replay
const ConfDPoPReplayCacheSize = "auth.dpop.replaycachesize"

// ConfClientAttestationEnabled is the config key for enabling client attestation on the token endpoint
const ConfClientAttestationEnabled = "auth.clientattestation.enabled"

// ConfClientAttestationTrustedIssuers is the config key for the accepted attesters
const ConfClientAttestationTrustedIssuers = "auth.clientattestation.trustedissuers"

// ConfClientAttestationTrustedKeysFile is the config key for the file holding the JWK Sets of the accepted attesters
const ConfClientAttestationTrustedKeysFile = "auth.clientattestation.trustedkeysfile"

// ConfClientAttestationMaxAge is the config key for the maximum age of a client attestation proof-of-possession
const ConfClientAttestationMaxAge = "auth.clientattestation.maxage"

// ConfClientAttestationReplayCacheSize is the config key for the number of proof identifiers kept to detect replay
const ConfClientAttestationReplayCacheSize = "auth.clientattestation.replaycachesize"

// FlagSet returns the configuration flags supported by this module.
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("auth", pflag.ContinueOnError)

	defs := auth.DefaultConfig()
	flags.Bool(ConfDPoPRequired, defs.DPoP.Required, "When set, token requests without a DPoP proof are rejected.")
	flags.Duration(ConfDPoPMaxAge, defs.DPoP.MaxAge, "Maximum age of a DPoP proof, in Golang time.Duration string format (e.g. 5m).")
	flags.Int(ConfDPoPReplayCacheSize, defs.DPoP.ReplayCacheSize, "Number of DPoP proof identifiers kept to detect replay.")
	flags.Bool(ConfClientAttestationEnabled, defs.ClientAttestation.Enabled, "Validate OAuth client attestations presented on the token endpoint.")
	flags.StringSlice(ConfClientAttestationTrustedIssuers, defs.ClientAttestation.TrustedIssuers, "Accepted client attesters. When empty, attestations of any attester are accepted, which is not allowed in strict mode.")
	flags.String(ConfClientAttestationTrustedKeysFile, defs.ClientAttestation.TrustedKeysFile, "JSON file that maps each trusted attester to the JWK Set its attestations are signed with. Required when trusted issuers are set.")
	flags.Duration(ConfClientAttestationMaxAge, defs.ClientAttestation.MaxAge, "Maximum age of a client attestation proof-of-possession, in Golang time.Duration string format (e.g. 5m).")
	flags.Int(ConfClientAttestationReplayCacheSize, defs.ClientAttestation.ReplayCacheSize, "Number of client attestation proof identifiers kept to detect replay.")

	return flags
}
