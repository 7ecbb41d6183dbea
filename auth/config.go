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

import "time"

// Config holds all the configuration params
type Config struct {
	DPoP              DPoPConfig              `koanf:"dpop"`
	ClientAttestation ClientAttestationConfig `koanf:"clientattestation"`
}

// DPoPConfig configures validation of DPoP proofs on the token and credential endpoints.
type DPoPConfig struct {
	// Required rejects token requests without a DPoP proof.
	Required bool `koanf:"required"`
	// MaxAge is the maximum age of a DPoP proof.
	MaxAge time.Duration `koanf:"maxage"`
	// ReplayCacheSize is the number of proof identifiers remembered to detect replay.
	ReplayCacheSize int `koanf:"replaycachesize"`
}

// ClientAttestationConfig configures OAuth Attestation-Based Client Authentication on the token endpoint.
type ClientAttestationConfig struct {
	// Enabled validates client attestation headers when present.
	Enabled bool `koanf:"enabled"`
	// TrustedIssuers lists the accepted attesters. When empty, attestations of any attester are accepted unverified.
	TrustedIssuers []string `koanf:"trustedissuers"`
	// TrustedKeysFile is a JSON file mapping each trusted attester to the JWK Set its attestations are verified with.
	TrustedKeysFile string `koanf:"trustedkeysfile"`
	// MaxAge is the maximum age of an attestation proof-of-possession.
	MaxAge time.Duration `koanf:"maxage"`
	// ReplayCacheSize is the number of proof identifiers remembered to detect replay.
	ReplayCacheSize int `koanf:"replaycachesize"`
}

// DefaultConfig returns an instance of Config with the default values.
func DefaultConfig() Config {
	return Config{
		DPoP: DPoPConfig{
			MaxAge:          5 * time.Minute,
			ReplayCacheSize: 10000,
		},
		ClientAttestation: ClientAttestationConfig{
			MaxAge:          5 * time.Minute,
			ReplayCacheSize: 10000,
		},
	}
}
