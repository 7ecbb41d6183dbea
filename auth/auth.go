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
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-issuer/auth/clientattestation"
	"github.com/nuts-foundation/nuts-issuer/auth/log"
	"github.com/nuts-foundation/nuts-issuer/auth/replay"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/crypto/dpop"
)

var _ ProofOfPossessionGuards = (*Auth)(nil)
var _ core.Runnable = (*Auth)(nil)

// Auth is the main struct of the Auth service
type Auth struct {
	config            Config
	dpop              *dpop.Validator
	dpopReplay        *replay.Cache
	attestation       *clientattestation.Validator
	attestationReplay *replay.Cache
}

// NewAuthInstance returns a new Auth engine with the default config.
func NewAuthInstance() *Auth {
	return &Auth{config: DefaultConfig()}
}

// Name returns the name of the module.
func (auth *Auth) Name() string {
	return ModuleName
}

// Config returns the actual config of the module.
func (auth *Auth) Config() interface{} {
	return &auth.config
}

// Configure creates the validators and their replay caches.
func (auth *Auth) Configure(config core.ServerConfig) error {
	if auth.config.DPoP.MaxAge <= 0 {
		return errors.New("auth.dpop.maxage must be positive")
	}
	auth.dpopReplay = replay.New("DPoP", auth.config.DPoP.ReplayCacheSize, auth.config.DPoP.MaxAge)
	auth.dpop = dpop.NewValidator(auth.config.DPoP.MaxAge, auth.dpopReplay)

	if auth.config.ClientAttestation.Enabled {
		if len(auth.config.ClientAttestation.TrustedIssuers) == 0 {
			if config.Strictmode {
				return errors.New("in strictmode auth.clientattestation.trustedissuers must be set")
			}
			log.GuardLogger("clientattestation").Warn("Client attestation is enabled without trusted issuers, attestations of any issuer are accepted")
		}
		if auth.config.ClientAttestation.MaxAge <= 0 {
			return errors.New("auth.clientattestation.maxage must be positive")
		}
		auth.attestationReplay = replay.New("client attestation", auth.config.ClientAttestation.ReplayCacheSize, auth.config.ClientAttestation.MaxAge)
		var trustedKeys map[string]jwk.Set
		if len(auth.config.ClientAttestation.TrustedIssuers) > 0 {
			if auth.config.ClientAttestation.TrustedKeysFile == "" {
				return errors.New("auth.clientattestation.trustedkeysfile must be set when trusted issuers are configured")
			}
			var err error
			trustedKeys, err = clientattestation.LoadTrustedKeys(auth.config.ClientAttestation.TrustedKeysFile, auth.config.ClientAttestation.TrustedIssuers)
			if err != nil {
				return fmt.Errorf("auth.clientattestation.trustedkeysfile: %w", err)
			}
		}
		auth.attestation = clientattestation.NewValidator(trustedKeys, auth.config.ClientAttestation.MaxAge, auth.attestationReplay)
	}
	return nil
}

// Start starts sweeping the replay caches.
func (auth *Auth) Start() error {
	auth.dpopReplay.Start()
	if auth.attestationReplay != nil {
		auth.attestationReplay.Start()
	}
	return nil
}

// Shutdown stops sweeping the replay caches.
func (auth *Auth) Shutdown() error {
	auth.dpopReplay.Stop()
	if auth.attestationReplay != nil {
		auth.attestationReplay.Stop()
	}
	return nil
}

func (auth *Auth) DPoP() *dpop.Validator {
	return auth.dpop
}

func (auth *Auth) DPoPRequired() bool {
	return auth.config.DPoP.Required
}

func (auth *Auth) ClientAttestation() *clientattestation.Validator {
	return auth.attestation
}
