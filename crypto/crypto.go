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

package crypto

import (
	"context"
	"fmt"
	"time"

	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/crypto/log"
)

// ModuleName is the name of the crypto engine.
const ModuleName = "Crypto"

// Config holds the configuration of the remote key backends. A backend is enabled when its address/URL is set.
type Config struct {
	Azure    AzureConfig    `koanf:"azure"`
	Vault    VaultConfig    `koanf:"vault"`
	External ExternalConfig `koanf:"external"`
}

// DefaultConfig returns the default crypto configuration.
func DefaultConfig() Config {
	return Config{
		Azure: AzureConfig{
			Timeout: 10 * time.Second,
			Auth:    AzureAuthConfig{Type: AzureDefaultCredentialType},
		},
		Vault: VaultConfig{
			PathPrefix: defaultVaultPathPrefix,
			Timeout:    5 * time.Second,
		},
		External: ExternalConfig{
			Timeout: 5 * time.Second,
			Retries: 3,
		},
	}
}

var _ KeyResolver = (*Crypto)(nil)
var _ core.Injectable = (*Crypto)(nil)
var _ core.Configurable = (*Crypto)(nil)

// Crypto resolves issuer key references into SigningKeys, for every configured key backend.
type Crypto struct {
	config         Config
	keyVaultClient keyVaultClient
	vaultClient    logicaler
	externalSigner *externalSigner
}

// NewCryptoInstance creates a new instance of the crypto engine.
func NewCryptoInstance() *Crypto {
	return &Crypto{
		config: DefaultConfig(),
	}
}

func (c *Crypto) Name() string {
	return ModuleName
}

func (c *Crypto) Config() interface{} {
	return &c.config
}

// Configure sets up the clients for the enabled key backends.
func (c *Crypto) Configure(config core.ServerConfig) error {
	var err error
	if c.config.Azure.URL != "" {
		if c.keyVaultClient, err = newKeyVaultClient(c.config.Azure); err != nil {
			return err
		}
		log.Logger().Info("Azure Key Vault key backend enabled")
	}
	if c.config.Vault.Address != "" {
		if c.vaultClient, err = newVaultClient(c.config.Vault); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.config.Vault.Timeout)
		defer cancel()
		if err = checkVaultConnection(ctx, c.vaultClient); err != nil {
			return err
		}
	}
	if c.config.External.URL != "" {
		if c.externalSigner, err = newExternalSigner(c.config.External, config.Strictmode); err != nil {
			return err
		}
		log.Logger().Info("External signer key backend enabled")
	}
	return nil
}

// Resolve decodes the key reference and returns the matching SigningKey.
func (c *Crypto) Resolve(ctx context.Context, keyReference string) (SigningKey, error) {
	ref, err := ParseKeyReference(keyReference)
	if err != nil {
		return nil, err
	}
	logger := log.Logger().WithField(core.LogFieldKeyBackend, ref.Type)
	var key SigningKey
	switch ref.Type {
	case KeyTypeJWK:
		key, err = localKeyFromJWK(ref.JWK, ref.KID)
	case KeyTypeAzureKeyVault:
		if c.keyVaultClient == nil {
			return nil, fmt.Errorf("%w: Azure Key Vault backend is not configured", ErrInvalidKeyReference)
		}
		key, err = resolveAzureKey(ctx, c.keyVaultClient, c.config.Azure.Timeout, *ref)
	case KeyTypeVaultTransit:
		if c.vaultClient == nil {
			return nil, fmt.Errorf("%w: Vault backend is not configured", ErrInvalidKeyReference)
		}
		key, err = resolveVaultKey(ctx, c.vaultClient, c.config.Vault.PathPrefix, *ref)
	case KeyTypeExternal:
		if c.externalSigner == nil {
			return nil, fmt.Errorf("%w: external signer backend is not configured", ErrInvalidKeyReference)
		}
		key, err = c.externalSigner.resolve(ctx, *ref)
	}
	if err != nil {
		logger.WithError(err).Debug("Unable to resolve signing key")
		return nil, err
	}
	logger.WithField(core.LogFieldKeyID, key.KID()).Trace("Resolved signing key")
	return key, nil
}
