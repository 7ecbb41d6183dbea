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
	"fmt"
	"time"

	"github.com/nuts-foundation/nuts-issuer/openid4vci"
)

// Config holds the configuration of the issuer engine.
type Config struct {
	// BaseURL is the public URL of the credential issuer, it's used as credential_issuer and token issuer.
	BaseURL string `koanf:"baseurl"`
	// TokenKey is the serialized key reference of the key that signs authorization codes, access tokens and acceptance tokens.
	// A key is generated in memory when empty, unless in strict mode.
	TokenKey string `koanf:"tokenkey"`
	// SessionTTL is the default lifetime of an issuance session.
	SessionTTL time.Duration `koanf:"sessionttl"`
	// DeferredTTL is the lifetime of deferred credential requests.
	DeferredTTL time.Duration `koanf:"deferredttl"`
	// TokenTTL is the lifetime of access tokens.
	TokenTTL time.Duration `koanf:"tokenttl"`
	// NonceTTL is the lifetime of a c_nonce.
	NonceTTL time.Duration `koanf:"noncettl"`
	// Proof configures validation of proofs of possession.
	Proof ProofConfig `koanf:"proof"`
	// Authentication configures the login page for the authentication methods that need one.
	Authentication AuthenticationConfig `koanf:"authentication"`
	// CredentialConfigurations lists the credentials the issuer can issue.
	CredentialConfigurations []CredentialConfigurationConfig `koanf:"credentialconfigurations"`
	// Callback configures delivery of lifecycle callbacks.
	Callback CallbackConfig `koanf:"callback"`
}

// ProofConfig configures validation of proofs of possession.
type ProofConfig struct {
	// MaxAge is the maximum age of a proof, measured from its iat claim.
	MaxAge time.Duration `koanf:"maxage"`
}

// AuthenticationConfig configures external authentication of the holder.
type AuthenticationConfig struct {
	// URL is the login page the holder is redirected to. It receives the state as query parameter.
	URL string `koanf:"url"`
}

// CallbackConfig configures delivery of lifecycle callbacks.
type CallbackConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Retries uint          `koanf:"retries"`
	// TrustStoreFile is a PEM file with the CA certificates accepted for callback endpoints, next to the system roots.
	TrustStoreFile string `koanf:"truststorefile"`
}

// CredentialConfigurationConfig is a credential configuration with its identifier.
type CredentialConfigurationConfig struct {
	ID                                 string `koanf:"id"`
	openid4vci.CredentialConfiguration `koanf:",squash"`
}

// DefaultConfig returns the default issuer configuration.
func DefaultConfig() Config {
	return Config{
		SessionTTL:  5 * time.Minute,
		DeferredTTL: 5 * time.Minute,
		TokenTTL:    5 * time.Minute,
		NonceTTL:    5 * time.Minute,
		Proof:       ProofConfig{MaxAge: 5 * time.Minute},
		Callback:    CallbackConfig{Timeout: 10 * time.Second, Retries: 3},
	}
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("issuer.baseurl must be set")
	}
	if c.SessionTTL <= 0 || c.DeferredTTL <= 0 || c.TokenTTL <= 0 || c.NonceTTL <= 0 {
		return errors.New("issuer TTLs must be positive")
	}
	if _, err := c.credentialConfigurations(); err != nil {
		return err
	}
	return nil
}

// credentialConfigurations returns the credential configurations by ID.
func (c Config) credentialConfigurations() (map[string]openid4vci.CredentialConfiguration, error) {
	result := make(map[string]openid4vci.CredentialConfiguration, len(c.CredentialConfigurations))
	for i, configuration := range c.CredentialConfigurations {
		if configuration.ID == "" {
			return nil, fmt.Errorf("issuer.credentialconfigurations[%d]: missing id", i)
		}
		if _, exists := result[configuration.ID]; exists {
			return nil, fmt.Errorf("issuer.credentialconfigurations[%d]: duplicate id %s", i, configuration.ID)
		}
		switch normalizeFormat(configuration.Format) {
		case openid4vci.JWTVCJSONFormat:
		case openid4vci.SDJWTVCFormat:
			if configuration.VCT == "" {
				return nil, fmt.Errorf("issuer.credentialconfigurations[%d]: missing vct", i)
			}
		case openid4vci.MsoMdocFormat:
			if configuration.DocType == "" {
				return nil, fmt.Errorf("issuer.credentialconfigurations[%d]: missing doctype", i)
			}
		default:
			return nil, fmt.Errorf("issuer.credentialconfigurations[%d]: unsupported format %q", i, configuration.Format)
		}
		result[configuration.ID] = configuration.CredentialConfiguration
	}
	return result, nil
}
