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
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-issuer/crypto/log"
)

const defaultVaultPathPrefix = "transit"

// VaultConfig contains the config options for the Hashicorp Vault transit key backend.
type VaultConfig struct {
	// Token to authenticate to the Vault cluster.
	Token string `koanf:"token"`
	// Address of the Vault cluster, the backend is disabled when empty.
	Address string `koanf:"address"`
	// PathPrefix is the mount path of the transit secrets engine.
	PathPrefix string `koanf:"pathprefix"`
	// Timeout specifies the Vault client timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// logicaler is an interface which has been implemented by the mockVaultClient and real vault.Logical to allow testing vault without the server.
type logicaler interface {
	ReadWithContext(ctx context.Context, path string) (*vault.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*vault.Secret, error)
}

func newVaultClient(cfg VaultConfig) (logicaler, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Timeout = cfg.Timeout
	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize Vault client: %w", err)
	}
	// The Vault client will automatically use the env var VAULT_TOKEN
	// the client.SetToken overrides this value, so only set when not empty
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	if err = client.SetAddress(cfg.Address); err != nil {
		return nil, fmt.Errorf("vault address invalid: %w", err)
	}
	return client.Logical(), nil
}

// checkVaultConnection performs a token introspection, which should be allowed by the default vault token policy.
func checkVaultConnection(ctx context.Context, client logicaler) error {
	log.Logger().Debug("Verifying Vault connection...")
	secret, err := client.ReadWithContext(ctx, "auth/token/lookup-self")
	if err != nil {
		return fmt.Errorf("unable to connect to Vault: unable to retrieve token status: %w", err)
	}
	if secret == nil || len(secret.Data) == 0 {
		return errors.New("could not read token information on auth/token/lookup-self")
	}
	log.Logger().Info("Connected to Vault.")
	return nil
}

// resolveVaultKey reads the public key of a transit key. Signing happens in Vault.
func resolveVaultKey(ctx context.Context, client logicaler, pathPrefix string, ref KeyReference) (SigningKey, error) {
	secret, err := client.ReadWithContext(ctx, path.Join(pathPrefix, "keys", ref.KeyName))
	if err != nil {
		return nil, fmt.Errorf("unable to read key from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, ErrKeyNotFound
	}
	version := ref.KeyVersion
	if version == "" {
		version = fmt.Sprintf("%v", secret.Data["latest_version"])
	}
	keys, _ := secret.Data["keys"].(map[string]interface{})
	keyVersion, _ := keys[version].(map[string]interface{})
	publicKeyPEM, _ := keyVersion["public_key"].(string)
	if publicKeyPEM == "" {
		return nil, fmt.Errorf("%w: no public key for version %s", ErrKeyNotFound, version)
	}
	publicKey, err := parseVaultPublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	alg, err := SignatureAlgorithm(publicKey)
	if err != nil {
		return nil, err
	}
	kid := ref.KID
	if kid == "" {
		kid = ref.KeyName
	}
	return &vaultSigningKey{
		client:     client,
		pathPrefix: pathPrefix,
		keyName:    ref.KeyName,
		keyVersion: version,
		publicKey:  publicKey,
		kid:        kid,
		alg:        alg,
	}, nil
}

func parseVaultPublicKey(input string) (crypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(input))
	if block != nil {
		return x509.ParsePKIXPublicKey(block.Bytes)
	}
	// ed25519 keys are returned as base64 encoded raw key
	raw, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("unable to parse Vault public key: %w", err)
	}
	return ed25519PublicKey(raw)
}

var _ SigningKey = (*vaultSigningKey)(nil)

type vaultSigningKey struct {
	client     logicaler
	pathPrefix string
	keyName    string
	keyVersion string
	publicKey  crypto.PublicKey
	kid        string
	alg        jwa.SignatureAlgorithm
}

func (v vaultSigningKey) Public() crypto.PublicKey {
	return v.publicKey
}

// Sign asks the transit engine to sign the (prehashed) digest. EC signatures are requested ASN.1 encoded.
func (v vaultSigningKey) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	data := map[string]interface{}{
		"input":                base64.StdEncoding.EncodeToString(digest),
		"marshaling_algorithm": "asn1",
	}
	if version, err := json.Number(v.keyVersion).Int64(); err == nil {
		data["key_version"] = version
	}
	if v.alg != jwa.EdDSA {
		data["prehashed"] = true
		switch opts.HashFunc() {
		case crypto.SHA384:
			data["hash_algorithm"] = "sha2-384"
		case crypto.SHA512:
			data["hash_algorithm"] = "sha2-512"
		default:
			data["hash_algorithm"] = "sha2-256"
		}
	}
	switch v.alg {
	case jwa.PS256, jwa.PS384, jwa.PS512:
		data["signature_algorithm"] = "pss"
	case jwa.RS256, jwa.RS384, jwa.RS512:
		data["signature_algorithm"] = "pkcs1v15"
	}
	secret, err := v.client.WriteWithContext(context.Background(), path.Join(v.pathPrefix, "sign", v.keyName), data)
	if err != nil {
		return nil, fmt.Errorf("unable to sign with Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.New("empty signing response from Vault")
	}
	signature, _ := secret.Data["signature"].(string)
	// format: vault:v<version>:<base64 signature>
	parts := strings.SplitN(signature, ":", 3)
	if len(parts) != 3 || parts[0] != "vault" {
		return nil, errors.New("invalid signature format returned by Vault")
	}
	return base64.StdEncoding.DecodeString(parts[2])
}

func (v vaultSigningKey) KID() string {
	return v.kid
}

func (v vaultSigningKey) Algorithm() jwa.SignatureAlgorithm {
	return v.alg
}

func (v vaultSigningKey) PrivateKey() (crypto.PrivateKey, bool) {
	return nil, false
}
