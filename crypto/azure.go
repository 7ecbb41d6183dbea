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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/lestrrat-go/jwx/v2/jwa"
)

const (
	// AzureDefaultCredentialType uses the Azure default credential chain (environment, workload identity, managed identity, az cli).
	AzureDefaultCredentialType = "default"
	// AzureManagedIdentityCredentialType uses the managed identity of the Azure resource.
	AzureManagedIdentityCredentialType = "managed_identity"
)

// AzureConfig contains the config options for the Azure Key Vault key backend.
type AzureConfig struct {
	// URL of the Key Vault, the backend is disabled when empty.
	URL string `koanf:"url"`
	// Timeout specifies the Key Vault client timeout.
	Timeout time.Duration   `koanf:"timeout"`
	Auth    AzureAuthConfig `koanf:"auth"`
}

// AzureAuthConfig selects how to authenticate to Azure Key Vault.
type AzureAuthConfig struct {
	Type string `koanf:"type"`
}

// keyVaultClient is an interface for the Azure Key Vault client, to support mocking.
type keyVaultClient interface {
	GetKey(ctx context.Context, name string, version string, options *azkeys.GetKeyOptions) (azkeys.GetKeyResponse, error)
	Sign(ctx context.Context, name string, version string, parameters azkeys.SignParameters, options *azkeys.SignOptions) (azkeys.SignResponse, error)
}

func newKeyVaultClient(config AzureConfig) (keyVaultClient, error) {
	var credential azcore.TokenCredential
	var err error
	switch config.Auth.Type {
	case AzureDefaultCredentialType, "":
		credential, err = azidentity.NewDefaultAzureCredential(nil)
	case AzureManagedIdentityCredentialType:
		credential, err = azidentity.NewManagedIdentityCredential(nil)
	default:
		return nil, fmt.Errorf("unsupported Azure Key Vault authentication type: %s", config.Auth.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to acquire Azure credential: %w", err)
	}
	client, err := azkeys.NewClient(config.URL, credential, &azkeys.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: &http.Client{Timeout: config.Timeout},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Azure Key Vault client: %w", err)
	}
	return client, nil
}

// resolveAzureKey looks up the public key of a Key Vault key. The private key never leaves Key Vault.
func resolveAzureKey(ctx context.Context, client keyVaultClient, timeout time.Duration, ref KeyReference) (SigningKey, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	response, err := client.GetKey(ctx, ref.KeyName, ref.KeyVersion, nil)
	if err != nil {
		var responseError *azcore.ResponseError
		if errors.As(err, &responseError) && responseError.StatusCode == http.StatusNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("unable to get key from Azure Key Vault: %w", err)
	}
	if response.Key == nil {
		return nil, ErrKeyNotFound
	}
	publicKey, err := azureJSONWebKeyToPublicKey(*response.Key)
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
	return &azureSigningKey{
		client:     client,
		timeOut:    timeout,
		keyName:    ref.KeyName,
		keyVersion: ref.KeyVersion,
		publicKey:  publicKey,
		kid:        kid,
		alg:        alg,
	}, nil
}

func azureJSONWebKeyToPublicKey(key azkeys.JSONWebKey) (crypto.PublicKey, error) {
	if key.Kty == nil {
		return nil, fmt.Errorf("%w: missing kty", ErrUnsupportedKeyType)
	}
	switch *key.Kty {
	case azkeys.KeyTypeEC, azkeys.KeyTypeECHSM:
		if key.Crv == nil {
			return nil, fmt.Errorf("%w: missing crv", ErrUnsupportedKeyType)
		}
		var curve elliptic.Curve
		switch *key.Crv {
		case azkeys.CurveNameP256:
			curve = elliptic.P256()
		case azkeys.CurveNameP384:
			curve = elliptic.P384()
		case azkeys.CurveNameP521:
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKeyType, *key.Crv)
		}
		return &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(key.X),
			Y:     new(big.Int).SetBytes(key.Y),
		}, nil
	case azkeys.KeyTypeRSA, azkeys.KeyTypeRSAHSM:
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(key.N),
			E: int(new(big.Int).SetBytes(key.E).Int64()),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, *key.Kty)
}

var _ SigningKey = (*azureSigningKey)(nil)

type azureSigningKey struct {
	client     keyVaultClient
	timeOut    time.Duration
	keyName    string
	keyVersion string
	publicKey  crypto.PublicKey
	kid        string
	alg        jwa.SignatureAlgorithm
}

func (a azureSigningKey) Public() crypto.PublicKey {
	return a.publicKey
}

// Sign signs the digest in Key Vault. Key Vault returns EC signatures as raw r|s, they're converted to ASN.1 DER.
func (a azureSigningKey) Sign(_ io.Reader, digest []byte, _ crypto.SignerOpts) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeOut)
	defer cancel()
	signingAlgorithm := azkeys.SignatureAlgorithm(a.alg)
	response, err := a.client.Sign(ctx, a.keyName, a.keyVersion, azkeys.SignParameters{
		Algorithm: &signingAlgorithm,
		Value:     digest,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to sign with Azure Key Vault: %w", err)
	}
	if _, isEC := a.publicKey.(*ecdsa.PublicKey); isEC {
		return ECDSARawToDER(response.Result)
	}
	return response.Result, nil
}

func (a azureSigningKey) KID() string {
	return a.kid
}

func (a azureSigningKey) Algorithm() jwa.SignatureAlgorithm {
	return a.alg
}

func (a azureSigningKey) PrivateKey() (crypto.PrivateKey, bool) {
	return nil, false
}
