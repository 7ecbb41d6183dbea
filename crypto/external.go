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
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/crypto/log"
)

// ExternalConfig is the configuration for the external signing service.
// The service exposes:
//
//	GET  {url}/keys/{keyName}       -> {"publicKey": <JWK>}
//	POST {url}/keys/{keyName}/sign  {"algorithm": "ES256", "digest": <base64>} -> {"signature": <base64>}
//
// ECDSA signatures are returned ASN.1 DER encoded. This allows HSMs to be plugged in through a small adapter.
type ExternalConfig struct {
	// URL is the base URL of the signing service, the backend is disabled when empty.
	URL string `koanf:"url"`
	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration `koanf:"timeout"`
	// Retries is the number of attempts per request for transient (network, 5xx) failures.
	Retries uint `koanf:"retries"`
}

type externalKeyResponse struct {
	PublicKey json.RawMessage `json:"publicKey"`
}

type externalSignRequest struct {
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
}

type externalSignResponse struct {
	Signature string `json:"signature"`
}

// externalSigner is the HTTP client for the external signing service.
type externalSigner struct {
	baseURL    *url.URL
	httpClient core.HTTPRequestDoer
	attempts   uint
}

func newExternalSigner(config ExternalConfig, strictmode bool) (*externalSigner, error) {
	baseURL, err := core.ParseBaseURL(config.URL, strictmode)
	if err != nil {
		return nil, fmt.Errorf("invalid external signer URL: %w", err)
	}
	attempts := config.Retries
	if attempts == 0 {
		attempts = 1
	}
	return &externalSigner{
		baseURL:    baseURL,
		httpClient: core.NewStrictHTTPClient(strictmode, config.Timeout, nil),
		attempts:   attempts,
	}, nil
}

// do executes the request, retrying transient failures. The body is rebuilt for every attempt.
func (e externalSigner) do(ctx context.Context, method string, path string, body interface{}, target interface{}) error {
	var requestBody []byte
	if body != nil {
		var err error
		if requestBody, err = json.Marshal(body); err != nil {
			return err
		}
	}
	endpoint := core.JoinURLPaths(e.baseURL.String(), path)
	return retry.Do(func() error {
		request, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(requestBody))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		request.Header.Set("Accept", "application/json")
		if body != nil {
			request.Header.Set("Content-Type", "application/json")
		}
		response, err := e.httpClient.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()
		if response.StatusCode == http.StatusNotFound {
			return retry.Unrecoverable(ErrKeyNotFound)
		}
		if err = core.TestResponseCodeWithLog(http.StatusOK, response, log.Logger()); err != nil {
			if response.StatusCode < http.StatusInternalServerError {
				return retry.Unrecoverable(err)
			}
			return err
		}
		data, err := io.ReadAll(response.Body)
		if err != nil {
			return err
		}
		if err = json.Unmarshal(data, target); err != nil {
			return retry.Unrecoverable(fmt.Errorf("invalid response from external signer: %w", err))
		}
		return nil
	}, retry.Context(ctx), retry.Attempts(e.attempts), retry.Delay(100*time.Millisecond), retry.LastErrorOnly(true))
}

func (e externalSigner) resolve(ctx context.Context, ref KeyReference) (SigningKey, error) {
	var response externalKeyResponse
	if err := e.do(ctx, http.MethodGet, "keys/"+url.PathEscape(ref.KeyName), nil, &response); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("unable to get key from external signer: %w", err)
	}
	publicJWK, err := jwk.ParseKey(response.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid public key from external signer: %w", err)
	}
	if IsPrivateJWK(publicJWK) {
		return nil, errors.New("external signer returned private key material")
	}
	var publicKey interface{}
	if err = publicJWK.Raw(&publicKey); err != nil {
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
	return &externalSigningKey{signer: e, keyName: ref.KeyName, publicKey: publicKey, kid: kid, alg: alg}, nil
}

var _ SigningKey = (*externalSigningKey)(nil)

type externalSigningKey struct {
	signer    externalSigner
	keyName   string
	publicKey crypto.PublicKey
	kid       string
	alg       jwa.SignatureAlgorithm
}

func (e externalSigningKey) Public() crypto.PublicKey {
	return e.publicKey
}

func (e externalSigningKey) Sign(_ io.Reader, digest []byte, _ crypto.SignerOpts) ([]byte, error) {
	var response externalSignResponse
	err := e.signer.do(context.Background(), http.MethodPost, "keys/"+url.PathEscape(e.keyName)+"/sign", externalSignRequest{
		Algorithm: e.alg.String(),
		Digest:    base64.StdEncoding.EncodeToString(digest),
	}, &response)
	if err != nil {
		return nil, fmt.Errorf("unable to sign with external signer: %w", err)
	}
	signature, err := base64.StdEncoding.DecodeString(response.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature from external signer: %w", err)
	}
	if _, isEC := e.publicKey.(*ecdsa.PublicKey); isEC && len(signature) > 0 && signature[0] != 0x30 {
		// some HSMs return raw r|s
		return ECDSARawToDER(signature)
	}
	return signature, nil
}

func (e externalSigningKey) KID() string {
	return e.kid
}

func (e externalSigningKey) Algorithm() jwa.SignatureAlgorithm {
	return e.alg
}

func (e externalSigningKey) PrivateKey() (crypto.PrivateKey, bool) {
	return nil, false
}
