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
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nuts-foundation/nuts-issuer/core"
	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/nuts-foundation/nuts-issuer/storage"
)

var _ core.Injectable = (*Issuer)(nil)
var _ core.Configurable = (*Issuer)(nil)
var _ core.Runnable = (*Issuer)(nil)
var _ OpenID4VCI = (*Issuer)(nil)
var _ AdministrationAPI = (*Issuer)(nil)
var _ core.Diagnosable = (*Issuer)(nil)

// Issuer is the OpenID4VCI credential issuer engine.
type Issuer struct {
	config      Config
	keyResolver nutsCrypto.KeyResolver
	storage     storage.Engine
	publisher   EventPublisher
	// HolderKeys resolves kid headers of proofs that are not did:jwk or did:key, it's optional.
	HolderKeys HolderKeyResolver

	baseURL        string
	configurations map[string]openid4vci.CredentialConfiguration
	tokens         *TokenService
	sessions       SessionStore
	deferred       DeferredRequestStore
	nonces         NonceBinder
	proofs         ProofExtractor
	generator      *credentialGenerator
	callbacks      *callbacks
	metrics        *metrics
	now            func() time.Time
}

// NewIssuer creates the issuer engine. The publisher is optional.
func NewIssuer(keyResolver nutsCrypto.KeyResolver, storageEngine storage.Engine, publisher EventPublisher) *Issuer {
	return &Issuer{
		config:      DefaultConfig(),
		keyResolver: keyResolver,
		storage:     storageEngine,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (i *Issuer) Name() string {
	return ModuleName
}

func (i *Issuer) Config() interface{} {
	return &i.config
}

// Configure validates the configuration, loads the token key and creates the session stores.
func (i *Issuer) Configure(config core.ServerConfig) error {
	if err := i.config.validate(); err != nil {
		return err
	}
	baseURL, err := core.ParseBaseURL(i.config.BaseURL, config.Strictmode)
	if err != nil {
		return fmt.Errorf("invalid issuer.baseurl: %w", err)
	}
	i.baseURL = strings.TrimSuffix(baseURL.String(), "/")
	if i.configurations, err = i.config.credentialConfigurations(); err != nil {
		return err
	}
	tokenKey, err := i.loadTokenKey(config.Strictmode)
	if err != nil {
		return err
	}
	i.tokens = NewTokenService(tokenKey, i.baseURL)

	db := i.storage.GetSessionDatabase()
	i.metrics = newMetrics()
	tlsConfig, err := core.ClientTLSConfig(i.config.Callback.TrustStoreFile)
	if err != nil {
		return fmt.Errorf("issuer.callback.truststorefile: %w", err)
	}
	i.callbacks = &callbacks{
		sender:    NewHTTPCallbackSender(core.NewStrictHTTPClient(config.Strictmode, i.config.Callback.Timeout, tlsConfig), i.config.Callback.Retries),
		publisher: i.publisher,
		timeout:   i.config.Callback.Timeout,
		metrics:   i.metrics,
	}
	i.sessions = NewSessionStore(db, i.sessionExpired)
	i.deferred = NewDeferredRequestStore(db)
	i.nonces = NewNonceBinder(i.config.NonceTTL)
	i.proofs = ProofExtractor{KeyResolver: DIDKeyResolver{Next: i.HolderKeys}}
	i.generator = &credentialGenerator{
		keyResolver: i.keyResolver,
		deferred:    i.deferred,
		deferredTTL: i.config.DeferredTTL,
		callbacks:   i.callbacks,
		metrics:     i.metrics,
		now:         i.now,
	}
	if i.config.Authentication.URL == "" {
		log.Logger().Info("No issuer.authentication.url configured, only sessions without external authentication can be created")
	}
	return nil
}

func (i *Issuer) loadTokenKey(strictmode bool) (nutsCrypto.SigningKey, error) {
	if i.config.TokenKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key, err := i.keyResolver.Resolve(ctx, i.config.TokenKey)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve issuer.tokenkey: %w", err)
		}
		return key, nil
	}
	if strictmode {
		return nil, errors.New("in strictmode issuer.tokenkey must be set")
	}
	log.Logger().Warn("No issuer.tokenkey configured, generating a token key that is lost on restart")
	return nutsCrypto.GenerateKey()
}

// Start registers the metrics.
func (i *Issuer) Start() error {
	return i.metrics.register()
}

// Shutdown waits for pending callbacks.
func (i *Issuer) Shutdown() error {
	i.callbacks.wait()
	return nil
}

// Diagnostics reports the public base URL and the offered credential configurations.
func (i *Issuer) Diagnostics() []core.DiagnosticResult {
	ids := make([]string, 0, len(i.configurations))
	for id := range i.configurations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return []core.DiagnosticResult{
		&core.GenericDiagnosticResult{Title: "base_url", Outcome: i.baseURL},
		&core.GenericDiagnosticResult{Title: "credential_configurations", Outcome: ids},
		&core.GenericDiagnosticResult{Title: "external_authentication", Outcome: i.config.Authentication.URL != ""},
	}
}

// sessionExpired is called once for every session that is observed after its expiration.
func (i *Issuer) sessionExpired(session IssuanceSession) {
	log.Logger().WithField(core.LogFieldSessionID, session.ID).Info("Issuance session expired")
	i.metrics.sessionStatus(StatusExpired)
	i.callbacks.dispatch(session, CallbackIssuanceExpired, map[string]interface{}{
		"status": session.Status,
		"reason": session.StatusReason,
	})
}

// sessionClosed reports a session that was closed by the current request.
func (i *Issuer) sessionClosed(session IssuanceSession) {
	log.Logger().
		WithField(core.LogFieldSessionID, session.ID).
		Infof("Issuance session closed (status=%s)", session.Status)
	i.metrics.sessionStatus(session.Status)
	i.callbacks.dispatch(session, CallbackIssuanceStatus, map[string]interface{}{
		"status": session.Status,
		"reason": session.StatusReason,
	})
}

func (i *Issuer) url(path string) string {
	return core.JoinURLPaths(i.baseURL, path)
}
