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
	"github.com/nuts-foundation/nuts-issuer/issuer"
	"github.com/spf13/pflag"
)

// ConfBaseURL is the config key for the public URL of the credential issuer
const ConfBaseURL = "issuer.baseurl"

// ConfTokenKey is the config key for the key that signs the tokens of the issuer
const ConfTokenKey = "issuer.tokenkey"

// ConfSessionTTL is the config key for the default lifetime of issuance sessions
const ConfSessionTTL = "issuer.sessionttl"

// ConfDeferredTTL is the config key for the lifetime of deferred credential requests
const ConfDeferredTTL = "issuer.deferredttl"

// ConfTokenTTL is the config key for the lifetime of access tokens
const ConfTokenTTL = "issuer.tokenttl"

// ConfNonceTTL is the config key for the lifetime of a c_nonce
const ConfNonceTTL = "issuer.noncettl"

// ConfProofMaxAge is the config key for the maximum age of a proof of possession
const ConfProofMaxAge = "issuer.proof.maxage"

// ConfAuthenticationURL is the config key for the login page of external authentication
const ConfAuthenticationURL = "issuer.authentication.url"

// ConfCallbackTimeout is the config key for the timeout of lifecycle callbacks
const ConfCallbackTimeout = "issuer.callback.timeout"

// ConfCallbackRetries is the config key for the number of attempts of lifecycle callbacks
const ConfCallbackRetries = "issuer.callback.retries"

// ConfCallbackTrustStoreFile is the config key for the CA certificates of callback endpoints
const ConfCallbackTrustStoreFile = "issuer.callback.truststorefile"

// FlagSet returns the configuration flags for the issuer.
// Credential configurations can only be set in the config file.
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("issuer", pflag.ContinueOnError)

	defs := issuer.DefaultConfig()
	flags.String(ConfBaseURL, defs.BaseURL, "Public URL of the credential issuer, e.g. https://issuer.example.com. Used as credential_issuer and as issuer of the tokens it mints.")
	flags.String(ConfTokenKey, defs.TokenKey, "Key reference of the key that signs authorization codes, access tokens and acceptance tokens. "+
		"When not set, a key is generated on startup, which is not allowed in strict mode.")
	flags.Duration(ConfSessionTTL, defs.SessionTTL, "Default lifetime of an issuance session, in Golang time.Duration string format (e.g. 5m).")
	flags.Duration(ConfDeferredTTL, defs.DeferredTTL, "Lifetime of deferred credential requests, in Golang time.Duration string format (e.g. 5m).")
	flags.Duration(ConfTokenTTL, defs.TokenTTL, "Lifetime of access tokens, in Golang time.Duration string format (e.g. 5m).")
	flags.Duration(ConfNonceTTL, defs.NonceTTL, "Lifetime of a c_nonce, in Golang time.Duration string format (e.g. 5m).")
	flags.Duration(ConfProofMaxAge, defs.Proof.MaxAge, "Maximum age of a proof of possession, in Golang time.Duration string format (e.g. 5m).")
	flags.String(ConfAuthenticationURL, defs.Authentication.URL, "Login page the holder is redirected to for the PWD, ID_TOKEN and VP_TOKEN authentication methods.")
	flags.Duration(ConfCallbackTimeout, defs.Callback.Timeout, "Timeout of a lifecycle callback request, in Golang time.Duration string format (e.g. 10s).")
	flags.Uint(ConfCallbackRetries, defs.Callback.Retries, "Number of attempts to deliver a lifecycle callback.")
	flags.String(ConfCallbackTrustStoreFile, defs.Callback.TrustStoreFile, "PEM file containing the CA certificates of lifecycle callback endpoints, in addition to the system roots.")

	return flags
}
