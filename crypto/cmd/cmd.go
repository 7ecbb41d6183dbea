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
	"github.com/nuts-foundation/nuts-issuer/crypto"
	"github.com/spf13/pflag"
)

// ConfAzureURL is the config key for the Azure Key Vault URL
const ConfAzureURL = "crypto.azure.url"

// ConfAzureTimeout is the config key for the timeout of Azure Key Vault requests
const ConfAzureTimeout = "crypto.azure.timeout"

// ConfAzureAuthType is the config key for the Azure credential type
const ConfAzureAuthType = "crypto.azure.auth.type"

// ConfVaultAddress is the config key for the Vault address
const ConfVaultAddress = "crypto.vault.address"

// ConfVaultToken is the config key for the Vault token
const ConfVaultToken = "crypto.vault.token"

// ConfVaultPathPrefix is the config key for the mount path of the Vault transit engine
const ConfVaultPathPrefix = "crypto.vault.pathprefix"

// ConfVaultTimeout is the config key for the Vault client timeout
const ConfVaultTimeout = "crypto.vault.timeout"

// ConfExternalURL is the config key for the URL of the external signing service
const ConfExternalURL = "crypto.external.url"

// ConfExternalTimeout is the config key for the timeout of external signing service requests
const ConfExternalTimeout = "crypto.external.timeout"

// ConfExternalRetries is the config key for the number of attempts of external signing service requests
const ConfExternalRetries = "crypto.external.retries"

// FlagSet returns the configuration flags for crypto
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("crypto", pflag.ContinueOnError)

	defs := crypto.DefaultConfig()
	flags.String(ConfAzureURL, defs.Azure.URL, "The URL of the Azure Key Vault holding azure-keyvault keys.")
	flags.Duration(ConfAzureTimeout, defs.Azure.Timeout, "Timeout of client calls to Azure Key Vault, in Golang time.Duration string format (e.g. 10s).")
	flags.String(ConfAzureAuthType, defs.Azure.Auth.Type, "Credential type to use when authenticating to the Azure Key Vault. Options: default, managed_identity.")
	flags.String(ConfVaultAddress, defs.Vault.Address, "The Vault address holding vault-transit keys. If set it overwrites the VAULT_ADDR env var.")
	flags.String(ConfVaultToken, defs.Vault.Token, "The Vault token. If set it overwrites the VAULT_TOKEN env var.")
	flags.String(ConfVaultPathPrefix, defs.Vault.PathPrefix, "The Vault mount path of the transit secrets engine.")
	flags.Duration(ConfVaultTimeout, defs.Vault.Timeout, "Timeout of client calls to Vault, in Golang time.Duration string format (e.g. 1s).")
	flags.String(ConfExternalURL, defs.External.URL, "The URL of the external signing service holding external keys.")
	flags.Duration(ConfExternalTimeout, defs.External.Timeout, "Timeout of client calls to the external signing service, in Golang time.Duration string format (e.g. 1s).")
	flags.Uint(ConfExternalRetries, defs.External.Retries, "Number of attempts of client calls to the external signing service.")

	return flags
}
