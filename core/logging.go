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

package core

const (
	// LogFieldModule is the log field for the module name.
	LogFieldModule = "module"

	// LogFieldSessionID is the log field key for the ID of an issuance session.
	LogFieldSessionID = "sessionID"
	// LogFieldCredentialID is the log field key for the ID of a (deferred) credential.
	LogFieldCredentialID = "credentialID"
	// LogFieldCredentialFormat is the log field key for the format of a credential (jwt_vc_json, vc+sd-jwt, mso_mdoc).
	LogFieldCredentialFormat = "credentialFormat"
	// LogFieldCredentialConfigurationID is the log field key for the credential configuration a session issues.
	LogFieldCredentialConfigurationID = "credentialConfigurationID"
	// LogFieldCallbackType is the log field key for the type of an issuance lifecycle callback.
	LogFieldCallbackType = "callbackType"

	// LogFieldStore is the log field key for the name of a store managed by the storage module.
	LogFieldStore = "store"

	// LogFieldKeyID is the log field key for the unique ID of a key from the crypto module.
	LogFieldKeyID = "keyID"
	// LogFieldKeyBackend is the log field key for the backend type of a signing key.
	LogFieldKeyBackend = "keyBackend"

	// LogFieldEventSubject is the log field key for NATS subjects from the events module.
	LogFieldEventSubject = "eventSubject"
)
