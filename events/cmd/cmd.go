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
	"github.com/spf13/pflag"

	"github.com/nuts-foundation/nuts-issuer/events"
)

// ConfEventsEnabled defines whether session events are published on NATS
const ConfEventsEnabled = "events.nats.enabled"

// ConfEventsEmbedded defines whether the NATS server runs within the issuer
const ConfEventsEmbedded = "events.nats.embedded"

// ConfEventsPort defines the port for the NATS server
const ConfEventsPort = "events.nats.port"

// ConfEventsHostname defines the hostname for the NATS server
const ConfEventsHostname = "events.nats.hostname"

// ConfEventsStorageDir defines the storage directory for file-backed streams in the embedded NATS server
const ConfEventsStorageDir = "events.nats.storagedir"

// ConfEventsTimeout defines the timeouts (in seconds) for the NATS server
const ConfEventsTimeout = "events.nats.timeout"

// ConfEventsSubject defines the subject prefix session events are published on
const ConfEventsSubject = "events.nats.subject"

// FlagSet defines the set of flags that sets the events-engine configuration
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("events", pflag.ContinueOnError)

	defs := events.DefaultConfig()
	flags.Bool(ConfEventsEnabled, defs.Nats.Enabled, "Publish issuance session events on NATS.")
	flags.Bool(ConfEventsEmbedded, defs.Nats.Embedded, "Run a NATS server within the issuer, listening on events.nats.hostname and events.nats.port.")
	flags.Int(ConfEventsPort, defs.Nats.Port, "Port of the NATS server.")
	flags.String(ConfEventsHostname, defs.Nats.Hostname, "Hostname of the NATS server.")
	flags.String(ConfEventsStorageDir, defs.Nats.StorageDir, "Directory where the embedded NATS server stores file-backed streams. Defaults to <datadir>/events.")
	flags.Int(ConfEventsTimeout, defs.Nats.Timeout, "Timeout in seconds for NATS server operations.")
	flags.String(ConfEventsSubject, defs.Nats.Subject, "Subject prefix of session events, an event is published on <subject>.<session ID>.")
	return flags
}
