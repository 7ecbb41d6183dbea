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

package events

// Config holds the configuration of the events engine.
type Config struct {
	Nats NatsConfig `koanf:"nats"`
}

// NatsConfig configures publication of issuance session events on NATS.
type NatsConfig struct {
	// Enabled turns publication of session events on.
	Enabled bool `koanf:"enabled"`
	// Embedded starts a NATS server within the process, listening on Hostname and Port.
	Embedded bool `koanf:"embedded"`
	// Hostname is the host of the NATS server to connect to, or to listen on when Embedded.
	Hostname string `koanf:"hostname"`
	// Port is the port of the NATS server.
	Port int `koanf:"port"`
	// Timeout is the timeout in seconds for connecting to the NATS server.
	Timeout int `koanf:"timeout"`
	// Subject is the subject prefix, an event of a session is published on <subject>.<session ID>.
	Subject string `koanf:"subject"`
	// StorageDir is the directory of the embedded server's JetStream store. Defaults to <datadir>/events.
	StorageDir string `koanf:"storagedir"`
}

// DefaultConfig returns an instance of Config with the default values.
func DefaultConfig() Config {
	return Config{
		Nats: NatsConfig{
			Port:     4022,
			Hostname: "localhost",
			Timeout:  30,
			Subject:  "nuts.issuer.sessions",
		},
	}
}
