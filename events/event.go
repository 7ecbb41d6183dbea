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

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path"
	"strings"
	"sync"
	"time"

	natsServer "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/events/log"
)

// ModuleName is the name of the events engine.
const ModuleName = "Events"

var _ core.Injectable = (*Manager)(nil)
var _ core.Configurable = (*Manager)(nil)
var _ core.Runnable = (*Manager)(nil)

// Manager publishes issuance session events on NATS JetStream, optionally running the NATS server itself.
// It implements the event publisher of the issuer. Publishing is a no-op when events are disabled.
type Manager struct {
	config      Config
	server      *natsServer.Server
	stream      Stream
	connectFunc func(hostname string, port int, timeout time.Duration) (Conn, error)

	mux  sync.Mutex
	conn Conn
	js   JetStream
}

// NewManager returns a new event manager
func NewManager() *Manager {
	return &Manager{
		config:      DefaultConfig(),
		connectFunc: Connect,
	}
}

func (m *Manager) Name() string {
	return ModuleName
}

func (m *Manager) Config() interface{} {
	return &m.config
}

// Enabled returns true if session events are published.
func (m *Manager) Enabled() bool {
	return m.config.Nats.Enabled
}

func (m *Manager) Configure(config core.ServerConfig) error {
	if !m.config.Nats.Enabled {
		return nil
	}
	subject := m.config.Nats.Subject
	if subject == "" || strings.ContainsAny(subject, "*> \t") || strings.HasSuffix(subject, ".") {
		return fmt.Errorf("invalid events.nats.subject: %q", subject)
	}
	if m.config.Nats.Timeout <= 0 {
		return errors.New("events.nats.timeout must be positive")
	}
	if m.config.Nats.Embedded && m.config.Nats.StorageDir == "" {
		m.config.Nats.StorageDir = path.Join(config.Datadir, "events")
	}
	m.stream = NewSessionEventsStream(subject)
	return nil
}

func (m *Manager) Start() error {
	if !m.config.Nats.Enabled || !m.config.Nats.Embedded {
		return nil
	}
	server, err := natsServer.NewServer(&natsServer.Options{
		JetStream: true,
		Port:      m.config.Nats.Port,
		Host:      m.config.Nats.Hostname,
		StoreDir:  m.config.Nats.StorageDir,
		NoSigs:    true, // Signals are handled by the issuer, the NATS server is shut down when the events engine is shut down.
	})
	if err != nil {
		return err
	}
	m.server = server
	server.Start()
	if !server.ReadyForConnections(m.timeout()) {
		return errors.New("embedded NATS server did not start in time")
	}
	log.Logger().Infof("Embedded NATS server listening on %s", server.Addr())
	return nil
}

func (m *Manager) Shutdown() error {
	m.mux.Lock()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
		m.js = nil
	}
	m.mux.Unlock()
	if m.server == nil {
		return nil
	}
	m.server.Shutdown()
	m.server.WaitForShutdown()
	return nil
}

// Publish publishes the event of the session on <subject>.<session ID>.
func (m *Manager) Publish(ctx context.Context, sessionID string, data []byte) error {
	if !m.config.Nats.Enabled {
		return nil
	}
	js, err := m.jetStream()
	if err != nil {
		return err
	}
	msg := nats.NewMsg(m.config.Nats.Subject + "." + sessionID)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	if err := m.stream.Publish(js, msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("unable to publish session event: %w", err)
	}
	log.Logger().
		WithField(core.LogFieldEventSubject, msg.Subject).
		WithField(core.LogFieldSessionID, sessionID).
		Trace("Published session event")
	return nil
}

// jetStream connects to the NATS server on first use.
func (m *Manager) jetStream() (JetStream, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	if m.js != nil {
		return m.js, nil
	}
	hostname, port := m.address()
	conn, err := m.connectFunc(hostname, port, m.timeout())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS server: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}
	m.conn = conn
	m.js = js
	return js, nil
}

// address returns the address to connect to, the listen address when the server is embedded.
func (m *Manager) address() (string, int) {
	if m.server != nil {
		if addr, ok := m.server.Addr().(*net.TCPAddr); ok {
			return m.config.Nats.Hostname, addr.Port
		}
	}
	return m.config.Nats.Hostname, m.config.Nats.Port
}

func (m *Manager) timeout() time.Duration {
	return time.Duration(m.config.Nats.Timeout) * time.Second
}

// Diagnostics reports whether the events module is enabled and connected to NATS.
func (m *Manager) Diagnostics() []core.DiagnosticResult {
	m.mux.Lock()
	connected := m.conn != nil
	m.mux.Unlock()
	return []core.DiagnosticResult{
		&core.GenericDiagnosticResult{Title: "enabled", Outcome: m.config.Nats.Enabled},
		&core.GenericDiagnosticResult{Title: "embedded", Outcome: m.config.Nats.Embedded},
		&core.GenericDiagnosticResult{Title: "connected", Outcome: connected},
	}
}
