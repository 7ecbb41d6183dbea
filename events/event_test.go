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
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewManager(t *testing.T) {
	eventManager := NewManager()

	assert.Equal(t, ModuleName, eventManager.Name())
	assert.False(t, eventManager.Enabled())
	assert.Equal(t, DefaultConfig(), *eventManager.Config().(*Config))
}

func TestManager_Configure(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		eventManager := NewManager()
		eventManager.config.Nats.Subject = ""

		assert.NoError(t, eventManager.Configure(core.ServerConfig{}))
	})
	t.Run("storage dir defaults to datadir", func(t *testing.T) {
		eventManager := NewManager()
		eventManager.config.Nats.Enabled = true
		eventManager.config.Nats.Embedded = true

		err := eventManager.Configure(core.ServerConfig{Datadir: "data"})

		require.NoError(t, err)
		assert.Equal(t, path.Join("data", "events"), eventManager.config.Nats.StorageDir)
	})
	t.Run("invalid subject", func(t *testing.T) {
		for _, subject := range []string{"", "nuts.*", "nuts.>", "nuts.", "nuts issuer"} {
			eventManager := NewManager()
			eventManager.config.Nats.Enabled = true
			eventManager.config.Nats.Subject = subject

			err := eventManager.Configure(core.ServerConfig{})

			assert.EqualError(t, err, fmt.Sprintf("invalid events.nats.subject: %q", subject))
		}
	})
	t.Run("invalid timeout", func(t *testing.T) {
		eventManager := NewManager()
		eventManager.config.Nats.Enabled = true
		eventManager.config.Nats.Timeout = 0

		err := eventManager.Configure(core.ServerConfig{})

		assert.EqualError(t, err, "events.nats.timeout must be positive")
	})
}

func TestManager_Publish(t *testing.T) {
	t.Run("embedded server", func(t *testing.T) {
		eventManager := createManager(t)
		port := eventManager.server.Addr().(*net.TCPAddr).Port
		conn, err := nats.Connect(fmt.Sprintf("nats://127.0.0.1:%d", port))
		require.NoError(t, err)
		defer conn.Close()
		received := make(chan *nats.Msg, 1)
		subscription, err := conn.ChanSubscribe("nuts.issuer.sessions.>", received)
		require.NoError(t, err)
		defer func() { _ = subscription.Unsubscribe() }()

		err = eventManager.Publish(context.Background(), "session-1", []byte(`{"status":"ACTIVE"}`))

		require.NoError(t, err)
		select {
		case msg := <-received:
			assert.Equal(t, "nuts.issuer.sessions.session-1", msg.Subject)
			assert.JSONEq(t, `{"status":"ACTIVE"}`, string(msg.Data))
			assert.Equal(t, "application/json", msg.Header.Get("Content-Type"))
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for session event")
		}
		// the event is retained by the stream
		js, err := conn.JetStream()
		require.NoError(t, err)
		info, err := js.StreamInfo(SessionEventsStreamName)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), info.State.Msgs)
	})
	t.Run("disabled", func(t *testing.T) {
		eventManager := NewManager()
		eventManager.connectFunc = func(_ string, _ int, _ time.Duration) (Conn, error) {
			t.Fatal("should not connect")
			return nil, nil
		}

		err := eventManager.Publish(context.Background(), "session-1", []byte("{}"))

		assert.NoError(t, err)
	})
	t.Run("connection fails", func(t *testing.T) {
		eventManager := NewManager()
		eventManager.config.Nats.Enabled = true
		require.NoError(t, eventManager.Configure(core.ServerConfig{}))
		eventManager.connectFunc = func(_ string, _ int, _ time.Duration) (Conn, error) {
			return nil, errors.New("connection refused")
		}

		err := eventManager.Publish(context.Background(), "session-1", []byte("{}"))

		assert.EqualError(t, err, "unable to connect to NATS server: connection refused")
	})
	t.Run("JetStream not available", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		conn := NewMockConn(ctrl)
		conn.EXPECT().JetStream().Return(nil, nats.ErrJetStreamNotEnabled)
		conn.EXPECT().Close()
		eventManager := NewManager()
		eventManager.config.Nats.Enabled = true
		require.NoError(t, eventManager.Configure(core.ServerConfig{}))
		eventManager.connectFunc = func(hostname string, port int, timeout time.Duration) (Conn, error) {
			assert.Equal(t, "localhost", hostname)
			assert.Equal(t, 4022, port)
			assert.Equal(t, 30*time.Second, timeout)
			return conn, nil
		}

		err := eventManager.Publish(context.Background(), "session-1", []byte("{}"))

		assert.ErrorIs(t, err, nats.ErrJetStreamNotEnabled)
	})
}

func TestManager_Shutdown(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		assert.NoError(t, NewManager().Shutdown())
	})
	t.Run("closes connection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		conn := NewMockConn(ctrl)
		conn.EXPECT().Close()
		eventManager := NewManager()
		eventManager.conn = conn

		assert.NoError(t, eventManager.Shutdown())
		assert.Nil(t, eventManager.conn)
	})
}

func createManager(t *testing.T) *Manager {
	eventManager := NewManager()
	eventManager.config.Nats.Enabled = true
	eventManager.config.Nats.Embedded = true
	eventManager.config.Nats.Hostname = "127.0.0.1"
	eventManager.config.Nats.Port = -1 // random port
	require.NoError(t, eventManager.Configure(core.ServerConfig{Datadir: t.TempDir()}))
	require.NoError(t, eventManager.Start())
	t.Cleanup(func() {
		_ = eventManager.Shutdown()
	})
	return eventManager
}

func TestManager_Diagnostics(t *testing.T) {
	manager := NewManager()

	results := core.DiagnosticResultMap(manager.Diagnostics())

	assert.Equal(t, map[string]interface{}{"enabled": false, "embedded": manager.config.Nats.Embedded, "connected": false}, results)
}
