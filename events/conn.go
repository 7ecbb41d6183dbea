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
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/events/log"
)

// Conn is the part of a NATS connection the events module uses.
type Conn interface {
	JetStream(opts ...nats.JSOpt) (nats.JetStreamContext, error)
	Close()
}

// JetStream is the part of the JetStream context used to publish session events.
type JetStream interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Connect connects to the NATS server at hostname:port. Dropped connections are re-established in the background.
func Connect(hostname string, port int, timeout time.Duration) (Conn, error) {
	return nats.Connect(
		"nats://"+net.JoinHostPort(hostname, strconv.Itoa(port)),
		nats.RetryOnFailedConnect(true),
		nats.Timeout(timeout),
		nats.Name(fmt.Sprintf("nuts-issuer/%s", core.Version())),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Logger().WithError(err).Warn("Disconnected from NATS server")
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Logger().Infof("Reconnected to NATS server (url=%s)", conn.ConnectedUrl())
		}),
	)
}
