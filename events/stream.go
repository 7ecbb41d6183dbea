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
	"errors"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// SessionEventsStreamName is the name of the JetStream stream that retains issuance session events.
const SessionEventsStreamName = "nuts-issuer-sessions"

// sessionEventsMaxAge is how long session events are retained by the stream.
const sessionEventsMaxAge = 24 * time.Hour

// Stream is a JetStream stream that is created on first use.
type Stream interface {
	Config() *nats.StreamConfig
	Publish(js JetStream, msg *nats.Msg, opts ...nats.PubOpt) error
}

// NewSessionEventsStream returns the stream for session events published under the given subject prefix.
func NewSessionEventsStream(subject string) Stream {
	return &stream{
		config: &nats.StreamConfig{
			Name:      SessionEventsStreamName,
			Subjects:  []string{subject + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    sessionEventsMaxAge,
			Storage:   nats.FileStorage,
			Discard:   nats.DiscardOld,
		},
	}
}

type stream struct {
	config  *nats.StreamConfig
	created atomic.Bool
}

func (stream *stream) Config() *nats.StreamConfig {
	return stream.config
}

func (stream *stream) create(js JetStream) error {
	if stream.created.Load() {
		return nil
	}
	_, err := js.StreamInfo(stream.config.Name)
	if errors.Is(err, nats.ErrStreamNotFound) {
		if _, err = js.AddStream(stream.config); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	stream.created.Store(true)
	return nil
}

func (stream *stream) Publish(js JetStream, msg *nats.Msg, opts ...nats.PubOpt) error {
	if err := stream.create(js); err != nil {
		return err
	}
	_, err := js.PublishMsg(msg, opts...)
	return err
}
