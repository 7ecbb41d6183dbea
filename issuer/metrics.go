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
	"errors"

	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "issuer"

type metrics struct {
	credentialsIssued *prometheus.CounterVec
	sessions          *prometheus.CounterVec
	callbacksFailed   prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		credentialsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: core.MetricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "credentials_issued_total",
			Help:      "Number of credentials issued, per credential format.",
		}, []string{"format"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: core.MetricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sessions_total",
			Help:      "Number of issuance sessions, per status they were created or closed with.",
		}, []string{"status"}),
		callbacksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: core.MetricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "callbacks_failed_total",
			Help:      "Number of lifecycle callbacks that could not be delivered.",
		}),
	}
}

// register registers the collectors on the default registry.
// When another instance registered them already, the registered collectors are used instead.
func (m *metrics) register() error {
	var err error
	if m.credentialsIssued, err = registerCollector(m.credentialsIssued); err != nil {
		return err
	}
	if m.sessions, err = registerCollector(m.sessions); err != nil {
		return err
	}
	m.callbacksFailed, err = registerCollector(m.callbacksFailed)
	return err
}

func registerCollector[T prometheus.Collector](collector T) (T, error) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *metrics) credentialIssued(format string) {
	m.credentialsIssued.WithLabelValues(normalizeFormat(format)).Inc()
}

func (m *metrics) sessionStatus(status Status) {
	m.sessions.WithLabelValues(string(status)).Inc()
}

func (m *metrics) callbackFailed() {
	m.callbacksFailed.Inc()
}
