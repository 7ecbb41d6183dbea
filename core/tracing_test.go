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

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupTracing(t *testing.T) {
	t.Run("disabled without endpoint", func(t *testing.T) {
		shutdown, err := SetupTracing(TracingConfig{})

		require.NoError(t, err)
		assert.False(t, TracingEnabled())
		assert.NoError(t, shutdown(context.Background()))
	})
}

func TestTracingLogrusHook(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	hook := &tracingLogrusHook{}

	t.Run("adds trace and span ID", func(t *testing.T) {
		ctx, span := provider.Tracer("test").Start(context.Background(), "test")
		defer span.End()
		entry := logrus.NewEntry(logrus.StandardLogger()).WithContext(ctx)

		require.NoError(t, hook.Fire(entry))

		assert.Equal(t, span.SpanContext().TraceID().String(), entry.Data["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), entry.Data["span_id"])
	})
	t.Run("no context", func(t *testing.T) {
		entry := logrus.NewEntry(logrus.StandardLogger())

		require.NoError(t, hook.Fire(entry))

		assert.NotContains(t, entry.Data, "trace_id")
	})
	t.Run("context without span", func(t *testing.T) {
		entry := logrus.NewEntry(logrus.StandardLogger()).WithContext(context.Background())

		require.NoError(t, hook.Fire(entry))

		assert.NotContains(t, entry.Data, "trace_id")
	})
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	e := echo.New()
	e.Use(tracingMiddleware())
	e.GET("/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("failure")
	})

	t.Run("ok", func(t *testing.T) {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		span := spans[len(spans)-1]
		assert.Equal(t, "GET /ok", span.Name())
		assert.Equal(t, codes.Unset, span.Status().Code)
	})
	t.Run("handler error", func(t *testing.T) {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		span := spans[len(spans)-1]
		assert.Equal(t, "GET /fail", span.Name())
		assert.Equal(t, codes.Error, span.Status().Code)
	})
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "WARN", severity(logrus.WarnLevel).String())
	assert.Equal(t, "INFO", severity(logrus.InfoLevel).String())
	assert.Equal(t, "FATAL", severity(logrus.PanicLevel).String())
}
