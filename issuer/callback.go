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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
)

// CallbackType is the type of an issuance lifecycle callback.
type CallbackType string

const (
	// CallbackRequestedToken is sent when the wallet obtained an access token.
	CallbackRequestedToken CallbackType = "requested_token"
	// CallbackJWTIssue is sent when a JWT-VC was issued.
	CallbackJWTIssue CallbackType = "jwt_issue"
	// CallbackSDJWTIssue is sent when an SD-JWT (VC or W3C) was issued.
	CallbackSDJWTIssue CallbackType = "sdjwt_issue"
	// CallbackGeneratedMdoc is sent when an mdoc was issued, it carries the hex encoded CBOR document.
	CallbackGeneratedMdoc CallbackType = "generated_mdoc"
	// CallbackDeferred is sent when a credential request was deferred.
	CallbackDeferred CallbackType = "credential_deferred"
	// CallbackIssuanceStatus is sent when a session is closed.
	CallbackIssuanceStatus CallbackType = "issuance_status"
	// CallbackIssuanceExpired is sent once when an expired session is observed.
	CallbackIssuanceExpired CallbackType = "issuance_expired"
)

// sessionIDPlaceholder is replaced with the session ID in callback URLs.
const sessionIDPlaceholder = "$id"

const defaultCallbackTimeout = 30 * time.Second

// Callback is a lifecycle event of an issuance session.
type Callback struct {
	SessionID string                 `json:"id"`
	Type      CallbackType           `json:"type"`
	Data      map[string]interface{} `json:"data"`
}

// CallbackSender delivers a callback to the URL the session was created with.
type CallbackSender interface {
	Send(ctx context.Context, url string, callback Callback) error
}

// EventPublisher publishes lifecycle events on a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, data []byte) error
}

// NewHTTPCallbackSender creates a CallbackSender that POSTs the callback as JSON, retrying on network errors and 5xx responses.
func NewHTTPCallbackSender(client core.HTTPRequestDoer, attempts uint) CallbackSender {
	if attempts == 0 {
		attempts = 1
	}
	return &httpCallbackSender{client: client, attempts: attempts, delay: 200 * time.Millisecond}
}

type httpCallbackSender struct {
	client   core.HTTPRequestDoer
	attempts uint
	delay    time.Duration
}

func (h httpCallbackSender) Send(ctx context.Context, url string, callback Callback) error {
	body, err := json.Marshal(callback)
	if err != nil {
		return err
	}
	target := strings.ReplaceAll(url, sessionIDPlaceholder, callback.SessionID)
	return retry.Do(func() error {
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		request.Header.Set("Content-Type", "application/json")
		response, err := h.client.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()
		if response.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("callback endpoint returned HTTP %d", response.StatusCode)
		}
		if response.StatusCode >= http.StatusBadRequest {
			return retry.Unrecoverable(fmt.Errorf("callback endpoint returned HTTP %d", response.StatusCode))
		}
		return nil
	}, retry.Context(ctx), retry.Attempts(h.attempts), retry.Delay(h.delay), retry.DelayType(retry.BackOffDelay), retry.LastErrorOnly(true))
}

// callbacks dispatches lifecycle callbacks without blocking the caller. Failures are logged and counted, never returned.
type callbacks struct {
	sender    CallbackSender
	publisher EventPublisher
	timeout   time.Duration
	metrics   *metrics
	wg        sync.WaitGroup
}

func (c *callbacks) dispatch(session IssuanceSession, callbackType CallbackType, data map[string]interface{}) {
	if c == nil || (c.publisher == nil && (c.sender == nil || session.CallbackURL == "")) {
		return
	}
	callback := Callback{SessionID: session.ID, Type: callbackType, Data: data}
	url := session.CallbackURL
	timeout := c.timeout
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := c.deliver(ctx, url, callback); err != nil {
			if c.metrics != nil {
				c.metrics.callbackFailed()
			}
			log.Logger().
				WithError(err).
				WithField(core.LogFieldSessionID, callback.SessionID).
				WithField(core.LogFieldCallbackType, callback.Type).
				Warn("Unable to deliver issuance callback")
		}
	}()
}

func (c *callbacks) deliver(ctx context.Context, url string, callback Callback) error {
	var errs []error
	if c.sender != nil && url != "" {
		if err := c.sender.Send(ctx, url, callback); err != nil {
			errs = append(errs, fmt.Errorf("HTTP: %w", err))
		}
	}
	if c.publisher != nil {
		data, err := json.Marshal(callback)
		if err == nil {
			err = c.publisher.Publish(ctx, callback.SessionID, data)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}
	return errors.Join(errs...)
}

// wait blocks until all dispatched callbacks are delivered or have failed.
func (c *callbacks) wait() {
	if c != nil {
		c.wg.Wait()
	}
}
