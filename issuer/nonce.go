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
	"crypto/subtle"
	"math"
	"time"

	nutsCrypto "github.com/nuts-foundation/nuts-issuer/crypto"
)

// NonceBinder issues and validates the c_nonce of issuance sessions.
// A nonce is single-use: every token or credential exchange that leaves the session open replaces it.
type NonceBinder struct {
	// TTL is the maximum lifetime of a nonce, it never outlives the session.
	TTL time.Duration
	now func() time.Time
}

// NewNonceBinder creates a NonceBinder whose nonces live at most ttl.
func NewNonceBinder(ttl time.Duration) NonceBinder {
	return NonceBinder{TTL: ttl, now: time.Now}
}

// IssueNonce generates a fresh nonce, stores it on the session and returns it, plus its lifetime in seconds.
func (n NonceBinder) IssueNonce(session *IssuanceSession) (string, int) {
	now := n.currentTime()
	expiry := session.ExpirationTimestamp
	if n.TTL > 0 && now.Add(n.TTL).Before(expiry) {
		expiry = now.Add(n.TTL)
	}
	session.CNonce = nutsCrypto.GenerateNonce()
	session.CNonceExpiry = expiry
	return session.CNonce, int(math.Max(0, math.Ceil(expiry.Sub(now).Seconds())))
}

// ValidateNonce returns true if the nonce equals the current nonce of the session, and the nonce hasn't expired.
func (n NonceBinder) ValidateNonce(session IssuanceSession, nonce string) bool {
	if session.CNonce == "" || nonce == "" {
		return false
	}
	if !n.currentTime().Before(session.CNonceExpiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(session.CNonce), []byte(nonce)) == 1
}

// consume invalidates the current nonce of the session.
func (n NonceBinder) consume(session *IssuanceSession) {
	session.CNonce = ""
	session.CNonceExpiry = time.Time{}
}

func (n NonceBinder) currentTime() time.Time {
	if n.now == nil {
		return time.Now()
	}
	return n.now()
}
