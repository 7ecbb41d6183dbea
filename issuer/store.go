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
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/issuer/log"
	"github.com/nuts-foundation/nuts-issuer/openid4vci"
	"github.com/nuts-foundation/nuts-issuer/storage"
)

// ErrSessionNotFound is returned when an issuance session does not exist or has expired.
var ErrSessionNotFound = errors.New("issuance session not found")

// ErrDeferredRequestNotFound is returned when a deferred credential request does not exist or has expired.
var ErrDeferredRequestNotFound = errors.New("deferred credential request not found")

// sessionRetention is how long a session is kept in the session database after it expired,
// so the expiration can be observed (and reported) when the session is accessed.
const sessionRetention = 10 * time.Minute

// expiredRetention is the TTL of the terminal record of an expired session, visible to concurrent readers until it's deleted.
const expiredRetention = time.Minute

const sessionStoreName = "issuancesessions"
const authServerStateStoreName = "authserverstates"
const deferredStoreName = "deferredrequests"

// lockStripes is the number of mutexes session IDs are distributed over.
const lockStripes = 64

// SessionStore stores IssuanceSessions with a TTL.
// An expired session is treated as absent: the first read after expiration closes it with StatusExpired,
// hands it to the expiration listener and removes it.
type SessionStore interface {
	// Put stores the session, which expires after the given TTL.
	Put(session IssuanceSession, ttl time.Duration) error
	// Get returns the session with the given ID.
	// It returns ErrSessionNotFound if the session does not exist or has expired.
	Get(id string) (*IssuanceSession, error)
	// GetByAuthServerState returns the session that was handed the given state for the external authentication service.
	// It returns ErrSessionNotFound if there is no such session.
	GetByAuthServerState(state string) (*IssuanceSession, error)
	// Update reads the session, applies fn and stores the result, while no other Get or Update of the session runs.
	// When fn returns an error, the session is not changed and the error is returned.
	// It returns ErrSessionNotFound if the session does not exist or has expired.
	Update(id string, fn func(session *IssuanceSession) error) (*IssuanceSession, error)
	// Remove deletes the session. It does not fail if the session does not exist.
	Remove(id string) error
}

// ExpirationListener is called once for every session that is observed after its expiration.
type ExpirationListener func(session IssuanceSession)

var _ SessionStore = (*sessionStore)(nil)

// NewSessionStore creates a SessionStore backed by the given session database.
func NewSessionStore(db storage.SessionDatabase, listener ExpirationListener) SessionStore {
	return &sessionStore{
		db:       db,
		listener: listener,
		now:      time.Now,
	}
}

type sessionStore struct {
	db       storage.SessionDatabase
	listener ExpirationListener
	locks    [lockStripes]sync.Mutex
	now      func() time.Time
}

func (s *sessionStore) lock(id string) func() {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(id))
	mutex := &s.locks[hash.Sum32()%lockStripes]
	mutex.Lock()
	return mutex.Unlock
}

// sessions returns the store for sessions that are put with the given TTL. The keyspace is the same for every TTL.
func (s *sessionStore) sessions(ttl time.Duration) storage.SessionStore {
	return s.db.GetStore(ttl, "issuer", sessionStoreName)
}

func (s *sessionStore) authServerStates(ttl time.Duration) storage.SessionStore {
	return s.db.GetStore(ttl, "issuer", authServerStateStoreName)
}

func (s *sessionStore) Put(session IssuanceSession, ttl time.Duration) error {
	unlock := s.lock(session.ID)
	defer unlock()
	session.ExpirationTimestamp = s.now().Add(ttl)
	return s.store(session)
}

// store writes the session and its auth server state index. The caller must hold the session lock.
func (s *sessionStore) store(session IssuanceSession) error {
	ttl := session.remaining(s.now()) + sessionRetention
	if err := s.sessions(ttl).Put(session.ID, session); err != nil {
		return fmt.Errorf("unable to store issuance session: %w", err)
	}
	if session.AuthServerState != "" {
		if err := s.authServerStates(ttl).Put(session.AuthServerState, session.ID); err != nil {
			return fmt.Errorf("unable to store issuance session state: %w", err)
		}
	}
	return nil
}

func (s *sessionStore) Get(id string) (*IssuanceSession, error) {
	var expired *IssuanceSession
	defer func() {
		// the listener is called after the lock is released, it may perform network I/O
		if expired != nil && s.listener != nil {
			s.listener(*expired)
		}
	}()
	unlock := s.lock(id)
	defer unlock()
	session, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if session.expired(s.now()) {
		expired, err = s.expire(*session)
		return nil, err
	}
	return session, nil
}

func (s *sessionStore) GetByAuthServerState(state string) (*IssuanceSession, error) {
	if state == "" {
		return nil, ErrSessionNotFound
	}
	var id string
	if err := s.authServerStates(0).Get(state, &id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("unable to read issuance session state: %w", err)
	}
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.AuthServerState != state {
		// the state was replaced by a newer authorization request
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionStore) Update(id string, fn func(session *IssuanceSession) error) (*IssuanceSession, error) {
	var expired *IssuanceSession
	defer func() {
		if expired != nil && s.listener != nil {
			s.listener(*expired)
		}
	}()
	unlock := s.lock(id)
	defer unlock()
	session, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if session.expired(s.now()) {
		expired, err = s.expire(*session)
		return nil, err
	}
	previousState := session.AuthServerState
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.store(*session); err != nil {
		return nil, err
	}
	if previousState != "" && previousState != session.AuthServerState {
		if err := s.authServerStates(0).Delete(previousState); err != nil {
			log.Logger().WithError(err).WithField(core.LogFieldSessionID, id).Warn("Unable to delete stale issuance session state")
		}
	}
	return session, nil
}

func (s *sessionStore) Remove(id string) error {
	unlock := s.lock(id)
	defer unlock()
	return s.remove(id)
}

func (s *sessionStore) remove(id string) error {
	session, err := s.load(id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.AuthServerState != "" {
		if err := s.authServerStates(0).Delete(session.AuthServerState); err != nil {
			return fmt.Errorf("unable to delete issuance session state: %w", err)
		}
	}
	if err := s.sessions(0).Delete(id); err != nil {
		return fmt.Errorf("unable to delete issuance session: %w", err)
	}
	return nil
}

func (s *sessionStore) load(id string) (*IssuanceSession, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	var session IssuanceSession
	if err := s.sessions(0).Get(id, &session); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("unable to read issuance session: %w", err)
	}
	return &session, nil
}

// expire closes the session as expired, persists the terminal state for concurrent readers and then deletes it.
// It returns the session when the caller must notify the listener, which is only the case for the first observer.
// The caller must hold the session lock.
func (s *sessionStore) expire(session IssuanceSession) (*IssuanceSession, error) {
	var result *IssuanceSession
	if session.close(StatusExpired, "issuance session expired") {
		if err := s.sessions(expiredRetention).Put(session.ID, session); err != nil {
			return nil, fmt.Errorf("unable to store expired issuance session: %w", err)
		}
		result = &session
		log.Logger().WithField(core.LogFieldSessionID, session.ID).Debug("Issuance session expired")
	}
	if err := s.remove(session.ID); err != nil {
		log.Logger().WithError(err).WithField(core.LogFieldSessionID, session.ID).Warn("Unable to delete expired issuance session")
	}
	return result, ErrSessionNotFound
}

// DeferredRequest is a credential request for which issuance was deferred.
type DeferredRequest struct {
	// CredentialID identifies the deferred credential, it's the jti of the acceptance token.
	CredentialID string `json:"credentialId"`
	// SessionID is the session that issued the acceptance token.
	SessionID string `json:"sessionId"`
	// RequestIndex is the index of the matched IssuanceRequest of the session.
	RequestIndex int `json:"requestIndex"`
	// Request is the original credential request.
	Request openid4vci.CredentialRequest `json:"request"`
}

// DeferredRequestStore stores deferred credential requests, independent of the session they belong to.
type DeferredRequestStore interface {
	// Put stores the request, which expires after the given TTL.
	Put(request DeferredRequest, ttl time.Duration) error
	// Get returns the request for the given credential ID. Reading the request does not remove it.
	// It returns ErrDeferredRequestNotFound if the request does not exist or has expired.
	Get(credentialID string) (*DeferredRequest, error)
}

var _ DeferredRequestStore = (*deferredRequestStore)(nil)

// NewDeferredRequestStore creates a DeferredRequestStore backed by the given session database.
func NewDeferredRequestStore(db storage.SessionDatabase) DeferredRequestStore {
	return &deferredRequestStore{db: db}
}

type deferredRequestStore struct {
	db storage.SessionDatabase
}

func (d deferredRequestStore) Put(request DeferredRequest, ttl time.Duration) error {
	if err := d.db.GetStore(ttl, "issuer", deferredStoreName).Put(request.CredentialID, request); err != nil {
		return fmt.Errorf("unable to store deferred credential request: %w", err)
	}
	return nil
}

func (d deferredRequestStore) Get(credentialID string) (*DeferredRequest, error) {
	if credentialID == "" {
		return nil, ErrDeferredRequestNotFound
	}
	var result DeferredRequest
	if err := d.db.GetStore(0, "issuer", deferredStoreName).Get(credentialID, &result); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDeferredRequestNotFound
		}
		return nil, fmt.Errorf("unable to read deferred credential request: %w", err)
	}
	return &result, nil
}
