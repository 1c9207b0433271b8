// Package store holds the server's account state: the operator record and
// refresh sessions. Everything lives in memory; persistence across process
// restarts is deliberately out of scope for this server.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/errors"
)

// Operator is the single account allowed to drive the server. Created by
// the first-run setup flow.
type Operator struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshSession is one long-lived login. Only the hash of the refresh
// token is kept; the token itself never touches the store.
type RefreshSession struct {
	ID         string          `json:"id"`
	OperatorID string          `json:"operator_id"`
	TokenHash  string          `json:"-"`
	Device     auth.DeviceInfo `json:"device"`
	CreatedAt  time.Time       `json:"created_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	LastUsedAt time.Time       `json:"last_used_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s RefreshSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store is an in-memory account store safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	operator *Operator
	sessions map[string]RefreshSession // keyed by session id
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]RefreshSession),
	}
}

// CreateOperator installs the operator account. A second call fails with
// an already-configured error; setup happens exactly once.
func (s *Store) CreateOperator(_ context.Context, op Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.operator != nil {
		return errors.AlreadyConfigured("server already has an operator account")
	}
	s.operator = &op
	return nil
}

// GetOperator returns the operator account.
func (s *Store) GetOperator(_ context.Context) (Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.operator == nil {
		return Operator{}, errors.NotFound("no operator account configured")
	}
	return *s.operator, nil
}

// GetOperatorByEmail returns the operator when the email matches.
func (s *Store) GetOperatorByEmail(_ context.Context, email string) (Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.operator == nil || s.operator.Email != email {
		return Operator{}, errors.NotFound("no operator with that email")
	}
	return *s.operator, nil
}

// HasOperator reports whether setup has run.
func (s *Store) HasOperator(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operator != nil
}

// CreateRefreshSession records a new refresh session.
func (s *Store) CreateRefreshSession(_ context.Context, session RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return errors.Conflict("refresh session id already exists")
	}
	s.sessions[session.ID] = session
	return nil
}

// GetRefreshSessionByHash looks a session up by its token hash.
func (s *Store) GetRefreshSessionByHash(_ context.Context, tokenHash string) (RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.TokenHash == tokenHash {
			return session, nil
		}
	}
	return RefreshSession{}, errors.NotFound("refresh session not found")
}

// TouchRefreshSession updates a session's last-used time.
func (s *Store) TouchRefreshSession(_ context.Context, sessionID string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return errors.NotFound("refresh session not found")
	}
	session.LastUsedAt = usedAt
	s.sessions[sessionID] = session
	return nil
}

// DeleteRefreshSession removes a session by id.
func (s *Store) DeleteRefreshSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return errors.NotFound("refresh session not found")
	}
	delete(s.sessions, sessionID)
	return nil
}

// DeleteRefreshSessionByHash removes a session by its token hash. Used by
// logout, where the client only holds the token.
func (s *Store) DeleteRefreshSessionByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sessionID, session := range s.sessions {
		if session.TokenHash == tokenHash {
			delete(s.sessions, sessionID)
			return nil
		}
	}
	return errors.NotFound("refresh session not found")
}

// ListRefreshSessions returns every live refresh session.
func (s *Store) ListRefreshSessions(_ context.Context) []RefreshSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RefreshSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// DeleteExpiredSessions drops every session past its expiry and returns
// how many were removed. Called by the background cleanup job.
func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sessionID, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, sessionID)
			removed++
		}
	}
	return removed
}
