// Package session holds the credentials and organization context of a signed
// in user. A Session is created empty, started at sign-in and cleared at
// sign-out; components receive it explicitly instead of reading globals.
package session

import (
	"errors"
	"sync"
)

// ErrNoSession is returned when an operation needs an active session.
var ErrNoSession = errors.New("no active session")

// Session is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	token  string
	orgID  string
	userID string
}

// New returns an inactive session.
func New() *Session {
	return &Session{}
}

// Start activates the session with a bearer token for the given organization.
func (s *Session) Start(token, userID, orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.orgID = orgID
}

// Clear ends the session.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = ""
	s.orgID = ""
}

// Active reports whether a token is set.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the bearer token or ErrNoSession.
func (s *Session) Token() (string, error) {
	if s == nil {
		return "", ErrNoSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoSession
	}
	return s.token, nil
}

// OrgID returns the organization of the active session.
func (s *Session) OrgID() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orgID
}

// UserID returns the user of the active session.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}
