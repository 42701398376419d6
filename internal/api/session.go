package api

import "sync"

// Session owns the bearer token for one run of the application.
// It is injected into the Client at construction instead of living in a
// package-level variable, so tests and the login flow can swap tokens
// without global state. Safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession creates a Session with an optional initial token.
// An empty token is valid: requests are simply sent unauthenticated and the
// backend answers with whatever anonymous behavior it allows.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// SetToken replaces the current bearer token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// ClearToken removes the current bearer token.
func (s *Session) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
