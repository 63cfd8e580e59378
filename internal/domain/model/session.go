package model

import "sync"

// Session is the authentication state of one browser or API client. A new
// Session is anonymous. It moves to authenticated only through SignIn and
// back to anonymous only through SignOut; there is no expiry.
type Session struct {
	mu            sync.RWMutex
	authenticated bool
	username      string
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Username returns the logged-in username, or "" for an anonymous session.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// RequireAuthenticated returns the logged-in username, or ErrUnauthenticated
// when the session is anonymous.
func (s *Session) RequireAuthenticated() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return "", ErrUnauthenticated
	}
	return s.username, nil
}

// SignIn marks the session as authenticated for username.
func (s *Session) SignIn(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.username = username
}

// SignOut resets the session to anonymous.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.username = ""
}
