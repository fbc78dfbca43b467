package refserver

import "sync"

// Store holds the per-token session state. A token is either logged in (present) or
// logged out (absent); there is no other state. Implementations must be safe for
// concurrent use, and operations on one token must never affect another.
type Store interface {
	// Login marks the token as logged in. It returns false if the token was already
	// logged in, so the handler can apply its re-login policy.
	Login(token string) bool

	// LoggedIn reports whether the token is currently logged in.
	LoggedIn(token string) bool

	// Logout removes the token's session. It returns false if the token was not
	// logged in, so the handler can apply its logout policy.
	Logout(token string) bool

	// Len returns the number of active sessions.
	Len() int
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]struct{}
}

// NewMemoryStore returns an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]struct{})}
}

func (s *memoryStore) Login(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.sessions[token]
	s.sessions[token] = struct{}{}
	return !existed
}

func (s *memoryStore) LoggedIn(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok
}

func (s *memoryStore) Logout(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.sessions[token]
	delete(s.sessions, token)
	return existed
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
