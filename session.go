package accounts

import (
	"context"
	"sync"
	"time"
)

// SessionState is the server-side record behind one client cookie. It holds
// the authenticated user snapshot and, transiently during an OpenID
// handshake, the identity URL being verified.
type SessionState struct {
	User            *User
	AuthenticatedAt time.Time
	OpenIDIdentity  string
}

// Authenticated reports whether a user snapshot is attached.
func (s *SessionState) Authenticated() bool {
	return s != nil && s.User != nil
}

// BeginOpenIDHandshake records the identity URL a federated login is trying
// to verify. Called before the provider round-trip.
func (s *SessionState) BeginOpenIDHandshake(identityURL string) {
	s.OpenIDIdentity = identityURL
}

// ConsumeOpenIDHandshake returns the pending identity URL and clears it, so
// a completed or abandoned handshake cannot leak into a later login.
func (s *SessionState) ConsumeOpenIDHandshake() (string, bool) {
	if s.OpenIDIdentity == "" {
		return "", false
	}
	identity := s.OpenIDIdentity
	s.OpenIDIdentity = ""
	return identity, true
}

// SessionStore persists SessionState keyed by the opaque session id carried
// in the client cookie.
type SessionStore interface {
	Get(ctx context.Context, id string) (*SessionState, error)
	Put(ctx context.Context, id string, state *SessionState) error
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore is the in-process SessionStore. Suitable for a single
// node; swap in a shared implementation behind the same interface for
// anything else.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore returns an empty in-process store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]*SessionState{},
	}
}

// Get returns the state for id, or ErrSessionNotFound.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// Put stores state under id, replacing any previous state.
func (m *MemorySessionStore) Put(_ context.Context, id string, state *SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = state
	return nil
}

// Delete removes the state for id. Removing an absent id is not an error.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
