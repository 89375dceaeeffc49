package session

import (
	"fmt"
	"sync"

	"github.com/switchkit/switchboard/core"
)

// InMemoryStore is a volatile SessionStore implementation storing sessions
// in a process local map. It is safe for concurrent access and best suited
// for tests or single-process servers. Sessions are shared, not cloned: the
// runtime's per-session worker is the only mutator, and *core.Session guards
// its own state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Create allocates a new session with the given id and initial active topic.
// Creating an id that already exists is an error.
func (s *InMemoryStore) Create(sessionID string, initial core.Topic) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionID]; exists {
		return nil, fmt.Errorf("session: %s already exists", sessionID)
	}
	sess := core.NewSession(sessionID, initial)
	s.sessions[sessionID] = sess
	return sess, nil
}

// Get returns an existing session or *core.SessionNotFoundError.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, &core.SessionNotFoundError{SessionID: sessionID}
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
