package core

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a session.
type Status int

const (
	// StatusActive means the session accepts and routes user messages.
	StatusActive Status = iota
	// StatusEnded means the session is closed; no further delivery happens
	// and submissions are rejected.
	StatusEnded
)

// String returns a human-readable status name.
func (s Status) String() string {
	if s == StatusEnded {
		return "ended"
	}
	return "active"
}

// Session is the per-conversation state: an append-only ordered history,
// the currently active agent topic, and lifecycle status. It is owned
// exclusively by the runtime; agents only ever see history copies.
//
// Contract:
//   - Append assigns a strictly increasing sequence number and timestamp
//   - History returns a defensive copy to avoid external mutation
//   - ActiveTopic/Status transitions are serialized by the internal mutex,
//     though the runtime additionally guarantees a single writer per session
type Session struct {
	id      string
	mu      sync.Mutex
	history []Message
	seq     uint64

	activeTopic Topic
	status      Status
	escalated   bool

	created time.Time
	updated time.Time
}

// NewSession creates an active session starting at the given topic.
func NewSession(id string, initial Topic) *Session {
	now := time.Now().UTC()
	return &Session{id: id, activeTopic: initial, created: now, updated: now}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// Append stamps the message with the session id, the next sequence number
// and a timestamp, appends it to history, and returns the stored value.
func (s *Session) Append(m Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	m.SessionID = s.id
	m.Seq = s.seq
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.history = append(s.history, m)
	s.updated = m.Timestamp
	return m
}

// History returns a copy of the full ordered history.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// ActiveTopic returns the topic currently receiving this session's tasks.
func (s *Session) ActiveTopic() Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTopic
}

// SetActiveTopic moves the session to a new active topic.
func (s *Session) SetActiveTopic(t Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTopic = t
	s.updated = time.Now().UTC()
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// End transitions the session to ended. Idempotent.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusEnded
	s.updated = time.Now().UTC()
}

// Escalate marks the session for external human handling. The session stays
// active but automated delivery stops.
func (s *Session) Escalate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalated = true
	s.updated = time.Now().UTC()
}

// Escalated reports whether the session awaits human handling.
func (s *Session) Escalated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escalated
}

// Created returns the session creation time.
func (s *Session) Created() time.Time { return s.created }

// SessionStore keeps live sessions by id on behalf of the runtime. The
// runtime is the sole mutator of stored sessions; implementations only
// need to make the map operations safe for concurrent use.
type SessionStore interface {
	// Create allocates a new active session starting at the initial topic.
	// Creating an id that already exists is an error.
	Create(id string, initial Topic) (*Session, error)
	// Get returns the live session or a SessionNotFoundError.
	Get(id string) (*Session, error)
	// Delete releases the session's resources. Deleting an unknown id is a
	// no-op.
	Delete(id string)
}
