package flash

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps messages in process memory. It is meant for development
// and tests; messages are lost on restart and not shared between replicas.
//
// Like RedisStore, a session's messages expire ttl after its last Push.
// Expired sessions are pruned during Push, at most once per ttl.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	sessions  map[string]*memorySession
	lastPrune time.Time
}

type memorySession struct {
	msgs    []Message
	touched time.Time
}

// NewMemoryStore returns an empty MemoryStore. A ttl of zero keeps messages
// until they are drained.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]*memorySession)}
}

// Push implements Store.
func (s *MemoryStore) Push(_ context.Context, sessionID string, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess, now) {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	sess.msgs = append(sess.msgs, m)
	sess.touched = now
	return nil
}

// Drain implements Store.
func (s *MemoryStore) Drain(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, sessionID)
	if s.expired(sess, s.now()) {
		return nil, nil
	}
	return sess.msgs, nil
}

// Len returns the number of sessions holding messages, expired ones included
// until they are pruned.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) expired(sess *memorySession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.touched) > s.ttl
}

func (s *MemoryStore) prune(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastPrune) < s.ttl {
		return
	}
	s.lastPrune = now
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}
