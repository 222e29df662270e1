package conversation

import (
	"context"
	"sync"
)

// SessionStore persists per-sender sessions. Get returns (nil, nil) for an
// unknown sender. Implementations must round-trip every Session field,
// including Phase and PendingSuggestion.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	LoadAll(ctx context.Context) (map[string]*Session, error)
}

// MemoryStore is an in-memory SessionStore for tests and single-process
// deployments without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id], nil
}

func (s *MemoryStore) Put(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) LoadAll(_ context.Context) (map[string]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Session, len(s.sessions))
	for id, session := range s.sessions {
		out[id] = session
	}
	return out, nil
}
