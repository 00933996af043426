package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/errors"
)

// ErrNotFound is returned by stores when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// Store persists conversation history between requests. Implementations must
// be safe for concurrent use.
type Store interface {
	// Get returns the session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Put saves or replaces a session.
	Put(ctx context.Context, s *Session) error
}

// NewSession creates an empty session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		UpdatedAt: time.Now().UTC(),
	}
}

// MemoryStore keeps sessions in process memory. It is the default store when
// no database is configured; history is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy so callers never mutate the stored slice in place.
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	return &cp, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	m.sessions[s.ID] = &cp
	return nil
}
