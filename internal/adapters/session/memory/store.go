package memory

import (
	"context"
	"sync"
	"time"

	"3tcapital/ducactl/internal/core/session"
)

// Store keeps the session in process memory with an optional TTL.
type Store struct {
	mu        sync.RWMutex
	current   session.Session
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewStore creates an empty store. A zero ttl keeps the session until Clear.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now}
}

var _ session.Store = (*Store)(nil)

// Load returns the stored session if it is still valid.
func (s *Store) Load(ctx context.Context) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.current.Valid() {
		return session.Session{}, session.ErrNoSession
	}
	if !s.expiresAt.IsZero() && s.now().After(s.expiresAt) {
		return session.Session{}, session.ErrNoSession
	}
	return s.current, nil
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = sess
	s.expiresAt = time.Time{}
	if s.ttl > 0 {
		s.expiresAt = s.now().Add(s.ttl)
	}
	return nil
}

// Clear removes the stored session.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = session.Session{}
	s.expiresAt = time.Time{}
	return nil
}
