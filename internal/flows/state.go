package flows

import (
	"context"
	"sync"

	"github.com/MrEthical07/recipeauth/session"
)

// SessionState holds the current session record in memory and mirrors it to
// the session cache. Writes hold the lock across the cache write and the
// memory write, so readers never see the two disagree.
type SessionState struct {
	cache *session.Cache

	mu      sync.RWMutex
	current *session.Session
}

// NewSessionState returns an empty state over c.
func NewSessionState(c *session.Cache) *SessionState {
	return &SessionState{cache: c}
}

// Current returns a copy of the in-memory record, or nil.
func (s *SessionState) Current() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Establish persists rec and then makes it current. On a cache failure the
// in-memory record is left unchanged.
func (s *SessionState) Establish(ctx context.Context, rec *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Save(ctx, rec); err != nil {
		return err
	}
	s.current = rec.Clone()
	return nil
}

// Clear removes the cached record and then the in-memory one. On a cache
// failure the in-memory record is left unchanged.
func (s *SessionState) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	s.current = nil
	return nil
}

// Restore loads the cached record into memory when it is authenticated and
// otherwise clears memory. healed reports that corrupt cache content was
// discarded.
func (s *SessionState) Restore(ctx context.Context) (rec *session.Session, healed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, healed, err = s.cache.LoadAuthenticated(ctx)
	if err != nil {
		return nil, healed, err
	}
	s.current = rec.Clone()
	return rec, healed, nil
}
