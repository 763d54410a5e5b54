// Package memory is an in-process session store. It is the default driver
// and the one the test suite runs against.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
	"github.com/hollybot/dashboard/internal/dashboard/store"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

var _ store.Sessions = (*Store)(nil)

func New() *Store {
	return &Store{sessions: make(map[string]domain.Session)}
}

func (s *Store) Put(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Identity] = session
	return nil
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[identity]
	if !ok {
		return domain.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, identity)
	return nil
}

func (s *Store) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identity, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, identity)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }
