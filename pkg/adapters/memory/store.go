package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/journey/pkg/domain"
)

type entry struct {
	state     *domain.JourneyState
	expiresAt time.Time
}

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex

	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithTTL expires sessions that have not been saved for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	// Deep copy to ensure isolation, similar to serialization
	e := entry{state: state.Snapshot()}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Expired entries are dropped at most once per TTL, on the write path.
	if s.ttl > 0 {
		if now := s.now(); !now.Before(s.nextSweep) {
			s.sweep()
			s.nextSweep = now.Add(s.ttl)
		}
	}
	s.data[sessionID] = e
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[sessionID]
	if !ok || s.expired(e) {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate store state directly by pointer
	return e.state.Snapshot(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id, e := range s.data {
		if !s.expired(e) {
			sessions = append(sessions, id)
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}

// Len returns the number of entries held, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Prune implements ports.Pruner.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep(), nil
}

func (s *Store) sweep() int64 {
	var n int64
	for id, e := range s.data {
		if s.expired(e) {
			delete(s.data, id)
			n++
		}
	}
	return n
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
