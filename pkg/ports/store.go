package ports

import (
	"context"

	"github.com/aretw0/journey/pkg/domain"
)

// StateStore defines the interface for persisting journey state between requests.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.JourneyState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.JourneyState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}

// Pruner is implemented by stores that keep expired sessions until asked to drop them.
type Pruner interface {
	// Prune deletes expired sessions and returns how many were removed.
	Prune(ctx context.Context) (int64, error)
}

// Wrapper is implemented by stores that decorate another store.
type Wrapper interface {
	Unwrap() StateStore
}

// AsPruner finds a Pruner in store or in the stores it wraps.
func AsPruner(store StateStore) (Pruner, bool) {
	for store != nil {
		if p, ok := store.(Pruner); ok {
			return p, true
		}
		w, ok := store.(Wrapper)
		if !ok {
			return nil, false
		}
		store = w.Unwrap()
	}
	return nil, false
}
