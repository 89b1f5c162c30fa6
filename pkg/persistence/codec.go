// Package persistence holds the storage format of journey state shared by the store adapters.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/journey/pkg/domain"
)

// Marshal encodes a journey state for storage.
func Marshal(state *domain.JourneyState) ([]byte, error) {
	if state.Version == 0 {
		state = state.Snapshot()
		state.Version = domain.StateVersion
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a stored journey state.
// Records written by a newer engine are rejected rather than silently truncated.
func Unmarshal(data []byte) (*domain.JourneyState, error) {
	var state domain.JourneyState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.Version > domain.StateVersion {
		return nil, fmt.Errorf("unsupported state version %d (max %d)", state.Version, domain.StateVersion)
	}
	if state.Version == 0 {
		state.Version = domain.StateVersion
	}
	if state.Values == nil {
		state.Values = make(map[string]any)
	}
	return &state, nil
}
