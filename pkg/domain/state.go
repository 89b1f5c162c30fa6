package domain

import "time"

// StateVersion is the schema version of JourneyState written by this engine.
const StateVersion = 1

// JourneyState represents the per-session record of progress through a journey.
// Between requests it is owned by the StateStore; during a request, by the engine.
type JourneyState struct {
	// Version is the schema version of the persisted record.
	Version int `json:"version"`

	// SessionID identifies the session that owns this state.
	SessionID string `json:"session_id"`

	// CurrentStepID is the destination of the last successful transition.
	// For external destinations it holds the external path.
	CurrentStepID string `json:"current_step_id,omitempty"`

	// Completed lists the IDs of the steps passed through, in completion order.
	Completed []string `json:"completed_steps,omitempty"`

	// Values holds collected field values and handler-owned values.
	Values map[string]any `json:"values,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJourneyState creates a clean state for a session.
func NewJourneyState(sessionID string) *JourneyState {
	now := time.Now().UTC()
	return &JourneyState{
		Version:   StateVersion,
		SessionID: sessionID,
		Values:    make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsNew reports whether the session has made no progress yet.
func (s *JourneyState) IsNew() bool {
	return s.CurrentStepID == "" && len(s.Completed) == 0
}

// IsCompleted reports whether the step has been passed through.
func (s *JourneyState) IsCompleted(stepID string) bool {
	for _, id := range s.Completed {
		if id == stepID {
			return true
		}
	}
	return false
}

// MarkCompleted adds the step to the completed set, keeping first completion order.
func (s *JourneyState) MarkCompleted(stepID string) {
	if s.IsCompleted(stepID) {
		return
	}
	s.Completed = append(s.Completed, stepID)
}

// Reset clears journey progress and collected values. The session identity is kept.
func (s *JourneyState) Reset() {
	s.CurrentStepID = ""
	s.Completed = nil
	s.Values = make(map[string]any)
}

// Value returns a collected value as a string, or "" when absent.
func (s *JourneyState) Value(key string) string {
	v, ok := s.Values[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return ""
}

// Flag returns a collected boolean value, false when absent.
func (s *JourneyState) Flag(key string) bool {
	v, _ := s.Values[key].(bool)
	return v
}

// Set stores a value in the state.
func (s *JourneyState) Set(key string, value any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = value
}

// Unset removes a value from the state.
func (s *JourneyState) Unset(key string) {
	delete(s.Values, key)
}

// Snapshot returns a deep copy of the state (nested maps and slices are copied).
func (s *JourneyState) Snapshot() *JourneyState {
	if s == nil {
		return nil
	}
	next := *s
	next.Completed = append([]string(nil), s.Completed...)
	next.Values = deepCopyMap(s.Values)
	return &next
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			out[k] = deepCopyMap(val)
		case []any:
			out[k] = append([]any(nil), val...)
		case []string:
			out[k] = append([]string(nil), val...)
		default:
			out[k] = v
		}
	}
	return out
}
