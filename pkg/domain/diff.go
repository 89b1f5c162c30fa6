package domain

import (
	"reflect"
)

// StateDiff represents the changes between two journey states.
// It is serialized to JSON for analytics events and debug logs.
type StateDiff struct {
	SessionID string `json:"session_id"`

	CurrentStepID *string `json:"current_step_id,omitempty"`

	// Values contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Values map[string]any `json:"values,omitempty"`

	// Completed lists steps newly added to the completed set.
	Completed []string `json:"completed,omitempty"`

	// Reset is true when steps were removed from the completed set.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
// It returns nil when nothing changed.
func Diff(oldState, newState *JourneyState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentStepID != newState.CurrentStepID {
		if oldState != nil || newState.CurrentStepID != "" {
			diff.CurrentStepID = &newState.CurrentStepID
		}
	}

	diff.Values = diffValues(oldState, newState)
	diff.Completed, diff.Reset = diffCompleted(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffValues(old, new *JourneyState) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Values {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Values {
		oldVal, exists := old.Values[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Values {
		if _, exists := new.Values[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffCompleted(old, new *JourneyState) ([]string, bool) {
	var oldSet map[string]bool
	if old != nil {
		oldSet = make(map[string]bool, len(old.Completed))
		for _, id := range old.Completed {
			oldSet[id] = true
		}
	}

	var added []string
	newSet := make(map[string]bool, len(new.Completed))
	for _, id := range new.Completed {
		newSet[id] = true
		if !oldSet[id] {
			added = append(added, id)
		}
	}

	reset := false
	for id := range oldSet {
		if !newSet[id] {
			reset = true
			break
		}
	}
	return added, reset
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStepID == nil &&
		len(d.Values) == 0 &&
		len(d.Completed) == 0 &&
		!d.Reset
}
