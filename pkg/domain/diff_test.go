package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *JourneyState
		new      *JourneyState
		wantDiff *StateDiff // nil means no diff expected
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &JourneyState{
				SessionID:     "sess-1",
				CurrentStepID: "start",
				Values:        map[string]any{"a": "1"},
				Completed:     []string{"check"},
			},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentStepID: &[]string{"start"}[0],
				Values:        map[string]any{"a": "1"},
				Completed:     []string{"check"},
			},
		},
		{
			name: "No Changes",
			old: &JourneyState{
				SessionID:     "sess-1",
				CurrentStepID: "start",
				Values:        map[string]any{"a": "1"},
				Completed:     []string{"check"},
			},
			new: &JourneyState{
				SessionID:     "sess-1",
				CurrentStepID: "start",
				Values:        map[string]any{"a": "1"},
				Completed:     []string{"check"},
			},
			wantDiff: nil,
		},
		{
			name: "Values Added & Modified",
			old: &JourneyState{
				SessionID: "sess-1",
				Values:    map[string]any{"a": 1, "b": "old"},
			},
			new: &JourneyState{
				SessionID: "sess-1",
				Values:    map[string]any{"a": 1, "b": "new", "c": true},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Values:    map[string]any{"b": "new", "c": true},
			},
		},
		{
			name: "Completed Append",
			old: &JourneyState{
				SessionID:     "sess-1",
				CurrentStepID: "a",
				Completed:     []string{"start"},
			},
			new: &JourneyState{
				SessionID:     "sess-1",
				CurrentStepID: "b",
				Completed:     []string{"start", "a"},
			},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentStepID: &[]string{"b"}[0],
				Completed:     []string{"a"},
			},
		},
		{
			name: "Reset",
			old: &JourneyState{
				SessionID:     "sess-1",
				CurrentStepID: "b",
				Completed:     []string{"start", "a"},
				Values:        map[string]any{"nino": "AA123456C"},
			},
			new: &JourneyState{
				SessionID: "sess-1",
				Values:    map[string]any{},
			},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentStepID: &[]string{""}[0],
				Values:        map[string]any{"nino": nil},
				Reset:         true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Values, tt.wantDiff.Values) {
				t.Errorf("Diff().Values = %v, want %v", got.Values, tt.wantDiff.Values)
			}
			if !reflect.DeepEqual(got.Completed, tt.wantDiff.Completed) {
				t.Errorf("Diff().Completed = %v, want %v", got.Completed, tt.wantDiff.Completed)
			}
			if got.Reset != tt.wantDiff.Reset {
				t.Errorf("Diff().Reset = %v, want %v", got.Reset, tt.wantDiff.Reset)
			}
			if !equalPtr(got.CurrentStepID, tt.wantDiff.CurrentStepID) {
				t.Errorf("Diff().CurrentStepID = %v, want %v", got.CurrentStepID, tt.wantDiff.CurrentStepID)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &JourneyState{Values: map[string]any{"a": 1, "b": 2}}
		s2 := &JourneyState{Values: map[string]any{"a": 1}}
		diff := Diff(s1, s2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"completed"`) {
			t.Errorf("JSON should not contain 'completed' when empty, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
