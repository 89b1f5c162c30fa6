package domain

import "strings"

// Step is a node in the journey graph.
// Steps are built once at start-up and never mutated afterwards.
type Step struct {
	// ID is the unique identifier of the step. It is also its path segment.
	ID string `json:"id" yaml:"id"`

	// EntryPoint marks the only step reachable without prior session state.
	EntryPoint bool `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`

	// ResetsJourney clears completed steps and collected values before the step is evaluated.
	ResetsJourney bool `json:"reset_journey,omitempty" yaml:"reset_journey,omitempty"`

	// Skip steps collect no fields and transition immediately on entry.
	Skip bool `json:"skip,omitempty" yaml:"skip,omitempty"`

	// Fields lists the field names that must be submitted before rules are evaluated.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Prereqs lists step IDs that must be completed before this step may be entered.
	Prereqs []string `json:"prereqs,omitempty" yaml:"prereqs,omitempty"`

	// Handler is the name of the bound StepHandler, if any.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`

	// Next holds the transition rules in evaluation order.
	Next []Rule `json:"-" yaml:"-"`
}

// HasField reports whether name is one of the step's required fields.
func (s *Step) HasField(name string) bool {
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Target is a resolved rule destination.
type Target struct {
	// StepID is set for internal destinations.
	StepID string `json:"step_id,omitempty"`

	// Path is the redirect path. For internal steps it is relative to the journey base path.
	Path string `json:"path"`

	// External is true when the destination is outside the step graph.
	External bool `json:"external,omitempty"`
}

// InternalTarget builds the Target of a registered step.
func InternalTarget(stepID string) Target {
	return Target{StepID: stepID, Path: "/" + stepID}
}

// ExternalTarget builds the Target of an external path or URL.
func ExternalTarget(path string) Target {
	return Target{Path: path, External: true}
}

// String returns the destination as it appears in the step graph.
func (t Target) String() string {
	if t.External {
		return t.Path
	}
	return t.StepID
}

// JoinPath prefixes an internal target with the journey base path.
// External targets are returned verbatim.
func (t Target) JoinPath(base string) string {
	if t.External {
		return t.Path
	}
	return strings.TrimSuffix(base, "/") + t.Path
}
