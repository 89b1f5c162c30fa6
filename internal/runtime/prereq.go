package runtime

import "github.com/aretw0/journey/pkg/domain"

// PrereqResult is the outcome of a prerequisite check.
type PrereqResult struct {
	Satisfied bool
	// Missing is the first unmet prerequisite, in declaration order.
	Missing string
}

// CheckPrereqs verifies that every prerequisite of step is completed in state.
// A step without prerequisites is always satisfied.
func CheckPrereqs(step *domain.Step, state *domain.JourneyState) PrereqResult {
	for _, id := range step.Prereqs {
		if !state.IsCompleted(id) {
			return PrereqResult{Missing: id}
		}
	}
	return PrereqResult{Satisfied: true}
}
