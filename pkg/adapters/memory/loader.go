package memory

import (
	"fmt"

	"github.com/aretw0/journey/pkg/domain"
)

// Loader implements ports.StepLoader over steps built in code.
type Loader struct {
	steps []domain.Step
}

// NewLoader creates a loader that always returns the given steps.
func NewLoader(steps ...domain.Step) *Loader {
	return &Loader{steps: steps}
}

// LoadSteps returns copies of the steps in declaration order.
func (l *Loader) LoadSteps() ([]domain.Step, error) {
	out := make([]domain.Step, len(l.steps))
	for i, s := range l.steps {
		if s.ID == "" {
			return nil, fmt.Errorf("step %d missing ID", i)
		}
		s.Fields = append([]string(nil), s.Fields...)
		s.Prereqs = append([]string(nil), s.Prereqs...)
		s.Next = append([]domain.Rule(nil), s.Next...)
		out[i] = s
	}
	return out, nil
}
