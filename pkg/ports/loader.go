package ports

import "github.com/aretw0/journey/pkg/domain"

// StepLoader defines how the engine retrieves step definitions.
// This allows the source (YAML file, Go DSL, memory) to be decoupled.
type StepLoader interface {
	// LoadSteps returns the step definitions in declaration order.
	LoadSteps() ([]domain.Step, error)
}
