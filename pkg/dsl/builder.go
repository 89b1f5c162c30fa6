package dsl

import (
	"fmt"

	"github.com/aretw0/journey/pkg/adapters/memory"
	"github.com/aretw0/journey/pkg/domain"
)

// Builder manages the journey construction.
// Steps keep the order in which they were first added.
type Builder struct {
	steps map[string]*StepBuilder
	order []string
}

// New creates a new journey builder.
func New() *Builder {
	return &Builder{
		steps: make(map[string]*StepBuilder),
	}
}

// Add creates a new step in the journey.
// If the step already exists, it returns the existing builder.
func (b *Builder) Add(id string) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		step: domain.Step{
			ID: id,
		},
		builder: b,
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Steps returns the steps built so far, in declaration order.
func (b *Builder) Steps() []domain.Step {
	steps := make([]domain.Step, 0, len(b.order))
	for _, id := range b.order {
		steps = append(steps, b.steps[id].Build())
	}
	return steps
}

// LoadSteps implements ports.StepLoader, so a Builder can be passed to journey.WithLoader.
func (b *Builder) LoadSteps() ([]domain.Step, error) {
	return b.Build().LoadSteps()
}

// Build compiles the journey into a memory.Loader.
func (b *Builder) Build() *memory.Loader {
	return memory.NewLoader(b.Steps()...)
}

// MustStep returns the builder of an existing step and panics if it is unknown.
func (b *Builder) MustStep(id string) *StepBuilder {
	sb, ok := b.steps[id]
	if !ok {
		panic(fmt.Sprintf("dsl: step %q was never added", id))
	}
	return sb
}
