package dsl

import "github.com/aretw0/journey/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Entry marks the step as the entry point of the journey.
func (s *StepBuilder) Entry() *StepBuilder {
	s.step.EntryPoint = true
	return s
}

// Resets makes the step clear the journey progress when visited.
func (s *StepBuilder) Resets() *StepBuilder {
	s.step.ResetsJourney = true
	return s
}

// Skip marks the step as a routing-only waypoint: it is never rendered.
func (s *StepBuilder) Skip() *StepBuilder {
	s.step.Skip = true
	return s
}

// Fields adds required input fields.
func (s *StepBuilder) Fields(names ...string) *StepBuilder {
	s.step.Fields = append(s.step.Fields, names...)
	return s
}

// Prereqs adds steps that must be completed before this one.
func (s *StepBuilder) Prereqs(ids ...string) *StepBuilder {
	s.step.Prereqs = append(s.step.Prereqs, ids...)
	return s
}

// Handler binds the step to a named handler.
func (s *StepBuilder) Handler(name string) *StepBuilder {
	s.step.Handler = name
	return s
}

// If adds a transition taken when the validated field equals value.
func (s *StepBuilder) If(field, value, target string) *StepBuilder {
	s.step.Next = append(s.step.Next, domain.FieldEquals{Field: field, Value: value, To: target})
	return s
}

// When adds a transition taken when the handler predicate returns true.
func (s *StepBuilder) When(predicate, target string) *StepBuilder {
	s.step.Next = append(s.step.Next, domain.WhenPredicate{Predicate: predicate, To: target})
	return s
}

// Go adds an unconditional transition to a step or an external path.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.step.Next = append(s.step.Next, domain.Always{To: target})
	return s
}

// Build returns the underlying domain.Step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	step := s.step
	step.Fields = append([]string(nil), s.step.Fields...)
	step.Prereqs = append([]string(nil), s.step.Prereqs...)
	step.Next = append([]domain.Rule(nil), s.step.Next...)
	return step
}
