package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStepNotFound is returned when a step ID is absent from the registry.
var ErrStepNotFound = errors.New("step not found")

// StepNotFoundError reports the step ID that could not be resolved.
type StepNotFoundError struct {
	StepID string
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("step not found: %q", e.StepID)
}

// Is makes errors.Is(err, ErrStepNotFound) true.
func (e *StepNotFoundError) Is(target error) bool {
	return target == ErrStepNotFound
}

// ConfigurationError reports a malformed step graph.
// It is fatal: a process must not serve traffic with an invalid graph.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid journey configuration: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid journey configuration, found %d errors:\n- %s",
		len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Add records a problem.
func (e *ConfigurationError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// OrNil returns e when problems were recorded, nil otherwise.
func (e *ConfigurationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// ValidationError reports submitted fields that failed validation.
// It is recoverable: the same step is shown again.
type ValidationError struct {
	StepID string
	// Fields maps a field name to an error key (e.g. "required", "pattern").
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(stepID, field, reason string) *ValidationError {
	return &ValidationError{StepID: stepID, Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("step %q has invalid fields: %s", e.StepID, strings.Join(parts, ", "))
}

// NoMatchingTransitionError reports that no rule matched after validation succeeded.
// It is a defect of the step graph and is never defaulted.
type NoMatchingTransitionError struct {
	StepID string
}

func (e *NoMatchingTransitionError) Error() string {
	return fmt.Sprintf("no transition rule matched for step %q", e.StepID)
}
