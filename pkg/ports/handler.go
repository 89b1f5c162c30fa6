package ports

import (
	"context"
	"strings"

	"github.com/aretw0/journey/pkg/domain"
)

// Predicate is a named routing condition exposed by a step handler.
// It may read the request and a snapshot of the session state, but must not mutate either.
type Predicate func(ctx context.Context, sc *domain.StepContext) bool

// StepHandler is the capability of an external step controller.
type StepHandler interface {
	// Validate checks and normalizes the submitted fields and performs step-specific side
	// effects on sc.State. A *domain.ValidationError re-prompts the step; any other error
	// is propagated to the host.
	Validate(ctx context.Context, sc *domain.StepContext) (map[string]string, error)

	// Predicates returns the routing predicates by name.
	Predicates() map[string]Predicate
}

// HandlerFuncs adapts plain functions to StepHandler.
// A nil ValidateFunc accepts the submitted required fields unchanged.
type HandlerFuncs struct {
	ValidateFunc   func(ctx context.Context, sc *domain.StepContext) (map[string]string, error)
	PredicateFuncs map[string]Predicate
}

// Validate implements StepHandler.
func (h HandlerFuncs) Validate(ctx context.Context, sc *domain.StepContext) (map[string]string, error) {
	if h.ValidateFunc == nil {
		return PassThrough(sc), nil
	}
	return h.ValidateFunc(ctx, sc)
}

// Predicates implements StepHandler.
func (h HandlerFuncs) Predicates() map[string]Predicate {
	return h.PredicateFuncs
}

// PassThrough returns the trimmed submitted values of the step's required fields.
// Undeclared fields are dropped.
func PassThrough(sc *domain.StepContext) map[string]string {
	out := make(map[string]string, len(sc.Step.Fields))
	for _, f := range sc.Step.Fields {
		if v, ok := sc.Submitted[f]; ok {
			out[f] = strings.TrimSpace(v)
		}
	}
	return out
}
