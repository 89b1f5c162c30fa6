package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
)

// PredicateEvaluator evaluates named routing predicates for the current request.
type PredicateEvaluator interface {
	Evaluate(ctx context.Context, name string) (bool, error)
}

// Resolver selects the next target of a step.
type Resolver struct {
	registry *registry.Registry
}

// NewResolver creates a resolver bound to a step graph.
func NewResolver(reg *registry.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve evaluates the rules of step in declared order; the first match wins.
// fields holds the canonical validated values.
// It returns *domain.NoMatchingTransitionError when no rule matches.
func (r *Resolver) Resolve(ctx context.Context, step *domain.Step, fields map[string]string, preds PredicateEvaluator) (domain.Target, error) {
	for i, rule := range step.Next {
		ok, err := matches(ctx, rule, fields, preds)
		if err != nil {
			return domain.Target{}, fmt.Errorf("step %q rule %d: %w", step.ID, i, err)
		}
		if ok {
			return r.registry.Target(rule.Destination()), nil
		}
	}
	return domain.Target{}, &domain.NoMatchingTransitionError{StepID: step.ID}
}

func matches(ctx context.Context, rule domain.Rule, fields map[string]string, preds PredicateEvaluator) (bool, error) {
	switch v := rule.(type) {
	case domain.Always:
		return true, nil
	case domain.FieldEquals:
		value, ok := fields[v.Field]
		return ok && value == v.Value, nil
	case domain.WhenPredicate:
		if preds == nil {
			return false, fmt.Errorf("predicate %q: no evaluator", v.Predicate)
		}
		return preds.Evaluate(ctx, v.Predicate)
	default:
		return false, fmt.Errorf("unsupported rule type %T", rule)
	}
}

// handlerPredicates evaluates the predicates of a step handler.
// Each call sees its own snapshot of the state, so predicates cannot mutate journey state.
type handlerPredicates struct {
	preds map[string]ports.Predicate
	sc    *domain.StepContext
}

func newHandlerPredicates(h ports.StepHandler, sc *domain.StepContext) *handlerPredicates {
	hp := &handlerPredicates{sc: sc}
	if h != nil {
		hp.preds = h.Predicates()
	}
	return hp
}

func (h *handlerPredicates) Evaluate(ctx context.Context, name string) (bool, error) {
	fn := h.preds[name]
	if fn == nil {
		return false, fmt.Errorf("predicate %q not found", name)
	}
	view := *h.sc
	view.State = h.sc.State.Snapshot()
	view.Fields = copyFields(h.sc.Fields)
	view.Submitted = copyFields(h.sc.Submitted)
	return fn(ctx, &view), nil
}

func copyFields(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
