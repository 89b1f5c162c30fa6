package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/journey/internal/logging"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
)

// PhaseObserver is notified every time a request enters a phase.
type PhaseObserver func(ctx context.Context, phase domain.Phase, stepID string)

// Engine is the per-request state machine of a journey.
// It is stateless: the caller loads the JourneyState, calls Process and commits the result.
type Engine struct {
	registry *registry.Registry
	resolver *Resolver
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	observer PhaseObserver
	now      func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks adds lifecycle hooks. Multiple calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithPhaseObserver registers a callback for phase changes.
func WithPhaseObserver(fn PhaseObserver) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine for a validated step graph.
func NewEngine(reg *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: reg,
		resolver: NewResolver(reg),
		logger:   logging.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one request plus the state to persist.
type Result struct {
	Outcome *domain.Outcome

	// State is the next journey state. The input state is never modified.
	State *domain.JourneyState

	// Commit is true when State differs from the input and must be saved.
	Commit bool
}

// Process runs a single request against the current journey state.
func (e *Engine) Process(ctx context.Context, state *domain.JourneyState, req domain.Request) (*Result, error) {
	e.phase(ctx, domain.PhaseResolvingStep, req.StepID)
	step, err := e.registry.Lookup(req.StepID)
	if err != nil {
		return nil, err
	}

	next := state.Snapshot()
	finish := func(out *domain.Outcome) *Result {
		res := &Result{Outcome: out, State: next}
		if domain.Diff(state, next) != nil {
			next.UpdatedAt = e.now()
			res.Commit = true
		}
		return res
	}

	// A session without progress may only start at the entry point.
	if next.IsNew() && !step.EntryPoint && !step.ResetsJourney {
		entry := e.registry.EntryPoint()
		e.logger.Info("session has no progress, redirecting to entry point",
			"session_id", req.SessionID, "step", step.ID, "target", entry.ID)
		e.phase(ctx, domain.PhaseRedirected, step.ID)
		return finish(domain.Redirect(step.ID, domain.InternalTarget(entry.ID), domain.ReasonEntryPoint)), nil
	}

	if step.ResetsJourney {
		e.logger.Debug("resetting journey", "session_id", req.SessionID, "step", step.ID)
		next.Reset()
	}

	e.phase(ctx, domain.PhaseCheckingPrereqs, step.ID)
	if res := CheckPrereqs(step, next); !res.Satisfied {
		target := domain.InternalTarget(res.Missing)
		e.logger.Info("prerequisite not met, redirecting",
			"session_id", req.SessionID, "step", step.ID, "missing", res.Missing)
		e.fire(ctx, e.hooks.OnPrereqRedirect, &domain.StepEvent{
			Type: domain.EventPrereqRedirect, SessionID: req.SessionID, StepID: step.ID, Target: target.String(),
		})
		e.phase(ctx, domain.PhaseRedirected, step.ID)
		return finish(domain.Redirect(step.ID, target, domain.ReasonPrerequisite)), nil
	}

	if step.Skip || !req.Submitted {
		e.fire(ctx, e.hooks.OnStepEnter, &domain.StepEvent{
			Type: domain.EventStepEnter, SessionID: req.SessionID, StepID: step.ID,
		})
	}

	if !step.Skip {
		if !req.Submitted {
			e.phase(ctx, domain.PhaseAwaitingInput, step.ID)
			return finish(&domain.Outcome{
				Kind:   domain.OutcomeRender,
				StepID: step.ID,
				Fields: append([]string(nil), step.Fields...),
			}), nil
		}
		if verr := missingFields(step, req.Fields); verr != nil {
			return finish(e.rerender(ctx, req, verr)), nil
		}
	}

	e.phase(ctx, domain.PhaseValidating, step.ID)
	working := next.Snapshot()
	sc := &domain.StepContext{
		SessionID: req.SessionID,
		Step:      step,
		Submitted: submitted(step, req.Fields),
		State:     working,
	}

	handler := e.registry.Handler(step.ID)
	var normalized map[string]string
	if handler != nil {
		normalized, err = handler.Validate(ctx, sc)
	}
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			if verr.StepID == "" {
				verr.StepID = step.ID
			}
			// Handler side effects on the working copy are discarded.
			return finish(e.rerender(ctx, req, verr)), nil
		}
		return nil, fmt.Errorf("step %q: validate: %w", step.ID, err)
	}
	if normalized == nil {
		normalized = ports.PassThrough(sc)
	}
	for k, v := range normalized {
		working.Set(k, v)
	}
	sc.Fields = normalized

	e.phase(ctx, domain.PhaseTransitioning, step.ID)
	target, err := e.resolver.Resolve(ctx, step, normalized, newHandlerPredicates(handler, sc))
	if err != nil {
		var nerr *domain.NoMatchingTransitionError
		if errors.As(err, &nerr) {
			e.logger.Error("no transition matched", "session_id", req.SessionID, "step", step.ID)
			e.fire(ctx, e.hooks.OnTransitionNotFound, &domain.StepEvent{
				Type: domain.EventTransitionNotFound, SessionID: req.SessionID, StepID: step.ID,
			})
		}
		return nil, err
	}

	working.MarkCompleted(step.ID)
	working.CurrentStepID = target.String()
	working.UpdatedAt = e.now()

	e.fire(ctx, e.hooks.OnStepLeave, &domain.StepEvent{
		Type:      domain.EventStepLeave,
		SessionID: req.SessionID,
		StepID:    step.ID,
		Target:    target.String(),
		External:  target.External,
	})
	e.logger.Debug("transition", "session_id", req.SessionID, "step", step.ID, "target", target.String())
	e.phase(ctx, domain.PhaseRedirected, step.ID)

	return &Result{
		Outcome: domain.Redirect(step.ID, target, domain.ReasonTransition),
		State:   working,
		Commit:  true,
	}, nil
}

func (e *Engine) rerender(ctx context.Context, req domain.Request, verr *domain.ValidationError) *domain.Outcome {
	e.logger.Warn("validation failed", "session_id", req.SessionID, "step", verr.StepID, "err", verr)
	e.fire(ctx, e.hooks.OnValidationFailed, &domain.StepEvent{
		Type: domain.EventValidationFailed, SessionID: req.SessionID, StepID: verr.StepID, Errors: verr.Fields,
	})
	e.phase(ctx, domain.PhaseAwaitingInput, verr.StepID)
	step, _ := e.registry.Lookup(verr.StepID)
	out := &domain.Outcome{Kind: domain.OutcomeRerender, StepID: verr.StepID, Errors: verr.Fields}
	if step != nil {
		out.Fields = append([]string(nil), step.Fields...)
	}
	return out
}

func (e *Engine) phase(ctx context.Context, p domain.Phase, stepID string) {
	e.logger.Debug("phase", "phase", p, "step", stepID)
	if e.observer != nil {
		e.observer(ctx, p, stepID)
	}
}

func (e *Engine) fire(ctx context.Context, hook func(context.Context, *domain.StepEvent), ev *domain.StepEvent) {
	if hook == nil {
		return
	}
	ev.Timestamp = e.now()
	hook(ctx, ev)
}

// missingFields reports required fields that are absent or blank.
func missingFields(step *domain.Step, fields map[string]string) *domain.ValidationError {
	var verr *domain.ValidationError
	for _, f := range step.Fields {
		if strings.TrimSpace(fields[f]) != "" {
			continue
		}
		if verr == nil {
			verr = &domain.ValidationError{StepID: step.ID, Fields: make(map[string]string)}
		}
		verr.Fields[f] = "required"
	}
	return verr
}

// submitted keeps the raw values of declared fields only.
func submitted(step *domain.Step, fields map[string]string) map[string]string {
	out := make(map[string]string, len(step.Fields))
	for _, f := range step.Fields {
		if v, ok := fields[f]; ok {
			out[f] = v
		}
	}
	return out
}
