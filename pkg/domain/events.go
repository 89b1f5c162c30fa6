package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter          EventType = "step_enter"
	EventStepLeave          EventType = "step_leave"
	EventPrereqRedirect     EventType = "prereq_redirect"
	EventValidationFailed   EventType = "validation_failed"
	EventTransitionNotFound EventType = "transition_not_found"
)

// StepEvent describes something that happened to a session at a step.
type StepEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	SessionID string            `json:"session_id"`
	StepID    string            `json:"step_id"`
	Target    string            `json:"target,omitempty"`
	External  bool              `json:"external,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the request path and must not block.
type LifecycleHooks struct {
	OnStepEnter          func(context.Context, *StepEvent)
	OnStepLeave          func(context.Context, *StepEvent)
	OnPrereqRedirect     func(context.Context, *StepEvent)
	OnValidationFailed   func(context.Context, *StepEvent)
	OnTransitionNotFound func(context.Context, *StepEvent)
}

// Merge combines hooks so each callback invokes h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:          chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:          chain(h.OnStepLeave, other.OnStepLeave),
		OnPrereqRedirect:     chain(h.OnPrereqRedirect, other.OnPrereqRedirect),
		OnValidationFailed:   chain(h.OnValidationFailed, other.OnValidationFailed),
		OnTransitionNotFound: chain(h.OnTransitionNotFound, other.OnTransitionNotFound),
	}
}

func chain(a, b func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
