package domain

// Request is a single call of the host into the engine.
type Request struct {
	// StepID is the step addressed by the incoming path.
	StepID string

	// SessionID is the key of the session state.
	SessionID string

	// Fields holds the submitted form values (raw input).
	Fields map[string]string

	// Submitted is true for form submissions (POST) and false for visits (GET).
	Submitted bool
}

// OutcomeKind describes what the host should do after a request.
type OutcomeKind string

const (
	// OutcomeRedirect sends the user to Outcome.Target.
	OutcomeRedirect OutcomeKind = "redirect"
	// OutcomeRender shows the step and waits for input.
	OutcomeRender OutcomeKind = "render"
	// OutcomeRerender shows the step again with validation errors.
	OutcomeRerender OutcomeKind = "rerender"
)

// RedirectReason explains why a redirect was issued.
type RedirectReason string

const (
	ReasonTransition   RedirectReason = "transition"
	ReasonPrerequisite RedirectReason = "prerequisite"
	ReasonEntryPoint   RedirectReason = "entry_point"
)

// Outcome is the decision of the engine for a request.
type Outcome struct {
	Kind   OutcomeKind    `json:"kind"`
	StepID string         `json:"step_id"`
	Target Target         `json:"target,omitempty"`
	Reason RedirectReason `json:"reason,omitempty"`

	// Fields lists the fields the step collects (render and rerender only).
	Fields []string `json:"fields,omitempty"`

	// Errors maps invalid fields to error keys (rerender only).
	Errors map[string]string `json:"errors,omitempty"`
}

// Redirect builds a redirect outcome.
func Redirect(stepID string, target Target, reason RedirectReason) *Outcome {
	return &Outcome{Kind: OutcomeRedirect, StepID: stepID, Target: target, Reason: reason}
}

// StepContext is what handlers and predicates see of the current request.
type StepContext struct {
	SessionID string
	Step      *Step

	// Submitted holds the raw submitted values.
	Submitted map[string]string

	// Fields holds the normalized values. Set before predicates are evaluated.
	Fields map[string]string

	// State is a working copy during validation and a snapshot during predicate evaluation.
	State *JourneyState
}

// Phase is a stage of the per-request state machine.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseResolvingStep   Phase = "resolving_step"
	PhaseCheckingPrereqs Phase = "checking_prereqs"
	PhaseAwaitingInput   Phase = "awaiting_input"
	PhaseValidating      Phase = "validating"
	PhaseTransitioning   Phase = "transitioning"
	PhaseRedirected      Phase = "redirected"
)
