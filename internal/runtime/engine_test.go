package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey/internal/runtime"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
)

// run processes a request and commits the resulting state like the controller does.
func run(t *testing.T, e *runtime.Engine, state **domain.JourneyState, req domain.Request) *domain.Outcome {
	t.Helper()
	res, err := e.Process(context.Background(), *state, req)
	require.NoError(t, err)
	if res.Commit {
		*state = res.State
	}
	return res.Outcome
}

func TestEngine_Scenario(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))

	// started walks a fresh session through the entry point.
	started := func(t *testing.T) *domain.JourneyState {
		state := domain.NewJourneyState("s1")
		out := run(t, e, &state, visit("entry"))
		require.Equal(t, domain.OutcomeRedirect, out.Kind)
		require.Equal(t, domain.InternalTarget("A"), out.Target)
		return state
	}

	t.Run("valid nino goes to callback", func(t *testing.T) {
		state := started(t)
		out := run(t, e, &state, submit("A", map[string]string{"nino": "qq 12 34 56 c"}))

		assert.Equal(t, domain.OutcomeRedirect, out.Kind)
		assert.Equal(t, domain.ReasonTransition, out.Reason)
		assert.Equal(t, domain.ExternalTarget("/callback"), out.Target)
		assert.Equal(t, []string{"entry", "A"}, state.Completed)
		assert.Equal(t, "/callback", state.CurrentStepID)
		assert.Equal(t, "QQ123456C", state.Value("nino"))
		assert.False(t, state.Flag("predicate_was_here"), "predicates must not mutate state")
	})

	t.Run("retry predicate goes to B", func(t *testing.T) {
		state := started(t)
		out := run(t, e, &state, submit("A", map[string]string{"nino": "QQ123456R"}))
		assert.Equal(t, domain.InternalTarget("B"), out.Target)
		assert.Equal(t, "B", state.CurrentStepID)
	})

	t.Run("retry choice returns to A", func(t *testing.T) {
		state := started(t)
		run(t, e, &state, submit("A", map[string]string{"nino": "QQ123456R"}))
		out := run(t, e, &state, submit("B", map[string]string{"retryChoice": "retry"}))
		assert.Equal(t, domain.InternalTarget("A"), out.Target)
	})

	t.Run("give up goes through abandon to callback", func(t *testing.T) {
		state := started(t)
		run(t, e, &state, submit("A", map[string]string{"nino": "QQ123456R"}))

		out := run(t, e, &state, submit("B", map[string]string{"retryChoice": "giveup"}))
		require.Equal(t, domain.InternalTarget("abandon"), out.Target)

		out = run(t, e, &state, visit("abandon"))
		assert.Equal(t, domain.OutcomeRedirect, out.Kind)
		assert.Equal(t, domain.ExternalTarget("/callback"), out.Target)
		assert.True(t, state.Flag(domain.KeyAbandoned))
		assert.Equal(t, []string{"entry", "A", "B", "abandon"}, state.Completed)
	})

	t.Run("unmet prerequisite redirects", func(t *testing.T) {
		state := started(t)
		res, err := e.Process(context.Background(), state, visit("B"))
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeRedirect, res.Outcome.Kind)
		assert.Equal(t, domain.ReasonPrerequisite, res.Outcome.Reason)
		assert.Equal(t, domain.InternalTarget("A"), res.Outcome.Target)
		assert.False(t, res.Commit)
	})
}

func TestEngine_PrereqsCheckedBeforeFields(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))
	state := domain.NewJourneyState("s1")
	run(t, e, &state, visit("entry"))

	// B is submitted without its field and without A completed.
	out := run(t, e, &state, submit("B", nil))
	assert.Equal(t, domain.OutcomeRedirect, out.Kind)
	assert.Equal(t, domain.ReasonPrerequisite, out.Reason)
}

func TestEngine_FreshSessionGoesToEntryPoint(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))
	state := domain.NewJourneyState("s1")

	res, err := e.Process(context.Background(), state, submit("A", map[string]string{"nino": "QQ123456C"}))
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonEntryPoint, res.Outcome.Reason)
	assert.Equal(t, domain.InternalTarget("entry"), res.Outcome.Target)
	assert.False(t, res.Commit)
}

func TestEngine_Render(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))
	state := domain.NewJourneyState("s1")
	run(t, e, &state, visit("entry"))

	res, err := e.Process(context.Background(), state, visit("A"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRender, res.Outcome.Kind)
	assert.Equal(t, []string{"nino"}, res.Outcome.Fields)
	assert.False(t, res.Commit)
}

func TestEngine_Validation(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))
	state := domain.NewJourneyState("s1")
	run(t, e, &state, visit("entry"))

	t.Run("missing required field", func(t *testing.T) {
		res, err := e.Process(context.Background(), state, submit("A", map[string]string{"nino": "   "}))
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeRerender, res.Outcome.Kind)
		assert.Equal(t, map[string]string{"nino": "required"}, res.Outcome.Errors)
		assert.False(t, res.Commit)
	})

	t.Run("handler rejects value", func(t *testing.T) {
		res, err := e.Process(context.Background(), state, submit("A", map[string]string{"nino": "12"}))
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeRerender, res.Outcome.Kind)
		assert.Equal(t, map[string]string{"nino": "pattern"}, res.Outcome.Errors)
		assert.False(t, res.Commit)
		assert.False(t, res.State.Flag("attempted"), "working copy is discarded on validation failure")
	})
}

func TestEngine_Idempotent(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))
	state := domain.NewJourneyState("s1")
	run(t, e, &state, visit("entry"))

	first := run(t, e, &state, submit("A", map[string]string{"nino": "QQ123456C"}))
	completed := append([]string(nil), state.Completed...)
	second := run(t, e, &state, submit("A", map[string]string{"nino": "QQ123456C"}))

	assert.Equal(t, first.Target, second.Target)
	assert.Equal(t, completed, state.Completed)
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	e := runtime.NewEngine(scenarioRegistry(t))
	state := domain.NewJourneyState("s1")
	run(t, e, &state, visit("entry"))
	before := state.Snapshot()

	_, err := e.Process(context.Background(), state, submit("A", map[string]string{"nino": "QQ123456C"}))
	require.NoError(t, err)
	assert.Equal(t, before, state)
}

func TestEngine_ResetStep(t *testing.T) {
	reg, err := registry.New([]domain.Step{
		{ID: "start", EntryPoint: true, ResetsJourney: true, Fields: []string{"name"}, Next: []domain.Rule{domain.Always{To: "end"}}},
		{ID: "end", Prereqs: []string{"start"}, Fields: []string{"ok"}, Next: []domain.Rule{domain.Always{To: "/bye"}}},
	}, nil)
	require.NoError(t, err)
	e := runtime.NewEngine(reg)

	state := domain.NewJourneyState("s1")
	run(t, e, &state, submit("start", map[string]string{"name": " Ada ", "extra": "dropped"}))
	assert.Equal(t, "Ada", state.Value("name"))
	assert.NotContains(t, state.Values, "extra")

	// Visiting the reset step clears progress and the cleared state is committed.
	res, err := e.Process(context.Background(), state, visit("start"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRender, res.Outcome.Kind)
	assert.True(t, res.Commit)
	assert.Empty(t, res.State.Completed)
	assert.Empty(t, res.State.Values)
	assert.Equal(t, "s1", res.State.SessionID)
}

func TestEngine_Errors(t *testing.T) {
	boom := errors.New("check api unavailable")
	handlers := registry.NewHandlers().Register("broken", ports.HandlerFuncs{
		ValidateFunc: func(context.Context, *domain.StepContext) (map[string]string, error) {
			return nil, boom
		},
	}).Register("never", ports.HandlerFuncs{
		PredicateFuncs: map[string]ports.Predicate{
			"never": func(context.Context, *domain.StepContext) bool { return false },
		},
	})
	reg, err := registry.New([]domain.Step{
		{ID: "start", EntryPoint: true, Skip: true, Handler: "broken", Next: []domain.Rule{domain.Always{To: "/x"}}},
		{ID: "dead-end", Skip: true, Handler: "never", Next: []domain.Rule{domain.WhenPredicate{Predicate: "never", To: "/x"}}},
	}, handlers)
	require.NoError(t, err)

	var notFound []string
	e := runtime.NewEngine(reg, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnTransitionNotFound: func(_ context.Context, ev *domain.StepEvent) { notFound = append(notFound, ev.StepID) },
	}))

	t.Run("unknown step", func(t *testing.T) {
		_, err := e.Process(context.Background(), domain.NewJourneyState("s1"), visit("nope"))
		assert.ErrorIs(t, err, domain.ErrStepNotFound)
	})

	t.Run("handler error propagates", func(t *testing.T) {
		_, err := e.Process(context.Background(), domain.NewJourneyState("s1"), visit("start"))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no matching transition", func(t *testing.T) {
		state := domain.NewJourneyState("s1")
		state.Completed = []string{"start"}
		_, err := e.Process(context.Background(), state, visit("dead-end"))
		var nerr *domain.NoMatchingTransitionError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, []string{"dead-end"}, notFound)
	})
}

func TestEngine_HooksAndPhases(t *testing.T) {
	var events []domain.EventType
	record := func(_ context.Context, ev *domain.StepEvent) { events = append(events, ev.Type) }
	var phases []domain.Phase
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	e := runtime.NewEngine(scenarioRegistry(t),
		runtime.WithClock(func() time.Time { return fixed }),
		runtime.WithPhaseObserver(func(_ context.Context, p domain.Phase, _ string) { phases = append(phases, p) }),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepEnter:        record,
			OnStepLeave:        record,
			OnPrereqRedirect:   record,
			OnValidationFailed: record,
		}),
	)

	state := domain.NewJourneyState("s1")
	run(t, e, &state, visit("entry"))
	assert.Equal(t, fixed, state.UpdatedAt)
	assert.Equal(t, []domain.EventType{domain.EventStepEnter, domain.EventStepLeave}, events)
	assert.Equal(t, []domain.Phase{
		domain.PhaseResolvingStep,
		domain.PhaseCheckingPrereqs,
		domain.PhaseValidating,
		domain.PhaseTransitioning,
		domain.PhaseRedirected,
	}, phases)

	events, phases = nil, nil
	run(t, e, &state, visit("B"))
	run(t, e, &state, submit("A", map[string]string{"nino": "1"}))
	assert.Equal(t, []domain.EventType{domain.EventPrereqRedirect, domain.EventValidationFailed}, events)
	assert.Contains(t, phases, domain.PhaseAwaitingInput)
}
