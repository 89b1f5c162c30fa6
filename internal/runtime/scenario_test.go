package runtime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
)

// ninoHandler uppercases the nino, rejects anything not starting with two letters,
// and asks for a retry when the nino ends with "R".
func ninoHandler() ports.StepHandler {
	return ports.HandlerFuncs{
		ValidateFunc: func(_ context.Context, sc *domain.StepContext) (map[string]string, error) {
			nino := strings.ToUpper(strings.ReplaceAll(sc.Submitted["nino"], " ", ""))
			if len(nino) < 2 || nino[0] < 'A' || nino[0] > 'Z' || nino[1] < 'A' || nino[1] > 'Z' {
				sc.State.Set("attempted", true)
				return nil, domain.NewValidationError(sc.Step.ID, "nino", "pattern")
			}
			return map[string]string{"nino": nino}, nil
		},
		PredicateFuncs: map[string]ports.Predicate{
			"needsRetry": func(_ context.Context, sc *domain.StepContext) bool {
				// Mutations are made on a snapshot and must not leak.
				sc.State.Set("predicate_was_here", true)
				return strings.HasSuffix(sc.Fields["nino"], "R")
			},
		},
	}
}

func abandonHandler() ports.StepHandler {
	return ports.HandlerFuncs{
		ValidateFunc: func(_ context.Context, sc *domain.StepContext) (map[string]string, error) {
			sc.State.Set(domain.KeyAbandoned, true)
			return map[string]string{}, nil
		},
	}
}

func scenarioSteps() []domain.Step {
	return []domain.Step{
		{ID: "entry", EntryPoint: true, Skip: true, Next: []domain.Rule{domain.Always{To: "A"}}},
		{ID: "A", Fields: []string{"nino"}, Handler: "nino", Next: []domain.Rule{
			domain.WhenPredicate{Predicate: "needsRetry", To: "B"},
			domain.Always{To: "/callback"},
		}},
		{ID: "B", Fields: []string{"retryChoice"}, Prereqs: []string{"A"}, Next: []domain.Rule{
			domain.FieldEquals{Field: "retryChoice", Value: "retry", To: "A"},
			domain.Always{To: "abandon"},
		}},
		{ID: "abandon", Skip: true, Handler: "abandon", Next: []domain.Rule{domain.Always{To: "/callback"}}},
	}
}

func scenarioRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	handlers := registry.NewHandlers().
		Register("nino", ninoHandler()).
		Register("abandon", abandonHandler())
	reg, err := registry.New(scenarioSteps(), handlers)
	require.NoError(t, err)
	return reg
}

func visit(id string) domain.Request {
	return domain.Request{StepID: id, SessionID: "s1"}
}

func submit(id string, fields map[string]string) domain.Request {
	return domain.Request{StepID: id, SessionID: "s1", Fields: fields, Submitted: true}
}
