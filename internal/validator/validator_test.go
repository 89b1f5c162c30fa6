package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey/internal/validator"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/dsl"
	"github.com/aretw0/journey/pkg/registry"
)

func build(t *testing.T, b *dsl.Builder) *registry.Registry {
	t.Helper()
	reg, err := registry.New(b.Steps(), registry.NewHandlers())
	require.NoError(t, err)
	return reg
}

func TestLint_Clean(t *testing.T) {
	b := dsl.New()
	b.Add("start").Entry().Skip().Go("a")
	b.Add("a").Fields("name").Go("b")
	b.Add("b").Fields("age").Prereqs("a").Go("/done")

	report := validator.Lint(build(t, b))
	assert.True(t, report.OK(), report.Issues)
	assert.Equal(t, []string{"start", "a", "b"}, report.Reachable)
}

func TestLint_Unreachable(t *testing.T) {
	b := dsl.New()
	b.Add("start").Entry().Skip().Go("a")
	b.Add("a").Fields("name").Go("/done")
	b.Add("orphan").Fields("x").Go("a")

	report := validator.Lint(build(t, b))
	require.False(t, report.OK())
	assert.Equal(t, []validator.Issue{{StepID: "orphan", Message: "unreachable from the entry point"}}, report.Issues)
	assert.Contains(t, report.Error(), "found 1 warnings")
}

func TestLint_PrereqsAreNotEntrances(t *testing.T) {
	b := dsl.New()
	b.Add("start").Entry().Skip().Go("a")
	b.Add("a").Fields("name").Go("/done")
	// No rule targets b, so c cannot be reached through b either.
	b.Add("b").Fields("age").Prereqs("start").Go("/done")
	b.Add("c").Fields("x").Prereqs("b").Go("/done")

	report := validator.Lint(build(t, b))
	assert.Contains(t, report.Issues, validator.Issue{StepID: "b", Message: "unreachable from the entry point"})
	assert.Contains(t, report.Issues, validator.Issue{StepID: "c", Message: "unreachable from the entry point"})
}

func TestLint_ResetStepsAreRoots(t *testing.T) {
	b := dsl.New()
	b.Add("start").Entry().Skip().Go("/done")
	b.Add("restart").Resets().Skip().Go("a")
	b.Add("a").Fields("name").Go("/done")

	report := validator.Lint(build(t, b))
	assert.True(t, report.OK(), report.Issues)
}

func TestLint_DeadPrerequisite(t *testing.T) {
	steps := []domain.Step{
		{ID: "start", EntryPoint: true, Fields: []string{"x"}, Next: []domain.Rule{
			domain.FieldEquals{Field: "x", Value: "1", To: "a"},
			domain.Always{To: "b"},
		}},
		{ID: "a", Fields: []string{"z"}, Next: []domain.Rule{domain.Always{To: "/done"}}},
		{ID: "b", Fields: []string{"y"}, Prereqs: []string{"a"}, Next: []domain.Rule{domain.Always{To: "/done"}}},
	}
	reg, err := registry.New(steps, registry.NewHandlers())
	require.NoError(t, err)

	report := validator.Lint(reg)
	assert.Equal(t, []validator.Issue{
		{StepID: "b", Message: `prerequisite "a" has no transition path to this step`},
	}, report.Issues)
}
