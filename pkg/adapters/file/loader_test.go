package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey/pkg/adapters/file"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports/tests"
)

func TestLoader_Contract(t *testing.T) {
	tests.StepLoaderContractTest(t, file.NewLoader("testdata/nino.yaml"), []string{
		"check",
		"national-insurance-number",
		"could-not-match-national-insurance",
		"how-continue-national-insurance",
		"abandon",
	})
}

func TestLoader_NinoJourney(t *testing.T) {
	steps, err := file.NewLoader("testdata/nino.yaml").LoadSteps()
	require.NoError(t, err)
	require.Len(t, steps, 5)

	check := steps[0]
	assert.True(t, check.EntryPoint)
	assert.True(t, check.ResetsJourney)
	assert.True(t, check.Skip)
	assert.Equal(t, []domain.Rule{domain.Always{To: "national-insurance-number"}}, check.Next)

	nino := steps[1]
	assert.Equal(t, "nino", nino.Handler)
	assert.Equal(t, []string{"nationalInsuranceNumber"}, nino.Fields)
	assert.Equal(t, []domain.Rule{
		domain.WhenPredicate{Predicate: "has_redirect_to_retry_showing", To: "could-not-match-national-insurance"},
		domain.Always{To: "/oauth2/callback"},
	}, nino.Next)

	retry := steps[2]
	assert.Equal(t, []domain.Rule{
		domain.FieldEquals{Field: "retryNationalInsuranceRadio", Value: "retryNationalInsurance", To: "national-insurance-number"},
		domain.Always{To: "abandon"},
	}, retry.Next)

	assert.Equal(t, []string{"check"}, steps[3].Prereqs)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    []domain.Rule
		wantErr string
	}{
		{
			name: "single rule map",
			yaml: "steps:\n  - id: a\n    next: {predicate: p, next: b}\n",
			want: []domain.Rule{domain.WhenPredicate{Predicate: "p", To: "b"}},
		},
		{
			name: "scalar values become strings",
			yaml: "steps:\n  - id: a\n    next:\n      - {field: n, value: 1, next: b}\n      - {field: ok, value: true, next: c}\n",
			want: []domain.Rule{
				domain.FieldEquals{Field: "n", Value: "1", To: "b"},
				domain.FieldEquals{Field: "ok", Value: "true", To: "c"},
			},
		},
		{
			name: "map without condition is unconditional",
			yaml: "steps:\n  - id: a\n    next: [{next: /x}]\n",
			want: []domain.Rule{domain.Always{To: "/x"}},
		},
		{
			name:    "unknown rule key",
			yaml:    "steps:\n  - id: a\n    next: [{field: f, value: v, next: b, when: x}]\n",
			wantErr: "rule 0",
		},
		{
			name:    "rule without next",
			yaml:    "steps:\n  - id: a\n    next: [{field: f, value: v}]\n",
			wantErr: "rule has no next",
		},
		{
			name:    "fn and predicate",
			yaml:    "steps:\n  - id: a\n    next: [{fn: f, predicate: p, next: b}]\n",
			wantErr: "both fn and predicate",
		},
		{
			name:    "numeric next",
			yaml:    "steps:\n  - id: a\n    next: 3\n",
			wantErr: "next must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := file.Parse([]byte(tt.yaml))
			require.NoError(t, err)
			steps, err := doc.Build()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, steps[0].Next)
		})
	}
}

func TestParse_DocumentErrors(t *testing.T) {
	_, err := file.Parse([]byte("version: 2\nsteps: []\n"))
	assert.ErrorContains(t, err, "unsupported journey file version")

	_, err = file.Parse([]byte("steps:\n  - id: a\n    colour: red\n"))
	assert.ErrorContains(t, err, "failed to parse journey file")

	_, err = file.Parse(nil)
	assert.ErrorContains(t, err, "empty")
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := file.NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).LoadSteps()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
