package tests

import (
	"testing"

	"github.com/aretw0/journey/pkg/ports"
)

// StepLoaderContractTest is a reusable test suite that verifies if an adapter complies with
// ports.StepLoader. want lists the expected step IDs in declaration order.
func StepLoaderContractTest(t *testing.T, loader ports.StepLoader, want []string) {
	t.Helper()

	t.Run("LoadSteps_Order", func(t *testing.T) {
		steps, err := loader.LoadSteps()
		if err != nil {
			t.Fatalf("unexpected error loading steps: %v", err)
		}
		if len(steps) != len(want) {
			t.Fatalf("expected %d steps, got %d", len(want), len(steps))
		}
		for i, id := range want {
			if steps[i].ID != id {
				t.Errorf("step %d: got %q, want %q", i, steps[i].ID, id)
			}
		}
	})

	t.Run("LoadSteps_Rules", func(t *testing.T) {
		steps, err := loader.LoadSteps()
		if err != nil {
			t.Fatalf("unexpected error loading steps: %v", err)
		}
		for _, s := range steps {
			for i, r := range s.Next {
				if r == nil {
					t.Errorf("step %q rule %d is nil", s.ID, i)
				}
			}
		}
	})

	t.Run("LoadSteps_Idempotent", func(t *testing.T) {
		a, err := loader.LoadSteps()
		if err != nil {
			t.Fatal(err)
		}
		b, err := loader.LoadSteps()
		if err != nil {
			t.Fatal(err)
		}
		if len(a) != len(b) {
			t.Fatalf("second load returned %d steps, first %d", len(b), len(a))
		}
		for i := range a {
			if a[i].ID != b[i].ID {
				t.Errorf("step %d: first load %q, second load %q", i, a[i].ID, b[i].ID)
			}
		}
	})
}
