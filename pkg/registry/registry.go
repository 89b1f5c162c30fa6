package registry

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
)

var stepIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._~-]*$`)

// Registry holds the immutable step graph of a journey.
// It is safe for concurrent reads.
type Registry struct {
	steps    map[string]*domain.Step
	order    []string
	entry    string
	handlers map[string]ports.StepHandler
}

// New validates the step graph and binds handlers by name.
// It returns a *domain.ConfigurationError listing every problem found.
func New(steps []domain.Step, handlers *Handlers) (*Registry, error) {
	cfgErr := &domain.ConfigurationError{}
	r := &Registry{
		steps:    make(map[string]*domain.Step, len(steps)),
		handlers: make(map[string]ports.StepHandler),
	}

	var entries []string
	for i := range steps {
		step := copyStep(steps[i])

		if !stepIDPattern.MatchString(step.ID) {
			cfgErr.Add("step %d: invalid id %q", i, step.ID)
			continue
		}
		if _, dup := r.steps[step.ID]; dup {
			cfgErr.Add("step %q: duplicate id", step.ID)
			continue
		}
		r.steps[step.ID] = step
		r.order = append(r.order, step.ID)

		if step.EntryPoint {
			entries = append(entries, step.ID)
		}

		if step.Handler != "" {
			h, err := handlers.Lookup(step.Handler)
			if err != nil {
				cfgErr.Add("step %q: %v", step.ID, err)
			} else {
				r.handlers[step.ID] = h
			}
		}
	}

	switch len(entries) {
	case 0:
		cfgErr.Add("no entry point defined")
	case 1:
		r.entry = entries[0]
	default:
		cfgErr.Add("multiple entry points: %s", strings.Join(entries, ", "))
	}

	for _, id := range r.order {
		r.checkStep(r.steps[id], cfgErr)
	}

	if err := cfgErr.OrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) checkStep(step *domain.Step, cfgErr *domain.ConfigurationError) {
	if step.Skip && len(step.Fields) > 0 {
		cfgErr.Add("step %q: skip steps cannot require fields", step.ID)
	}

	// The reset clears progress before prerequisites are checked.
	if step.ResetsJourney && len(step.Prereqs) > 0 {
		cfgErr.Add("step %q: steps that reset the journey cannot have prereqs", step.ID)
	}

	for _, p := range step.Prereqs {
		if _, ok := r.steps[p]; !ok {
			cfgErr.Add("step %q: unknown prereq %q", step.ID, p)
		}
	}

	if len(step.Next) == 0 {
		cfgErr.Add("step %q: no transition rules", step.ID)
	}

	handler := r.handlers[step.ID]
	for i, rule := range step.Next {
		if rule == nil {
			cfgErr.Add("step %q: rule %d is empty", step.ID, i)
			continue
		}
		if i > 0 && step.Next[i-1] != nil && step.Next[i-1].Kind() == domain.RuleAlways {
			cfgErr.Add("step %q: rule %d is unreachable after an unconditional rule", step.ID, i)
		}

		dest := rule.Destination()
		if _, ok := r.steps[dest]; !ok && !IsExternalPath(dest) {
			cfgErr.Add("step %q: rule %d has dangling destination %q", step.ID, i, dest)
		}

		switch v := rule.(type) {
		case domain.FieldEquals:
			if !step.HasField(v.Field) {
				cfgErr.Add("step %q: rule %d matches on %q which is not a required field", step.ID, i, v.Field)
			}
		case domain.WhenPredicate:
			switch {
			case step.Handler == "":
				cfgErr.Add("step %q: rule %d uses predicate %q but the step has no handler", step.ID, i, v.Predicate)
			case handler == nil:
				// unknown handler already reported
			case handler.Predicates()[v.Predicate] == nil:
				cfgErr.Add("step %q: handler %q does not expose predicate %q", step.ID, step.Handler, v.Predicate)
			}
		}
	}
}

// Lookup returns the step with the given ID.
// The error wraps domain.ErrStepNotFound.
func (r *Registry) Lookup(id string) (*domain.Step, error) {
	step, ok := r.steps[id]
	if !ok {
		return nil, &domain.StepNotFoundError{StepID: id}
	}
	return step, nil
}

// EntryPoint returns the entry step of the journey.
func (r *Registry) EntryPoint() *domain.Step {
	return r.steps[r.entry]
}

// Handler returns the handler bound to a step, or nil.
func (r *Registry) Handler(stepID string) ports.StepHandler {
	return r.handlers[stepID]
}

// Steps returns copies of the steps in declaration order.
func (r *Registry) Steps() []domain.Step {
	out := make([]domain.Step, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *copyStep(*r.steps[id]))
	}
	return out
}

// Target resolves a rule destination.
func (r *Registry) Target(dest string) domain.Target {
	if _, ok := r.steps[dest]; ok {
		return domain.InternalTarget(dest)
	}
	return domain.ExternalTarget(dest)
}

// IsExternalPath reports whether dest is a well formed external redirect target:
// an absolute path ("/oauth2/callback") or an absolute http(s) URL.
func IsExternalPath(dest string) bool {
	if dest == "" || strings.ContainsAny(dest, " \t\r\n") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	if strings.HasPrefix(dest, "/") {
		// "//host" is protocol relative, not a path.
		return !strings.HasPrefix(dest, "//") && u.Scheme == "" && u.Host == ""
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func copyStep(s domain.Step) *domain.Step {
	s.Fields = append([]string(nil), s.Fields...)
	s.Prereqs = append([]string(nil), s.Prereqs...)
	s.Next = append([]domain.Rule(nil), s.Next...)
	return &s
}
