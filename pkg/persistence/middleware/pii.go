package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
)

// Mask replaces values of masked keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the patterns.
// It is meant for stores that are read by people (debug dumps, audit copies):
// masked values cannot be loaded back.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	// Snapshot so the in-memory state used by the engine stays untouched.
	masked := state.Snapshot()
	maskMap(masked.Values, m.patterns)
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && !masked {
			maskMap(sub, patterns)
		}
	}
}

// Unwrap implements ports.Wrapper.
func (m *piiMiddleware) Unwrap() ports.StateStore {
	return m.next
}
