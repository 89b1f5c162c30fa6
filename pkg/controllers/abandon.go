package controllers

import (
	"context"
	"time"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
)

// KeyAbandonedAt records when the user gave up.
const KeyAbandonedAt = "abandoned_at"

// Abandon records that the user left the journey before finishing it.
type Abandon struct {
	now func() time.Time
}

// NewAbandon creates the abandon handler.
func NewAbandon() *Abandon {
	return &Abandon{now: func() time.Time { return time.Now().UTC() }}
}

// Validate implements ports.StepHandler.
func (a *Abandon) Validate(_ context.Context, sc *domain.StepContext) (map[string]string, error) {
	sc.State.Set(domain.KeyAbandoned, true)
	sc.State.Set(KeyAbandonedAt, a.now().Format(time.RFC3339))
	return map[string]string{}, nil
}

// Predicates implements ports.StepHandler.
func (a *Abandon) Predicates() map[string]ports.Predicate {
	return nil
}

var _ ports.StepHandler = (*Abandon)(nil)
