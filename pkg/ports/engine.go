package ports

import (
	"context"

	"github.com/aretw0/journey/pkg/domain"
)

// Journey is the interface used by driving adapters (HTTP, CLI) to talk to the engine.
type Journey interface {
	// Handle processes one request and decides where the user goes next.
	Handle(ctx context.Context, req domain.Request) (*domain.Outcome, error)

	// Inspect returns the step graph in declaration order.
	Inspect() []domain.Step

	// EntryPoint returns the ID of the entry step.
	EntryPoint() string
}
