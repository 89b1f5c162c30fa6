package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/journey/pkg/ports"
)

// DefaultPruneInterval is how often a running server drops expired sessions.
const DefaultPruneInterval = 10 * time.Minute

// RunPruner calls p.Prune every interval until ctx is done.
// Failures are logged and retried on the next tick.
func RunPruner(ctx context.Context, p ports.Pruner, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Prune(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("failed to prune expired sessions", "err", err)
				}
				continue
			}
			if n > 0 {
				logger.Info("pruned expired sessions", "count", n)
			}
		}
	}
}
