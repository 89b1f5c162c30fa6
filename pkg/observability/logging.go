package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/journey/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write every event to logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(level slog.Level) func(context.Context, *domain.StepEvent) {
		return func(ctx context.Context, e *domain.StepEvent) {
			attrs := []any{"session_id", e.SessionID, "step_id", e.StepID}
			if e.Target != "" {
				attrs = append(attrs, "target", e.Target)
			}
			if len(e.Errors) > 0 {
				attrs = append(attrs, "errors", e.Errors)
			}
			logger.Log(ctx, level, string(e.Type), attrs...)
		}
	}
	return domain.LifecycleHooks{
		OnStepEnter:          log(slog.LevelInfo),
		OnStepLeave:          log(slog.LevelInfo),
		OnPrereqRedirect:     log(slog.LevelInfo),
		OnValidationFailed:   log(slog.LevelWarn),
		OnTransitionNotFound: log(slog.LevelError),
	}
}
