package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/journey/pkg/domain"
)

// TracerName is the instrumentation scope of the engine spans.
const TracerName = "github.com/aretw0/journey"

// Span attribute keys.
const (
	AttrStepID    = attribute.Key("journey.step_id")
	AttrSessionID = attribute.Key("journey.session_id")
	AttrSubmitted = attribute.Key("journey.submitted")
	AttrOutcome   = attribute.Key("journey.outcome")
	AttrTarget    = attribute.Key("journey.target")
	AttrReason    = attribute.Key("journey.reason")
	AttrPhase     = attribute.Key("journey.phase")
)

// Tracer returns the engine tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartRequest opens the span of one engine request.
func StartRequest(ctx context.Context, tracer trace.Tracer, req domain.Request) (context.Context, trace.Span) {
	return tracer.Start(ctx, "journey.handle", trace.WithAttributes(
		AttrStepID.String(req.StepID),
		AttrSessionID.String(req.SessionID),
		AttrSubmitted.Bool(req.Submitted),
	))
}

// RecordPhase adds a phase event to the span in ctx.
func RecordPhase(ctx context.Context, phase domain.Phase, stepID string) {
	trace.SpanFromContext(ctx).AddEvent(string(phase), trace.WithAttributes(
		AttrPhase.String(string(phase)),
		AttrStepID.String(stepID),
	))
}

// EndRequest records the outcome or error of a request and ends the span.
func EndRequest(span trace.Span, out *domain.Outcome, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	} else if out != nil {
		span.SetAttributes(AttrOutcome.String(string(out.Kind)))
		if out.Kind == domain.OutcomeRedirect {
			span.SetAttributes(
				AttrTarget.String(out.Target.String()),
				AttrReason.String(string(out.Reason)),
			)
		}
	}
	span.End()
}
