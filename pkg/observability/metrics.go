package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/journey/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	StepVisits        *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	PrereqRedirects   *prometheus.CounterVec
	ValidationErrors  *prometheus.CounterVec
	TransitionMissing *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_step_visits_total",
			Help: "Total number of times a step was entered",
		}, []string{"step_id"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_transitions_total",
			Help: "Total number of successful transitions",
		}, []string{"step_id", "target"}),
		PrereqRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_prereq_redirects_total",
			Help: "Total number of redirects caused by unmet prerequisites",
		}, []string{"step_id"}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_validation_failures_total",
			Help: "Total number of submissions rejected by validation",
		}, []string{"step_id"}),
		TransitionMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_transition_not_found_total",
			Help: "Total number of submissions for which no rule matched",
		}, []string{"step_id"}),
	}
	reg.MustRegister(m.StepVisits, m.Transitions, m.PrereqRedirects, m.ValidationErrors, m.TransitionMissing)
	return m
}

// Hooks returns lifecycle hooks that record the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.StepID).Inc()
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.Transitions.WithLabelValues(e.StepID, e.Target).Inc()
		},
		OnPrereqRedirect: func(_ context.Context, e *domain.StepEvent) {
			m.PrereqRedirects.WithLabelValues(e.StepID).Inc()
		},
		OnValidationFailed: func(_ context.Context, e *domain.StepEvent) {
			m.ValidationErrors.WithLabelValues(e.StepID).Inc()
		},
		OnTransitionNotFound: func(_ context.Context, e *domain.StepEvent) {
			m.TransitionMissing.WithLabelValues(e.StepID).Inc()
		},
	}
}
