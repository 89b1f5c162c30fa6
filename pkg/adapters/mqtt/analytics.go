// Package mqtt publishes journey lifecycle events to an MQTT broker for analytics.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/aretw0/journey/internal/logging"
	"github.com/aretw0/journey/pkg/domain"
)

const (
	// DefaultTopicPrefix is the root of the published topics.
	DefaultTopicPrefix = "journey/events"
	// DefaultPublishTimeout bounds how long a publish may take before it is reported as failed.
	DefaultPublishTimeout = 5 * time.Second
)

// Publisher is the part of paho.Client used by Analytics.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// Analytics turns step events into MQTT messages on <prefix>/<journey>/<event type>.
// Publishing never blocks the request: delivery failures are only logged.
type Analytics struct {
	client  Publisher
	prefix  string
	journey string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures Analytics.
type Option func(*Analytics)

// WithTopicPrefix sets the topic root.
func WithTopicPrefix(prefix string) Option {
	return func(a *Analytics) { a.prefix = prefix }
}

// WithQoS sets the MQTT quality of service. Defaults to 0.
func WithQoS(qos byte) Option {
	return func(a *Analytics) { a.qos = qos }
}

// WithPublishTimeout sets how long to wait for delivery before logging a failure.
func WithPublishTimeout(d time.Duration) Option {
	return func(a *Analytics) { a.timeout = d }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalytics creates an event publisher for the named journey.
func NewAnalytics(client Publisher, journey string, opts ...Option) *Analytics {
	a := &Analytics{
		client:  client,
		prefix:  DefaultTopicPrefix,
		journey: journey,
		timeout: DefaultPublishTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Hooks returns lifecycle hooks publishing every event.
func (a *Analytics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter:          a.Publish,
		OnStepLeave:          a.Publish,
		OnPrereqRedirect:     a.Publish,
		OnValidationFailed:   a.Publish,
		OnTransitionNotFound: a.Publish,
	}
}

// Topic returns the topic of an event type.
func (a *Analytics) Topic(t domain.EventType) string {
	return fmt.Sprintf("%s/%s/%s", a.prefix, a.journey, t)
}

// Publish sends one event.
func (a *Analytics) Publish(_ context.Context, ev *domain.StepEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		a.logger.Error("mqtt: failed to encode event", "type", ev.Type, "err", err)
		return
	}

	topic := a.Topic(ev.Type)
	token := a.client.Publish(topic, a.qos, false, payload)
	go a.await(topic, token)
}

func (a *Analytics) await(topic string, token paho.Token) {
	if !token.WaitTimeout(a.timeout) {
		a.logger.Warn("mqtt: publish timeout", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		a.logger.Warn("mqtt: publish failed", "topic", topic, "err", err)
	}
}
