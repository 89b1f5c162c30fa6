package journey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/journey/internal/logging"
	"github.com/aretw0/journey/internal/runtime"
	"github.com/aretw0/journey/pkg/adapters/file"
	"github.com/aretw0/journey/pkg/adapters/memory"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/observability"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
	"github.com/aretw0/journey/pkg/session"
)

// ErrMissingSession is returned when a request carries no session ID.
var ErrMissingSession = errors.New("session id is required")

// Controller is the high-level entry point of the library.
// It binds a validated step graph to a session store and runs one request at a time per session.
//
// A session without progress is sent to the entry point before prerequisites are looked at:
// on such a session, a step with unmet prereqs answers a redirect with domain.ReasonEntryPoint
// to the entry step, not domain.ReasonPrerequisite to its first missing prereq. Once the session
// has completed any step, unmet prereqs redirect to the first missing one.
type Controller struct {
	registry *registry.Registry
	runtime  *runtime.Engine
	sessions *session.Manager

	loader   ports.StepLoader
	handlers *registry.Handlers
	store    ports.StateStore
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	tracer   trace.Tracer

	Name string
}

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithLoader injects a custom StepLoader, bypassing the default journey file loader.
func WithLoader(l ports.StepLoader) Option {
	return func(c *Controller) {
		c.loader = l
	}
}

// WithHandlers sets the handler catalog steps are bound against.
func WithHandlers(h *registry.Handlers) Option {
	return func(c *Controller) {
		c.handlers = h
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(s ports.StateStore) Option {
	return func(c *Controller) {
		c.store = s
	}
}

// WithLocker enables distributed session locking across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(c *Controller) {
		c.locker = l
	}
}

// WithLifecycleHooks registers observability hooks. Multiple calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for request spans (default: global provider).
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// WithName labels the journey in logs.
func WithName(name string) Option {
	return func(c *Controller) {
		c.Name = name
	}
}

// New builds a Controller.
// By default, steps are read from the YAML journey file at path.
// If WithLoader is provided, path can be empty and is only used as the journey name.
// It fails with *domain.ConfigurationError when the step graph is invalid.
func New(path string, opts ...Option) (*Controller, error) {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		c.loader = file.NewLoader(path)
	}
	if c.Name == "" && path != "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.Name != "" {
		c.logger = c.logger.With("journey", c.Name)
	}
	if c.tracer == nil {
		c.tracer = observability.Tracer()
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}

	steps, err := c.loader.LoadSteps()
	if err != nil {
		return nil, fmt.Errorf("failed to load steps: %w", err)
	}
	c.registry, err = registry.New(steps, c.handlers)
	if err != nil {
		return nil, err
	}

	c.runtime = runtime.NewEngine(c.registry,
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
		runtime.WithPhaseObserver(observability.RecordPhase),
	)

	sessionOpts := []session.Option{session.WithLogger(c.logger)}
	if c.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(c.locker))
	}
	c.sessions = session.NewManager(c.store, sessionOpts...)

	return c, nil
}

// Handle processes one request: it loads the session state, runs the step and
// persists the resulting state once. Nothing is saved if ctx is done before the commit.
// See Controller for how fresh sessions are routed.
func (c *Controller) Handle(ctx context.Context, req domain.Request) (out *domain.Outcome, err error) {
	ctx, span := observability.StartRequest(ctx, c.tracer, req)
	defer func() { observability.EndRequest(span, out, err) }()

	if req.SessionID == "" {
		return nil, ErrMissingSession
	}

	err = c.sessions.WithLock(ctx, req.SessionID, func(ctx context.Context) error {
		state, err := c.sessions.LoadOrNew(ctx, req.SessionID)
		if err != nil {
			return err
		}

		res, err := c.runtime.Process(ctx, state, req)
		if err != nil {
			return err
		}

		if res.Commit {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("request aborted before commit: %w", err)
			}
			if err := c.store.Save(ctx, req.SessionID, res.State); err != nil {
				c.logger.Error("failed to save session", "session_id", req.SessionID, "err", err)
				return fmt.Errorf("failed to save session: %w", err)
			}
		}
		out = res.Outcome
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// State returns the persisted state of a session.
func (c *Controller) State(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	return c.sessions.Load(ctx, sessionID)
}

// Inspect returns the step graph in declaration order.
func (c *Controller) Inspect() []domain.Step {
	return c.registry.Steps()
}

// EntryPoint returns the ID of the entry step.
func (c *Controller) EntryPoint() string {
	return c.registry.EntryPoint().ID
}

// Registry returns the validated step graph.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

// Sessions returns the session manager.
func (c *Controller) Sessions() *session.Manager {
	return c.sessions
}

var _ ports.Journey = (*Controller)(nil)
