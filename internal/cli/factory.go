// Package cli wires configuration into a running journey: stores, handlers, hooks and telemetry.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/journey"
	"github.com/aretw0/journey/internal/config"
	"github.com/aretw0/journey/internal/logging"
	"github.com/aretw0/journey/pkg/adapters/file"
	"github.com/aretw0/journey/pkg/adapters/memory"
	"github.com/aretw0/journey/pkg/adapters/mqtt"
	"github.com/aretw0/journey/pkg/adapters/redis"
	"github.com/aretw0/journey/pkg/adapters/sqlstore"
	"github.com/aretw0/journey/pkg/controllers"
	"github.com/aretw0/journey/pkg/observability"
	"github.com/aretw0/journey/pkg/persistence/middleware"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
)

// App is a fully wired journey service.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Controller *journey.Controller
	Store      ports.StateStore
	Metrics    *prometheus.Registry

	closers []func() error
}

// Close releases the store and broker connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Log.Format), nil
}

// Handlers returns the step handlers shipped with the service.
// The nino handler checks numbers against the matching API when one is configured.
func Handlers(cfg *config.Config) *registry.Handlers {
	var matcher controllers.Matcher
	if cfg.Matcher.URL != "" {
		matcher = controllers.NewHTTPMatcher(cfg.Matcher.URL, nil)
	}
	return registry.NewHandlers().
		Register("nino", controllers.NewNino(matcher)).
		Register("abandon", controllers.NewAbandon())
}

// OpenStore opens the session store of cfg, wrapped with encryption when a secret is set.
// The returned closer must be called when the store is no longer used.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.StateStore, ports.DistributedLocker, func() error, error) {
	var (
		store  ports.StateStore
		locker ports.DistributedLocker
		closer = func() error { return nil }
	)

	switch cfg.Session.Backend {
	case config.BackendMemory:
		store = memory.NewStore(memory.WithTTL(cfg.Session.TTL))
	case config.BackendFile:
		store = file.NewStore(cfg.Session.Dir)
	case config.BackendSQL:
		s, err := sqlstore.Open(ctx, cfg.Session.DSN, sqlstore.WithTTL(cfg.Session.TTL))
		if err != nil {
			return nil, nil, nil, err
		}
		store, closer = s, s.Close
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Session.RedisAddr})
		s := redis.NewFromClient(client, redis.WithTTL(cfg.Session.TTL))
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, nil, fmt.Errorf("redis %s: %w", cfg.Session.RedisAddr, err)
		}
		store, closer = s, s.Close
		locker = redis.NewLocker(client, redis.DefaultPrefix)
	default:
		return nil, nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	if cfg.Session.Secret != "" {
		enc, err := middleware.ConfigFromSecrets(cfg.Session.Secret, cfg.Session.FallbackSecrets...)
		if err != nil {
			_ = closer()
			return nil, nil, nil, err
		}
		store = middleware.NewEncryptionMiddleware(enc)(store)
	}
	return store, locker, closer, nil
}

// Build wires the journey of cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	store, locker, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, closeStore)

	app.Metrics = prometheus.NewRegistry()
	app.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := observability.NewMetrics(app.Metrics).Hooks().
		Merge(observability.LoggingHooks(logger))

	if cfg.MQTT.Broker != "" {
		client := mqtt.NewClient(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err := mqtt.Connect(client, cfg.MQTT.Broker); err != nil {
			// Analytics are best effort; the client keeps retrying in the background.
			logger.Warn("mqtt: broker not reachable yet", "broker", cfg.MQTT.Broker, "err", err)
		}
		analytics := mqtt.NewAnalytics(client, journeyName(cfg.Journey),
			mqtt.WithTopicPrefix(cfg.MQTT.TopicPrefix),
			mqtt.WithLogger(logger),
		)
		hooks = hooks.Merge(analytics.Hooks())
		app.closers = append(app.closers, func() error {
			client.Disconnect(250)
			return nil
		})
	}

	opts := []journey.Option{
		journey.WithHandlers(Handlers(cfg)),
		journey.WithStore(store),
		journey.WithLifecycleHooks(hooks),
		journey.WithLogger(logger),
	}
	if locker != nil {
		opts = append(opts, journey.WithLocker(locker))
	}

	app.Controller, err = journey.New(cfg.Journey, opts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}
