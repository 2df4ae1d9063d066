package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/next-trace/scg-meal-bus/cache"
	"github.com/next-trace/scg-meal-bus/meals"
	"github.com/next-trace/scg-meal-bus/relay"
	"github.com/next-trace/scg-meal-bus/relay/inmemory"
	"github.com/next-trace/scg-meal-bus/relay/kafka"
	"github.com/next-trace/scg-meal-bus/relay/nats"
	"github.com/next-trace/scg-meal-bus/relay/rabbitmq"
	"github.com/next-trace/scg-meal-bus/servicebus"
	"github.com/next-trace/scg-meal-bus/store"
)

const metricsNamespace = "mealbus"

// Deps lets callers hand in ready-made infrastructure. Nil fields are built from the Config.
type Deps struct {
	Store  store.Factory
	KV     cache.Store
	Relay  relay.Publisher
	Logger *slog.Logger
	// Registerer receives the cache metrics. Nil means no metrics.
	Registerer prometheus.Registerer
	Now        func() time.Time
	NewID      func() string
}

// Container holds one fully wired bus and the collaborators its handlers share.
type Container struct {
	Bus    *servicebus.Bus
	Cache  *cache.Service
	Store  store.Factory
	KV     cache.Store // nil when caching is off
	Relay  relay.Publisher
	Logger *slog.Logger

	closers []func()
}

// Close releases connections opened by Build, newest first.
func (c *Container) Close() {
	for _, fn := range slices.Backward(c.closers) {
		fn()
	}

	c.closers = nil
}

// Build wires every command, query and subscriber onto a new bus and freezes it.
// When a relay is configured, all meal events are also forwarded to it.
func Build(ctx context.Context, cfg Config, deps Deps) (*Container, error) {
	c, err := assemble(ctx, cfg, deps, true)
	if err != nil {
		return nil, err
	}

	err = meals.Register(c.Bus, c.mealDeps(deps))
	if c.Relay != nil {
		err = errors.Join(err,
			servicebus.Subscribe[meals.UserProfileUpdated](c.Bus, relay.Subscriber[meals.UserProfileUpdated](c.Relay, relay.PublishOptions{})),
			servicebus.Subscribe[meals.MealLogged](c.Bus, relay.Subscriber[meals.MealLogged](c.Relay, relay.PublishOptions{})),
			servicebus.Subscribe[meals.MealDeleted](c.Bus, relay.Subscriber[meals.MealDeleted](c.Relay, relay.PublishOptions{})),
		)
	}

	return c.finish(err)
}

// BuildReadPath wires only the query handlers. It never opens a relay.
func BuildReadPath(ctx context.Context, cfg Config, deps Deps) (*Container, error) {
	c, err := assemble(ctx, cfg, deps, false)
	if err != nil {
		return nil, err
	}

	return c.finish(meals.RegisterReadPath(c.Bus, c.mealDeps(deps)))
}

func (c *Container) finish(err error) (*Container, error) {
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	c.Bus.Freeze()

	return c, nil
}

func (c *Container) mealDeps(deps Deps) meals.Deps {
	return meals.Deps{
		Store:  c.Store,
		Cache:  c.Cache,
		Logger: c.Logger,
		Now:    deps.Now,
		NewID:  deps.NewID,
	}
}

func assemble(ctx context.Context, cfg Config, deps Deps, withRelay bool) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{Logger: logger, Store: deps.Store, KV: deps.KV, Relay: deps.Relay}

	if c.Store == nil {
		db, closeDB, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}

		c.Store = db
		if closeDB != nil {
			c.closers = append(c.closers, closeDB)
		}
	}

	if c.KV == nil {
		kv, closeKV := openKV(ctx, cfg, logger)
		c.KV = kv
		if closeKV != nil {
			c.closers = append(c.closers, closeKV)
		}
	}

	opts := cache.Options{Enabled: cfg.CacheEnabled, DefaultTTL: cfg.CacheDefaultTTL, Logger: logger}
	if deps.Registerer != nil {
		mon, err := cache.NewPrometheusMonitor(deps.Registerer, metricsNamespace)
		if err != nil {
			c.Close()
			return nil, err
		}

		opts.Monitor = mon
	}

	c.Cache = cache.New(c.KV, opts)

	if !withRelay {
		c.Relay = nil
	} else if c.Relay == nil {
		pub, closeRelay, err := dialRelay(cfg, logger)
		if err != nil {
			c.Close()
			return nil, err
		}

		c.Relay = pub
		if closeRelay != nil {
			c.closers = append(c.closers, closeRelay)
		}
	}

	c.Bus = servicebus.New(logger, servicebus.WithMiddleware(servicebus.LoggingMiddleware(logger)))

	return c, nil
}

func openStore(ctx context.Context, cfg Config) (store.Factory, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemory(), nil, nil
	}

	db, closeDB, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	return db, closeDB, nil
}

// openKV returns nil when caching is off or Redis cannot be reached.
func openKV(ctx context.Context, cfg Config, logger *slog.Logger) (cache.Store, func()) {
	if !cfg.CacheEnabled {
		return nil, nil
	}

	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore(), nil
	}

	rs, closeRedis, err := cache.DialRedis(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err != nil {
		// the cache is optional; run uncached rather than fail
		logger.WarnContext(ctx, "redis unavailable, caching disabled", "err", err)
		return nil, nil
	}

	return rs, closeRedis
}

func dialRelay(cfg Config, logger *slog.Logger) (relay.Publisher, func(), error) {
	switch strings.ToLower(cfg.RelayKind) {
	case RelayInMemory:
		return inmemory.New(), nil, nil
	case RelayNATS:
		p, closeFn, err := nats.Dial(nats.Config{URL: cfg.RelayURL, Name: metricsNamespace})
		if err != nil {
			return nil, nil, err
		}

		return p, closeFn, nil
	case RelayKafka:
		p, closeFn, err := kafka.Dial(kafka.Config{Brokers: strings.Split(cfg.RelayURL, ","), ClientID: metricsNamespace})
		if err != nil {
			return nil, nil, err
		}

		return p, closeFn, nil
	case RelayRabbitMQ:
		p, closeFn, err := rabbitmq.Dial(rabbitmq.Config{URL: cfg.RelayURL, Logger: logger})
		if err != nil {
			return nil, nil, err
		}

		return p, closeFn, nil
	default:
		return nil, nil, nil
	}
}
