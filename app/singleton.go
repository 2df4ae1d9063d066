package app

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/next-trace/scg-meal-bus/cache"
	"github.com/next-trace/scg-meal-bus/store"
)

type memo struct {
	once sync.Once
	c    *Container
	err  error
}

func (m *memo) get(build func() (*Container, error)) (*Container, error) {
	m.once.Do(func() { m.c, m.err = build() })
	return m.c, m.err
}

// infra is the persistence and cache pair both singletons run on. It is opened once and
// lives as long as the process; closing either container leaves it untouched.
type infra struct {
	once  sync.Once
	store store.Factory
	kv    cache.Store
	err   error
}

func (i *infra) get(ctx context.Context, cfg Config, logger *slog.Logger) (store.Factory, cache.Store, error) {
	i.once.Do(func() {
		if i.err = cfg.Validate(); i.err != nil {
			return
		}

		if i.store, _, i.err = openStore(ctx, cfg); i.err != nil {
			return
		}

		i.kv, _ = openKV(ctx, cfg, logger)
	})

	return i.store, i.kv, i.err
}

var (
	shared      = &infra{}
	configured  = &memo{}
	lightweight = &memo{}
)

// Configured returns the process-wide container with every handler, subscriber and relay wired.
// It is built from the environment on first use; the result, or the build error, is kept for
// the life of the process.
func Configured(ctx context.Context) (*Container, error) {
	return configured.get(func() (*Container, error) {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, err
		}

		logger := cfg.NewLogger(os.Stderr)

		db, kv, err := shared.get(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}

		return Build(ctx, cfg, Deps{Store: db, KV: kv, Logger: logger, Registerer: prometheus.DefaultRegisterer})
	})
}

// Lightweight returns the process-wide read-path container. Its handlers are separate
// instances from Configured's and it carries no subscribers, but it reads the same store
// and cache, so writes sent through Configured are visible here.
func Lightweight(ctx context.Context) (*Container, error) {
	return lightweight.get(func() (*Container, error) {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, err
		}

		logger := cfg.NewLogger(os.Stderr)

		db, kv, err := shared.get(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}

		return BuildReadPath(ctx, cfg, Deps{Store: db, KV: kv, Logger: logger})
	})
}
