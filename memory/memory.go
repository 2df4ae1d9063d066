// Package memory wires the whole meal bus in process: memory unit of work, memory cache
// store and an in-memory relay. It backs the demo command and end-to-end tests.
package memory

import (
	"context"
	"log/slog"

	"github.com/next-trace/scg-meal-bus/app"
	"github.com/next-trace/scg-meal-bus/cache"
	"github.com/next-trace/scg-meal-bus/relay/inmemory"
	"github.com/next-trace/scg-meal-bus/store"
)

// Stack is an app.Container whose infrastructure can be inspected.
type Stack struct {
	*app.Container

	DB     *store.Memory
	KV     *cache.MemoryStore
	Outbox *inmemory.Publisher
}

// New builds a frozen, fully wired bus. The logger may be nil.
func New(ctx context.Context, logger *slog.Logger) (*Stack, error) {
	s := &Stack{DB: store.NewMemory(), KV: cache.NewMemoryStore(), Outbox: inmemory.New()}

	c, err := app.Build(ctx, app.Config{
		CacheEnabled:    true,
		CacheDefaultTTL: cache.DefaultTTL,
		RelayKind:       app.RelayInMemory,
	}, app.Deps{Store: s.DB, KV: s.KV, Relay: s.Outbox, Logger: logger})
	if err != nil {
		return nil, err
	}

	s.Container = c

	return s, nil
}
