package servicebus

import (
	"context"
	"fmt"
	"reflect"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

// RegisterHandlerOf binds fn to the concrete type of sample.
// A second registration for the same type replaces the first and logs a warning.
func (b *Bus) RegisterHandlerOf(sample any, fn HandleFunc) error {
	if sample == nil {
		return fmt.Errorf("register handler: %w", berr.ErrNilEvent)
	}

	t := reflect.TypeOf(sample)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return fmt.Errorf("register handler %s: %w", t.String(), berr.ErrRegistryFrozen)
	}

	if _, exists := b.handlers[t]; exists {
		b.logger.Warn("handler replaced", "event_type", t.String())
	}

	b.handlers[t] = fn

	return nil
}

// RegisterHandler binds a typed handler for events of type E.
// Re-registration overwrites the previous handler (last write wins).
func RegisterHandler[E any, R any](b *Bus, h cbus.Handler[E, R]) error {
	var zero E

	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Errorf("register handler: interface type parameter: %w", berr.ErrHandlerTypeMismatch)
	}

	return b.RegisterHandlerOf(zero, func(ctx context.Context, v any) (any, error) {
		e, ok := v.(E)
		if !ok {
			return nil, fmt.Errorf("send %s: %w", reflect.TypeOf(v).String(), berr.ErrHandlerTypeMismatch)
		}

		return h.Handle(ctx, e)
	})
}

// SubscribeOf appends fn to the subscribers of the concrete type of sample.
// Duplicates are kept: subscribing twice means being invoked twice.
func (b *Bus) SubscribeOf(sample cbus.DomainEvent, fn SubscribeFunc) error {
	if sample == nil {
		return fmt.Errorf("subscribe: %w", berr.ErrNilEvent)
	}

	t := reflect.TypeOf(sample)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return fmt.Errorf("subscribe %s: %w", t.String(), berr.ErrRegistryFrozen)
	}

	b.subs[t] = append(b.subs[t], fn)

	return nil
}

// Subscribe appends a typed subscriber for domain events of type E.
func Subscribe[E cbus.DomainEvent](b *Bus, s cbus.Subscriber[E]) error {
	var zero E

	if reflect.TypeOf(zero) == nil {
		return fmt.Errorf("subscribe: interface type parameter: %w", berr.ErrHandlerTypeMismatch)
	}

	return b.SubscribeOf(zero, func(ctx context.Context, v cbus.DomainEvent) error {
		e, ok := v.(E)
		if !ok {
			return fmt.Errorf("publish %s: %w", reflect.TypeOf(v).String(), berr.ErrHandlerTypeMismatch)
		}

		return s.Handle(ctx, e)
	})
}

// Freeze makes the registries read-only. Registration afterwards fails with ErrRegistryFrozen.
func (b *Bus) Freeze() {
	b.mu.Lock()
	b.frozen = true
	b.mu.Unlock()
}

// HasHandler reports whether a handler is registered for the concrete type of sample.
func (b *Bus) HasHandler(sample any) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.handlers[reflect.TypeOf(sample)]

	return ok
}

// Subscribers returns how many subscribers are registered for the concrete type of sample.
func (b *Bus) Subscribers(sample cbus.DomainEvent) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[reflect.TypeOf(sample)])
}
