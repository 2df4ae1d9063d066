package servicebus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

// HandleFunc is the untyped shape every registered command/query handler is stored as.
type HandleFunc func(ctx context.Context, event any) (any, error)

// SubscribeFunc is the untyped shape every registered subscriber is stored as.
type SubscribeFunc func(ctx context.Context, event cbus.DomainEvent) error

// Bus is a direct dispatch table keyed by the concrete runtime type of the event.
//
// Bus is concurrency-safe and contains no global state; the process-wide instances
// live in the app package.
type Bus struct {
	mu sync.RWMutex

	handlers map[reflect.Type]HandleFunc
	subs     map[reflect.Type][]SubscribeFunc
	frozen   bool

	// global middleware executed in registration order around every Send
	mw []Middleware

	observer Observer
	logger   *slog.Logger
}

var _ cbus.Bus = (*Bus)(nil)

// Option configures a Bus instance.
type Option func(*Bus)

// WithMiddleware appends middleware that wraps every Send.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *Bus) { b.mw = append(b.mw, mw...) }
}

// WithObserver installs an observer that is told about every lifecycle transition.
func WithObserver(o Observer) Option {
	return func(b *Bus) { b.observer = o }
}

// New constructs an empty Bus. A nil logger falls back to slog.Default().
func New(logger *slog.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bus{
		handlers: make(map[reflect.Type]HandleFunc),
		subs:     make(map[reflect.Type][]SubscribeFunc),
		logger:   logger,
	}
	for _, o := range opts {
		o(b)
	}

	return b
}

// Send dispatches a command or query to the handler registered for its exact runtime type.
//
// A missing handler yields ErrNoHandlerRegistered. Handler errors are returned unchanged.
// If the result embeds domain events (see EmbeddedEvents) each of them is published
// before Send returns; the result itself is returned untouched.
func (b *Bus) Send(ctx context.Context, event any) (any, error) {
	if event == nil {
		return nil, fmt.Errorf("send: %w", berr.ErrNilEvent)
	}

	b.transition(ctx, event, StageCreated)

	t := reflect.TypeOf(event)

	b.mu.RLock()
	h, ok := b.handlers[t]
	mw := b.mw
	b.mu.RUnlock()

	if !ok {
		b.transition(ctx, event, StageFailed)
		return nil, fmt.Errorf("send %s: %w", t.String(), berr.ErrNoHandlerRegistered)
	}

	b.transition(ctx, event, StageDispatched)

	// Build chain so the first registered middleware runs first
	final := h
	for i := len(mw) - 1; i >= 0; i-- {
		final = mw[i](final)
	}

	b.transition(ctx, event, StageHandlerExecuting)

	res, err := final(ctx, event)
	if err != nil {
		b.transition(ctx, event, StageFailed)
		return nil, err
	}

	b.transition(ctx, event, StageCompleted)

	events, ok := EmbeddedEvents(res)
	if !ok {
		return res, nil
	}

	b.transition(ctx, event, StagePublishing)

	for _, e := range events {
		// Publish only fails for a nil event; the result still belongs to the caller.
		if perr := b.Publish(ctx, e); perr != nil {
			b.logger.WarnContext(ctx, "embedded event not published",
				"command_type", t.String(), "err", perr)
		}
	}

	b.transition(ctx, event, StagePublishDone)

	return res, nil
}

// Publish fans a domain event out to every subscriber of its concrete type.
//
// Subscribers run concurrently. A failing or panicking subscriber is logged with its index
// and the event type and never affects its siblings or the caller. Zero subscribers is a no-op.
// A nil event, including a typed nil pointer, is rejected with ErrNilEvent.
func (b *Bus) Publish(ctx context.Context, event cbus.DomainEvent) error {
	if isNil(event) {
		return fmt.Errorf("publish: %w", berr.ErrNilEvent)
	}

	t := reflect.TypeOf(event)

	b.mu.RLock()
	subs := append([]SubscribeFunc(nil), b.subs[t]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	id := eventID(event)

	var g errgroup.Group
	for i, s := range subs {
		g.Go(func() error {
			b.runSubscriber(ctx, i, t, id, event, s)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // subscribers never report errors to the group

	return nil
}

func (b *Bus) runSubscriber(
	ctx context.Context,
	index int,
	t reflect.Type,
	id string,
	event cbus.DomainEvent,
	s SubscribeFunc,
) {
	// the deferred log must not touch event: its methods may be what panicked
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "subscriber panicked",
				"event_type", t.String(),
				"subscriber_index", index,
				"event_id", id,
				"err", fmt.Errorf("%w: panic: %v", berr.ErrSubscriberFailed, r))
		}
	}()

	if err := s(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "subscriber failed",
			"event_type", t.String(),
			"subscriber_index", index,
			"event_id", id,
			"err", fmt.Errorf("%w: %w", berr.ErrSubscriberFailed, err))
	}
}

// eventID reads the id for log lines. An event whose Metadata panics logs without one.
func eventID(event cbus.DomainEvent) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()

	return event.Metadata().EventID
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Send is the typed form of Bus.Send. The handler result must be an R.
func Send[E any, R any](ctx context.Context, b *Bus, event E) (R, error) {
	var zero R

	res, err := b.Send(ctx, event)
	if err != nil {
		return zero, err
	}

	if res == nil {
		return zero, nil
	}

	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("send %s: result %T: %w",
			reflect.TypeOf(event).String(), res, berr.ErrHandlerTypeMismatch)
	}

	return r, nil
}
