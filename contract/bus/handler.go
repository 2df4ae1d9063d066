package bus

import "context"

// Handler handles one command or query type E and returns R.
// Implementations must be safe for concurrent use and idempotent with respect to caller retries;
// the bus itself never retries.
type Handler[E any, R any] interface {
	Handle(ctx context.Context, e E) (R, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[E any, R any] func(ctx context.Context, e E) (R, error)

func (f HandlerFunc[E, R]) Handle(ctx context.Context, e E) (R, error) { return f(ctx, e) }

// Subscriber reacts to domain events of type E. Side effects only.
type Subscriber[E DomainEvent] interface {
	Handle(ctx context.Context, e E) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc[E DomainEvent] func(ctx context.Context, e E) error

func (f SubscriberFunc[E]) Handle(ctx context.Context, e E) error { return f(ctx, e) }
