package bus

import "context"

// Bus is the surface the HTTP layer and handlers depend on.
// Registration goes through the generic helpers in the servicebus package.
type Bus interface {
	// Send dispatches a command or query to its single handler and returns the handler's result.
	Send(ctx context.Context, event any) (any, error)
	// Publish fans a domain event out to every subscriber of its concrete type.
	Publish(ctx context.Context, event DomainEvent) error
}
