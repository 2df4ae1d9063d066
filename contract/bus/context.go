package bus

import "context"

// Context is re-exported for convenience in handler signatures.
type Context = context.Context

type correlationKey struct{}

// WithCorrelationID stores a correlation id (typically the inbound request id) in ctx.
// Events built with NewBaseFromContext pick it up.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom returns the correlation id stored by WithCorrelationID.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}
