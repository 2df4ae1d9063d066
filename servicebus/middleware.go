package servicebus

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Middleware wraps handler execution. Middlewares run in registration order.
type Middleware func(next HandleFunc) HandleFunc

// LoggingMiddleware logs every Send at debug level with its duration, and failures at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next HandleFunc) HandleFunc {
		return func(ctx context.Context, event any) (any, error) {
			start := time.Now()
			res, err := next(ctx, event)

			attrs := []any{"event_type", fmt.Sprintf("%T", event), "took", time.Since(start)}
			if err != nil {
				logger.WarnContext(ctx, "handler failed", append(attrs, "err", err)...)
			} else {
				logger.DebugContext(ctx, "handled", attrs...)
			}

			return res, err
		}
	}
}
