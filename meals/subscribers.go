package meals

import (
	"context"
	"log/slog"
	"reflect"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
)

// MacrosCacheWarmer refills daily:macros:<user>:<day> after a meal change.
// The command handlers already dropped the stale entry, so re-sending the query repopulates it.
type MacrosCacheWarmer struct {
	bus cbus.Bus
}

func NewMacrosCacheWarmer(b cbus.Bus) *MacrosCacheWarmer { return &MacrosCacheWarmer{bus: b} }

func (w *MacrosCacheWarmer) warm(ctx context.Context, userID, day string) error {
	_, err := w.bus.Send(ctx, GetDailyMacros{UserID: userID, Day: day})

	return err
}

func (w *MacrosCacheWarmer) OnMealLogged() cbus.SubscriberFunc[MealLogged] {
	return func(ctx context.Context, e MealLogged) error { return w.warm(ctx, e.UserID, e.Day) }
}

func (w *MacrosCacheWarmer) OnMealDeleted() cbus.SubscriberFunc[MealDeleted] {
	return func(ctx context.Context, e MealDeleted) error { return w.warm(ctx, e.UserID, e.Day) }
}

// Audit logs every event of type E it receives.
func Audit[E cbus.DomainEvent](logger *slog.Logger) cbus.SubscriberFunc[E] {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, e E) error {
		meta := e.Metadata()
		logger.InfoContext(ctx, "domain event",
			"event_type", reflect.TypeOf(e).Name(),
			"aggregate_id", e.AggregateID(),
			"event_id", meta.EventID,
			"correlation_id", meta.CorrelationID,
		)

		return nil
	}
}
