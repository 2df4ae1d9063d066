package meals

import (
	"context"
	"fmt"
	"strings"

	"github.com/next-trace/scg-meal-bus/cache"
	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/store"
)

var mealListPattern = mealListPrefix + ":*"

// UpdateUserProfileHandler upserts a profile and returns it in an Outcome with UserProfileUpdated.
// The cached profile and the user's cached macros are invalidated after a successful write.
type UpdateUserProfileHandler struct {
	run cache.Func[UpdateUserProfile, cbus.Outcome]
}

func NewUpdateUserProfileHandler(d Deps) *UpdateUserProfileHandler {
	d = d.withDefaults()

	write := func(ctx context.Context, c UpdateUserProfile) (cbus.Outcome, error) {
		p := store.Profile{
			UserID:        c.UserID,
			DisplayName:   strings.TrimSpace(c.DisplayName),
			CalorieTarget: c.CalorieTarget,
			ProteinG:      c.ProteinG,
			CarbsG:        c.CarbsG,
			FatG:          c.FatG,
			UpdatedAt:     d.Now().UTC(),
		}

		err := store.Do(ctx, d.Store, func(uow store.UnitOfWork) error { return uow.Profiles().Upsert(ctx, p) })
		if err != nil {
			return cbus.Outcome{}, err
		}

		evt := UserProfileUpdated{Base: cbus.NewBaseFromContext(ctx, c.UserID), CalorieTarget: c.CalorieTarget}

		return cbus.NewOutcome(p, evt), nil
	}

	return &UpdateUserProfileHandler{
		run: cache.InvalidateOnWrite(d.Cache, func(c UpdateUserProfile) []string {
			return []string{profileKey(c.UserID), macrosPattern(c.UserID)}
		}, cache.Func[UpdateUserProfile, cbus.Outcome](write)),
	}
}

func (h *UpdateUserProfileHandler) Handle(ctx context.Context, c UpdateUserProfile) (cbus.Outcome, error) {
	if c.UserID == "" {
		return cbus.Outcome{}, fmt.Errorf("update profile: user id: %w", berr.ErrInvalidInput)
	}

	if c.CalorieTarget < 0 || c.ProteinG < 0 || c.CarbsG < 0 || c.FatG < 0 {
		return cbus.Outcome{}, fmt.Errorf("update profile: negative target: %w", berr.ErrInvalidInput)
	}

	return h.run(ctx, c)
}

// LogMealHandler stores a meal. It answers with {"meal": ..., "events": [MealLogged]}.
type LogMealHandler struct {
	d   Deps
	run cache.Func[LogMeal, map[string]any]
}

func NewLogMealHandler(d Deps) *LogMealHandler {
	d = d.withDefaults()

	write := func(ctx context.Context, c LogMeal) (map[string]any, error) {
		m := store.Meal{
			ID:       d.NewID(),
			UserID:   c.UserID,
			Name:     strings.TrimSpace(c.Name),
			Day:      dayOf(c),
			EatenAt:  c.EatenAt.UTC(),
			Calories: c.Calories,
			ProteinG: c.ProteinG,
			CarbsG:   c.CarbsG,
			FatG:     c.FatG,
		}

		if err := store.Do(ctx, d.Store, func(uow store.UnitOfWork) error { return uow.Meals().Add(ctx, m) }); err != nil {
			return nil, err
		}

		evt := MealLogged{Base: cbus.NewBaseFromContext(ctx, m.ID), UserID: m.UserID, Day: m.Day, Calories: m.Calories}

		return map[string]any{"meal": m, "events": []any{evt}}, nil
	}

	return &LogMealHandler{
		d: d,
		run: cache.InvalidateOnWrite(d.Cache, func(c LogMeal) []string {
			return []string{macrosKey(c.UserID, dayOf(c)), mealListPattern}
		}, cache.Func[LogMeal, map[string]any](write)),
	}
}

func (h *LogMealHandler) Handle(ctx context.Context, c LogMeal) (map[string]any, error) {
	if c.UserID == "" || strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("log meal: user id and name: %w", berr.ErrInvalidInput)
	}

	if c.Calories < 0 || c.ProteinG < 0 || c.CarbsG < 0 || c.FatG < 0 {
		return nil, fmt.Errorf("log meal: negative amount: %w", berr.ErrInvalidInput)
	}

	// pin the time once so the write and the invalidation agree on the day
	if c.EatenAt.IsZero() {
		c.EatenAt = h.d.Now()
	}

	return h.run(ctx, c)
}

func dayOf(c LogMeal) string { return c.EatenAt.UTC().Format(store.DayLayout) }

// DeleteMealHandler removes a meal and answers with the bare list of events it produced.
type DeleteMealHandler struct {
	run cache.Func[DeleteMeal, []cbus.DomainEvent]
}

func NewDeleteMealHandler(d Deps) *DeleteMealHandler {
	d = d.withDefaults()

	write := func(ctx context.Context, c DeleteMeal) ([]cbus.DomainEvent, error) {
		var m store.Meal

		err := store.Do(ctx, d.Store, func(uow store.UnitOfWork) error {
			var err error
			m, err = uow.Meals().Delete(ctx, c.UserID, c.MealID)

			return err
		})
		if err != nil {
			return nil, err
		}

		return []cbus.DomainEvent{
			MealDeleted{Base: cbus.NewBaseFromContext(ctx, m.ID), UserID: m.UserID, Day: m.Day},
		}, nil
	}

	return &DeleteMealHandler{
		run: cache.InvalidateOnWrite(d.Cache, func(c DeleteMeal) []string {
			return []string{macrosPattern(c.UserID), mealListPattern}
		}, cache.Func[DeleteMeal, []cbus.DomainEvent](write)),
	}
}

func (h *DeleteMealHandler) Handle(ctx context.Context, c DeleteMeal) ([]cbus.DomainEvent, error) {
	if c.UserID == "" || c.MealID == "" {
		return nil, fmt.Errorf("delete meal: %w", berr.ErrInvalidInput)
	}

	return h.run(ctx, c)
}
