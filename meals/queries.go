package meals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/next-trace/scg-meal-bus/cache"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/store"
)

// GetUserProfileHandler serves profiles read-through from user:profile:<id>.
type GetUserProfileHandler struct {
	get cache.Func[GetUserProfile, store.Profile]
}

func NewGetUserProfileHandler(d Deps) *GetUserProfileHandler {
	d = d.withDefaults()

	load := func(ctx context.Context, q GetUserProfile) (store.Profile, error) {
		var p store.Profile

		err := store.Do(ctx, d.Store, func(uow store.UnitOfWork) error {
			var err error
			p, err = uow.Profiles().Get(ctx, q.UserID)

			return err
		})

		return p, err
	}

	return &GetUserProfileHandler{
		get: cache.ReadThrough(d.Cache, func(q GetUserProfile) string { return profileKey(q.UserID) },
			cache.Func[GetUserProfile, store.Profile](load), cache.TTL(d.ProfileTTL)),
	}
}

func (h *GetUserProfileHandler) Handle(ctx context.Context, q GetUserProfile) (store.Profile, error) {
	if q.UserID == "" {
		return store.Profile{}, fmt.Errorf("get profile: user id: %w", berr.ErrInvalidInput)
	}

	return h.get(ctx, q)
}

// GetDailyMacrosHandler sums a user's meals for one day, cached at daily:macros:<user>:<day>.
type GetDailyMacrosHandler struct {
	d Deps
}

func NewGetDailyMacrosHandler(d Deps) *GetDailyMacrosHandler {
	return &GetDailyMacrosHandler{d: d.withDefaults()}
}

func (h *GetDailyMacrosHandler) Handle(ctx context.Context, q GetDailyMacros) (Macros, error) {
	if q.UserID == "" {
		return Macros{}, fmt.Errorf("daily macros: user id: %w", berr.ErrInvalidInput)
	}

	if _, err := time.Parse(store.DayLayout, q.Day); err != nil {
		return Macros{}, fmt.Errorf("daily macros: day %q: %w", q.Day, berr.ErrInvalidInput)
	}

	return cache.GetOrSet(ctx, h.d.Cache, macrosKey(q.UserID, q.Day), func(ctx context.Context) (Macros, error) {
		var m Macros

		err := store.Do(ctx, h.d.Store, func(uow store.UnitOfWork) error {
			target := 0

			p, err := uow.Profiles().Get(ctx, q.UserID)
			switch {
			case err == nil:
				target = p.CalorieTarget
			case !errors.Is(err, berr.ErrNotFound):
				return err
			}

			meals, err := uow.Meals().ListByDay(ctx, q.UserID, q.Day)
			if err != nil {
				return err
			}

			m = sumMacros(q.UserID, q.Day, target, meals)

			return nil
		})

		return m, err
	}, h.d.MacrosTTL)
}

// ListMealsHandler lists a day's meals, cached under a hash of the query.
type ListMealsHandler struct {
	list cache.Func[ListMeals, []store.Meal]
}

func NewListMealsHandler(d Deps) *ListMealsHandler {
	d = d.withDefaults()

	load := func(ctx context.Context, q ListMeals) ([]store.Meal, error) {
		var meals []store.Meal

		err := store.Do(ctx, d.Store, func(uow store.UnitOfWork) error {
			var err error
			meals, err = uow.Meals().ListByDay(ctx, q.UserID, q.Day)

			return err
		})

		return meals, err
	}

	return &ListMealsHandler{list: cache.AutoKeyed(d.Cache, mealListPrefix, cache.Func[ListMeals, []store.Meal](load))}
}

func (h *ListMealsHandler) Handle(ctx context.Context, q ListMeals) ([]store.Meal, error) {
	if q.UserID == "" || q.Day == "" {
		return nil, fmt.Errorf("list meals: %w", berr.ErrInvalidInput)
	}

	return h.list(ctx, q)
}
