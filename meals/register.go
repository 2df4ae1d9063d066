package meals

import (
	"errors"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	"github.com/next-trace/scg-meal-bus/servicebus"
	"github.com/next-trace/scg-meal-bus/store"
)

// Register wires every meal handler and subscriber onto b.
func Register(b *servicebus.Bus, d Deps) error {
	d = d.withDefaults()
	warmer := NewMacrosCacheWarmer(b)

	return errors.Join(
		RegisterReadPath(b, d),
		servicebus.RegisterHandler[UpdateUserProfile, cbus.Outcome](b, NewUpdateUserProfileHandler(d)),
		servicebus.RegisterHandler[LogMeal, map[string]any](b, NewLogMealHandler(d)),
		servicebus.RegisterHandler[DeleteMeal, []cbus.DomainEvent](b, NewDeleteMealHandler(d)),
		servicebus.Subscribe[MealLogged](b, warmer.OnMealLogged()),
		servicebus.Subscribe[MealDeleted](b, warmer.OnMealDeleted()),
		servicebus.Subscribe[UserProfileUpdated](b, Audit[UserProfileUpdated](d.Logger)),
		servicebus.Subscribe[MealLogged](b, Audit[MealLogged](d.Logger)),
		servicebus.Subscribe[MealDeleted](b, Audit[MealDeleted](d.Logger)),
	)
}

// RegisterReadPath wires only the query handlers. Each call builds fresh handler instances.
func RegisterReadPath(b *servicebus.Bus, d Deps) error {
	d = d.withDefaults()

	return errors.Join(
		servicebus.RegisterHandler[GetUserProfile, store.Profile](b, NewGetUserProfileHandler(d)),
		servicebus.RegisterHandler[GetDailyMacros, Macros](b, NewGetDailyMacrosHandler(d)),
		servicebus.RegisterHandler[ListMeals, []store.Meal](b, NewListMealsHandler(d)),
	)
}
