package meals

import (
	"time"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	"github.com/next-trace/scg-meal-bus/store"
)

// Queries.

type GetUserProfile struct{ UserID string }

type GetDailyMacros struct {
	UserID string
	Day    string // YYYY-MM-DD
}

type ListMeals struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"`
}

var (
	_ cbus.Query = GetUserProfile{}
	_ cbus.Query = GetDailyMacros{}
	_ cbus.Query = ListMeals{}
)

// Commands.

type UpdateUserProfile struct {
	UserID        string
	DisplayName   string
	CalorieTarget int
	ProteinG      int
	CarbsG        int
	FatG          int
}

type LogMeal struct {
	UserID   string
	Name     string
	EatenAt  time.Time
	Calories int
	ProteinG int
	CarbsG   int
	FatG     int
}

type DeleteMeal struct {
	UserID string
	MealID string
}

var (
	_ cbus.Command = UpdateUserProfile{}
	_ cbus.Command = LogMeal{}
	_ cbus.Command = DeleteMeal{}
)

// Events.

type UserProfileUpdated struct {
	cbus.Base
	CalorieTarget int `json:"calorie_target"`
}

type MealLogged struct {
	cbus.Base
	UserID   string `json:"user_id"`
	Day      string `json:"day"`
	Calories int    `json:"calories"`
}

type MealDeleted struct {
	cbus.Base
	UserID string `json:"user_id"`
	Day    string `json:"day"`
}

var (
	_ cbus.DomainEvent = UserProfileUpdated{}
	_ cbus.DomainEvent = MealLogged{}
	_ cbus.DomainEvent = MealDeleted{}
)

// Macros is the per-day summary GetDailyMacros returns.
type Macros struct {
	UserID        string `json:"user_id"`
	Day           string `json:"day"`
	Meals         int    `json:"meals"`
	Calories      int    `json:"calories"`
	ProteinG      int    `json:"protein_g"`
	CarbsG        int    `json:"carbs_g"`
	FatG          int    `json:"fat_g"`
	CalorieTarget int    `json:"calorie_target"`
	Remaining     int    `json:"remaining"`
}

func sumMacros(userID, day string, target int, meals []store.Meal) Macros {
	m := Macros{UserID: userID, Day: day, Meals: len(meals), CalorieTarget: target}
	for _, meal := range meals {
		m.Calories += meal.Calories
		m.ProteinG += meal.ProteinG
		m.CarbsG += meal.CarbsG
		m.FatG += meal.FatG
	}

	if target > 0 {
		m.Remaining = target - m.Calories
	}

	return m
}
