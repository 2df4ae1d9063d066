package store

import "time"

// DayLayout formats the calendar day meals are grouped by.
const DayLayout = "2006-01-02"

// Profile is a user's nutrition profile and daily targets.
type Profile struct {
	UserID        string    `db:"user_id"        json:"user_id"`
	DisplayName   string    `db:"display_name"   json:"display_name"`
	CalorieTarget int       `db:"calorie_target" json:"calorie_target"`
	ProteinG      int       `db:"protein_g"      json:"protein_g"`
	CarbsG        int       `db:"carbs_g"        json:"carbs_g"`
	FatG          int       `db:"fat_g"          json:"fat_g"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

// Meal is one logged meal.
type Meal struct {
	ID       string    `db:"id"        json:"id"`
	UserID   string    `db:"user_id"   json:"user_id"`
	Name     string    `db:"name"      json:"name"`
	Day      string    `db:"eaten_on"  json:"day"`
	EatenAt  time.Time `db:"eaten_at"  json:"eaten_at"`
	Calories int       `db:"calories"  json:"calories"`
	ProteinG int       `db:"protein_g" json:"protein_g"`
	CarbsG   int       `db:"carbs_g"   json:"carbs_g"`
	FatG     int       `db:"fat_g"     json:"fat_g"`
}
