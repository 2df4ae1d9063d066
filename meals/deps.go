package meals

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-meal-bus/cache"
	"github.com/next-trace/scg-meal-bus/store"
)

// Cache keys and patterns.
const (
	domainUser  = "user"
	domainDaily = "daily"
	domainMeal  = "meal"
)

func profileKey(userID string) string { return cache.Key(domainUser, "profile", userID) }

func macrosKey(userID, day string) string { return cache.Key(domainDaily, "macros", userID, day) }

func macrosPattern(userID string) string { return cache.Pattern(domainDaily, "macros", userID) }

var mealListPrefix = cache.Key(domainMeal, "list")

// Deps bundles the collaborators handlers are built with.
type Deps struct {
	Store  store.Factory
	Cache  *cache.Service
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
	// ProfileTTL and MacrosTTL override the cache default ttl.
	ProfileTTL time.Duration
	MacrosTTL  time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Disabled()
	}

	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Now == nil {
		d.Now = time.Now
	}

	if d.NewID == nil {
		d.NewID = uuid.NewString
	}

	return d
}
