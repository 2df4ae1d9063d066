package app

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/meals"
	"github.com/next-trace/scg-meal-bus/relay/inmemory"
	"github.com/next-trace/scg-meal-bus/servicebus"
	"github.com/next-trace/scg-meal-bus/store"
)

var envKeys = []string{
	"CACHE_ENABLED", "CACHE_DEFAULT_TTL", "REDIS_ADDR", "REDIS_DB",
	"DATABASE_URL", "RELAY_KIND", "RELAY_URL", "LOG_LEVEL",
}

// isolate unsets every config variable and moves into an empty directory so no .env is found.
func isolate(t *testing.T) {
	t.Helper()

	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	t.Chdir(t.TempDir())
}

func resetSingletons(t *testing.T) {
	t.Helper()

	shared, configured, lightweight = &infra{}, &memo{}, &memo{}
	t.Cleanup(func() { shared, configured, lightweight = &infra{}, &memo{}, &memo{} })
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var lunch = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CacheDefaultTTL)
	assert.Equal(t, RelayNone, cfg.RelayKind)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_EnvFileAndEnvironment(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CACHE_DEFAULT_TTL=90s\nRELAY_KIND=inmemory\nREDIS_DB=3\n"), 0o600))
	t.Setenv("REDIS_DB", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.CacheDefaultTTL)
	assert.Equal(t, RelayInMemory, cfg.RelayKind)
	assert.Equal(t, 5, cfg.RedisDB, "the environment wins over the file")
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{RelayKind: RelayNone}.Validate())
	assert.NoError(t, Config{RelayKind: RelayNATS, RelayURL: "nats://localhost:4222"}.Validate())
	assert.Error(t, Config{RelayKind: RelayKafka}.Validate())
	assert.Error(t, Config{RelayKind: "carrier-pigeon"}.Validate())
	assert.Error(t, Config{CacheDefaultTTL: -time.Second}.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer

	Config{LogLevel: "warn"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	Config{LogLevel: "nonsense"}.NewLogger(&buf).Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuild_WiresCommandsSubscribersAndRelay(t *testing.T) {
	pub := inmemory.New()
	reg := prometheus.NewRegistry()

	c, err := Build(t.Context(), Config{CacheEnabled: true}, Deps{
		Relay:      pub,
		Logger:     quiet(),
		Registerer: reg,
		Now:        func() time.Time { return lunch },
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.Bus.Send(t.Context(), meals.LogMeal{UserID: "u1", Name: "Rice", Calories: 500})
	require.NoError(t, err)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "events.MealLogged", msgs[0].Subject)

	// the warmer read the macros through the cache
	n, err := testutil.GatherAndCount(reg, "mealbus_cache_lookups_total")
	require.NoError(t, err)
	assert.Positive(t, n)

	err = c.Bus.RegisterHandlerOf(meals.LogMeal{}, nil)
	assert.ErrorIs(t, err, berr.ErrRegistryFrozen)
}

func TestBuildReadPath_QueriesOnly(t *testing.T) {
	c, err := BuildReadPath(t.Context(), Config{CacheEnabled: true}, Deps{Relay: inmemory.New(), Logger: quiet()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.Nil(t, c.Relay)
	assert.True(t, c.Bus.HasHandler(meals.GetDailyMacros{}))
	assert.False(t, c.Bus.HasHandler(meals.UpdateUserProfile{}))

	m, err := servicebus.Send[meals.GetDailyMacros, meals.Macros](t.Context(), c.Bus, meals.GetDailyMacros{UserID: "u1", Day: "2026-10-19"})
	require.NoError(t, err)
	assert.Zero(t, m.Calories)
}

func TestBuild_CacheDisabled(t *testing.T) {
	c, err := Build(t.Context(), Config{CacheEnabled: false}, Deps{Logger: quiet()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.False(t, c.Cache.Enabled())
	assert.Nil(t, c.Relay)
}

func TestBuild_InvalidConfig(t *testing.T) {
	_, err := Build(t.Context(), Config{RelayKind: "smoke-signal"}, Deps{Logger: quiet()})
	assert.Error(t, err)
}

func TestSingletons(t *testing.T) {
	isolate(t)
	resetSingletons(t)

	full, err := Configured(t.Context())
	require.NoError(t, err)

	again, err := Configured(t.Context())
	require.NoError(t, err)
	assert.Same(t, full, again)

	light, err := Lightweight(t.Context())
	require.NoError(t, err)

	lightAgain, err := Lightweight(t.Context())
	require.NoError(t, err)
	assert.Same(t, light, lightAgain)

	assert.NotSame(t, full.Bus, light.Bus)
	assert.True(t, full.Bus.HasHandler(meals.LogMeal{}))
	assert.False(t, light.Bus.HasHandler(meals.LogMeal{}))
}

func TestSingletons_ReadPathSeesWritesAndInvalidations(t *testing.T) {
	isolate(t)
	resetSingletons(t)
	ctx := t.Context()

	full, err := Configured(ctx)
	require.NoError(t, err)

	light, err := Lightweight(ctx)
	require.NoError(t, err)

	assert.Same(t, full.Store, light.Store)
	assert.Same(t, full.KV, light.KV)

	_, err = servicebus.Send[meals.UpdateUserProfile, cbus.Outcome](ctx, full.Bus, meals.UpdateUserProfile{UserID: "u1", CalorieTarget: 2000})
	require.NoError(t, err)

	p, err := servicebus.Send[meals.GetUserProfile, store.Profile](ctx, light.Bus, meals.GetUserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2000, p.CalorieTarget)

	// the read above cached the profile; the next write must drop it for both buses
	_, err = servicebus.Send[meals.UpdateUserProfile, cbus.Outcome](ctx, full.Bus, meals.UpdateUserProfile{UserID: "u1", CalorieTarget: 1800})
	require.NoError(t, err)

	p, err = servicebus.Send[meals.GetUserProfile, store.Profile](ctx, light.Bus, meals.GetUserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1800, p.CalorieTarget)
}

func TestConfigured_ConcurrentSendsKeepEveryMeal(t *testing.T) {
	isolate(t)
	resetSingletons(t)
	ctx := t.Context()

	full, err := Configured(ctx)
	require.NoError(t, err)

	light, err := Lightweight(ctx)
	require.NoError(t, err)

	const users, perUser = 4, 8

	var wg sync.WaitGroup
	for i := range users * perUser {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := full.Bus.Send(ctx, meals.LogMeal{
				UserID: fmt.Sprintf("u%d", i%users), Name: "Snack", EatenAt: lunch, Calories: 100,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for u := range users {
		list, err := servicebus.Send[meals.ListMeals, []store.Meal](ctx, light.Bus, meals.ListMeals{UserID: fmt.Sprintf("u%d", u), Day: "2026-10-19"})
		require.NoError(t, err)
		assert.Len(t, list, perUser)
	}
}

func TestConfigured_MemoizesBuildError(t *testing.T) {
	isolate(t)
	resetSingletons(t)
	t.Setenv("RELAY_KIND", "bogus")

	_, err := Configured(t.Context())
	require.Error(t, err)

	t.Setenv("RELAY_KIND", RelayNone)

	_, err2 := Configured(t.Context())
	assert.Equal(t, err, err2)
}
