package store_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/store"
)

func TestMemoryCommitAndRollback(t *testing.T) {
	ctx := t.Context()
	db := store.NewMemory()

	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		return uow.Profiles().Upsert(ctx, store.Profile{UserID: "u1", DisplayName: "Ana"})
	}))

	rollback := errors.New("validation failed")
	err := store.Do(ctx, db, func(uow store.UnitOfWork) error {
		_ = uow.Profiles().Upsert(ctx, store.Profile{UserID: "u1", DisplayName: "Changed"})
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		p, err := uow.Profiles().Get(ctx, "u1")
		assert.Equal(t, "Ana", p.DisplayName, "rolled back write must not be visible")

		return err
	}))
}

func TestMemoryMeals(t *testing.T) {
	ctx := t.Context()
	db := store.NewMemory()
	base := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)

	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		for i, name := range []string{"Lunch", "Breakfast"} {
			m := store.Meal{ID: name, UserID: "u1", Name: name, Day: "2026-10-19", EatenAt: base.Add(time.Duration(-i) * time.Hour)}
			if err := uow.Meals().Add(ctx, m); err != nil {
				return err
			}
		}

		return uow.Meals().Add(ctx, store.Meal{ID: "other", UserID: "u2", Day: "2026-10-19"})
	}))

	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		meals, err := uow.Meals().ListByDay(ctx, "u1", "2026-10-19")
		require.NoError(t, err)
		require.Len(t, meals, 2)
		assert.Equal(t, "Breakfast", meals[0].Name)

		_, err = uow.Meals().Delete(ctx, "u1", "other")
		assert.ErrorIs(t, err, berr.ErrNotFound, "meal of another user")

		_, err = uow.Meals().Delete(ctx, "u1", "Lunch")

		return err
	}))

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())

	_, err = uow.Profiles().Get(ctx, "u1")
	assert.ErrorIs(t, err, berr.ErrUnitOfWorkClosed)
}

func TestMemoryConcurrentCommitsKeepEveryWrite(t *testing.T) {
	ctx := t.Context()
	db := store.NewMemory()
	day := "2026-10-19"

	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		return uow.Meals().Add(ctx, store.Meal{ID: "gone", UserID: "u0", Day: day})
	}))

	// both units open before either commits, so each starts from the same snapshot
	first, err := db.Begin(ctx)
	require.NoError(t, err)
	second, err := db.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, first.Meals().Add(ctx, store.Meal{ID: "a", UserID: "u1", Day: day}))
	require.NoError(t, first.Profiles().Upsert(ctx, store.Profile{UserID: "u1", DisplayName: "Ana"}))
	require.NoError(t, second.Meals().Add(ctx, store.Meal{ID: "b", UserID: "u2", Day: day}))
	_, err = second.Meals().Delete(ctx, "u0", "gone")
	require.NoError(t, err)

	require.NoError(t, first.Commit())
	require.NoError(t, second.Commit())

	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		for _, user := range []string{"u1", "u2"} {
			list, err := uow.Meals().ListByDay(ctx, user, day)
			require.NoError(t, err)
			assert.Len(t, list, 1, user)
		}

		gone, err := uow.Meals().ListByDay(ctx, "u0", day)
		require.NoError(t, err)
		assert.Empty(t, gone)

		p, err := uow.Profiles().Get(ctx, "u1")
		assert.Equal(t, "Ana", p.DisplayName)

		return err
	}))
}

func TestMemoryParallelUnitsOfWork(t *testing.T) {
	ctx := t.Context()
	db := store.NewMemory()

	const writers = 32

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			id := fmt.Sprintf("m-%d", i)
			assert.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
				return uow.Meals().Add(ctx, store.Meal{ID: id, UserID: fmt.Sprintf("u%d", i%4), Day: "2026-10-19"})
			}))
		}()
	}
	wg.Wait()

	total := 0
	require.NoError(t, store.Do(ctx, db, func(uow store.UnitOfWork) error {
		for u := range 4 {
			list, err := uow.Meals().ListByDay(ctx, fmt.Sprintf("u%d", u), "2026-10-19")
			if err != nil {
				return err
			}
			total += len(list)
		}

		return nil
	}))
	assert.Equal(t, writers, total)
}
