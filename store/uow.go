package store

import (
	"context"
	"errors"
	"fmt"
)

// ProfileRepository reads and writes profiles inside a unit of work.
type ProfileRepository interface {
	// Get returns ErrNotFound when the user has no profile.
	Get(ctx context.Context, userID string) (Profile, error)
	Upsert(ctx context.Context, p Profile) error
}

// MealRepository reads and writes meals inside a unit of work.
type MealRepository interface {
	Add(ctx context.Context, m Meal) error
	// Delete removes the meal and returns it; ErrNotFound when it does not belong to the user.
	Delete(ctx context.Context, userID, mealID string) (Meal, error)
	ListByDay(ctx context.Context, userID, day string) ([]Meal, error)
}

// UnitOfWork exposes the named repositories of one transaction and its explicit end.
// Commit and Rollback may each be called once; after either, the other is a no-op.
type UnitOfWork interface {
	Profiles() ProfileRepository
	Meals() MealRepository
	Commit() error
	Rollback() error
}

// Factory begins units of work. Implementations hand out a fresh transaction per call
// and are the only thing shared between concurrent requests.
type Factory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Do runs fn inside a fresh unit of work. It commits when fn returns nil and rolls back
// on error or panic; the panic is re-raised after the rollback.
func Do(ctx context.Context, f Factory, fn func(uow UnitOfWork) error) (err error) {
	uow, err := f.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback() //nolint:errcheck // the panic wins
			panic(r)
		}
	}()

	if err = fn(uow); err != nil {
		if rerr := uow.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}

		return err
	}

	if err = uow.Commit(); err != nil {
		_ = uow.Rollback() //nolint:errcheck // already failing
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
