package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

// Memory is an in-process Factory for tests and the demo. A unit reads from a private copy
// of the data taken at Begin and records the keys it writes. Commit applies only those keys;
// concurrent units writing the same key resolve last commit wins.
type Memory struct {
	mu       sync.Mutex
	profiles map[string]Profile
	meals    map[string]Meal
}

var _ Factory = (*Memory)(nil)

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{profiles: map[string]Profile{}, meals: map[string]Meal{}}
}

func (m *Memory) Begin(ctx context.Context) (UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u := &memoryUnit{
		parent:        m,
		profiles:      make(map[string]Profile, len(m.profiles)),
		meals:         make(map[string]Meal, len(m.meals)),
		dirtyProfiles: map[string]struct{}{},
		dirtyMeals:    map[string]struct{}{},
	}
	for k, v := range m.profiles {
		u.profiles[k] = v
	}

	for k, v := range m.meals {
		u.meals[k] = v
	}

	return u, nil
}

type memoryUnit struct {
	parent *Memory

	mu       sync.Mutex
	profiles map[string]Profile
	meals    map[string]Meal
	done     bool

	// keys written by this unit; a dirty key missing from meals was deleted
	dirtyProfiles map[string]struct{}
	dirtyMeals    map[string]struct{}
}

func (u *memoryUnit) Profiles() ProfileRepository { return memoryProfiles{u} }

func (u *memoryUnit) Meals() MealRepository { return memoryMeals{u} }

func (u *memoryUnit) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done {
		return fmt.Errorf("commit: %w", berr.ErrUnitOfWorkClosed)
	}

	u.done = true

	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()

	for id := range u.dirtyProfiles {
		u.parent.profiles[id] = u.profiles[id]
	}

	for id := range u.dirtyMeals {
		if m, ok := u.meals[id]; ok {
			u.parent.meals[id] = m
		} else {
			delete(u.parent.meals, id)
		}
	}

	return nil
}

func (u *memoryUnit) Rollback() error {
	u.mu.Lock()
	u.done = true
	u.mu.Unlock()

	return nil
}

func (u *memoryUnit) open() error {
	if u.done {
		return berr.ErrUnitOfWorkClosed
	}

	return nil
}

type memoryProfiles struct{ u *memoryUnit }

func (r memoryProfiles) Get(_ context.Context, userID string) (Profile, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()

	if err := r.u.open(); err != nil {
		return Profile{}, err
	}

	p, ok := r.u.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, berr.ErrNotFound)
	}

	return p, nil
}

func (r memoryProfiles) Upsert(_ context.Context, p Profile) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()

	if err := r.u.open(); err != nil {
		return err
	}

	r.u.profiles[p.UserID] = p
	r.u.dirtyProfiles[p.UserID] = struct{}{}

	return nil
}

type memoryMeals struct{ u *memoryUnit }

func (r memoryMeals) Add(_ context.Context, m Meal) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()

	if err := r.u.open(); err != nil {
		return err
	}

	r.u.meals[m.ID] = m
	r.u.dirtyMeals[m.ID] = struct{}{}

	return nil
}

func (r memoryMeals) Delete(_ context.Context, userID, mealID string) (Meal, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()

	if err := r.u.open(); err != nil {
		return Meal{}, err
	}

	m, ok := r.u.meals[mealID]
	if !ok || m.UserID != userID {
		return Meal{}, fmt.Errorf("meal %s: %w", mealID, berr.ErrNotFound)
	}

	delete(r.u.meals, mealID)
	r.u.dirtyMeals[mealID] = struct{}{}

	return m, nil
}

func (r memoryMeals) ListByDay(_ context.Context, userID, day string) ([]Meal, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()

	if err := r.u.open(); err != nil {
		return nil, err
	}

	out := []Meal{}
	for _, m := range r.u.meals {
		if m.UserID == userID && m.Day == day {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EatenAt.Before(out[j].EatenAt) })

	return out, nil
}
