package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

// SQL is a Factory over a pooled sqlx handle. Each Begin opens its own transaction.
type SQL struct {
	db *sqlx.DB
}

var _ Factory = (*SQL)(nil)

// NewSQL wraps an existing handle.
func NewSQL(db *sqlx.DB) *SQL { return &SQL{db: db} }

// OpenPostgres connects to dsn and returns a Factory with a cleanup that closes the pool.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, func(), error) {
	if dsn == "" {
		return nil, nil, errors.New("postgres dsn required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connect: %w", err)
	}

	return NewSQL(db), func() { _ = db.Close() }, nil
}

func (s *SQL) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &sqlUnit{tx: tx}, nil
}

type sqlUnit struct {
	tx *sqlx.Tx

	mu   sync.Mutex
	done bool
}

func (u *sqlUnit) Profiles() ProfileRepository { return sqlProfiles{tx: u.tx} }

func (u *sqlUnit) Meals() MealRepository { return sqlMeals{tx: u.tx} }

func (u *sqlUnit) Commit() error {
	if !u.finish() {
		return fmt.Errorf("commit: %w", berr.ErrUnitOfWorkClosed)
	}

	return u.tx.Commit()
}

func (u *sqlUnit) Rollback() error {
	if !u.finish() {
		return nil
	}

	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

// finish marks the unit closed and reports whether it was still open.
func (u *sqlUnit) finish() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done {
		return false
	}

	u.done = true

	return true
}

const (
	selectProfile = `SELECT user_id, display_name, calorie_target, protein_g, carbs_g, fat_g, updated_at
FROM user_profiles WHERE user_id = $1`

	upsertProfile = `INSERT INTO user_profiles
(user_id, display_name, calorie_target, protein_g, carbs_g, fat_g, updated_at)
VALUES (:user_id, :display_name, :calorie_target, :protein_g, :carbs_g, :fat_g, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET
display_name = EXCLUDED.display_name, calorie_target = EXCLUDED.calorie_target,
protein_g = EXCLUDED.protein_g, carbs_g = EXCLUDED.carbs_g, fat_g = EXCLUDED.fat_g,
updated_at = EXCLUDED.updated_at`

	insertMeal = `INSERT INTO meals
(id, user_id, name, eaten_on, eaten_at, calories, protein_g, carbs_g, fat_g)
VALUES (:id, :user_id, :name, :eaten_on, :eaten_at, :calories, :protein_g, :carbs_g, :fat_g)`

	deleteMeal = `DELETE FROM meals WHERE id = $1 AND user_id = $2
RETURNING id, user_id, name, eaten_on, eaten_at, calories, protein_g, carbs_g, fat_g`

	selectMealsByDay = `SELECT id, user_id, name, eaten_on, eaten_at, calories, protein_g, carbs_g, fat_g
FROM meals WHERE user_id = $1 AND eaten_on = $2 ORDER BY eaten_at`
)

type sqlProfiles struct{ tx *sqlx.Tx }

func (r sqlProfiles) Get(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	if err := r.tx.GetContext(ctx, &p, selectProfile, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, fmt.Errorf("profile %s: %w", userID, berr.ErrNotFound)
		}

		return Profile{}, fmt.Errorf("select profile: %w", err)
	}

	return p, nil
}

func (r sqlProfiles) Upsert(ctx context.Context, p Profile) error {
	if _, err := r.tx.NamedExecContext(ctx, upsertProfile, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

type sqlMeals struct{ tx *sqlx.Tx }

func (r sqlMeals) Add(ctx context.Context, m Meal) error {
	if _, err := r.tx.NamedExecContext(ctx, insertMeal, m); err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}

	return nil
}

func (r sqlMeals) Delete(ctx context.Context, userID, mealID string) (Meal, error) {
	var m Meal
	if err := r.tx.GetContext(ctx, &m, deleteMeal, mealID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Meal{}, fmt.Errorf("meal %s: %w", mealID, berr.ErrNotFound)
		}

		return Meal{}, fmt.Errorf("delete meal: %w", err)
	}

	return m, nil
}

func (r sqlMeals) ListByDay(ctx context.Context, userID, day string) ([]Meal, error) {
	meals := []Meal{}
	if err := r.tx.SelectContext(ctx, &meals, selectMealsByDay, userID, day); err != nil {
		return nil, fmt.Errorf("select meals: %w", err)
	}

	return meals, nil
}
