package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"mealmax/internal/database"
	"mealmax/internal/models"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrMealNotFound   = errors.New("meal not found")
	ErrMealDeleted    = errors.New("meal has been deleted")
	ErrDuplicateName  = errors.New("meal name already exists")
	ErrInvalidResult  = errors.New("invalid result: expected 'win' or 'loss'")
	ErrInvalidSortKey = errors.New("invalid sort_by parameter")
)

// Battle outcome values accepted by UpdateStats
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// Leaderboard sort keys
const (
	SortByWins   = "wins"
	SortByWinPct = "win_pct"
)

// MealRepository defines the interface for meal data access
type MealRepository interface {
	Create(ctx context.Context, name, cuisine string, price float64, difficulty models.Difficulty) (int64, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Meal, error)
	GetByName(ctx context.Context, name string) (*models.Meal, error)
	UpdateStats(ctx context.Context, id int64, result string) error
	Leaderboard(ctx context.Context, sortBy string) ([]models.LeaderboardEntry, error)
	Reset(ctx context.Context) error
}

// SQLiteMealRepository implements MealRepository over a SQLite meals table
type SQLiteMealRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteMealRepository creates a new SQLite-backed meal repository
func NewSQLiteMealRepository(db *sql.DB, logger *slog.Logger) *SQLiteMealRepository {
	return &SQLiteMealRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new meal row and returns its assigned id.
// A uniqueness violation on the meal name maps to ErrDuplicateName; any
// other storage error propagates to the caller unchanged.
func (r *SQLiteMealRepository) Create(ctx context.Context, name, cuisine string, price float64, difficulty models.Difficulty) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (meal, cuisine, price, difficulty) VALUES (?, ?, ?, ?)`,
		name, cuisine, price, string(difficulty),
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Error("duplicate meal name", "meal", name)
			return 0, fmt.Errorf("meal with name '%s' already exists: %w", name, ErrDuplicateName)
		}
		r.logger.Error("database error", "error", err)
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	r.logger.Info("meal successfully added to the database", "meal", name, "id", id)
	return id, nil
}

// Delete marks a meal as deleted. A missing row fails with ErrMealNotFound
// and a row whose flag is already set fails with ErrMealDeleted.
func (r *SQLiteMealRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var deleted bool
	err = tx.QueryRowContext(ctx, `SELECT deleted FROM meals WHERE id = ?`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		r.logger.Info("meal not found", "id", id)
		return fmt.Errorf("meal with ID %d not found: %w", id, ErrMealNotFound)
	}
	if err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}
	if deleted {
		r.logger.Info("meal has already been deleted", "id", id)
		return fmt.Errorf("meal with ID %d has been deleted: %w", id, ErrMealDeleted)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meals SET deleted = TRUE WHERE id = ?`, id); err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info("meal marked as deleted", "id", id)
	return nil
}

// GetByID retrieves a meal by id. Retrieval of a soft-deleted row is an
// error, never a silent filter.
func (r *SQLiteMealRepository) GetByID(ctx context.Context, id int64) (*models.Meal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, meal, cuisine, price, difficulty, deleted, battles, wins FROM meals WHERE id = ?`, id)

	meal, deleted, err := scanMeal(row)
	if err == sql.ErrNoRows {
		r.logger.Info("meal not found", "id", id)
		return nil, fmt.Errorf("meal with ID %d not found: %w", id, ErrMealNotFound)
	}
	if err != nil {
		r.logger.Error("database error", "error", err)
		return nil, err
	}
	if deleted {
		r.logger.Info("meal has been deleted", "id", id)
		return nil, fmt.Errorf("meal with ID %d has been deleted: %w", id, ErrMealDeleted)
	}

	return meal, nil
}

// GetByName retrieves a meal by its unique name.
func (r *SQLiteMealRepository) GetByName(ctx context.Context, name string) (*models.Meal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, meal, cuisine, price, difficulty, deleted, battles, wins FROM meals WHERE meal = ?`, name)

	meal, deleted, err := scanMeal(row)
	if err == sql.ErrNoRows {
		r.logger.Info("meal not found", "meal", name)
		return nil, fmt.Errorf("meal with name %s not found: %w", name, ErrMealNotFound)
	}
	if err != nil {
		r.logger.Error("database error", "error", err)
		return nil, err
	}
	if deleted {
		r.logger.Info("meal has been deleted", "meal", name)
		return nil, fmt.Errorf("meal with name %s has been deleted: %w", name, ErrMealDeleted)
	}

	return meal, nil
}

// UpdateStats increments the battle counters for a meal after a battle.
// A 'win' increments battles and wins, a 'loss' increments only battles.
// The not-found/deleted check and the update run in one transaction so no
// update is ever applied to a nonexistent or deleted row.
func (r *SQLiteMealRepository) UpdateStats(ctx context.Context, id int64, result string) error {
	if result != ResultWin && result != ResultLoss {
		return fmt.Errorf("got %q: %w", result, ErrInvalidResult)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var deleted bool
	err = tx.QueryRowContext(ctx, `SELECT deleted FROM meals WHERE id = ?`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		r.logger.Info("meal not found", "id", id)
		return fmt.Errorf("meal with ID %d not found: %w", id, ErrMealNotFound)
	}
	if err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}
	if deleted {
		r.logger.Info("meal has been deleted", "id", id)
		return fmt.Errorf("meal with ID %d has been deleted: %w", id, ErrMealDeleted)
	}

	if result == ResultWin {
		_, err = tx.ExecContext(ctx, `UPDATE meals SET battles = battles + 1, wins = wins + 1 WHERE id = ?`, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE meals SET battles = battles + 1 WHERE id = ?`, id)
	}
	if err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}

	return tx.Commit()
}

// Leaderboard returns all non-deleted meals with at least one battle,
// ordered descending by the requested key. Meals with zero battles are
// excluded entirely so win_pct is always defined.
func (r *SQLiteMealRepository) Leaderboard(ctx context.Context, sortBy string) ([]models.LeaderboardEntry, error) {
	query := `SELECT id, meal, cuisine, price, difficulty, battles, wins, (wins * 1.0 / battles) AS win_pct
		FROM meals WHERE deleted = FALSE AND battles > 0`

	switch sortBy {
	case SortByWinPct:
		query += ` ORDER BY win_pct DESC`
	case SortByWins:
		query += ` ORDER BY wins DESC`
	default:
		r.logger.Error("invalid sort_by parameter", "sort_by", sortBy)
		return nil, fmt.Errorf("got %q: %w", sortBy, ErrInvalidSortKey)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("database error", "error", err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		var difficulty string
		var winPct float64
		if err := rows.Scan(&e.ID, &e.Name, &e.Cuisine, &e.Price, &difficulty, &e.Battles, &e.Wins, &winPct); err != nil {
			r.logger.Error("database error", "error", err)
			return nil, err
		}
		e.Difficulty = models.Difficulty(difficulty)
		e.WinPct = math.Round(winPct*1000) / 10
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("database error", "error", err)
		return nil, err
	}

	r.logger.Info("leaderboard retrieved successfully", "entries", len(entries))
	return entries, nil
}

// Reset drops the meals table and recreates it from the schema script.
func (r *SQLiteMealRepository) Reset(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meals`).Scan(&count); err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}
	if count == 0 {
		r.logger.Info("no meals to clear")
	}

	schema, err := database.Schema()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DROP TABLE IF EXISTS meals`); err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		r.logger.Error("database error", "error", err)
		return err
	}

	r.logger.Info("meals table reset", "rows_cleared", count)
	return nil
}

func scanMeal(row *sql.Row) (*models.Meal, bool, error) {
	var m models.Meal
	var difficulty string
	var deleted bool
	err := row.Scan(&m.ID, &m.Name, &m.Cuisine, &m.Price, &difficulty, &deleted, &m.Battles, &m.Wins)
	if err != nil {
		return nil, false, err
	}
	m.Difficulty = models.Difficulty(difficulty)
	return &m, deleted, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
