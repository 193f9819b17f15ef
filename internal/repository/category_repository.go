package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

const categoryColumns = `id, tournament_id, name, gender, zone_size, balance`

// CategoryRepository reads and seeds categories.
type CategoryRepository struct {
	base
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{base{db}}
}

// FindByID loads a category.
func (r *CategoryRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Category, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`)
	var c models.Category
	if err := sqlx.GetContext(ctx, target, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &c, nil
}

// ListByTournament returns the categories of a tournament by name.
func (r *CategoryRepository) ListByTournament(ctx context.Context, exec sqlx.ExtContext, tournamentID string) ([]models.Category, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + categoryColumns + ` FROM categories WHERE tournament_id = ? ORDER BY name ASC`)
	var cats []models.Category
	if err := sqlx.SelectContext(ctx, target, &cats, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Upsert stores a category.
func (r *CategoryRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, c *models.Category) error {
	if c.Balance == "" {
		c.Balance = models.BalanceNone
	}
	const query = `INSERT INTO categories (` + categoryColumns + `)
VALUES (:id, :tournament_id, :name, :gender, :zone_size, :balance)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    gender = EXCLUDED.gender,
    zone_size = EXCLUDED.zone_size,
    balance = EXCLUDED.balance`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, c); err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}
