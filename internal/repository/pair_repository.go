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

const pairColumns = `id, category_id, player1_id, player1_name, player2_id, player2_name, state, rating, restrictions`

// PairRepository reads and seeds pairs. Registration itself lives elsewhere.
type PairRepository struct {
	base
}

// NewPairRepository creates a new pair repository.
func NewPairRepository(db *sqlx.DB) *PairRepository {
	return &PairRepository{base{db}}
}

// FindByID loads a pair.
func (r *PairRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Pair, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + pairColumns + ` FROM pairs WHERE id = ?`)
	var p models.Pair
	if err := sqlx.GetContext(ctx, target, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pair not found")
		}
		return nil, fmt.Errorf("find pair: %w", err)
	}
	return &p, nil
}

// ListByCategory returns every pair of a category in registration order.
func (r *PairRepository) ListByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) ([]models.Pair, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + pairColumns + ` FROM pairs WHERE category_id = ? ORDER BY id ASC`)
	var pairs []models.Pair
	if err := sqlx.SelectContext(ctx, target, &pairs, query, categoryID); err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	return pairs, nil
}

// ListByIDs returns the pairs with the given ids, in any category.
func (r *PairRepository) ListByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]models.Pair, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	target := r.exec(exec)
	query, args, err := in(target, `SELECT `+pairColumns+` FROM pairs WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list pairs by id: %w", err)
	}
	var pairs []models.Pair
	if err := sqlx.SelectContext(ctx, target, &pairs, query, args...); err != nil {
		return nil, fmt.Errorf("list pairs by id: %w", err)
	}
	return pairs, nil
}

// Upsert stores a pair.
func (r *PairRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, p *models.Pair) error {
	const query = `INSERT INTO pairs (` + pairColumns + `)
VALUES (:id, :category_id, :player1_id, :player1_name, :player2_id, :player2_name, :state, :rating, :restrictions)
ON CONFLICT (id) DO UPDATE
SET player1_id = EXCLUDED.player1_id,
    player1_name = EXCLUDED.player1_name,
    player2_id = EXCLUDED.player2_id,
    player2_name = EXCLUDED.player2_name,
    state = EXCLUDED.state,
    rating = EXCLUDED.rating,
    restrictions = EXCLUDED.restrictions`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, p); err != nil {
		return fmt.Errorf("upsert pair: %w", err)
	}
	return nil
}
