package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/derekprior/padelfix/internal/models"
)

// CourtRepository reads and seeds courts.
type CourtRepository struct {
	base
}

// NewCourtRepository creates a new court repository.
func NewCourtRepository(db *sqlx.DB) *CourtRepository {
	return &CourtRepository{base{db}}
}

// ListByTournament returns every court of a tournament, active or not.
func (r *CourtRepository) ListByTournament(ctx context.Context, exec sqlx.ExtContext, tournamentID string) ([]models.Court, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT id, tournament_id, name, active, position FROM courts WHERE tournament_id = ? ORDER BY position ASC, id ASC`)
	var courts []models.Court
	if err := sqlx.SelectContext(ctx, target, &courts, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	return courts, nil
}

// Upsert stores a court.
func (r *CourtRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, c *models.Court) error {
	const query = `INSERT INTO courts (id, tournament_id, name, active, position)
VALUES (:id, :tournament_id, :name, :active, :position)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    active = EXCLUDED.active,
    position = EXCLUDED.position`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, c); err != nil {
		return fmt.Errorf("upsert court: %w", err)
	}
	return nil
}
