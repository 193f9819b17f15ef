package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

const matchColumns = `id, category_id, zone_id, phase, pair1_id, pair2_id, court_id, starts_at, state, origin, diagnostic, created_at`

// MatchRepository persists fixture matches.
type MatchRepository struct {
	base
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{base{db}}
}

// FindByID loads a match.
func (r *MatchRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Match, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + matchColumns + ` FROM matches WHERE id = ?`)
	var m models.Match
	if err := sqlx.GetContext(ctx, target, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, fmt.Errorf("find match: %w", err)
	}
	return &m, nil
}

// ListByCategory returns a category's matches, scheduled ones chronologically
// first.
func (r *MatchRepository) ListByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) ([]models.Match, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + matchColumns + ` FROM matches WHERE category_id = ?
ORDER BY CASE WHEN starts_at IS NULL THEN 1 ELSE 0 END, starts_at ASC, court_id ASC, created_at ASC, id ASC`)
	var matches []models.Match
	if err := sqlx.SelectContext(ctx, target, &matches, query, categoryID); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// ListScheduledByTournament returns the scheduled matches of every other
// category of the tournament. They hold courts and players the assigner must
// respect.
func (r *MatchRepository) ListScheduledByTournament(ctx context.Context, exec sqlx.ExtContext, tournamentID, excludeCategoryID string) ([]models.Match, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT m.id, m.category_id, m.zone_id, m.phase, m.pair1_id, m.pair2_id, m.court_id, m.starts_at, m.state, m.origin, m.diagnostic, m.created_at
FROM matches m JOIN categories c ON c.id = m.category_id
WHERE c.tournament_id = ? AND m.category_id <> ? AND m.state = ?`)
	var matches []models.Match
	if err := sqlx.SelectContext(ctx, target, &matches, query, tournamentID, excludeCategoryID, models.MatchScheduled); err != nil {
		return nil, fmt.Errorf("list tournament bookings: %w", err)
	}
	return matches, nil
}

// CountByCategory counts a category's matches.
func (r *MatchRepository) CountByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) (int, error) {
	target := r.exec(exec)
	var n int
	if err := sqlx.GetContext(ctx, target, &n, target.Rebind(`SELECT COUNT(*) FROM matches WHERE category_id = ?`), categoryID); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return n, nil
}

// DeleteAutoByCategory removes generated matches and keeps manual ones.
func (r *MatchRepository) DeleteAutoByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) (int64, error) {
	target := r.exec(exec)
	res, err := target.ExecContext(ctx, target.Rebind(`DELETE FROM matches WHERE category_id = ? AND origin = ?`), categoryID, models.OriginAuto)
	if err != nil {
		return 0, fmt.Errorf("delete generated matches: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByZones removes every match, manual or not, of the given zones.
func (r *MatchRepository) DeleteByZones(ctx context.Context, exec sqlx.ExtContext, zoneIDs []string) (int64, error) {
	if len(zoneIDs) == 0 {
		return 0, nil
	}
	target := r.exec(exec)
	query, args, err := in(target, `DELETE FROM matches WHERE zone_id IN (?)`, zoneIDs)
	if err != nil {
		return 0, fmt.Errorf("delete zone matches: %w", err)
	}
	res, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete zone matches: %w", err)
	}
	return res.RowsAffected()
}

// BulkCreate inserts matches, assigning ids and creation times as needed.
func (r *MatchRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, matches []models.Match) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO matches (` + matchColumns + `)
VALUES (:id, :category_id, :zone_id, :phase, :pair1_id, :pair2_id, :court_id, :starts_at, :state, :origin, :diagnostic, :created_at)`
	for i := range matches {
		m := &matches[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, m); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}
	return nil
}

// UpdateSlot stores a match's court, start, state, origin and diagnostic.
func (r *MatchRepository) UpdateSlot(ctx context.Context, exec sqlx.ExtContext, m *models.Match) error {
	const query = `UPDATE matches SET court_id = :court_id, starts_at = :starts_at, state = :state, origin = :origin, diagnostic = :diagnostic WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, m)
	if err != nil {
		return fmt.Errorf("update match slot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "match not found")
	}
	return nil
}
