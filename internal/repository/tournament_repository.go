package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

const tournamentColumns = `id, name, start_date, end_date, match_minutes, operating_hours`

// TournamentRepository reads and seeds tournaments.
type TournamentRepository struct {
	base
}

// NewTournamentRepository creates a new tournament repository.
func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{base{db}}
}

// FindByID loads a tournament and decodes its operating hours.
func (r *TournamentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Tournament, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ?`)
	var t models.Tournament
	if err := sqlx.GetContext(ctx, target, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tournament not found")
		}
		return nil, fmt.Errorf("find tournament: %w", err)
	}
	if err := decodeHours(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert stores a tournament, encoding its operating hours.
func (r *TournamentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, t *models.Tournament) error {
	if !t.Hours.IsZero() {
		raw, err := json.Marshal(t.Hours)
		if err != nil {
			return fmt.Errorf("encode operating hours: %w", err)
		}
		t.OperatingHours = raw
	}
	const query = `INSERT INTO tournaments (` + tournamentColumns + `)
VALUES (:id, :name, :start_date, :end_date, :match_minutes, :operating_hours)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    match_minutes = EXCLUDED.match_minutes,
    operating_hours = EXCLUDED.operating_hours`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, t); err != nil {
		return fmt.Errorf("upsert tournament: %w", err)
	}
	return nil
}

func decodeHours(t *models.Tournament) error {
	if len(t.OperatingHours) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.OperatingHours, &t.Hours); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStructural.Code, fmt.Sprintf("tournament %q has invalid operating hours", t.Name))
	}
	return nil
}
