package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/config"
	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

type tournamentWriter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, t *models.Tournament) error
}

type courtWriter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, c *models.Court) error
}

type categoryWriter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, c *models.Category) error
}

type pairWriter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, p *models.Pair) error
}

// ImportWriters are the stores a tournament file is seeded into.
type ImportWriters struct {
	Tournaments tournamentWriter
	Courts      courtWriter
	Categories  categoryWriter
	Pairs       pairWriter
}

// ImportSummary counts what an import stored.
type ImportSummary struct {
	TournamentID string
	Courts       int
	Categories   int
	Pairs        int
	// SkippedReservations are court reservations, which only file mode honours.
	SkippedReservations int
}

// ImportService seeds the database from a tournament file so the fixture
// service has a roster to read.
type ImportService struct {
	writers ImportWriters
	tx      txProvider
	logger  *zap.Logger
}

// NewImportService wires the import dependencies.
func NewImportService(writers ImportWriters, tx txProvider, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{writers: writers, tx: tx, logger: logger}
}

// Import upserts the tournament, its courts, categories and pairs in one
// transaction. Existing zones and matches are left alone.
func (s *ImportService) Import(ctx context.Context, cfg *config.Config) (summary *ImportSummary, err error) {
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tournament file is required")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tournament := cfg.ModelTournament()
	if err = s.writers.Tournaments.Upsert(ctx, tx, tournament); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store tournament")
	}
	summary = &ImportSummary{TournamentID: tournament.ID}

	for _, court := range cfg.ModelCourts() {
		court := court
		if err = s.writers.Courts.Upsert(ctx, tx, &court); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store court "+court.Name)
		}
		summary.Courts++
	}
	summary.SkippedReservations = len(cfg.Reserved())

	for _, data := range cfg.ModelCategories() {
		category := data.Category
		if err = s.writers.Categories.Upsert(ctx, tx, &category); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store category "+category.Name)
		}
		summary.Categories++
		for _, pair := range data.Pairs {
			pair := pair
			if err = s.writers.Pairs.Upsert(ctx, tx, &pair); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store pair "+pair.Name())
			}
			summary.Pairs++
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to commit transaction")
	}

	s.logger.Info("tournament imported",
		zap.String("tournament_id", summary.TournamentID),
		zap.Int("courts", summary.Courts),
		zap.Int("categories", summary.Categories),
		zap.Int("pairs", summary.Pairs),
	)
	if summary.SkippedReservations > 0 {
		s.logger.Warn("court reservations are not stored; they only apply when generating from the file",
			zap.Int("reservations", summary.SkippedReservations))
	}
	return summary, nil
}
