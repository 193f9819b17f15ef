// Package service runs fixture operations against the database: each one
// holds the category lock and commits or rolls back as a whole.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/availability"
	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/lock"
	"github.com/derekprior/padelfix/internal/metrics"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
	"github.com/derekprior/padelfix/internal/strategy"
)

type tournamentReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Tournament, error)
}

type courtReader interface {
	ListByTournament(ctx context.Context, exec sqlx.ExtContext, tournamentID string) ([]models.Court, error)
}

type categoryReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Category, error)
}

type pairReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Pair, error)
	ListByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) ([]models.Pair, error)
	ListByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]models.Pair, error)
}

type zoneStore interface {
	ListByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) ([]models.Zone, error)
	ReplaceForCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string, zones []models.Zone) error
	SetMembers(ctx context.Context, exec sqlx.ExtContext, zoneID string, pairIDs []string) error
}

type matchStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Match, error)
	ListByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) ([]models.Match, error)
	ListScheduledByTournament(ctx context.Context, exec sqlx.ExtContext, tournamentID, excludeCategoryID string) ([]models.Match, error)
	CountByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) (int, error)
	DeleteAutoByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) (int64, error)
	DeleteByZones(ctx context.Context, exec sqlx.ExtContext, zoneIDs []string) (int64, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, matches []models.Match) error
	UpdateSlot(ctx context.Context, exec sqlx.ExtContext, m *models.Match) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Repositories bundles the stores the fixture service reads and writes.
type Repositories struct {
	Tournaments tournamentReader
	Courts      courtReader
	Categories  categoryReader
	Pairs       pairReader
	Zones       zoneStore
	Matches     matchStore
}

// FixtureConfig selects the algorithms and rules of a run.
type FixtureConfig struct {
	Strategy string
	Assigner string
	Rules    schedule.Rules
}

// FixtureService generates, clears and edits category fixtures.
type FixtureService struct {
	tournaments tournamentReader
	courts      courtReader
	categories  categoryReader
	pairs       pairReader
	zones       zoneStore
	matches     matchStore

	tx        txProvider
	locker    lock.Locker
	metrics   *metrics.Metrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       FixtureConfig
}

// NewFixtureService wires the fixture service dependencies.
func NewFixtureService(
	repos Repositories,
	tx txProvider,
	locker lock.Locker,
	m *metrics.Metrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg FixtureConfig,
) *FixtureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocal(0)
	}
	return &FixtureService{
		tournaments: repos.Tournaments,
		courts:      repos.Courts,
		categories:  repos.Categories,
		pairs:       repos.Pairs,
		zones:       repos.Zones,
		matches:     repos.Matches,
		tx:          tx,
		locker:      locker,
		metrics:     m,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// GenerateFixture rebuilds a category's fixture. Earlier auto matches are
// discarded; manual matches keep their slots and their pairings are not
// generated again. A structural error aborts before anything is written.
func (s *FixtureService) GenerateFixture(ctx context.Context, categoryID string) (*schedule.Result, error) {
	if err := s.validator.Var(categoryID, "required"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "category id is required")
	}
	strat, err := strategy.Get(s.cfg.Strategy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid strategy")
	}
	assigner, err := schedule.GetAssigner(s.cfg.Assigner)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid assigner")
	}

	started := time.Now()
	var result *schedule.Result
	err = s.inCategory(ctx, categoryID, func(tx *sqlx.Tx) error {
		category, err := s.categories.FindByID(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		tournament, err := s.tournaments.FindByID(ctx, tx, category.TournamentID)
		if err != nil {
			return err
		}
		courts, err := s.courts.ListByTournament(ctx, tx, tournament.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load courts")
		}
		roster, err := s.pairs.ListByCategory(ctx, tx, categoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load pairs")
		}
		zones, err := s.zones.ListByCategory(ctx, tx, categoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load zones")
		}
		existing, err := s.matches.ListByCategory(ctx, tx, categoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load matches")
		}

		confirmed := models.ConfirmedPairs(roster)
		zones = confirmedZones(zones, confirmed)
		if len(zones) == 0 {
			return appErrors.Structural("category %q has no zones", category.Name)
		}
		if err := checkCoverage(zones, confirmed); err != nil {
			return err
		}

		calendar, err := schedule.BuildCalendar(tournament, courts)
		if err != nil {
			return err
		}

		var manual []models.Match
		for _, m := range existing {
			if m.Origin == models.OriginManual {
				manual = append(manual, m)
			}
		}
		backlog := withoutPairings(strategy.GenerateAll(strat, zones), manual)
		if len(backlog) == 0 && len(manual) == 0 {
			return appErrors.Structural("zones of category %q produce no matches", category.Name)
		}

		others, err := s.matches.ListScheduledByTournament(ctx, tx, tournament.ID, categoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load venue bookings")
		}
		pairs, err := s.pairIndex(ctx, tx, confirmed, others)
		if err != nil {
			return err
		}

		cleared, err := s.matches.DeleteAutoByCategory(ctx, tx, categoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to clear previous fixture")
		}

		reserved := append(append([]models.Match(nil), manual...), others...)
		result = assigner.Assign(schedule.Input{
			Calendar:     calendar,
			Matches:      backlog,
			Zones:        zones,
			Pairs:        pairs,
			Availability: availability.FromPairs(confirmed, s.logger),
			Reserved:     reserved,
			Rules:        s.cfg.Rules,
		})

		if err := s.matches.BulkCreate(ctx, tx, result.Matches()); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to persist fixture")
		}

		s.metrics.AddCleared(int(cleared))
		s.logger.Info("fixture generated",
			zap.String("category_id", categoryID),
			zap.Int("zones", result.Zones),
			zap.Int("courts", result.Courts),
			zap.Int("slots", result.Slots),
			zap.Int("scheduled", result.ScheduledCount()),
			zap.Int("unschedulable", result.UnschedulableCount()),
			zap.Int("manual", len(manual)),
			zap.Int64("cleared", cleared),
		)
		for _, u := range result.Unschedulable {
			s.logger.Warn("match unschedulable",
				zap.String("category_id", categoryID),
				zap.String("match_id", u.Match.ID),
				zap.String("reason", u.Diagnostic.Reason),
				zap.Any("rejections", u.Diagnostic.Rejections),
			)
		}
		return nil
	})

	s.metrics.ObserveGeneration(outcome(err), time.Since(started))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordFixture(categoryID, result.ScheduledCount(), result.UnschedulableCount(), result.SlotsUsed, result.Slots)
	return result, nil
}

// ClearFixture removes a category's auto matches and returns how many were
// deleted. Zones and manual matches stay.
func (s *FixtureService) ClearFixture(ctx context.Context, categoryID string) (int, error) {
	if err := s.validator.Var(categoryID, "required"); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, "category id is required")
	}
	var cleared int64
	err := s.inCategory(ctx, categoryID, func(tx *sqlx.Tx) error {
		if _, err := s.categories.FindByID(ctx, tx, categoryID); err != nil {
			return err
		}
		n, err := s.matches.DeleteAutoByCategory(ctx, tx, categoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to clear fixture")
		}
		cleared = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.metrics.AddCleared(int(cleared))
	s.logger.Info("fixture cleared", zap.String("category_id", categoryID), zap.Int64("cleared", cleared))
	return int(cleared), nil
}

// SetManualSlot pins a match to a court and start time. The slot is taken
// as given: no availability or spacing checks run.
func (s *FixtureService) SetManualSlot(ctx context.Context, req ManualSlotRequest) (*models.Match, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid manual slot payload")
	}
	match, err := s.matches.FindByID(ctx, nil, req.MatchID)
	if err != nil {
		return nil, err
	}
	err = s.inCategory(ctx, match.CategoryID, func(tx *sqlx.Tx) error {
		match.Schedule(req.CourtID, req.StartsAt, models.OriginManual)
		if err := s.matches.UpdateSlot(ctx, tx, match); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return err
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store manual slot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("manual slot set",
		zap.String("match_id", match.ID),
		zap.String("court_id", req.CourtID),
		zap.Time("starts_at", req.StartsAt),
	)
	return match, nil
}

// Fixture loads a category's stored fixture for export.
func (s *FixtureService) Fixture(ctx context.Context, categoryID string) (*models.Fixture, error) {
	if err := s.validator.Var(categoryID, "required"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "category id is required")
	}
	category, err := s.categories.FindByID(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournaments.FindByID(ctx, nil, category.TournamentID)
	if err != nil {
		return nil, err
	}
	courts, err := s.courts.ListByTournament(ctx, nil, tournament.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load courts")
	}
	roster, err := s.pairs.ListByCategory(ctx, nil, categoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load pairs")
	}
	zones, err := s.zones.ListByCategory(ctx, nil, categoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load zones")
	}
	matches, err := s.matches.ListByCategory(ctx, nil, categoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load matches")
	}

	pairs := make(map[string]models.Pair, len(roster))
	for _, p := range roster {
		pairs[p.ID] = p
	}
	return &models.Fixture{
		Tournament: *tournament,
		Category:   *category,
		Courts:     courts,
		Zones:      zones,
		Pairs:      pairs,
		Matches:    matches,
	}, nil
}

// inCategory runs fn in a transaction while holding the category lock.
func (s *FixtureService) inCategory(ctx context.Context, categoryID string, fn func(tx *sqlx.Tx) error) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	waitStart := time.Now()
	release, err := s.locker.Lock(ctx, lock.CategoryKey(categoryID))
	if err != nil {
		return err
	}
	s.metrics.ObserveLockWait(time.Since(waitStart))
	defer func() {
		if rerr := release(); rerr != nil {
			s.logger.Warn("failed to release fixture lock", zap.String("category_id", categoryID), zap.Error(rerr))
		}
	}()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to commit transaction")
	}
	return nil
}

// pairIndex maps every pair the assigner may meet to its record: the
// category roster plus the pairs of other categories' bookings, whose
// players must not be double-booked.
func (s *FixtureService) pairIndex(ctx context.Context, tx *sqlx.Tx, roster []models.Pair, others []models.Match) (map[string]models.Pair, error) {
	pairs := make(map[string]models.Pair, len(roster))
	for _, p := range roster {
		pairs[p.ID] = p
	}
	var missing []string
	seen := make(map[string]bool)
	for _, m := range others {
		for _, id := range []string{m.Pair1ID, m.Pair2ID} {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := pairs[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return pairs, nil
	}
	found, err := s.pairs.ListByIDs(ctx, tx, missing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load booked pairs")
	}
	for _, p := range found {
		pairs[p.ID] = p
	}
	return pairs, nil
}

// checkCoverage requires every confirmed pair to sit in exactly one zone.
func checkCoverage(zones []models.Zone, confirmed []models.Pair) error {
	seen := make(map[string]int, len(confirmed))
	for _, z := range zones {
		for _, id := range z.PairIDs {
			seen[id]++
		}
	}
	var missing, repeated []string
	for _, p := range confirmed {
		switch n := seen[p.ID]; {
		case n == 0:
			missing = append(missing, p.ID)
		case n > 1:
			repeated = append(repeated, p.ID)
		}
	}
	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "not in any zone: "+strings.Join(missing, ", "))
	}
	if len(repeated) > 0 {
		problems = append(problems, "in more than one zone: "+strings.Join(repeated, ", "))
	}
	if len(problems) == 0 {
		return nil
	}
	return appErrors.Structural("confirmed pairs %s; rebuild the zones or move the pairs", strings.Join(problems, "; "))
}

// confirmedZones drops pairs that are no longer confirmed from every zone
// roster, and zones left empty.
func confirmedZones(zones []models.Zone, confirmed []models.Pair) []models.Zone {
	ok := make(map[string]bool, len(confirmed))
	for _, p := range confirmed {
		ok[p.ID] = true
	}
	out := make([]models.Zone, 0, len(zones))
	for _, z := range zones {
		var ids []string
		for _, id := range z.PairIDs {
			if ok[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		z.PairIDs = ids
		out = append(out, z)
	}
	return out
}

// withoutPairings drops generated matches already played as manual ones.
func withoutPairings(backlog, manual []models.Match) []models.Match {
	if len(manual) == 0 {
		return backlog
	}
	out := make([]models.Match, 0, len(backlog))
	for _, m := range backlog {
		dup := false
		for _, k := range manual {
			if m.Zone() == k.Zone() && m.SamePairing(k) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, appErrors.ErrStructural):
		return "structural"
	case errors.Is(err, appErrors.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
