package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/availability"
	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
	"github.com/derekprior/padelfix/internal/strategy"
	"github.com/derekprior/padelfix/internal/zone"
)

// BuildZones replaces a category's zones. It refuses while the category has
// matches, since they would point at the old zones.
func (s *FixtureService) BuildZones(ctx context.Context, req BuildZonesRequest) ([]models.Zone, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid zone build payload")
	}

	var zones []models.Zone
	err := s.inCategory(ctx, req.CategoryID, func(tx *sqlx.Tx) error {
		category, err := s.categories.FindByID(ctx, tx, req.CategoryID)
		if err != nil {
			return err
		}
		n, err := s.matches.CountByCategory(ctx, tx, req.CategoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to count matches")
		}
		if n > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "category already has matches; clear the fixture before rebuilding zones")
		}
		roster, err := s.pairs.ListByCategory(ctx, tx, req.CategoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load pairs")
		}

		opts := zone.Options{
			CategoryID: req.CategoryID,
			Target:     req.Target,
			ZoneCount:  req.ZoneCount,
			Mode:       req.Mode,
		}
		if opts.Target == 0 {
			opts.Target = category.ZoneSize
		}
		if opts.Mode == "" {
			opts.Mode = category.Balance
		}
		if opts.Mode == models.BalanceTime {
			tournament, err := s.tournaments.FindByID(ctx, tx, category.TournamentID)
			if err != nil {
				return err
			}
			courts, err := s.courts.ListByTournament(ctx, tx, tournament.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load courts")
			}
			calendar, err := schedule.BuildCalendar(tournament, courts)
			if err != nil {
				return err
			}
			opts.Times = calendar.Times()
			opts.Availability = availability.FromPairs(roster, s.logger)
		}

		built, err := zone.Build(roster, opts)
		if err != nil {
			return err
		}
		if err := s.zones.ReplaceForCategory(ctx, tx, req.CategoryID, built); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store zones")
		}
		zones = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("zones built",
		zap.String("category_id", req.CategoryID),
		zap.Int("zones", len(zones)),
		zap.String("mode", string(req.Mode)),
	)
	return zones, nil
}

// MovePairToZone moves a pair into another zone of its category. When the
// category already has matches, both zones lose theirs, manual ones
// included, and get a fresh pending round robin.
func (s *FixtureService) MovePairToZone(ctx context.Context, req MovePairRequest) (*MovePairResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid move payload")
	}
	strat, err := strategy.Get(s.cfg.Strategy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid strategy")
	}
	pair, err := s.pairs.FindByID(ctx, nil, req.PairID)
	if err != nil {
		return nil, err
	}

	resp := &MovePairResponse{}
	err = s.inCategory(ctx, pair.CategoryID, func(tx *sqlx.Tx) error {
		zones, err := s.zones.ListByCategory(ctx, tx, pair.CategoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load zones")
		}
		from, ok := zone.Find(zones, req.PairID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "pair is not in any zone: "+req.PairID)
		}
		updated, err := zone.MovePair(zones, req.PairID, req.ZoneID)
		if err != nil {
			return err
		}
		for _, z := range updated {
			switch z.ID {
			case from.ID:
				resp.From = z
			case req.ZoneID:
				resp.To = z
			}
		}
		resp.Imbalanced = zone.Imbalanced(updated)

		for _, z := range []models.Zone{resp.From, resp.To} {
			if err := s.zones.SetMembers(ctx, tx, z.ID, z.PairIDs); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store zone members")
			}
		}

		n, err := s.matches.CountByCategory(ctx, tx, pair.CategoryID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to count matches")
		}
		if n == 0 {
			return nil
		}
		if _, err := s.matches.DeleteByZones(ctx, tx, []string{resp.From.ID, resp.To.ID}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to discard zone matches")
		}
		fresh := strategy.GenerateAll(strat, []models.Zone{resp.From, resp.To})
		if err := s.matches.BulkCreate(ctx, tx, fresh); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to regenerate zone matches")
		}
		resp.Regenerated = len(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("pair_id", req.PairID),
		zap.String("from_zone", resp.From.Name),
		zap.String("to_zone", resp.To.Name),
		zap.Int("regenerated", resp.Regenerated),
	}
	if resp.Imbalanced {
		s.logger.Warn("zone sizes now differ by more than one", fields...)
	} else {
		s.logger.Info("pair moved", fields...)
	}
	return resp, nil
}
