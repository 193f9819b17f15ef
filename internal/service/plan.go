package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/availability"
	"github.com/derekprior/padelfix/internal/config"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
	"github.com/derekprior/padelfix/internal/strategy"
	"github.com/derekprior/padelfix/internal/zone"
)

// CategoryPlan is one category's fixture computed from a tournament file.
type CategoryPlan struct {
	Fixture models.Fixture
	Result  *schedule.Result
}

// PlanFile builds zones and assigns every category of a tournament file
// without a database. Categories share the courts: each one is assigned
// around the court reservations and the matches of the categories before it.
func PlanFile(cfg *config.Config, logger *zap.Logger) ([]CategoryPlan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	assigner, err := schedule.GetAssigner(cfg.Assigner)
	if err != nil {
		return nil, err
	}

	tournament := cfg.ModelTournament()
	courts := cfg.ModelCourts()
	calendar, err := schedule.BuildCalendar(tournament, courts)
	if err != nil {
		return nil, err
	}

	reserved := cfg.Reserved()
	pairs := make(map[string]models.Pair)
	var plans []CategoryPlan
	for _, data := range cfg.ModelCategories() {
		lookup := availability.FromPairs(data.Pairs, logger)
		zones, err := zone.Build(data.Pairs, zone.Options{
			CategoryID:   data.Category.ID,
			Target:       data.Category.ZoneSize,
			ZoneCount:    data.Zones,
			Mode:         data.Category.Balance,
			Times:        calendar.Times(),
			Availability: lookup,
		})
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", data.Category.Name, err)
		}

		roster := make(map[string]models.Pair, len(data.Pairs))
		for _, p := range data.Pairs {
			roster[p.ID] = p
			pairs[p.ID] = p
		}

		result := assigner.Assign(schedule.Input{
			Calendar:     calendar,
			Matches:      strategy.GenerateAll(strat, zones),
			Zones:        zones,
			Pairs:        pairs,
			Availability: lookup,
			Reserved:     reserved,
			Rules:        cfg.Rules,
		})
		reserved = append(reserved, result.Scheduled...)

		logger.Info("category planned",
			zap.String("category", data.Category.Name),
			zap.Int("zones", len(zones)),
			zap.Int("scheduled", result.ScheduledCount()),
			zap.Int("unschedulable", result.UnschedulableCount()),
		)
		plans = append(plans, CategoryPlan{
			Fixture: models.Fixture{
				Tournament: *tournament,
				Category:   data.Category,
				Courts:     courts,
				Zones:      zones,
				Pairs:      roster,
				Matches:    result.Matches(),
			},
			Result: result,
		})
	}
	return plans, nil
}
