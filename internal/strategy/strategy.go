package strategy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/derekprior/padelfix/internal/models"
)

// Strategy expands a zone roster into its match list.
type Strategy interface {
	GenerateMatches(zone models.Zone) []models.Match
}

// Get returns a Strategy by name. An empty name selects round_robin.
func Get(name string) (Strategy, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// RoundRobin pairs every pair of the zone with every other pair once.
type RoundRobin struct{}

// GenerateMatches returns N(N-1)/2 pending auto matches ordered (i, j) with
// i < j in roster order. Duplicate roster entries are ignored.
func (s *RoundRobin) GenerateMatches(zone models.Zone) []models.Match {
	roster := dedupe(zone.PairIDs)
	matches := make([]models.Match, 0, len(roster)*(len(roster)-1)/2)

	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			zoneID := zone.ID
			matches = append(matches, models.Match{
				ID:         uuid.NewString(),
				CategoryID: zone.CategoryID,
				ZoneID:     &zoneID,
				Pair1ID:    roster[i],
				Pair2ID:    roster[j],
				State:      models.MatchPending,
				Origin:     models.OriginAuto,
			})
		}
	}
	return matches
}

// GenerateAll expands every zone in order, producing the category backlog.
func GenerateAll(s Strategy, zones []models.Zone) []models.Match {
	var matches []models.Match
	for _, z := range zones {
		matches = append(matches, s.GenerateMatches(z)...)
	}
	return matches
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
