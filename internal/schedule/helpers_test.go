package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/derekprior/padelfix/internal/availability"
	"github.com/derekprior/padelfix/internal/models"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func clock(s string) models.Clock {
	c, err := models.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func hours(t *testing.T, raw map[string][]models.Window) models.OperatingHours {
	t.Helper()
	h, err := models.ParseOperatingHours(raw)
	if err != nil {
		t.Fatalf("ParseOperatingHours() error: %v", err)
	}
	return h
}

func window(open, close string) models.Window {
	return models.Window{Open: clock(open), Close: clock(close)}
}

// testTournament is open viernes 15:00-23:30 and sábado/domingo 09:00-23:30,
// Friday 2026-11-06 through Sunday 2026-11-08.
func testTournament(t *testing.T) *models.Tournament {
	return &models.Tournament{
		ID:           "t-1",
		Name:         "Open de Otoño",
		StartDate:    date(2026, 11, 6),
		EndDate:      date(2026, 11, 8),
		MatchMinutes: 50,
		Hours: hours(t, map[string][]models.Window{
			"viernes": {window("15:00", "23:30")},
			"weekend": {window("09:00", "23:30")},
		}),
	}
}

func testCourts(n int) []models.Court {
	var courts []models.Court
	for i := 1; i <= n; i++ {
		courts = append(courts, models.Court{
			ID:       fmt.Sprintf("c%d", i),
			Name:     fmt.Sprintf("Cancha %d", i),
			Active:   true,
			Position: i,
		})
	}
	return courts
}

func testPairs(n int) map[string]models.Pair {
	pairs := make(map[string]models.Pair)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		pairs[id] = models.Pair{
			ID:          id,
			Player1Name: fmt.Sprintf("Jugador %dA", i),
			Player2Name: fmt.Sprintf("Jugador %dB", i),
			State:       models.PairConfirmed,
		}
	}
	return pairs
}

func zoneOf(id string, pairIDs ...string) models.Zone {
	return models.Zone{ID: id, CategoryID: "cat-1", Name: id, PairIDs: pairIDs}
}

func roundRobin(z models.Zone) []models.Match {
	var matches []models.Match
	for i := 0; i < len(z.PairIDs); i++ {
		for j := i + 1; j < len(z.PairIDs); j++ {
			zoneID := z.ID
			matches = append(matches, models.Match{
				ID:      fmt.Sprintf("%s-%s-%s", z.ID, z.PairIDs[i], z.PairIDs[j]),
				ZoneID:  &zoneID,
				Pair1ID: z.PairIDs[i],
				Pair2ID: z.PairIDs[j],
				State:   models.MatchPending,
				Origin:  models.OriginAuto,
			})
		}
	}
	return matches
}

func restricted(t *testing.T, r *availability.Resolver, pairID, payload string) {
	t.Helper()
	if err := r.Add(pairID, []byte(payload)); err != nil {
		t.Fatalf("Add(%s) error: %v", pairID, err)
	}
}
