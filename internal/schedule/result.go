package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/padelfix/internal/models"
)

// Diagnostic explains why a match could not be placed.
type Diagnostic struct {
	ZoneID            string         `json:"zone_id"`
	ZoneName          string         `json:"zone_name"`
	Pair1ID           string         `json:"pair1_id"`
	Pair1Name         string         `json:"pair1_name"`
	Pair1Availability string         `json:"pair1_availability"`
	Pair2ID           string         `json:"pair2_id"`
	Pair2Name         string         `json:"pair2_name"`
	Pair2Availability string         `json:"pair2_availability"`
	Rejections        map[string]int `json:"rejections"`
	Reason            string         `json:"reason"`
}

func (d Diagnostic) String() string {
	zone := d.ZoneName
	if zone == "" {
		zone = d.ZoneID
	}
	return fmt.Sprintf("zone %s: %s vs %s: %s [%s: %s] [%s: %s]",
		zone, d.Pair1Name, d.Pair2Name, d.Reason,
		d.Pair1Name, d.Pair1Availability, d.Pair2Name, d.Pair2Availability)
}

// Unschedulable is a match the assigner could not place.
type Unschedulable struct {
	Match      models.Match
	Diagnostic Diagnostic
}

// Result is the fixture handed back to the operator.
type Result struct {
	Scheduled     []models.Match
	Unschedulable []Unschedulable

	Zones     int
	Courts    int
	Slots     int
	SlotsUsed int
	Duration  time.Duration
}

// ScheduledCount returns the number of placed matches.
func (r *Result) ScheduledCount() int {
	return len(r.Scheduled)
}

// UnschedulableCount returns the number of diagnosed matches.
func (r *Result) UnschedulableCount() int {
	return len(r.Unschedulable)
}

// Matches returns scheduled then unschedulable matches, ready to persist.
func (r *Result) Matches() []models.Match {
	all := make([]models.Match, 0, len(r.Scheduled)+len(r.Unschedulable))
	all = append(all, r.Scheduled...)
	for _, u := range r.Unschedulable {
		all = append(all, u.Match)
	}
	return all
}

// Chronological returns the scheduled matches ordered by start then court.
func (r *Result) Chronological() []models.Match {
	out := append([]models.Match(nil), r.Scheduled...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartsAt.Equal(*b.StartsAt) {
			return a.StartsAt.Before(*b.StartsAt)
		}
		return a.Court() < b.Court()
	})
	return out
}

// Conflicts re-checks the fixture invariants over the scheduled matches:
// no court holds two overlapping matches and no pair plays twice within one
// match duration on the same date.
func (r *Result) Conflicts() []string {
	return Conflicts(r.Scheduled, r.Duration)
}

// Conflicts checks any set of scheduled matches against the invariants.
func Conflicts(matches []models.Match, duration time.Duration) []string {
	var problems []string
	scheduled := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.State == models.MatchScheduled && m.StartsAt != nil && m.CourtID != nil {
			scheduled = append(scheduled, m)
		}
	}
	for i := 0; i < len(scheduled); i++ {
		for j := i + 1; j < len(scheduled); j++ {
			a, b := scheduled[i], scheduled[j]
			gap := a.StartsAt.Sub(*b.StartsAt)
			if gap < 0 {
				gap = -gap
			}
			if gap >= duration || !sameDate(*a.StartsAt, *b.StartsAt) {
				continue
			}
			when := a.StartsAt.Format("2006-01-02 15:04")
			if a.Court() == b.Court() {
				problems = append(problems, fmt.Sprintf("court %s double-booked at %s", a.Court(), when))
			}
			for _, p := range []string{a.Pair1ID, a.Pair2ID} {
				if b.Involves(p) {
					problems = append(problems, fmt.Sprintf("pair %s plays twice within %s around %s", p, duration, when))
				}
			}
		}
	}
	return problems
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
