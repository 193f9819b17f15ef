package zone

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/derekprior/padelfix/internal/availability"
	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
)

func pairs(n int) []models.Pair {
	var out []models.Pair
	for i := 1; i <= n; i++ {
		out = append(out, models.Pair{
			ID:     fmt.Sprintf("p%02d", i),
			State:  models.PairConfirmed,
			Rating: float64(1000 + i*10),
		})
	}
	return out
}

func sizesOf(zones []models.Zone) []int {
	var out []int
	for _, z := range zones {
		out = append(out, len(z.PairIDs))
	}
	return out
}

func TestBuildZoneCount(t *testing.T) {
	tests := []struct {
		n, target int
		want      []int
	}{
		{2, 4, []int{2}},
		{3, 4, []int{3}},
		{8, 4, []int{4, 4}},
		{9, 4, []int{5, 4}},
		{10, 4, []int{4, 3, 3}},
		{12, 3, []int{3, 3, 3, 3}},
		{5, 2, []int{3, 2}},
		{16, 0, []int{4, 4, 4, 4}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d pairs target %d", tt.n, tt.target), func(t *testing.T) {
			zones, err := Build(pairs(tt.n), Options{Target: tt.target})
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			got := sizesOf(zones)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("sizes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildPartitionsConfirmedPairs(t *testing.T) {
	ps := pairs(11)
	ps[3].State = models.PairWithdrawn
	ps[7].State = models.PairPending

	for _, mode := range []models.BalanceMode{models.BalanceNone, models.BalanceRating} {
		t.Run(string(mode), func(t *testing.T) {
			zones, err := Build(ps, Options{Target: 3, Mode: mode, CategoryID: "cat-1"})
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			seen := make(map[string]int)
			for i, z := range zones {
				if z.Name != models.ZoneName(i) || z.Position != i {
					t.Errorf("zone %d named %q at %d", i, z.Name, z.Position)
				}
				if z.CategoryID != "cat-1" || z.ID == "" {
					t.Errorf("zone %s missing ids", z.Name)
				}
				for _, id := range z.PairIDs {
					seen[id]++
				}
			}
			if len(seen) != 9 {
				t.Errorf("placed %d pairs, want 9", len(seen))
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("pair %s placed %d times", id, n)
				}
			}
			if seen[ps[3].ID] > 0 || seen[ps[7].ID] > 0 {
				t.Error("unconfirmed pair placed in a zone")
			}
			if Imbalanced(zones) {
				t.Errorf("sizes differ by more than one: %v", sizesOf(zones))
			}
		})
	}
}

func TestBuildRatingSerpentine(t *testing.T) {
	zones, err := Build(pairs(6), Options{ZoneCount: 3, Mode: models.BalanceRating})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	// ratings descending: p06 p05 p04 p03 p02 p01
	want := [][]string{{"p06", "p01"}, {"p05", "p02"}, {"p04", "p03"}}
	for i, z := range zones {
		if fmt.Sprint(z.PairIDs) != fmt.Sprint(want[i]) {
			t.Errorf("zone %s = %v, want %v", z.Name, z.PairIDs, want[i])
		}
	}
}

func TestBuildTimeCoLocatesCompatiblePairs(t *testing.T) {
	cal, err := schedule.BuildCalendar(&models.Tournament{
		Name:         "Compat",
		StartDate:    time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC),
		MatchMinutes: 60,
	}, []models.Court{{ID: "c1", Active: true}})
	if err != nil {
		t.Fatalf("BuildCalendar() error: %v", err)
	}

	r := availability.NewResolver()
	fridayNight := `[{"days": ["viernes"], "start": "19:00", "end": "23:00"}, {"days": ["sabado"], "start": "00:00", "end": "01:00"}]`
	saturdayMorning := `[{"days": ["sabado"], "start": "08:00", "end": "12:00"}, {"days": ["viernes"], "start": "00:00", "end": "01:00"}]`
	for _, id := range []string{"p01", "p03"} {
		if err := r.Add(id, []byte(fridayNight)); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []string{"p02", "p04"} {
		if err := r.Add(id, []byte(saturdayMorning)); err != nil {
			t.Fatal(err)
		}
	}

	zones, err := Build(pairs(4), Options{
		ZoneCount:    2,
		Mode:         models.BalanceTime,
		Times:        cal.Times(),
		Availability: r,
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, z := range zones {
		if len(z.PairIDs) != 2 {
			t.Fatalf("zone %s = %v", z.Name, z.PairIDs)
		}
		a, b := z.PairIDs[0], z.PairIDs[1]
		friday := func(id string) bool { return id == "p01" || id == "p03" }
		if friday(a) != friday(b) {
			t.Errorf("zone %s mixes incompatible pairs %s and %s", z.Name, a, b)
		}
	}
}

func TestBuildTimeNeedsCalendar(t *testing.T) {
	_, err := Build(pairs(4), Options{Mode: models.BalanceTime})
	if !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(pairs(1), Options{}); !errors.Is(err, appErrors.ErrStructural) {
		t.Errorf("1 pair: error = %v, want structural", err)
	}
	if _, err := Build(pairs(6), Options{Target: 1}); !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("target 1: error = %v, want validation", err)
	}
	if _, err := Build(pairs(6), Options{ZoneCount: 4}); !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("4 zones for 6 pairs: error = %v, want validation", err)
	}
	if _, err := Build(pairs(6), Options{Mode: "random"}); !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("unknown mode: error = %v, want validation", err)
	}
}

func TestMovePair(t *testing.T) {
	zones := []models.Zone{
		{ID: "za", Name: "A", PairIDs: []string{"p1", "p2", "p3"}},
		{ID: "zb", Name: "B", PairIDs: []string{"p4", "p5", "p6"}},
	}

	moved, err := MovePair(zones, "p2", "zb")
	if err != nil {
		t.Fatalf("MovePair() error: %v", err)
	}
	if fmt.Sprint(moved[0].PairIDs) != "[p1 p3]" {
		t.Errorf("zone A = %v", moved[0].PairIDs)
	}
	if fmt.Sprint(moved[1].PairIDs) != "[p4 p5 p6 p2]" {
		t.Errorf("zone B = %v", moved[1].PairIDs)
	}
	if fmt.Sprint(zones[0].PairIDs) != "[p1 p2 p3]" {
		t.Errorf("input modified: %v", zones[0].PairIDs)
	}
	if src, ok := Find(moved, "p2"); !ok || src.ID != "zb" {
		t.Errorf("Find() = %v, %v", src.ID, ok)
	}

	if _, err := MovePair(zones, "p2", "zz"); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("unknown zone: error = %v", err)
	}
	if _, err := MovePair(zones, "p9", "zb"); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("unknown pair: error = %v", err)
	}
	if _, err := MovePair(zones, "p4", "zb"); !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("same zone: error = %v", err)
	}
}

func TestImbalanced(t *testing.T) {
	zones := []models.Zone{
		{PairIDs: []string{"a", "b", "c", "d"}},
		{PairIDs: []string{"e", "f"}},
	}
	if !Imbalanced(zones) {
		t.Error("4 vs 2 should be imbalanced")
	}
	zones[0].PairIDs = zones[0].PairIDs[:3]
	if Imbalanced(zones) {
		t.Error("3 vs 2 should be balanced")
	}
}
