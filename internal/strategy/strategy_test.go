package strategy

import (
	"fmt"
	"testing"

	"github.com/derekprior/padelfix/internal/models"
)

func testZone(n int) models.Zone {
	z := models.Zone{ID: "zone-a", CategoryID: "cat-1", Name: "A"}
	for i := 1; i <= n; i++ {
		z.PairIDs = append(z.PairIDs, fmt.Sprintf("p%d", i))
	}
	return z
}

func TestRoundRobinMatches(t *testing.T) {
	s := &RoundRobin{}

	for n := 0; n <= 8; n++ {
		t.Run(fmt.Sprintf("%d pairs", n), func(t *testing.T) {
			zone := testZone(n)
			matches := s.GenerateMatches(zone)

			want := n * (n - 1) / 2
			if len(matches) != want {
				t.Fatalf("matches = %d, want %d", len(matches), want)
			}

			type pairing struct{ a, b string }
			seen := make(map[pairing]bool)
			for _, m := range matches {
				if m.Pair1ID == m.Pair2ID {
					t.Errorf("self pairing %s", m.Pair1ID)
				}
				a, b := m.Pair1ID, m.Pair2ID
				if a > b {
					a, b = b, a
				}
				if seen[pairing{a, b}] {
					t.Errorf("duplicate pairing %s vs %s", a, b)
				}
				seen[pairing{a, b}] = true

				if m.State != models.MatchPending {
					t.Errorf("state = %q, want pending", m.State)
				}
				if m.Origin != models.OriginAuto {
					t.Errorf("origin = %q, want auto", m.Origin)
				}
				if m.Zone() != "zone-a" || m.CategoryID != "cat-1" {
					t.Errorf("match not tied to zone-a/cat-1: %+v", m)
				}
				if m.ID == "" {
					t.Error("match without id")
				}
			}
		})
	}
}

func TestRoundRobinOrder(t *testing.T) {
	matches := (&RoundRobin{}).GenerateMatches(testZone(4))
	want := [][2]string{
		{"p1", "p2"}, {"p1", "p3"}, {"p1", "p4"},
		{"p2", "p3"}, {"p2", "p4"},
		{"p3", "p4"},
	}
	for i, m := range matches {
		if m.Pair1ID != want[i][0] || m.Pair2ID != want[i][1] {
			t.Errorf("match %d = %s vs %s, want %s vs %s", i, m.Pair1ID, m.Pair2ID, want[i][0], want[i][1])
		}
	}
}

func TestRoundRobinIgnoresDuplicateRosterEntries(t *testing.T) {
	zone := models.Zone{ID: "z", PairIDs: []string{"p1", "p2", "p1", "p3"}}
	matches := (&RoundRobin{}).GenerateMatches(zone)
	if len(matches) != 3 {
		t.Errorf("matches = %d, want 3", len(matches))
	}
}

func TestGenerateAllKeepsZoneOrder(t *testing.T) {
	zones := []models.Zone{
		{ID: "a", PairIDs: []string{"p1", "p2", "p3"}},
		{ID: "b", PairIDs: []string{"p4", "p5"}},
	}
	matches := GenerateAll(&RoundRobin{}, zones)
	if len(matches) != 4 {
		t.Fatalf("matches = %d, want 4", len(matches))
	}
	for i, m := range matches[:3] {
		if m.Zone() != "a" {
			t.Errorf("match %d zone = %s, want a", i, m.Zone())
		}
	}
	if matches[3].Zone() != "b" {
		t.Errorf("last match zone = %s, want b", matches[3].Zone())
	}
}

func TestGet(t *testing.T) {
	if _, err := Get("round_robin"); err != nil {
		t.Errorf("Get(round_robin) error: %v", err)
	}
	if _, err := Get(""); err != nil {
		t.Errorf("Get(\"\") error: %v", err)
	}
	if _, err := Get("swiss"); err == nil {
		t.Error("Get(swiss) should fail")
	}
}
