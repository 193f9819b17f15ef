package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/derekprior/padelfix/internal/models"
)

func str(s string) *string {
	return &s
}

func at(hour, minute int) *time.Time {
	t := time.Date(2026, 11, 7, hour, minute, 0, 0, time.UTC)
	return &t
}

func testFixture() models.Fixture {
	return models.Fixture{
		Tournament: models.Tournament{Name: "Open Primavera"},
		Category:   models.Category{ID: "cat-1", Name: "4ta Masculino"},
		Courts: []models.Court{
			{ID: "c1", Name: "Cancha 1", Active: true, Position: 1},
			{ID: "c2", Name: "Cancha 2", Active: true, Position: 2},
		},
		Zones: []models.Zone{
			{ID: "z-a", Name: "A", PairIDs: []string{"p1", "p2", "p3"}},
			{ID: "z-b", Name: "B", PairIDs: []string{"p4", "p5"}},
		},
		Pairs: map[string]models.Pair{
			"p1": {ID: "p1", Player1Name: "Ana Ruiz", Player2Name: "Luis Gómez"},
			"p2": {ID: "p2", Player1Name: "Juan Pérez", Player2Name: "Pablo Sosa"},
			"p3": {ID: "p3", Player1Name: "Marta Gil", Player2Name: "Sofía Díaz"},
			"p4": {ID: "p4", Player1Name: "Carla Vega", Player2Name: "Eva Luna"},
			"p5": {ID: "p5", Player1Name: "Nora Paz", Player2Name: "Iván Cruz"},
		},
		Matches: []models.Match{
			{ID: "m2", ZoneID: str("z-a"), Pair1ID: "p1", Pair2ID: "p3", CourtID: str("c1"), StartsAt: at(9, 50), State: models.MatchScheduled},
			{ID: "m1", ZoneID: str("z-a"), Pair1ID: "p1", Pair2ID: "p2", CourtID: str("c2"), StartsAt: at(9, 0), State: models.MatchScheduled},
			{ID: "m3", ZoneID: str("z-a"), Pair1ID: "p2", Pair2ID: "p3", State: models.MatchUnschedulable,
				Diagnostic: []byte(`{"reason":"the pairs share no available time in the tournament calendar"}`)},
			{ID: "m4", ZoneID: str("z-b"), Pair1ID: "p4", Pair2ID: "p5", CourtID: str("c1"), StartsAt: at(9, 0), State: models.MatchScheduled},
		},
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer()

	t.Run("renders a pdf document", func(t *testing.T) {
		out, err := r.Render([]models.Fixture{testFixture(), testFixture()}, "")
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF-")) {
			t.Errorf("output does not start with a PDF header: %q", out[:8])
		}
	})

	t.Run("requires a fixture", func(t *testing.T) {
		if _, err := r.Render(nil, "Open"); err == nil {
			t.Error("expected error for no fixtures")
		}
	})

	t.Run("uncompressed output carries the text", func(t *testing.T) {
		out, err := (&Renderer{}).Render([]models.Fixture{testFixture()}, "Open")
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		for _, want := range []string{"OPEN", "Zone A", "Zone B", "Unschedulable", "Cancha 2"} {
			if !bytes.Contains(out, []byte(want)) {
				t.Errorf("output missing %q", want)
			}
		}
	})
}

func TestZoneRows(t *testing.T) {
	fx := testFixture()
	rows := ZoneRows(&fx, "z-a")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][2] != "09:00" || rows[0][3] != "Cancha 2" {
		t.Errorf("first row = %v, want the 09:00 match on Cancha 2", rows[0])
	}
	if rows[0][1] != "sábado" {
		t.Errorf("day = %q, want sábado", rows[0][1])
	}
	if rows[2][0] != "" || rows[2][4] != "Juan Pérez / Pablo Sosa" {
		t.Errorf("unplaced row = %v", rows[2])
	}
}

func TestPendingRows(t *testing.T) {
	fx := testFixture()
	rows := PendingRows(&fx)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][0] != "A" || rows[0][3] != "the pairs share no available time in the tournament calendar" {
		t.Errorf("row = %v", rows[0])
	}
}
