package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/padelfix/internal/config"
	"github.com/derekprior/padelfix/internal/excel"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
	"github.com/derekprior/padelfix/internal/service"
)

const tournamentYAML = `
tournament:
  name: "Open Primavera"
  start_date: "2026-11-07"
  end_date: "2026-11-07"
  match_minutes: 50
  operating_hours:
    sabado:
      - open: "09:00"
        close: "21:00"

courts:
  - name: Cancha 1
    reservations:
      - date: "2026-11-07"
        times: ["09:00"]
        reason: "Clase"
  - name: Cancha 2

categories:
  - name: "4ta Masculino"
    zone_size: 4
    pairs:
      - players: ["Ana Ruiz", "Luis Gómez"]
      - players: ["Juan Pérez", "Pablo Sosa"]
      - players: ["Marta Gil", "Sofía Díaz"]
      - players: ["Carla Vega", "Eva Luna"]
  - name: "Mixto"
    pairs:
      - players: ["Ana Ruiz", "Tomás Rey"]
        restrictions:
          - days: [sabado]
            start: "12:00"
            end: "18:00"
      - players: ["Nora Paz", "Iván Cruz"]
      - players: ["Lía Sol", "Raúl Mar"]
`

func exportPlan(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(tournamentYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes() error: %v", err)
	}
	plans, err := service.PlanFile(cfg, nil)
	if err != nil {
		t.Fatalf("PlanFile() error: %v", err)
	}
	var fixtures []models.Fixture
	for _, p := range plans {
		fixtures = append(fixtures, p.Fixture)
	}
	f, err := excel.Generate(fixtures)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := t.TempDir() + "/fixture.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return cfg, path
}

func TestValidateGeneratedFixture(t *testing.T) {
	cfg, path := exportPlan(t)

	violations, err := Validate(FromConfig(cfg), path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	t.Run("no hard constraint violations", func(t *testing.T) {
		for _, v := range violations {
			if v.Type == "error" {
				t.Errorf("hard violation: %s", v.Message)
			}
		}
	})

	t.Run("reports soft constraint warnings", func(t *testing.T) {
		warnings := 0
		for _, v := range violations {
			if v.Type == "warning" {
				warnings++
				t.Logf("WARNING: %s", v.Message)
			}
		}
		t.Logf("Total warnings: %d", warnings)
	})
}

func TestValidateDetectsHandEdits(t *testing.T) {
	cfg, path := exportPlan(t)

	// Cancha 1 is reserved at 09:00, so the first match sits on Cancha 2 and
	// D2 is free. Copy it across so the same pairs play twice at once.
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	cell, _ := f.GetCellValue(excel.MasterSheet, "E2")
	if _, _, _, _, ok := excel.ParseCell(cell); !ok {
		t.Fatalf("E2 = %q, want a match", cell)
	}
	f.SetCellValue(excel.MasterSheet, "D2", cell)
	if err := f.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	f.Close()

	violations, err := Validate(FromConfig(cfg), path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	var spacing, duplicate bool
	for _, v := range violations {
		if v.Type == "error" && strings.Contains(v.Message, "minutes apart") {
			spacing = true
		}
		if v.Type == "warning" && strings.Contains(v.Message, "scheduled again") {
			duplicate = true
		}
	}
	if !spacing {
		t.Errorf("expected a spacing error, got %v", violations)
	}
	if !duplicate {
		t.Errorf("expected a duplicate pairing warning, got %v", violations)
	}
}

func TestValidateMissingFile(t *testing.T) {
	if _, err := Validate(NewReference(models.Tournament{}, nil, schedule.Rules{}), t.TempDir()+"/missing.xlsx"); err == nil {
		t.Error("expected error for missing workbook")
	}
}

func testReference(t *testing.T) *Reference {
	t.Helper()
	hours, err := models.ParseOperatingHours(map[string][]models.Window{
		"sabado": {{Open: 9 * 60, Close: 21 * 60}},
	})
	if err != nil {
		t.Fatalf("ParseOperatingHours() error: %v", err)
	}
	ref := NewReference(
		models.Tournament{
			Name:         "Open",
			StartDate:    time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC),
			MatchMinutes: 50,
			Hours:        hours,
		},
		[]models.Court{
			{ID: "c1", Name: "Cancha 1", Active: true, Position: 1},
			{ID: "c2", Name: "Cancha 2", Active: true, Position: 2},
			{ID: "c3", Name: "Cancha 3", Active: false, Position: 3},
		},
		schedule.Rules{MinRestMinutes: 10, MaxMatchesPerDay: 2},
	)
	ref.AddPair("4ta", models.Pair{ID: "p1", Player1Name: "Ana", Player2Name: "Eva",
		Restrictions: []byte(`[{"days":["sabado"],"start":"12:00","end":"18:00"}]`)})
	ref.AddPair("4ta", models.Pair{ID: "p2", Player1Name: "Lía", Player2Name: "Sol"})
	ref.AddPair("4ta", models.Pair{ID: "p3", Player1Name: "Mar", Player2Name: "Paz"})
	ref.AddPair("Mixto", models.Pair{ID: "m1", Player1Name: "Ana", Player2Name: "Tom"})
	ref.AddPair("Mixto", models.Pair{ID: "m2", Player1Name: "Ivo", Player2Name: "Noa"})
	return ref
}

// entry places a match on Saturday 07/11/2026 unless day says otherwise.
func entry(row, day, hour, minute int, court, category, pair1, pair2 string) excel.Entry {
	return excel.Entry{
		Row:      row,
		Start:    time.Date(2026, 11, day, hour, minute, 0, 0, time.UTC),
		Court:    court,
		Category: category,
		Pair1:    pair1,
		Pair2:    pair2,
		State:    models.MatchScheduled,
	}
}

func TestCheckUnknownCourts(t *testing.T) {
	ref := testReference(t)
	entries := []excel.Entry{
		entry(2, 7, 12, 0, "cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
		entry(3, 7, 12, 50, "Cancha 9", "4ta", "Ana / Eva", "Mar / Paz"),
		entry(4, 7, 13, 40, "Cancha 3", "4ta", "Lía / Sol", "Mar / Paz"),
		entry(5, 7, 14, 30, "Cancha 9", "4ta", "Lía / Sol", "Mar / Paz"),
	}
	v := checkUnknownCourts(ref, entries)
	if len(v) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(v), v)
	}
	if v[0].Row != 3 || v[1].Row != 4 {
		t.Errorf("rows = %d, %d, want 3, 4", v[0].Row, v[1].Row)
	}
}

func TestCheckUnknownPairs(t *testing.T) {
	ref := testReference(t)

	t.Run("names match regardless of accents and case", func(t *testing.T) {
		v := checkUnknownPairs(ref, []excel.Entry{entry(2, 7, 12, 0, "Cancha 1", "4TA", "ana / eva", "Lia / Sol")})
		if len(v) != 0 {
			t.Errorf("expected 0 violations, got %d: %v", len(v), v)
		}
	})

	t.Run("unknown names and wrong category", func(t *testing.T) {
		v := checkUnknownPairs(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Nadie / Nunca"),
			entry(3, 7, 12, 0, "Cancha 2", "Mixto", "Ana / Eva", "Ivo / Noa"),
		})
		if len(v) != 2 {
			t.Errorf("expected 2 violations, got %d: %v", len(v), v)
		}
	})
}

func TestCheckCourtOverlap(t *testing.T) {
	ref := testReference(t)

	t.Run("no violation for back-to-back matches", func(t *testing.T) {
		v := checkCourtOverlap(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 12, 50, "Cancha 1", "Mixto", "Ana / Tom", "Ivo / Noa"),
		})
		if len(v) != 0 {
			t.Errorf("expected 0 violations, got %d", len(v))
		}
	})

	t.Run("violation when a moved match runs into another", func(t *testing.T) {
		v := checkCourtOverlap(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 12, 30, "Cancha 1", "Mixto", "Ana / Tom", "Ivo / Noa"),
		})
		if len(v) != 1 || v[0].Row != 3 {
			t.Errorf("expected 1 violation at row 3, got %v", v)
		}
	})
}

func TestCheckPairSpacing(t *testing.T) {
	ref := testReference(t)

	t.Run("no violation at duration plus rest", func(t *testing.T) {
		v := checkPairSpacing(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 13, 0, "Cancha 1", "4ta", "Ana / Eva", "Mar / Paz"),
		})
		if len(v) != 0 {
			t.Errorf("expected 0 violations, got %d: %v", len(v), v)
		}
	})

	t.Run("violation when rest is too short", func(t *testing.T) {
		v := checkPairSpacing(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 12, 50, "Cancha 1", "4ta", "Ana / Eva", "Mar / Paz"),
		})
		if len(v) != 1 {
			t.Fatalf("expected 1 violation, got %d: %v", len(v), v)
		}
		if v[0].Type != "error" || v[0].Row != 3 {
			t.Errorf("got %+v, want error at row 3", v[0])
		}
	})
}

func TestCheckPlayerOverlap(t *testing.T) {
	ref := testReference(t)

	t.Run("violation across categories", func(t *testing.T) {
		v := checkPlayerOverlap(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 12, 50, "Cancha 2", "Mixto", "Ana / Tom", "Ivo / Noa"),
		})
		if len(v) != 1 {
			t.Fatalf("expected 1 violation, got %d: %v", len(v), v)
		}
		if !strings.Contains(v[0].Message, "Ana") {
			t.Errorf("message %q should name the player", v[0].Message)
		}
	})

	t.Run("no violation once rested", func(t *testing.T) {
		v := checkPlayerOverlap(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 13, 0, "Cancha 2", "Mixto", "Ana / Tom", "Ivo / Noa"),
		})
		if len(v) != 0 {
			t.Errorf("expected 0 violations, got %d: %v", len(v), v)
		}
	})

	t.Run("same pair is left to the spacing check", func(t *testing.T) {
		v := checkPlayerOverlap(ref, []excel.Entry{
			entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
			entry(3, 7, 12, 50, "Cancha 2", "4ta", "Ana / Eva", "Mar / Paz"),
		})
		if len(v) != 0 {
			t.Errorf("expected 0 violations, got %d: %v", len(v), v)
		}
	})
}

func TestCheckMaxMatchesPerDay(t *testing.T) {
	ref := testReference(t)
	entries := []excel.Entry{
		entry(2, 7, 9, 0, "Cancha 1", "4ta", "Lía / Sol", "Mar / Paz"),
		entry(4, 7, 12, 0, "Cancha 1", "4ta", "Lía / Sol", "Ana / Eva"),
		entry(6, 7, 15, 0, "Cancha 1", "4ta", "Mar / Paz", "Lía / Sol"),
		entry(8, 8, 9, 0, "Cancha 1", "4ta", "Lía / Sol", "Ana / Eva"),
	}

	t.Run("violation over the daily cap", func(t *testing.T) {
		v := checkMaxMatchesPerDay(ref, entries)
		if len(v) != 1 {
			t.Fatalf("expected 1 violation, got %d: %v", len(v), v)
		}
		if v[0].Row != 6 || !strings.Contains(v[0].Message, "Lía / Sol") {
			t.Errorf("got %+v", v[0])
		}
	})

	t.Run("skipped when no cap", func(t *testing.T) {
		ref.Rules.MaxMatchesPerDay = 0
		if v := checkMaxMatchesPerDay(ref, entries); len(v) != 0 {
			t.Errorf("expected 0 violations when disabled, got %d", len(v))
		}
	})
}

func TestCheckAvailability(t *testing.T) {
	ref := testReference(t)
	v := checkAvailability(ref, []excel.Entry{
		entry(2, 7, 10, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
		entry(3, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Mar / Paz"),
		entry(4, 7, 10, 0, "Cancha 2", "4ta", "Lía / Sol", "Mar / Paz"),
	})
	if len(v) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(v), v)
	}
	if v[0].Type != "warning" || v[0].Row != 2 {
		t.Errorf("got %+v, want warning at row 2", v[0])
	}
}

func TestCheckOperatingHours(t *testing.T) {
	ref := testReference(t)
	v := checkOperatingHours(ref, []excel.Entry{
		entry(2, 7, 20, 10, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
		entry(3, 7, 20, 30, "Cancha 1", "4ta", "Ana / Eva", "Mar / Paz"),
		entry(4, 7, 8, 0, "Cancha 1", "4ta", "Lía / Sol", "Mar / Paz"),
		entry(5, 8, 3, 0, "Cancha 1", "4ta", "Lía / Sol", "Mar / Paz"),
		entry(6, 10, 12, 0, "Cancha 1", "4ta", "Lía / Sol", "Mar / Paz"),
	})
	var rows []int
	for _, vi := range v {
		rows = append(rows, vi.Row)
	}
	if len(rows) != 3 || rows[0] != 3 || rows[1] != 4 || rows[2] != 6 {
		t.Errorf("warning rows = %v, want [3 4 6]", rows)
	}
}

func TestCheckDuplicatePairings(t *testing.T) {
	v := checkDuplicatePairings([]excel.Entry{
		entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
		entry(5, 7, 16, 0, "Cancha 1", "4ta", "Lía / Sol", "Ana / Eva"),
		entry(6, 7, 17, 0, "Cancha 1", "Mixto", "Ana / Eva", "Lía / Sol"),
	})
	if len(v) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(v), v)
	}
	if v[0].Row != 5 || !strings.Contains(v[0].Message, "row 2") {
		t.Errorf("got %+v", v[0])
	}
}

func TestCheckMatchCompleteness(t *testing.T) {
	ref := testReference(t)
	v := checkMatchCompleteness(ref, []excel.Entry{
		entry(2, 7, 12, 0, "Cancha 1", "4ta", "Ana / Eva", "Lía / Sol"),
	})
	if len(v) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(v), v)
	}
	if !strings.Contains(v[0].Message, "Mar / Paz") {
		t.Errorf("first warning = %q, want Mar / Paz", v[0].Message)
	}
}

func TestFromFixturesUsesZoneMembers(t *testing.T) {
	fx := models.Fixture{
		Category: models.Category{Name: "4ta"},
		Zones:    []models.Zone{{ID: "z-a", Name: "A", PairIDs: []string{"p1", "p2"}}},
		Pairs: map[string]models.Pair{
			"p1": {ID: "p1", Player1Name: "Ana", Player2Name: "Eva"},
			"p2": {ID: "p2", Player1Name: "Lía", Player2Name: "Sol"},
			"p9": {ID: "p9", Player1Name: "Baja", Player2Name: "Pendiente"},
		},
	}
	ref := FromFixtures([]models.Fixture{fx}, schedule.Rules{})
	if len(ref.order) != 2 {
		t.Errorf("got %d pairs, want 2", len(ref.order))
	}
	if _, ok := ref.pair("4ta", "Baja / Pendiente"); ok {
		t.Error("pair outside every zone should not be expected to play")
	}
}
