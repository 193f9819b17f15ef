package validator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/padelfix/internal/availability"
	"github.com/derekprior/padelfix/internal/config"
	"github.com/derekprior/padelfix/internal/excel"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Reference is what a workbook is checked against: the venue, the rules and
// the registered pairs of every category.
type Reference struct {
	Tournament models.Tournament
	Courts     []models.Court
	Rules      schedule.Rules

	pairs    map[pairKey]models.Pair
	order    []pairKey
	resolver *availability.Resolver
}

type pairKey struct {
	category string
	name     string
}

func keyFor(category, name string) pairKey {
	return pairKey{models.Fold(category), models.Fold(name)}
}

// NewReference returns a reference with no pairs.
func NewReference(t models.Tournament, courts []models.Court, rules schedule.Rules) *Reference {
	return &Reference{
		Tournament: t,
		Courts:     courts,
		Rules:      rules,
		pairs:      make(map[pairKey]models.Pair),
		resolver:   availability.NewResolver(),
	}
}

// AddPair registers a pair under its category. A malformed restriction
// payload leaves the pair unrestricted.
func (r *Reference) AddPair(category string, p models.Pair) {
	k := keyFor(category, p.Name())
	if _, ok := r.pairs[k]; !ok {
		r.order = append(r.order, k)
	}
	r.pairs[k] = p
	_ = r.resolver.Add(p.ID, p.Restrictions)
}

func (r *Reference) pair(category, name string) (models.Pair, bool) {
	p, ok := r.pairs[keyFor(category, name)]
	return p, ok
}

// FromConfig builds the reference of a tournament file.
func FromConfig(cfg *config.Config) *Reference {
	ref := NewReference(*cfg.ModelTournament(), cfg.ModelCourts(), cfg.Rules)
	for _, data := range cfg.ModelCategories() {
		for _, p := range models.ConfirmedPairs(data.Pairs) {
			ref.AddPair(data.Category.Name, p)
		}
	}
	return ref
}

// FromFixtures builds the reference of stored fixtures. Only zone members
// are expected to play.
func FromFixtures(fixtures []models.Fixture, rules schedule.Rules) *Reference {
	if len(fixtures) == 0 {
		return NewReference(models.Tournament{}, nil, rules)
	}
	ref := NewReference(fixtures[0].Tournament, fixtures[0].Courts, rules)
	for _, fx := range fixtures {
		for _, z := range fx.Zones {
			for _, id := range z.PairIDs {
				if p, ok := fx.Pairs[id]; ok {
					ref.AddPair(fx.Category.Name, p)
				}
			}
		}
	}
	return ref
}

// Validate reads a fixture workbook and checks it against the reference.
func Validate(ref *Reference, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	entries, err := excel.ReadMaster(f)
	if err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}

	var violations []Violation

	// Check hard constraints
	violations = append(violations, checkUnknownCourts(ref, entries)...)
	violations = append(violations, checkUnknownPairs(ref, entries)...)
	violations = append(violations, checkCourtOverlap(ref, entries)...)
	violations = append(violations, checkPairSpacing(ref, entries)...)
	violations = append(violations, checkPlayerOverlap(ref, entries)...)
	violations = append(violations, checkMaxMatchesPerDay(ref, entries)...)

	// Check soft constraints
	violations = append(violations, checkAvailability(ref, entries)...)
	violations = append(violations, checkOperatingHours(ref, entries)...)
	violations = append(violations, checkDuplicatePairings(entries)...)

	// Check match completeness
	violations = append(violations, checkMatchCompleteness(ref, entries)...)

	return violations, nil
}

func clockOf(t time.Time) models.Clock {
	return models.Clock(t.Hour()*60 + t.Minute())
}

func stamp(t time.Time) string {
	return fmt.Sprintf("%s %s", t.Format("02/01"), t.Format("15:04"))
}

func byRow(v []Violation) []Violation {
	sort.SliceStable(v, func(i, j int) bool { return v[i].Row < v[j].Row })
	return v
}

func gap(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

func checkUnknownCourts(ref *Reference, entries []excel.Entry) []Violation {
	courts := make(map[string]models.Court, len(ref.Courts))
	for _, c := range ref.Courts {
		courts[models.Fold(c.Name)] = c
	}

	var violations []Violation
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Court] {
			continue
		}
		seen[e.Court] = true
		c, ok := courts[models.Fold(e.Court)]
		switch {
		case !ok:
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("unknown court %q", e.Court),
			})
		case !c.Active:
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("court %q is inactive", e.Court),
			})
		}
	}
	return violations
}

func checkUnknownPairs(ref *Reference, entries []excel.Entry) []Violation {
	var violations []Violation
	for _, e := range entries {
		for _, name := range []string{e.Pair1, e.Pair2} {
			if _, ok := ref.pair(e.Category, name); !ok {
				violations = append(violations, Violation{
					Row:     e.Row,
					Type:    "error",
					Message: fmt.Sprintf("unknown pair %q in %s", name, e.Category),
				})
			}
		}
	}
	return violations
}

// checkCourtOverlap catches hand-moved matches that start off the grid and
// run into another match on the same court.
func checkCourtOverlap(ref *Reference, entries []excel.Entry) []Violation {
	duration := ref.Tournament.MatchDuration()
	byCourt := make(map[string][]excel.Entry)
	for _, e := range entries {
		byCourt[e.Court] = append(byCourt[e.Court], e)
	}

	var violations []Violation
	for court, list := range byCourt {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
		for i := 1; i < len(list); i++ {
			if gap(list[i].Start, list[i-1].Start) < duration {
				violations = append(violations, Violation{
					Row:  list[i].Row,
					Type: "error",
					Message: fmt.Sprintf("%s: match at %s overlaps the one at %s",
						court, stamp(list[i].Start), stamp(list[i-1].Start)),
				})
			}
		}
	}
	return byRow(violations)
}

func checkPairSpacing(ref *Reference, entries []excel.Entry) []Violation {
	spacing := ref.Tournament.MatchDuration() + time.Duration(ref.Rules.MinRestMinutes)*time.Minute
	type played struct {
		name string
		e    excel.Entry
	}
	byPair := make(map[pairKey][]played)
	var order []pairKey
	for _, e := range entries {
		for _, name := range []string{e.Pair1, e.Pair2} {
			k := keyFor(e.Category, name)
			if _, ok := byPair[k]; !ok {
				order = append(order, k)
			}
			byPair[k] = append(byPair[k], played{name, e})
		}
	}

	var violations []Violation
	for _, k := range order {
		list := byPair[k]
		sort.SliceStable(list, func(i, j int) bool { return list[i].e.Start.Before(list[j].e.Start) })
		for i := 1; i < len(list); i++ {
			if gap(list[i].e.Start, list[i-1].e.Start) < spacing {
				violations = append(violations, Violation{
					Row:  list[i].e.Row,
					Type: "error",
					Message: fmt.Sprintf("%s plays at %s and %s (less than %d minutes apart)",
						list[i].name, stamp(list[i-1].e.Start), stamp(list[i].e.Start), int(spacing/time.Minute)),
				})
			}
		}
	}
	return byRow(violations)
}

// checkPlayerOverlap finds players booked in two pairs, usually across
// categories, too close together.
func checkPlayerOverlap(ref *Reference, entries []excel.Entry) []Violation {
	spacing := ref.Tournament.MatchDuration() + time.Duration(ref.Rules.MinRestMinutes)*time.Minute
	type booking struct {
		player string
		pair   pairKey
		e      excel.Entry
	}
	byPlayer := make(map[string][]booking)
	var order []string
	for _, e := range entries {
		for _, name := range []string{e.Pair1, e.Pair2} {
			pk := keyFor(e.Category, name)
			for _, player := range strings.Split(name, " / ") {
				player = strings.TrimSpace(player)
				k := models.Fold(player)
				if k == "" {
					continue
				}
				if _, ok := byPlayer[k]; !ok {
					order = append(order, k)
				}
				byPlayer[k] = append(byPlayer[k], booking{player, pk, e})
			}
		}
	}

	var violations []Violation
	for _, k := range order {
		list := byPlayer[k]
		sort.SliceStable(list, func(i, j int) bool { return list[i].e.Start.Before(list[j].e.Start) })
		for i := range list {
			for j := i + 1; j < len(list) && gap(list[j].e.Start, list[i].e.Start) < spacing; j++ {
				if list[i].pair == list[j].pair {
					continue
				}
				violations = append(violations, Violation{
					Row:  list[j].e.Row,
					Type: "error",
					Message: fmt.Sprintf("%s is booked in %s at %s and in %s at %s",
						list[j].player, list[i].e.Category, stamp(list[i].e.Start), list[j].e.Category, stamp(list[j].e.Start)),
				})
			}
		}
	}
	return byRow(violations)
}

func checkMaxMatchesPerDay(ref *Reference, entries []excel.Entry) []Violation {
	limit := ref.Rules.MaxMatchesPerDay
	if limit <= 0 {
		return nil
	}
	type pairDay struct {
		pair pairKey
		date time.Time
	}
	rows := make(map[pairDay][]int)
	names := make(map[pairDay]string)
	var order []pairDay
	for _, e := range entries {
		y, m, d := e.Start.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, e.Start.Location())
		for _, name := range []string{e.Pair1, e.Pair2} {
			k := pairDay{keyFor(e.Category, name), date}
			if _, ok := rows[k]; !ok {
				order = append(order, k)
				names[k] = name
			}
			rows[k] = append(rows[k], e.Row)
		}
	}

	var violations []Violation
	for _, k := range order {
		if len(rows[k]) > limit {
			sort.Ints(rows[k])
			violations = append(violations, Violation{
				Row:     rows[k][limit],
				Type:    "error",
				Message: fmt.Sprintf("%s plays %d matches on %s (max %d)", names[k], len(rows[k]), k.date.Format("02/01"), limit),
			})
		}
	}
	return byRow(violations)
}

func checkAvailability(ref *Reference, entries []excel.Entry) []Violation {
	var violations []Violation
	for _, e := range entries {
		for _, name := range []string{e.Pair1, e.Pair2} {
			p, ok := ref.pair(e.Category, name)
			if !ok {
				continue
			}
			if !ref.resolver.Available(p.ID, e.Start.Weekday(), clockOf(e.Start)) {
				violations = append(violations, Violation{
					Row:  e.Row,
					Type: "warning",
					Message: fmt.Sprintf("%s plays %s %s outside their availability (%s)",
						name, models.WeekdayName(e.Start.Weekday()), stamp(e.Start), ref.resolver.Summary(p.ID)),
				})
			}
		}
	}
	return violations
}

func checkOperatingHours(ref *Reference, entries []excel.Entry) []Violation {
	t := ref.Tournament
	duration := models.Clock(t.MatchDuration() / time.Minute)
	first := time.Date(t.StartDate.Year(), t.StartDate.Month(), t.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(t.EndDate.Year(), t.EndDate.Month(), t.EndDate.Day(), 0, 0, 0, 0, time.UTC)

	var violations []Violation
	for _, e := range entries {
		day := time.Date(e.Start.Year(), e.Start.Month(), e.Start.Day(), 0, 0, 0, 0, time.UTC)
		if !t.StartDate.IsZero() && (day.Before(first) || day.After(last)) {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "warning",
				Message: fmt.Sprintf("match at %s is outside the tournament dates", stamp(e.Start)),
			})
			continue
		}

		at := clockOf(e.Start)
		fits := false
		for _, w := range t.Hours.WindowsFor(e.Start.Weekday()) {
			if at >= w.Open && at+duration <= w.Close {
				fits = true
				break
			}
		}
		if !fits {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "warning",
				Message: fmt.Sprintf("match at %s %s is outside operating hours", models.WeekdayName(e.Start.Weekday()), stamp(e.Start)),
			})
		}
	}
	return violations
}

func checkDuplicatePairings(entries []excel.Entry) []Violation {
	type pairing struct {
		category string
		a, b     string
	}
	seen := make(map[pairing]int)
	var violations []Violation
	for _, e := range entries {
		a, b := models.Fold(e.Pair1), models.Fold(e.Pair2)
		if a > b {
			a, b = b, a
		}
		k := pairing{models.Fold(e.Category), a, b}
		if row, ok := seen[k]; ok {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "warning",
				Message: fmt.Sprintf("%s vs %s is scheduled again (first at row %d)", e.Pair1, e.Pair2, row),
			})
			continue
		}
		seen[k] = e.Row
	}
	return violations
}

func checkMatchCompleteness(ref *Reference, entries []excel.Entry) []Violation {
	counts := make(map[pairKey]int)
	for _, e := range entries {
		counts[keyFor(e.Category, e.Pair1)]++
		counts[keyFor(e.Category, e.Pair2)]++
	}

	var violations []Violation
	for _, k := range ref.order {
		if counts[k] == 0 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has no matches scheduled", ref.pairs[k].Name()),
			})
		}
	}
	return violations
}
