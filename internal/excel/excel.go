package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
)

const (
	// MasterSheet holds the venue grid: one row per date and time, one
	// column per court.
	MasterSheet = "Fixture"
	// UnschedulableSheet lists the matches the assigner could not place.
	UnschedulableSheet = "Unschedulable"

	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// Generate creates a workbook with the master grid, one sheet per zone and
// the unschedulable matches of every fixture. All fixtures must belong to the
// same tournament; they share the courts.
func Generate(fixtures []models.Fixture) (*excelize.File, error) {
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixtures to export")
	}
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	if err := writeMasterSheet(f, fixtures); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	var entries []Entry
	for i := range fixtures {
		entries = append(entries, entriesOf(&fixtures[i])...)
	}
	if err := writeZoneSheets(f, entries); err != nil {
		return nil, fmt.Errorf("writing zone sheets: %w", err)
	}

	if err := writeUnschedulableSheet(f, fixtures); err != nil {
		return nil, fmt.Errorf("writing unschedulable sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// Entry is one match cell of the master grid.
type Entry struct {
	Row      int
	Start    time.Time
	Court    string
	Category string
	Zone     string
	Pair1    string
	Pair2    string
	State    models.MatchState
}

// Cell renders the entry the way the master grid shows it.
func (e Entry) Cell() string {
	return fmt.Sprintf("%s · %s: %s vs %s", e.Category, e.Zone, e.Pair1, e.Pair2)
}

// ParseCell reads "Category · Zone: Pair1 vs Pair2". Cells in any other
// shape (notes, reservations) return ok = false.
func ParseCell(cell string) (category, zone, pair1, pair2 string, ok bool) {
	head, body, found := strings.Cut(cell, ": ")
	if !found {
		return "", "", "", "", false
	}
	category, zone, found = strings.Cut(head, " · ")
	if !found {
		return "", "", "", "", false
	}
	pair1, pair2, found = strings.Cut(body, " vs ")
	if !found || pair1 == "" || pair2 == "" {
		return "", "", "", "", false
	}
	return strings.TrimSpace(category), strings.TrimSpace(zone), strings.TrimSpace(pair1), strings.TrimSpace(pair2), true
}

func entriesOf(fx *models.Fixture) []Entry {
	var out []Entry
	for _, m := range fx.Matches {
		e := Entry{
			Category: fx.Category.Name,
			Zone:     fx.ZoneName(m.Zone()),
			Pair1:    fx.PairName(m.Pair1ID),
			Pair2:    fx.PairName(m.Pair2ID),
			State:    m.State,
		}
		if m.State == models.MatchScheduled && m.StartsAt != nil {
			e.Start = *m.StartsAt
			e.Court = fx.CourtName(m.Court())
		}
		out = append(out, e)
	}
	return out
}

type gridKey struct {
	date  time.Time
	clock models.Clock
}

func keyOf(t time.Time) gridKey {
	y, m, d := t.Date()
	return gridKey{
		date:  time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
		clock: models.Clock(t.Hour()*60 + t.Minute()),
	}
}

func writeMasterSheet(f *excelize.File, fixtures []models.Fixture) error {
	sheet := MasterSheet
	f.NewSheet(sheet)

	courts := models.ActiveCourts(fixtures[0].Courts)
	sort.SliceStable(courts, func(i, j int) bool { return courts[i].Position < courts[j].Position })
	courtCol := make(map[string]int, len(courts))

	// Headers: Date, Day, Time, <court1>, <court2>, ...
	headers := []string{"Date", "Day", "Time"}
	for i, c := range courts {
		headers = append(headers, c.Name)
		courtCol[c.ID] = i + 4
	}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
	}
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})
	courtCellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// Every calendar time gets a row so free slots stay visible; manual
	// slots off the calendar still get theirs.
	seen := make(map[gridKey]bool)
	var keys []gridKey
	add := func(k gridKey) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if cal, err := schedule.BuildCalendar(&fixtures[0].Tournament, fixtures[0].Courts); err == nil {
		for _, tp := range cal.Times() {
			add(gridKey{tp.Date, tp.Time})
		}
	}

	cells := make(map[gridKey]map[int]string)
	for i := range fixtures {
		fx := &fixtures[i]
		for _, m := range fx.Scheduled() {
			col, ok := courtCol[m.Court()]
			if !ok {
				continue
			}
			k := keyOf(*m.StartsAt)
			add(k)
			if cells[k] == nil {
				cells[k] = make(map[int]string)
			}
			cells[k][col] = Entry{
				Category: fx.Category.Name,
				Zone:     fx.ZoneName(m.Zone()),
				Pair1:    fx.PairName(m.Pair1ID),
				Pair2:    fx.PairName(m.Pair2ID),
			}.Cell()
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].clock < keys[j].clock
	})

	for i, k := range keys {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), k.date.Format(dateLayout))
		f.SetCellValue(sheet, cellRef(2, row), models.WeekdayName(k.date.Weekday()))
		f.SetCellValue(sheet, cellRef(3, row), k.clock.String())
		for col, text := range cells[k] {
			f.SetCellValue(sheet, cellRef(col, row), text)
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(3, row), cellStyle)
		}
		if courtCellStyle != 0 && len(courts) > 0 {
			f.SetCellStyle(sheet, cellRef(4, row), cellRef(len(headers), row), courtCellStyle)
		}
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 12)
	f.SetColWidth(sheet, "C", "C", 8)
	for i := range courts {
		col := colLetter(i + 4)
		f.SetColWidth(sheet, col, col, 60)
	}

	// Hand-typed notes in court columns get a light red fill.
	lastRow := len(keys) + 1
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})
	for i := range courts {
		col := colLetter(i + 4)
		topCell := fmt.Sprintf("%s2", col)
		f.SetConditionalFormat(sheet, fmt.Sprintf("%s2:%s%d", col, col, lastRow), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: fmt.Sprintf(`AND(%s<>"",ISERROR(FIND(" vs ",%s)))`, topCell, topCell),
				Format:   &redFill,
			},
		})
	}

	return nil
}

// zoneSheetName builds a unique sheet name within Excel's 31 character
// limit and without the characters it forbids.
func zoneSheetName(category, zone string, used map[string]bool) string {
	clean := strings.NewReplacer(":", "", "\\", "", "/", "-", "?", "", "*", "", "[", "(", "]", ")").
		Replace(category + " " + zone)
	name := clean
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" %d", n)
		r := []rune(clean)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[name] = true
	return name
}

func writeZoneSheets(f *excelize.File, entries []Entry) error {
	type zoneKey struct{ category, zone string }
	groups := make(map[zoneKey][]Entry)
	var order []zoneKey
	for _, e := range entries {
		k := zoneKey{e.Category, e.Zone}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	used := map[string]bool{MasterSheet: true, UnschedulableSheet: true}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})

	for _, k := range order {
		sheet := zoneSheetName(k.category, k.zone, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}

		headers := []string{"Date", "Day", "Time", "Court", "Pair 1", "Pair 2", "State"}
		for i, h := range headers {
			f.SetCellValue(sheet, cellRef(i+1, 1), h)
		}
		if headerStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
		}

		matches := groups[k]
		sort.SliceStable(matches, func(i, j int) bool {
			a, b := matches[i], matches[j]
			if a.Start.IsZero() != b.Start.IsZero() {
				return !a.Start.IsZero()
			}
			return a.Start.Before(b.Start)
		})

		for i, m := range matches {
			row := i + 2
			if !m.Start.IsZero() {
				f.SetCellValue(sheet, cellRef(1, row), m.Start.Format(dateLayout))
				f.SetCellValue(sheet, cellRef(2, row), models.WeekdayName(m.Start.Weekday()))
				f.SetCellValue(sheet, cellRef(3, row), m.Start.Format(timeLayout))
				f.SetCellValue(sheet, cellRef(4, row), m.Court)
			}
			f.SetCellValue(sheet, cellRef(5, row), m.Pair1)
			f.SetCellValue(sheet, cellRef(6, row), m.Pair2)
			f.SetCellValue(sheet, cellRef(7, row), string(m.State))
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
			}
		}

		widths := map[string]float64{"A": 14, "B": 12, "C": 8, "D": 18, "E": 36, "F": 36, "G": 16}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func writeUnschedulableSheet(f *excelize.File, fixtures []models.Fixture) error {
	sheet := UnschedulableSheet
	f.NewSheet(sheet)

	headers := []string{"Category", "Zone", "Pair 1", "Pair 2", "Reason", "Pair 1 availability", "Pair 2 availability"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C00000"}},
	})
	if headerStyle != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
	}

	row := 2
	for i := range fixtures {
		fx := &fixtures[i]
		for _, u := range fx.Unschedulable() {
			str := func(key string) string {
				if v, ok := u.Fields[key].(string); ok {
					return v
				}
				return ""
			}
			values := []string{
				fx.Category.Name,
				fx.ZoneName(u.Match.Zone()),
				fx.PairName(u.Match.Pair1ID),
				fx.PairName(u.Match.Pair2ID),
				u.Reason,
				str("pair1_availability"),
				str("pair2_availability"),
			}
			for col, v := range values {
				f.SetCellValue(sheet, cellRef(col+1, row), v)
			}
			row++
		}
	}

	widths := map[string]float64{"A": 20, "B": 8, "C": 36, "D": 36, "E": 70, "F": 40, "G": 40}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// ReadMaster parses the match cells of the master grid. Court is the column
// header, so it holds the court name.
func ReadMaster(f *excelize.File) ([]Entry, error) {
	rows, err := f.GetRows(MasterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MasterSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", MasterSheet)
	}

	header := rows[0]
	var entries []Entry
	for i, row := range rows {
		if i == 0 || len(row) < 3 || row[0] == "" {
			continue
		}
		date, err := time.Parse(dateLayout, row[0])
		if err != nil {
			continue
		}
		clock, err := models.ParseClock(row[2])
		if err != nil {
			continue
		}
		start := date.Add(time.Duration(clock) * time.Minute)

		for col := 3; col < len(row) && col < len(header); col++ {
			category, zone, p1, p2, ok := ParseCell(row[col])
			if !ok {
				continue
			}
			entries = append(entries, Entry{
				Row:      i + 1,
				Start:    start,
				Court:    header[col],
				Category: category,
				Zone:     zone,
				Pair1:    p1,
				Pair2:    p2,
				State:    models.MatchScheduled,
			})
		}
	}
	return entries, nil
}

// UpdateZoneSheets rebuilds the zone sheets of a workbook from its master
// grid, so hand edits to the grid show up per zone.
func UpdateZoneSheets(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	entries, err := ReadMaster(f)
	if err != nil {
		return err
	}
	for _, name := range f.GetSheetList() {
		if name != MasterSheet && name != UnschedulableSheet {
			f.DeleteSheet(name)
		}
	}
	if err := writeZoneSheets(f, entries); err != nil {
		return err
	}
	if idx, err := f.GetSheetIndex(MasterSheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f.Save()
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
