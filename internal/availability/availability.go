// Package availability normalises pair restriction payloads and answers
// point-in-time availability queries.
//
// Polarity: a weekday's listed windows are the only times the pair can play
// on that weekday. Weekdays without entries are open all day, and a pair
// with no entries at all is always available. Only a match's start time is
// checked: a match starting inside a window may run past its end.
package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/derekprior/padelfix/internal/models"
)

// Entry is one restriction line of the raw payload.
type Entry struct {
	Days  []Day  `json:"days"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Day accepts a weekday name or an ISO day number.
type Day time.Weekday

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid day %s", string(b))
		}
		s = strconv.Itoa(n)
	}
	wd, err := models.ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = Day(wd)
	return nil
}

type wrapped struct {
	Franjas *[]Entry `json:"franjas"`
}

// Restrictions is the canonical weekday -> windows form of a payload.
type Restrictions struct {
	byDay map[time.Weekday][]models.Window
}

// Parse normalises either payload shape. Null or empty input yields no
// restrictions.
func Parse(raw []byte) (Restrictions, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return Restrictions{}, nil
	}

	var entries []Entry
	switch raw[0] {
	case '[':
		if err := decodeStrict(raw, &entries); err != nil {
			return Restrictions{}, fmt.Errorf("parsing restriction list: %w", err)
		}
	case '{':
		var w wrapped
		if err := decodeStrict(raw, &w); err != nil {
			return Restrictions{}, fmt.Errorf("parsing restriction object: %w", err)
		}
		if w.Franjas == nil {
			return Restrictions{}, fmt.Errorf("restriction object needs a \"franjas\" list")
		}
		entries = *w.Franjas
	default:
		return Restrictions{}, fmt.Errorf("unsupported restriction payload %q", truncate(string(raw), 40))
	}
	return FromEntries(entries)
}

// decodeStrict rejects unknown keys so misspelled fields are reported.
func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after payload")
	}
	return nil
}

// FromEntries builds Restrictions from already-decoded entries.
func FromEntries(entries []Entry) (Restrictions, error) {
	r := Restrictions{byDay: make(map[time.Weekday][]models.Window)}
	for i, e := range entries {
		start, err := models.ParseClock(e.Start)
		if err != nil {
			return Restrictions{}, fmt.Errorf("restriction %d: start: %w", i+1, err)
		}
		end, err := models.ParseClock(e.End)
		if err != nil {
			return Restrictions{}, fmt.Errorf("restriction %d: end: %w", i+1, err)
		}
		if end <= start {
			return Restrictions{}, fmt.Errorf("restriction %d: end %s must be after start %s", i+1, end, start)
		}
		if len(e.Days) == 0 {
			return Restrictions{}, fmt.Errorf("restriction %d: at least one day is required", i+1)
		}
		for _, d := range e.Days {
			wd := time.Weekday(d)
			r.byDay[wd] = append(r.byDay[wd], models.Window{Open: start, Close: end})
		}
	}
	for d, windows := range r.byDay {
		r.byDay[d] = merge(windows)
	}
	return r, nil
}

func merge(windows []models.Window) []models.Window {
	sort.Slice(windows, func(i, j int) bool { return windows[i].Open < windows[j].Open })
	out := windows[:0:0]
	for _, w := range windows {
		if n := len(out); n > 0 && w.Open <= out[n-1].Close {
			if w.Close > out[n-1].Close {
				out[n-1].Close = w.Close
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// IsEmpty reports whether no restriction is configured.
func (r Restrictions) IsEmpty() bool {
	return len(r.byDay) == 0
}

// Days returns the restricted weekdays, Monday first.
func (r Restrictions) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(r.byDay))
	for d := range r.byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return mondayFirst(days[i]) < mondayFirst(days[j]) })
	return days
}

// Windows returns the windows listed for a weekday.
func (r Restrictions) Windows(d time.Weekday) []models.Window {
	return r.byDay[d]
}

// Available reports whether a match may start at t on weekday d.
func (r Restrictions) Available(d time.Weekday, t models.Clock) bool {
	windows, ok := r.byDay[d]
	if !ok {
		return true
	}
	for _, w := range windows {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

// Summary renders the restrictions for operator display.
func (r Restrictions) Summary() string {
	if r.IsEmpty() {
		return "no restrictions (any time)"
	}
	var parts []string
	for _, d := range r.Days() {
		var ws []string
		for _, w := range r.byDay[d] {
			ws = append(ws, w.String())
		}
		parts = append(parts, models.WeekdayName(d)+" "+strings.Join(ws, ", "))
	}
	if len(r.byDay) < 7 {
		parts = append(parts, "other days: any time")
	}
	return strings.Join(parts, "; ")
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
