package schedule

import (
	"sort"
	"time"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

// Slot is a candidate (court, date, time) for one match. Slots are never
// persisted; they are rebuilt on every run.
type Slot struct {
	Date    time.Time
	Weekday time.Weekday
	Time    models.Clock
	Court   string

	courtPos int
}

// Start returns the slot start as a datetime in the date's location.
func (s Slot) Start() time.Time {
	return s.Date.Add(time.Duration(s.Time) * time.Minute)
}

// TimePoint is a (date, time) shared by all courts.
type TimePoint struct {
	Date    time.Time
	Weekday time.Weekday
	Time    models.Clock
}

// Calendar is the ordered slot sequence of a tournament.
type Calendar struct {
	Slots    []Slot
	Courts   []models.Court
	Duration time.Duration
	times    []TimePoint
}

// Len returns the number of slots (capacity).
func (c *Calendar) Len() int {
	return len(c.Slots)
}

// Times returns the distinct (date, time) points in chronological order.
func (c *Calendar) Times() []TimePoint {
	return c.times
}

// Dates returns the distinct dates that have at least one slot.
func (c *Calendar) Dates() []time.Time {
	var dates []time.Time
	for _, tp := range c.times {
		if n := len(dates); n == 0 || !dates[n-1].Equal(tp.Date) {
			dates = append(dates, tp.Date)
		}
	}
	return dates
}

// BuildCalendar expands tournament operating hours into slots, one per
// active court per match-length step of every window. A trailing remainder
// shorter than the match duration is dropped.
func BuildCalendar(t *models.Tournament, courts []models.Court) (*Calendar, error) {
	start := truncateDay(t.StartDate)
	end := truncateDay(t.EndDate)
	if t.StartDate.IsZero() || t.EndDate.IsZero() || end.Before(start) {
		return nil, appErrors.Structural("tournament %q has no date range", t.Name)
	}

	active := models.ActiveCourts(courts)
	if len(active) == 0 {
		return nil, appErrors.Structural("tournament %q has no active courts", t.Name)
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Position != active[j].Position {
			return active[i].Position < active[j].Position
		}
		return active[i].ID < active[j].ID
	})

	step := models.Clock(t.MatchDuration() / time.Minute)
	cal := &Calendar{Courts: active, Duration: t.MatchDuration()}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, tm := range timesForDay(d.Weekday(), t.Hours, step) {
			cal.times = append(cal.times, TimePoint{Date: d, Weekday: d.Weekday(), Time: tm})
			for pos, court := range active {
				cal.Slots = append(cal.Slots, Slot{
					Date:     d,
					Weekday:  d.Weekday(),
					Time:     tm,
					Court:    court.ID,
					courtPos: pos,
				})
			}
		}
	}

	if len(cal.Slots) == 0 {
		return nil, appErrors.Structural("tournament %q has no operating-hour windows long enough for a %d-minute match",
			t.Name, int(step))
	}

	sort.SliceStable(cal.Slots, func(i, j int) bool {
		a, b := cal.Slots[i], cal.Slots[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.courtPos < b.courtPos
	})
	sort.SliceStable(cal.times, func(i, j int) bool {
		a, b := cal.times[i], cal.times[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Time < b.Time
	})

	return cal, nil
}

// timesForDay walks each window from open in step increments.
func timesForDay(d time.Weekday, hours models.OperatingHours, step models.Clock) []models.Clock {
	seen := make(map[models.Clock]bool)
	var times []models.Clock
	for _, w := range hours.WindowsFor(d) {
		for t := w.Open; t+step <= w.Close; t += step {
			if !seen[t] {
				seen[t] = true
				times = append(times, t)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
