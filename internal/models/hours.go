package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DayType groups weekdays for hour configuration fallback.
type DayType string

const (
	DayTypeWeekday DayType = "weekday"
	DayTypeWeekend DayType = "weekend"
)

var dayTypeAliases = map[string]DayType{
	"weekday":       DayTypeWeekday,
	"weekdays":      DayTypeWeekday,
	"entre_semana":  DayTypeWeekday,
	"entresemana":   DayTypeWeekday,
	"semana":        DayTypeWeekday,
	"weekend":       DayTypeWeekend,
	"weekends":      DayTypeWeekend,
	"fin_de_semana": DayTypeWeekend,
	"finde":         DayTypeWeekend,
}

// OperatingHours maps weekdays and day types to opening windows. A key that
// is present with no windows means the venue is closed that day.
type OperatingHours struct {
	Days  map[time.Weekday][]Window
	Types map[DayType][]Window
}

// IsZero reports whether nothing at all is configured.
func (h OperatingHours) IsZero() bool {
	return len(h.Days) == 0 && len(h.Types) == 0
}

// WindowsFor resolves the windows for a weekday: exact weekday first, then
// day type, then a full-day window.
func (h OperatingHours) WindowsFor(d time.Weekday) []Window {
	if w, ok := h.Days[d]; ok {
		return w
	}
	dt := DayTypeWeekday
	if IsWeekend(d) {
		dt = DayTypeWeekend
	}
	if w, ok := h.Types[dt]; ok {
		return w
	}
	return []Window{FullDay}
}

// ParseOperatingHours builds OperatingHours from a key -> windows map.
func ParseOperatingHours(raw map[string][]Window) (OperatingHours, error) {
	h := OperatingHours{
		Days:  make(map[time.Weekday][]Window),
		Types: make(map[DayType][]Window),
	}
	for key, windows := range raw {
		for _, w := range windows {
			if w.Close <= w.Open {
				return OperatingHours{}, fmt.Errorf("operating hours %q: close %s must be after open %s", key, w.Close, w.Open)
			}
		}
		sorted := append([]Window(nil), windows...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Open < sorted[j].Open })

		if dt, ok := dayTypeAliases[Fold(key)]; ok {
			h.Types[dt] = append(h.Types[dt], sorted...)
			continue
		}
		d, err := ParseWeekday(key)
		if err != nil {
			return OperatingHours{}, fmt.Errorf("operating hours: %w", err)
		}
		h.Days[d] = append(h.Days[d], sorted...)
	}
	return h, nil
}

func (h *OperatingHours) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*h = OperatingHours{}
		return nil
	}
	var raw map[string][]Window
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("operating hours: %w", err)
	}
	parsed, err := ParseOperatingHours(raw)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h *OperatingHours) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string][]Window
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("operating hours: %w", err)
	}
	parsed, err := ParseOperatingHours(raw)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h OperatingHours) MarshalJSON() ([]byte, error) {
	raw := make(map[string][]Window, len(h.Days)+len(h.Types))
	for d, w := range h.Days {
		raw[Fold(WeekdayName(d))] = nonNil(w)
	}
	for dt, w := range h.Types {
		raw[string(dt)] = nonNil(w)
	}
	return json.Marshal(raw)
}

func nonNil(w []Window) []Window {
	if w == nil {
		return []Window{}
	}
	return w
}
