package models

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EndOfDay is the largest valid Clock, usable only as a closing bound.
const EndOfDay Clock = 24 * 60

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (or "H:MM"). "24:00" is accepted.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("invalid time %q: minutes must be two digits", s)
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	c := Clock(hours*60 + minutes)
	if c > EndOfDay {
		return 0, fmt.Errorf("invalid time %q: past 24:00", s)
	}
	return c, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Clock) UnmarshalYAML(value *yaml.Node) error {
	return c.UnmarshalText([]byte(value.Value))
}

// Window is a half-open [Open, Close) range of the day.
type Window struct {
	Open  Clock `json:"open" yaml:"open"`
	Close Clock `json:"close" yaml:"close"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t Clock) bool {
	return t >= w.Open && t < w.Close
}

func (w Window) String() string {
	return w.Open.String() + "-" + w.Close.String()
}

// FullDay is used for dates with no operating hours configured.
var FullDay = Window{Open: 0, Close: EndOfDay}
