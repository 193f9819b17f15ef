package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Fixture is a category's stored fixture with everything needed to render
// it: the venue, the roster and the matches.
type Fixture struct {
	Tournament Tournament
	Category   Category
	Courts     []Court
	Zones      []Zone
	Pairs      map[string]Pair
	Matches    []Match
}

// UnschedulableMatch pairs a match with its decoded diagnostic payload.
type UnschedulableMatch struct {
	Match  Match
	Reason string
	Fields map[string]any
}

// Scheduled returns the placed matches ordered by start, then court position.
func (f *Fixture) Scheduled() []Match {
	pos := make(map[string]int, len(f.Courts))
	for _, c := range f.Courts {
		pos[c.ID] = c.Position
	}
	var out []Match
	for _, m := range f.Matches {
		if m.State == MatchScheduled && m.StartsAt != nil && m.CourtID != nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartsAt.Equal(*b.StartsAt) {
			return a.StartsAt.Before(*b.StartsAt)
		}
		return pos[a.Court()] < pos[b.Court()]
	})
	return out
}

// Unschedulable returns the matches the assigner gave up on.
func (f *Fixture) Unschedulable() []UnschedulableMatch {
	var out []UnschedulableMatch
	for _, m := range f.Matches {
		if m.State != MatchUnschedulable {
			continue
		}
		u := UnschedulableMatch{Match: m}
		if len(m.Diagnostic) > 0 {
			var fields map[string]any
			if err := json.Unmarshal(m.Diagnostic, &fields); err == nil {
				u.Fields = fields
				if reason, ok := fields["reason"].(string); ok {
					u.Reason = reason
				}
			}
		}
		out = append(out, u)
	}
	return out
}

// ZoneMatches returns the matches of one zone in stored order.
func (f *Fixture) ZoneMatches(zoneID string) []Match {
	var out []Match
	for _, m := range f.Matches {
		if m.Zone() == zoneID {
			out = append(out, m)
		}
	}
	return out
}

// PairName resolves a pair id to its display name.
func (f *Fixture) PairName(id string) string {
	if p, ok := f.Pairs[id]; ok {
		return p.Name()
	}
	return id
}

// CourtName resolves a court id to its display name.
func (f *Fixture) CourtName(id string) string {
	for _, c := range f.Courts {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

// ZoneName resolves a zone id to its display name.
func (f *Fixture) ZoneName(id string) string {
	for _, z := range f.Zones {
		if z.ID == id {
			return z.Name
		}
	}
	return id
}

// Label renders a match as "Pair1 vs Pair2".
func (f *Fixture) Label(m Match) string {
	return f.PairName(m.Pair1ID) + " vs " + f.PairName(m.Pair2ID)
}

// Dates returns the distinct dates on which the fixture has matches.
func (f *Fixture) Dates() []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, m := range f.Scheduled() {
		y, mo, d := m.StartsAt.Date()
		day := time.Date(y, mo, d, 0, 0, 0, 0, m.StartsAt.Location())
		if !seen[day] {
			seen[day] = true
			dates = append(dates, day)
		}
	}
	return dates
}
