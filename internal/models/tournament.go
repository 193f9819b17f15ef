package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// DefaultMatchMinutes is the slot length used when a tournament sets none.
const DefaultMatchMinutes = 50

// Tournament is read-only for the scheduler.
type Tournament struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	StartDate      time.Time      `db:"start_date" json:"start_date"`
	EndDate        time.Time      `db:"end_date" json:"end_date"`
	MatchMinutes   int            `db:"match_minutes" json:"match_minutes"`
	OperatingHours types.JSONText `db:"operating_hours" json:"operating_hours"`

	// Hours is the parsed form of OperatingHours.
	Hours OperatingHours `db:"-" json:"-"`
}

// MatchDuration returns the configured slot length, defaulting to 50 minutes.
func (t *Tournament) MatchDuration() time.Duration {
	if t.MatchMinutes <= 0 {
		return DefaultMatchMinutes * time.Minute
	}
	return time.Duration(t.MatchMinutes) * time.Minute
}

// Court is a playing surface. Inactive courts provide no capacity.
type Court struct {
	ID           string `db:"id" json:"id"`
	TournamentID string `db:"tournament_id" json:"tournament_id"`
	Name         string `db:"name" json:"name"`
	Active       bool   `db:"active" json:"active"`
	Position     int    `db:"position" json:"position"`
}

// ActiveCourts filters out inactive courts, preserving order.
func ActiveCourts(courts []Court) []Court {
	var active []Court
	for _, c := range courts {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

// BalanceMode selects how ZoneBuilder spreads pairs across zones.
type BalanceMode string

const (
	BalanceNone   BalanceMode = "none"
	BalanceRating BalanceMode = "rating"
	BalanceTime   BalanceMode = "time"
)

// Category groups pairs and zones of a tournament.
type Category struct {
	ID           string      `db:"id" json:"id"`
	TournamentID string      `db:"tournament_id" json:"tournament_id"`
	Name         string      `db:"name" json:"name"`
	Gender       string      `db:"gender" json:"gender"`
	ZoneSize     int         `db:"zone_size" json:"zone_size"`
	Balance      BalanceMode `db:"balance" json:"balance"`
}
