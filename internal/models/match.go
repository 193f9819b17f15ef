package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// MatchState is the scheduling lifecycle of a match.
type MatchState string

const (
	MatchPending       MatchState = "pending"
	MatchScheduled     MatchState = "scheduled"
	MatchUnschedulable MatchState = "unschedulable"
)

// MatchOrigin records whether the slot came from the assigner or an operator.
type MatchOrigin string

const (
	OriginAuto   MatchOrigin = "auto"
	OriginManual MatchOrigin = "manual"
)

// Match is a zone (or playoff) match between two pairs.
type Match struct {
	ID         string         `db:"id" json:"id"`
	CategoryID string         `db:"category_id" json:"category_id"`
	ZoneID     *string        `db:"zone_id" json:"zone_id,omitempty"`
	Phase      *string        `db:"phase" json:"phase,omitempty"`
	Pair1ID    string         `db:"pair1_id" json:"pair1_id"`
	Pair2ID    string         `db:"pair2_id" json:"pair2_id"`
	CourtID    *string        `db:"court_id" json:"court_id,omitempty"`
	StartsAt   *time.Time     `db:"starts_at" json:"starts_at,omitempty"`
	State      MatchState     `db:"state" json:"state"`
	Origin     MatchOrigin    `db:"origin" json:"origin"`
	Diagnostic types.JSONText `db:"diagnostic" json:"diagnostic,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Zone returns the zone id or "" for playoff matches.
func (m Match) Zone() string {
	if m.ZoneID == nil {
		return ""
	}
	return *m.ZoneID
}

// Court returns the assigned court id or "".
func (m Match) Court() string {
	if m.CourtID == nil {
		return ""
	}
	return *m.CourtID
}

// Involves reports whether the pair plays this match.
func (m Match) Involves(pairID string) bool {
	return m.Pair1ID == pairID || m.Pair2ID == pairID
}

// SamePairing reports whether both matches are between the same two pairs.
func (m Match) SamePairing(o Match) bool {
	return (m.Pair1ID == o.Pair1ID && m.Pair2ID == o.Pair2ID) ||
		(m.Pair1ID == o.Pair2ID && m.Pair2ID == o.Pair1ID)
}

// Schedule assigns a court and start time and marks the match scheduled.
func (m *Match) Schedule(courtID string, startsAt time.Time, origin MatchOrigin) {
	m.CourtID = &courtID
	m.StartsAt = &startsAt
	m.State = MatchScheduled
	m.Origin = origin
	m.Diagnostic = nil
}
