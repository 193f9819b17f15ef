package models

import (
	"github.com/jmoiron/sqlx/types"
)

// PairState is the registration lifecycle of a pair.
type PairState string

const (
	PairPending   PairState = "pending"
	PairConfirmed PairState = "confirmed"
	PairWithdrawn PairState = "withdrawn"
)

// Pair is a two-player team registered in a category.
type Pair struct {
	ID          string    `db:"id" json:"id"`
	CategoryID  string    `db:"category_id" json:"category_id"`
	Player1ID   string    `db:"player1_id" json:"player1_id"`
	Player1Name string    `db:"player1_name" json:"player1_name"`
	Player2ID   string    `db:"player2_id" json:"player2_id"`
	Player2Name string    `db:"player2_name" json:"player2_name"`
	State       PairState `db:"state" json:"state"`
	Rating      float64   `db:"rating" json:"rating"`

	// Restrictions is the raw payload, either a bare list or {"franjas": [...]}.
	Restrictions types.JSONText `db:"restrictions" json:"restrictions,omitempty"`
}

// Name renders "Player1 / Player2", falling back to the pair id.
func (p Pair) Name() string {
	switch {
	case p.Player1Name != "" && p.Player2Name != "":
		return p.Player1Name + " / " + p.Player2Name
	case p.Player1Name != "":
		return p.Player1Name
	case p.Player2Name != "":
		return p.Player2Name
	}
	return p.ID
}

// Players returns the known player ids of the pair.
func (p Pair) Players() []string {
	var ids []string
	if p.Player1ID != "" {
		ids = append(ids, p.Player1ID)
	}
	if p.Player2ID != "" {
		ids = append(ids, p.Player2ID)
	}
	return ids
}

// ConfirmedPairs filters a roster down to the pairs that get scheduled.
func ConfirmedPairs(pairs []Pair) []Pair {
	var out []Pair
	for _, p := range pairs {
		if p.State == PairConfirmed {
			out = append(out, p)
		}
	}
	return out
}
