package service

import (
	"time"

	"github.com/derekprior/padelfix/internal/models"
)

// BuildZonesRequest asks for a category's zones to be rebuilt.
type BuildZonesRequest struct {
	CategoryID string             `validate:"required"`
	Target     int                `validate:"omitempty,min=2"`
	ZoneCount  int                `validate:"omitempty,min=1"`
	Mode       models.BalanceMode `validate:"omitempty,oneof=none rating time"`
}

// MovePairRequest moves a pair into another zone of its category.
type MovePairRequest struct {
	PairID string `validate:"required"`
	ZoneID string `validate:"required"`
}

// MovePairResponse reports what a move touched.
type MovePairResponse struct {
	From       models.Zone
	To         models.Zone
	Imbalanced bool
	// Regenerated is the number of pending matches recreated for both zones.
	Regenerated int
}

// ManualSlotRequest pins a match to a court and start time.
type ManualSlotRequest struct {
	MatchID  string    `validate:"required"`
	CourtID  string    `validate:"required"`
	StartsAt time.Time `validate:"required"`
}
