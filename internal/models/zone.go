package models

// Zone is a round-robin group of pairs within a category.
type Zone struct {
	ID         string `db:"id" json:"id"`
	CategoryID string `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
	Position   int    `db:"position" json:"position"`

	PairIDs []string `db:"-" json:"pair_ids"`
}

// ZoneMember is one row of zone membership.
type ZoneMember struct {
	ZoneID   string `db:"zone_id"`
	PairID   string `db:"pair_id"`
	Position int    `db:"position"`
}

// Has reports whether the pair belongs to the zone.
func (z Zone) Has(pairID string) bool {
	for _, id := range z.PairIDs {
		if id == pairID {
			return true
		}
	}
	return false
}

// ZoneName returns "A", "B", ... "Z", "AA", ... for a zero-based index.
func ZoneName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
