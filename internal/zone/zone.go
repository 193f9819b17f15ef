// Package zone splits a category's confirmed pairs into round-robin zones.
package zone

import (
	"math"
	"sort"

	"github.com/google/uuid"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
)

// DefaultTarget is the zone size used when a category does not set one.
const DefaultTarget = 4

// Options control how zones are built.
type Options struct {
	CategoryID string
	// Target is the desired zone size; 0 means DefaultTarget.
	Target int
	// ZoneCount overrides the count derived from Target when > 0.
	ZoneCount int
	Mode      models.BalanceMode

	// Times and Availability are required by BalanceTime.
	Times        []schedule.TimePoint
	Availability schedule.Lookup
}

// Build partitions the confirmed pairs into zones named A, B, C...
func Build(pairs []models.Pair, opts Options) ([]models.Zone, error) {
	confirmed := models.ConfirmedPairs(pairs)
	n := len(confirmed)
	if n < 2 {
		return nil, appErrors.Structural("a category needs at least 2 confirmed pairs to build zones, got %d", n)
	}

	k, err := zoneCount(n, opts)
	if err != nil {
		return nil, err
	}
	sizes := Sizes(n, k)

	zones := make([]models.Zone, k)
	for i := range zones {
		zones[i] = models.Zone{
			ID:         uuid.NewString(),
			CategoryID: opts.CategoryID,
			Name:       models.ZoneName(i),
			Position:   i,
			PairIDs:    make([]string, 0, sizes[i]),
		}
	}

	switch opts.Mode {
	case "", models.BalanceNone:
		chunk(zones, sizes, confirmed)
	case models.BalanceRating:
		serpentine(zones, sizes, byRating(confirmed))
	case models.BalanceTime:
		if opts.Availability == nil || len(opts.Times) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "time balancing needs the tournament calendar and pair availability")
		}
		byTime(zones, sizes, confirmed, opts.Times, opts.Availability)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown balance mode: "+string(opts.Mode))
	}
	return zones, nil
}

func zoneCount(n int, opts Options) (int, error) {
	max := n / 2
	if opts.ZoneCount > 0 {
		if opts.ZoneCount > max {
			return 0, appErrors.Clone(appErrors.ErrValidation, "too many zones for the confirmed pairs: every zone needs at least 2")
		}
		return opts.ZoneCount, nil
	}
	target := opts.Target
	if target == 0 {
		target = DefaultTarget
	}
	if target < 2 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "zone size must be at least 2")
	}
	k := int(math.Round(float64(n) / float64(target)))
	if k < 1 {
		k = 1
	}
	if k > max {
		k = max
	}
	return k, nil
}

// Sizes splits n pairs into k zones whose sizes differ by at most one; the
// first n mod k zones get the extra pair.
func Sizes(n, k int) []int {
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}

func chunk(zones []models.Zone, sizes []int, pairs []models.Pair) {
	next := 0
	for i := range zones {
		for j := 0; j < sizes[i]; j++ {
			zones[i].PairIDs = append(zones[i].PairIDs, pairs[next].ID)
			next++
		}
	}
}

func byRating(pairs []models.Pair) []models.Pair {
	sorted := append([]models.Pair(nil), pairs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// serpentine deals pairs A, B, C, C, B, A, A, B... skipping full zones.
func serpentine(zones []models.Zone, sizes []int, pairs []models.Pair) {
	k := len(zones)
	i, dir := 0, 1
	for _, p := range pairs {
		for len(zones[i].PairIDs) >= sizes[i] {
			i, dir = step(i, dir, k)
		}
		zones[i].PairIDs = append(zones[i].PairIDs, p.ID)
		i, dir = step(i, dir, k)
	}
}

func step(i, dir, k int) (int, int) {
	next := i + dir
	if next < 0 || next >= k {
		return i, -dir
	}
	return next, dir
}

// byTime places the most restricted pairs first, each into the zone with
// room whose shared availability overlaps most with the pair's own.
func byTime(zones []models.Zone, sizes []int, pairs []models.Pair, times []schedule.TimePoint, lookup schedule.Lookup) {
	vectors := make(map[string][]bool, len(pairs))
	free := make(map[string]int, len(pairs))
	for _, p := range pairs {
		v := make([]bool, len(times))
		for i, tp := range times {
			v[i] = lookup.Available(p.ID, tp.Weekday, tp.Time)
			if v[i] {
				free[p.ID]++
			}
		}
		vectors[p.ID] = v
	}

	order := append([]models.Pair(nil), pairs...)
	sort.SliceStable(order, func(i, j int) bool {
		return free[order[i].ID] < free[order[j].ID]
	})

	shared := make([][]bool, len(zones))
	for _, p := range order {
		best, bestOverlap := -1, -1
		for i := range zones {
			if len(zones[i].PairIDs) >= sizes[i] {
				continue
			}
			overlap := 0
			for t, ok := range vectors[p.ID] {
				if ok && (shared[i] == nil || shared[i][t]) {
					overlap++
				}
			}
			if overlap > bestOverlap {
				best, bestOverlap = i, overlap
			}
		}
		zones[best].PairIDs = append(zones[best].PairIDs, p.ID)
		if shared[best] == nil {
			shared[best] = append([]bool(nil), vectors[p.ID]...)
			continue
		}
		for t := range shared[best] {
			shared[best][t] = shared[best][t] && vectors[p.ID][t]
		}
	}
}

// Find returns the zone holding the pair.
func Find(zones []models.Zone, pairID string) (models.Zone, bool) {
	for _, z := range zones {
		if z.Has(pairID) {
			return z, true
		}
	}
	return models.Zone{}, false
}

// MovePair moves a pair into the target zone and returns the updated zones.
// The input slice is not modified. Sizes are not rebalanced.
func MovePair(zones []models.Zone, pairID, targetZoneID string) ([]models.Zone, error) {
	out := make([]models.Zone, len(zones))
	source, target := -1, -1
	for i, z := range zones {
		z.PairIDs = append([]string(nil), z.PairIDs...)
		out[i] = z
		if z.Has(pairID) {
			source = i
		}
		if z.ID == targetZoneID {
			target = i
		}
	}
	if target < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "zone not found: "+targetZoneID)
	}
	if source < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pair is not in any zone: "+pairID)
	}
	if source == target {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pair is already in zone "+out[target].Name)
	}

	kept := out[source].PairIDs[:0]
	for _, id := range out[source].PairIDs {
		if id != pairID {
			kept = append(kept, id)
		}
	}
	out[source].PairIDs = kept
	out[target].PairIDs = append(out[target].PairIDs, pairID)
	return out, nil
}

// Imbalanced reports whether zone sizes differ by more than one.
func Imbalanced(zones []models.Zone) bool {
	if len(zones) == 0 {
		return false
	}
	min, max := len(zones[0].PairIDs), len(zones[0].PairIDs)
	for _, z := range zones[1:] {
		if n := len(z.PairIDs); n < min {
			min = n
		} else if n > max {
			max = n
		}
	}
	return max-min > 1
}
