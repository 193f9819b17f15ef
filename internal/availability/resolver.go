package availability

import (
	"time"

	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/models"
)

type cacheKey struct {
	pair string
	day  time.Weekday
	at   models.Clock
}

// Resolver answers availability queries for many pairs, memoising results.
// It is not safe for concurrent use.
type Resolver struct {
	pairs map[string]Restrictions
	cache map[cacheKey]bool
}

// NewResolver returns an empty resolver; unknown pairs are always available.
func NewResolver() *Resolver {
	return &Resolver{
		pairs: make(map[string]Restrictions),
		cache: make(map[cacheKey]bool),
	}
}

// FromPairs parses every pair's payload. A malformed payload is logged and
// treated as "no restriction" so one bad record cannot block a fixture.
func FromPairs(pairs []models.Pair, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewResolver()
	for _, p := range pairs {
		if err := r.Add(p.ID, p.Restrictions); err != nil {
			logger.Warn("ignoring malformed pair restrictions",
				zap.String("pair_id", p.ID),
				zap.Error(err),
			)
		}
	}
	return r
}

// Add parses and registers a pair's raw payload.
func (r *Resolver) Add(pairID string, raw []byte) error {
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	r.Set(pairID, parsed)
	return nil
}

// Set registers already-normalised restrictions for a pair.
func (r *Resolver) Set(pairID string, restrictions Restrictions) {
	r.pairs[pairID] = restrictions
	for k := range r.cache {
		if k.pair == pairID {
			delete(r.cache, k)
		}
	}
}

// Restrictions returns the normalised restrictions of a pair.
func (r *Resolver) Restrictions(pairID string) Restrictions {
	return r.pairs[pairID]
}

// Available implements the point-in-time availability contract.
func (r *Resolver) Available(pairID string, d time.Weekday, t models.Clock) bool {
	k := cacheKey{pairID, d, t}
	if v, ok := r.cache[k]; ok {
		return v
	}
	v := r.pairs[pairID].Available(d, t)
	r.cache[k] = v
	return v
}

// Summary renders a pair's availability for diagnostics.
func (r *Resolver) Summary(pairID string) string {
	return r.pairs[pairID].Summary()
}
