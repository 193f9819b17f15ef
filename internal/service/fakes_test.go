package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

// --- Fixtures ---

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (p *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

type store struct {
	tournaments map[string]models.Tournament
	courts      []models.Court
	categories  map[string]models.Category
	pairs       []models.Pair
	zones       []models.Zone
	matches     []models.Match

	failBulkCreate error
}

func newStore() *store {
	return &store{
		tournaments: make(map[string]models.Tournament),
		categories:  make(map[string]models.Category),
	}
}

func (s *store) repos() Repositories {
	return Repositories{
		Tournaments: tournamentRepoStub{s},
		Courts:      courtRepoStub{s},
		Categories:  categoryRepoStub{s},
		Pairs:       pairRepoStub{s},
		Zones:       zoneRepoStub{s},
		Matches:     matchRepoStub{s},
	}
}

type tournamentRepoStub struct{ s *store }

func (r tournamentRepoStub) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Tournament, error) {
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "tournament not found")
	}
	return &t, nil
}

func (r tournamentRepoStub) Upsert(_ context.Context, _ sqlx.ExtContext, t *models.Tournament) error {
	r.s.tournaments[t.ID] = *t
	return nil
}

type courtRepoStub struct{ s *store }

func (r courtRepoStub) ListByTournament(_ context.Context, _ sqlx.ExtContext, tournamentID string) ([]models.Court, error) {
	var out []models.Court
	for _, c := range r.s.courts {
		if c.TournamentID == tournamentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r courtRepoStub) Upsert(_ context.Context, _ sqlx.ExtContext, c *models.Court) error {
	r.s.courts = append(r.s.courts, *c)
	return nil
}

type categoryRepoStub struct{ s *store }

func (r categoryRepoStub) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
	}
	return &c, nil
}

func (r categoryRepoStub) Upsert(_ context.Context, _ sqlx.ExtContext, c *models.Category) error {
	r.s.categories[c.ID] = *c
	return nil
}

type pairRepoStub struct{ s *store }

func (r pairRepoStub) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Pair, error) {
	for _, p := range r.s.pairs {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "pair not found")
}

func (r pairRepoStub) ListByCategory(_ context.Context, _ sqlx.ExtContext, categoryID string) ([]models.Pair, error) {
	var out []models.Pair
	for _, p := range r.s.pairs {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r pairRepoStub) ListByIDs(_ context.Context, _ sqlx.ExtContext, ids []string) ([]models.Pair, error) {
	var out []models.Pair
	for _, id := range ids {
		for _, p := range r.s.pairs {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r pairRepoStub) Upsert(_ context.Context, _ sqlx.ExtContext, p *models.Pair) error {
	r.s.pairs = append(r.s.pairs, *p)
	return nil
}

type zoneRepoStub struct{ s *store }

func (r zoneRepoStub) ListByCategory(_ context.Context, _ sqlx.ExtContext, categoryID string) ([]models.Zone, error) {
	var out []models.Zone
	for _, z := range r.s.zones {
		if z.CategoryID == categoryID {
			z.PairIDs = append([]string(nil), z.PairIDs...)
			out = append(out, z)
		}
	}
	return out, nil
}

func (r zoneRepoStub) ReplaceForCategory(_ context.Context, _ sqlx.ExtContext, categoryID string, zones []models.Zone) error {
	var kept []models.Zone
	for _, z := range r.s.zones {
		if z.CategoryID != categoryID {
			kept = append(kept, z)
		}
	}
	r.s.zones = append(kept, zones...)
	return nil
}

func (r zoneRepoStub) SetMembers(_ context.Context, _ sqlx.ExtContext, zoneID string, pairIDs []string) error {
	for i := range r.s.zones {
		if r.s.zones[i].ID == zoneID {
			r.s.zones[i].PairIDs = append([]string(nil), pairIDs...)
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "zone not found")
}

type matchRepoStub struct{ s *store }

func (r matchRepoStub) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Match, error) {
	for _, m := range r.s.matches {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
}

func (r matchRepoStub) ListByCategory(_ context.Context, _ sqlx.ExtContext, categoryID string) ([]models.Match, error) {
	var out []models.Match
	for _, m := range r.s.matches {
		if m.CategoryID == categoryID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r matchRepoStub) ListScheduledByTournament(_ context.Context, _ sqlx.ExtContext, tournamentID, excludeCategoryID string) ([]models.Match, error) {
	var out []models.Match
	for _, m := range r.s.matches {
		c := r.s.categories[m.CategoryID]
		if c.TournamentID == tournamentID && m.CategoryID != excludeCategoryID && m.State == models.MatchScheduled {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r matchRepoStub) CountByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) (int, error) {
	matches, _ := r.ListByCategory(ctx, exec, categoryID)
	return len(matches), nil
}

func (r matchRepoStub) DeleteAutoByCategory(_ context.Context, _ sqlx.ExtContext, categoryID string) (int64, error) {
	var kept []models.Match
	var n int64
	for _, m := range r.s.matches {
		if m.CategoryID == categoryID && m.Origin == models.OriginAuto {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.s.matches = kept
	return n, nil
}

func (r matchRepoStub) DeleteByZones(_ context.Context, _ sqlx.ExtContext, zoneIDs []string) (int64, error) {
	drop := make(map[string]bool)
	for _, id := range zoneIDs {
		drop[id] = true
	}
	var kept []models.Match
	var n int64
	for _, m := range r.s.matches {
		if drop[m.Zone()] {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.s.matches = kept
	return n, nil
}

func (r matchRepoStub) BulkCreate(_ context.Context, _ sqlx.ExtContext, matches []models.Match) error {
	if r.s.failBulkCreate != nil {
		return r.s.failBulkCreate
	}
	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		r.s.matches = append(r.s.matches, m)
	}
	return nil
}

func (r matchRepoStub) UpdateSlot(_ context.Context, _ sqlx.ExtContext, m *models.Match) error {
	for i := range r.s.matches {
		if r.s.matches[i].ID == m.ID {
			r.s.matches[i] = *m
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "match not found")
}

// seed stores tournament t-1 (Friday 2026-11-06 to Sunday 11-08, viernes
// 15:00-23:30, weekend 09:00-23:30), courts c1..c<courts> and category
// cat-1 with <pairs> confirmed pairs in one zone z-a.
func seed(t *testing.T, courts, pairs int) *store {
	t.Helper()
	hours, err := models.ParseOperatingHours(map[string][]models.Window{
		"viernes": {{Open: 15 * 60, Close: 23*60 + 30}},
		"weekend": {{Open: 9 * 60, Close: 23*60 + 30}},
	})
	require.NoError(t, err)

	s := newStore()
	s.tournaments["t-1"] = models.Tournament{
		ID:           "t-1",
		Name:         "Open de Otoño",
		StartDate:    time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC),
		MatchMinutes: 50,
		Hours:        hours,
	}
	for i := 1; i <= courts; i++ {
		s.courts = append(s.courts, models.Court{
			ID:           fmt.Sprintf("c%d", i),
			TournamentID: "t-1",
			Name:         fmt.Sprintf("Cancha %d", i),
			Active:       true,
			Position:     i,
		})
	}
	s.categories["cat-1"] = models.Category{ID: "cat-1", TournamentID: "t-1", Name: "4ta Masculino", ZoneSize: 4}

	zone := models.Zone{ID: "z-a", CategoryID: "cat-1", Name: "A"}
	for i := 1; i <= pairs; i++ {
		id := fmt.Sprintf("p%d", i)
		s.pairs = append(s.pairs, models.Pair{
			ID:          id,
			CategoryID:  "cat-1",
			Player1ID:   fmt.Sprintf("j%da", i),
			Player1Name: fmt.Sprintf("Jugador %dA", i),
			Player2ID:   fmt.Sprintf("j%db", i),
			Player2Name: fmt.Sprintf("Jugador %dB", i),
			State:       models.PairConfirmed,
			Rating:      float64(1000 + i),
		})
		zone.PairIDs = append(zone.PairIDs, id)
	}
	if pairs > 0 {
		s.zones = append(s.zones, zone)
	}
	return s
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 11, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}
