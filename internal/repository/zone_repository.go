package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/derekprior/padelfix/internal/errors"
	"github.com/derekprior/padelfix/internal/models"
)

// ZoneRepository persists zones and their memberships.
type ZoneRepository struct {
	base
}

// NewZoneRepository creates a new zone repository.
func NewZoneRepository(db *sqlx.DB) *ZoneRepository {
	return &ZoneRepository{base{db}}
}

// ListByCategory returns the zones of a category with their ordered pair ids.
func (r *ZoneRepository) ListByCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string) ([]models.Zone, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT id, category_id, name, position FROM zones WHERE category_id = ? ORDER BY position ASC`)
	var zones []models.Zone
	if err := sqlx.SelectContext(ctx, target, &zones, query, categoryID); err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	if len(zones) == 0 {
		return zones, nil
	}

	memberQuery := target.Rebind(`SELECT zp.zone_id, zp.pair_id, zp.position FROM zone_pairs zp
JOIN zones z ON z.id = zp.zone_id
WHERE z.category_id = ? ORDER BY z.position ASC, zp.position ASC`)
	var members []models.ZoneMember
	if err := sqlx.SelectContext(ctx, target, &members, memberQuery, categoryID); err != nil {
		return nil, fmt.Errorf("list zone members: %w", err)
	}

	index := make(map[string]int, len(zones))
	for i := range zones {
		zones[i].PairIDs = []string{}
		index[zones[i].ID] = i
	}
	for _, m := range members {
		if i, ok := index[m.ZoneID]; ok {
			zones[i].PairIDs = append(zones[i].PairIDs, m.PairID)
		}
	}
	return zones, nil
}

// FindByID loads one zone with its members.
func (r *ZoneRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Zone, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT id, category_id, name, position FROM zones WHERE id = ?`)
	var z models.Zone
	if err := sqlx.GetContext(ctx, target, &z, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "zone not found")
		}
		return nil, fmt.Errorf("find zone: %w", err)
	}
	pairs, err := r.members(ctx, target, z.ID)
	if err != nil {
		return nil, err
	}
	z.PairIDs = pairs
	return &z, nil
}

func (r *ZoneRepository) members(ctx context.Context, target sqlx.ExtContext, zoneID string) ([]string, error) {
	query := target.Rebind(`SELECT pair_id FROM zone_pairs WHERE zone_id = ? ORDER BY position ASC`)
	var ids []string
	if err := sqlx.SelectContext(ctx, target, &ids, query, zoneID); err != nil {
		return nil, fmt.Errorf("list zone members: %w", err)
	}
	return ids, nil
}

// ReplaceForCategory deletes the category's zones and stores the new set.
// Callers must have removed the category's matches first.
func (r *ZoneRepository) ReplaceForCategory(ctx context.Context, exec sqlx.ExtContext, categoryID string, zones []models.Zone) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, target.Rebind(`DELETE FROM zone_pairs WHERE zone_id IN (SELECT id FROM zones WHERE category_id = ?)`), categoryID); err != nil {
		return fmt.Errorf("delete zone members: %w", err)
	}
	if _, err := target.ExecContext(ctx, target.Rebind(`DELETE FROM zones WHERE category_id = ?`), categoryID); err != nil {
		return fmt.Errorf("delete zones: %w", err)
	}

	const insertZone = `INSERT INTO zones (id, category_id, name, position) VALUES (:id, :category_id, :name, :position)`
	for i := range zones {
		if _, err := sqlx.NamedExecContext(ctx, target, insertZone, &zones[i]); err != nil {
			return fmt.Errorf("insert zone: %w", err)
		}
		if err := r.insertMembers(ctx, target, zones[i].ID, zones[i].PairIDs); err != nil {
			return err
		}
	}
	return nil
}

// SetMembers rewrites the membership of one zone.
func (r *ZoneRepository) SetMembers(ctx context.Context, exec sqlx.ExtContext, zoneID string, pairIDs []string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, target.Rebind(`DELETE FROM zone_pairs WHERE zone_id = ?`), zoneID); err != nil {
		return fmt.Errorf("delete zone members: %w", err)
	}
	return r.insertMembers(ctx, target, zoneID, pairIDs)
}

func (r *ZoneRepository) insertMembers(ctx context.Context, target sqlx.ExtContext, zoneID string, pairIDs []string) error {
	const query = `INSERT INTO zone_pairs (zone_id, pair_id, position) VALUES (:zone_id, :pair_id, :position)`
	for pos, pairID := range pairIDs {
		member := models.ZoneMember{ZoneID: zoneID, PairID: pairID, Position: pos}
		if _, err := sqlx.NamedExecContext(ctx, target, query, &member); err != nil {
			return fmt.Errorf("insert zone member: %w", err)
		}
	}
	return nil
}
