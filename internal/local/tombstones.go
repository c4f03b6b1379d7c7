package local

import (
	"context"
	"time"

	"github.com/gatepass/gatepass/internal/models"
)

// Tombstone is a remote delete that has not reached the backend yet.
type Tombstone struct {
	Kind      models.Kind
	ID        string
	DeletedAt time.Time
}

func (s *Store) AddTombstone(ctx context.Context, kind models.Kind, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tombstones (kind, id, deleted_at) VALUES (?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET deleted_at = excluded.deleted_at
	`, string(kind), id, at.UnixNano())
	if err != nil {
		return wrap("add tombstone", err)
	}
	return nil
}

func (s *Store) RemoveTombstone(ctx context.Context, kind models.Kind, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tombstones WHERE kind = ? AND id = ?`, string(kind), id); err != nil {
		return wrap("remove tombstone", err)
	}
	return nil
}

// Tombstones returns every pending delete, oldest first.
func (s *Store) Tombstones(ctx context.Context) ([]Tombstone, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, id, deleted_at FROM tombstones ORDER BY deleted_at, kind, id`)
	if err != nil {
		return nil, wrap("list tombstones", err)
	}
	defer rows.Close()

	var out []Tombstone
	for rows.Next() {
		var (
			t    Tombstone
			kind string
			at   int64
		)
		if err := rows.Scan(&kind, &t.ID, &at); err != nil {
			return nil, wrap("scan tombstone", err)
		}
		t.Kind = models.Kind(kind)
		t.DeletedAt = time.Unix(0, at).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate tombstones", err)
	}
	return out, nil
}

// TombstonedIDs returns the set of ids of a kind with a pending delete.
func (s *Store) TombstonedIDs(ctx context.Context, kind models.Kind) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tombstones WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, wrap("list tombstones", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan tombstone", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate tombstones", err)
	}
	return out, nil
}
