package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gatepass/gatepass/internal/dbx"
	"github.com/gatepass/gatepass/internal/logging"
	"github.com/gatepass/gatepass/internal/models"
)

// Store is the SQLite-backed local mirror. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

func NewStore(db *sql.DB, log logging.Logger) *Store {
	return &Store{db: db, log: log.With("module", "local")}
}

// DB exposes the underlying handle, mainly for Close.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrLocalPersistence, op, err)
}

func encode(rec models.Record) ([]byte, error) {
	if rec.GetID() == "" {
		return nil, fmt.Errorf("%w: %s without id", models.ErrValidation, rec.Kind())
	}
	return json.Marshal(rec)
}

func decode(kind models.Kind, payload []byte, synced bool) (models.Record, error) {
	rec, err := models.New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, err
	}
	if rec.GetID() == "" {
		return nil, errors.New("payload has no id")
	}
	rec.SetSynced(synced)
	return rec, nil
}

const upsertQuery = `
	INSERT INTO records (kind, id, payload, synced, created_at) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(kind, id) DO UPDATE SET
		payload = excluded.payload,
		synced = excluded.synced,
		created_at = excluded.created_at`

func upsert(ctx context.Context, q dbx.DBTX, rec models.Record) error {
	payload, err := encode(rec)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, upsertQuery,
		string(rec.Kind()), rec.GetID(), payload, rec.IsSynced(), rec.GetCreatedAt().UnixNano())
	return err
}

// query runs a records SELECT returning (id, payload, synced) and decodes the
// rows. Undecodable rows are purged.
func (s *Store) query(ctx context.Context, kind models.Kind, where string, args ...any) ([]models.Record, error) {
	q := `SELECT id, payload, synced FROM records WHERE kind = ?`
	if where != "" {
		q += " AND " + where
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q, append([]any{string(kind)}, args...)...)
	if err != nil {
		return nil, wrap("select "+string(kind), err)
	}
	defer rows.Close()

	var (
		out       []models.Record
		malformed []string
	)
	for rows.Next() {
		var (
			id      string
			payload []byte
			synced  bool
		)
		if err := rows.Scan(&id, &payload, &synced); err != nil {
			return nil, wrap("scan "+string(kind), err)
		}
		rec, err := decode(kind, payload, synced)
		if err != nil {
			s.log.Warn(ctx, "dropping malformed local record", "kind", kind, "id", id, "error", err)
			malformed = append(malformed, id)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate "+string(kind), err)
	}
	rows.Close()

	if len(malformed) > 0 {
		if err := s.deleteIDs(ctx, s.db, kind, malformed); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) deleteIDs(ctx context.Context, q dbx.DBTX, kind models.Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, string(kind))
	for _, id := range ids {
		args = append(args, id)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	_, err := q.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id IN (`+marks+`)`, args...)
	if err != nil {
		return wrap("delete "+string(kind), err)
	}
	return nil
}

// Get returns the whole collection of a kind, newest first.
func (s *Store) Get(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	return s.query(ctx, kind, "")
}

// Put replaces the whole collection of a kind with recs in one transaction.
func (s *Store) Put(ctx context.Context, kind models.Kind, recs []models.Record) error {
	for _, r := range recs {
		if r.Kind() != kind {
			return fmt.Errorf("%w: %s record in %s collection", models.ErrValidation, r.Kind(), kind)
		}
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
			return err
		}
		for _, r := range recs {
			if err := upsert(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		return wrap("put "+string(kind), err)
	}
	return nil
}

// Upsert inserts or replaces a single record.
func (s *Store) Upsert(ctx context.Context, rec models.Record) error {
	if err := upsert(ctx, s.db, rec); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		return wrap("upsert "+string(rec.Kind()), err)
	}
	return nil
}

// UpsertMany inserts or replaces recs in one transaction.
func (s *Store) UpsertMany(ctx context.Context, recs []models.Record) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, r := range recs {
			if err := upsert(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		return wrap("upsert many", err)
	}
	return nil
}

// GetByID returns one record or models.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	recs, err := s.query(ctx, kind, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return recs[0], nil
}

// Delete removes one record and reports whether it existed.
func (s *Store) Delete(ctx context.Context, kind models.Kind, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return false, wrap("delete "+string(kind), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("delete "+string(kind), err)
	}
	return n > 0, nil
}

// Unsynced returns the records of a kind that still await reconciliation,
// oldest first so that pushes keep creation order.
func (s *Store) Unsynced(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	recs, err := s.query(ctx, kind, "synced = 0")
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// CountUnsynced returns how many records of a kind await reconciliation.
func (s *Store) CountUnsynced(ctx context.Context, kind models.Kind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE kind = ? AND synced = 0`, string(kind)).Scan(&n)
	if err != nil {
		return 0, wrap("count unsynced", err)
	}
	return n, nil
}

// MarkSynced sets the sync flag of one record. A missing record yields
// models.ErrNotFound.
func (s *Store) MarkSynced(ctx context.Context, kind models.Kind, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE records SET synced = 1 WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return wrap("mark synced", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("mark synced", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

// DeleteWhere removes every record of a kind for which match returns true
// and returns the removed ids.
func (s *Store) DeleteWhere(ctx context.Context, kind models.Kind, match func(models.Record) bool) ([]string, error) {
	recs, err := s.Get(ctx, kind)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range recs {
		if match(r) {
			ids = append(ids, r.GetID())
		}
	}
	if err := s.deleteIDs(ctx, s.db, kind, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Clear removes every record of a kind.
func (s *Store) Clear(ctx context.Context, kind models.Kind) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return wrap("clear "+string(kind), err)
	}
	return nil
}
