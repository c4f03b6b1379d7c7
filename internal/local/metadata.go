package local

import (
	"context"
	"database/sql"
	"errors"
)

// Metadata keys.
const (
	MetaSession       = "session"
	MetaLastReconcile = "last_reconcile"
)

// GetMeta returns the value stored under key, or nil when absent.
func (s *Store) GetMeta(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get metadata["+key+"]", err)
	}
	return value, nil
}

func (s *Store) SetMeta(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return wrap("set metadata["+key+"]", err)
	}
	return nil
}

func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return wrap("delete metadata["+key+"]", err)
	}
	return nil
}
