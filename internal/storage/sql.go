package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const createStateTable = `
	CREATE TABLE IF NOT EXISTS engine_state (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// SQL is a durable area backed by one Postgres key-value table, for kiosk
// deployments where several terminals share one state database.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) (*SQL, error) {
	if _, err := db.Exec(createStateTable); err != nil {
		return nil, fmt.Errorf("failed to ensure engine_state table: %w", err)
	}
	return &SQL{db: db}, nil
}

func OpenSQL(databaseURL string) (*SQL, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return NewSQL(db)
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM engine_state WHERE key = $1
	`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`, key, value)
	return err
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM engine_state WHERE key = $1
	`, key)
	return err
}

func (s *SQL) Close() error {
	return s.db.Close()
}
