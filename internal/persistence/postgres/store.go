// Package postgres implements the key/value repository on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/example/geo-attendance/internal/persistence"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// Store persists values in a single kv_store table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ persistence.KeyValueRepository = (*Store)(nil)

// Open connects using the lib/pq driver.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the kv_store table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", mapError(err))
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get %q: %w", key, mapError(err))
	}
	return []byte(value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const upsert = `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, upsert, key, string(value), s.now().UTC()); err != nil {
		return fmt.Errorf("postgres: put %q: %w", key, mapError(err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return nil
}

// mapError translates server error classes into persistence sentinels.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == "53100", pqErr.Code == "54000":
		return fmt.Errorf("%w: %v", persistence.ErrQuotaExceeded, err)
	case pqErr.Code == "55P03", pqErr.Code == "40P01":
		return fmt.Errorf("%w: %v", persistence.ErrLocked, err)
	case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return err
}
