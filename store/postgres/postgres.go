// Package postgres provides a PostgreSQL-backed checkpoint store, for
// deployments where several hosts share resume state through a database
// they already run.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/ragpipe/store"
)

// DBPool is the slice of pgxpool.Pool the store uses, split out so tests
// can substitute a mock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store keeps one row per run in a checkpoints table.
type Store struct {
	pool      DBPool
	tableName string
}

// Options configures the PostgreSQL connection.
type Options struct {
	ConnString string

	// TableName defaults to "checkpoints".
	TableName string
}

// New connects a pool and returns a store. Call InitSchema before first use.
func New(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	return NewWithPool(pool, opts.TableName), nil
}

// NewWithPool wraps an existing pool, useful for tests.
func NewWithPool(pool DBPool, tableName string) *Store {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &Store{pool: pool, tableName: tableName}
}

// InitSchema creates the checkpoints table if it does not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, s.tableName)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating checkpoint schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Save upserts the checkpoint for runID.
func (s *Store) Save(ctx context.Context, runID string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (run_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, runID, data); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Load returns the checkpoint for runID, or store.ErrNotFound.
func (s *Store) Load(ctx context.Context, runID string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE run_id = $1`, s.tableName)
	var data []byte
	err := s.pool.QueryRow(ctx, query, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	return data, nil
}

// Delete removes runID's checkpoint if present.
func (s *Store) Delete(ctx context.Context, runID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// List returns the run IDs with a stored checkpoint.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT run_id FROM %s ORDER BY run_id`, s.tableName)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning checkpoint row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
