// Package sqlite provides a SQLite-backed checkpoint store, for single-host
// deployments that want resume across process restarts without running a
// database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/ragpipe/store"
)

// Store keeps one row per run in a checkpoints table.
type Store struct {
	db        *sql.DB
	tableName string
}

// Options configures the SQLite connection.
type Options struct {
	// Path is the database file. ":memory:" works for tests.
	Path string

	// TableName defaults to "checkpoints".
	TableName string
}

// New opens the database and ensures the schema exists.
func New(opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}
	s := &Store{db: db, tableName: tableName}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating checkpoint schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the checkpoint for runID.
func (s *Store) Save(ctx context.Context, runID string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (run_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, runID, data); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Load returns the checkpoint for runID, or store.ErrNotFound.
func (s *Store) Load(ctx context.Context, runID string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE run_id = ?`, s.tableName)
	var data []byte
	err := s.db.QueryRowContext(ctx, query, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	return data, nil
}

// Delete removes runID's checkpoint if present.
func (s *Store) Delete(ctx context.Context, runID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// List returns the run IDs with a stored checkpoint.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT run_id FROM %s ORDER BY run_id`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
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
