// Package file provides a directory-backed checkpoint store: one JSON file
// per run, written atomically via rename.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallnest/ragpipe/store"
)

// Store writes each run's checkpoint to <dir>/<runID>.json.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir, sanitize(runID)+".json")
}

// sanitize keeps run IDs from escaping the checkpoint directory.
func sanitize(runID string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(runID)
}

// Save writes the checkpoint through a temp file and rename, so readers
// never observe a partial write.
func (s *Store) Save(_ context.Context, runID string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, sanitize(runID)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("closing checkpoint: %w", err)
	}
	if err := os.Rename(name, s.path(runID)); err != nil {
		os.Remove(name)
		return fmt.Errorf("renaming checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint for runID, or store.ErrNotFound.
func (s *Store) Load(_ context.Context, runID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(runID))
	if os.IsNotExist(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	return data, nil
}

// Delete removes runID's checkpoint if present.
func (s *Store) Delete(_ context.Context, runID string) error {
	err := os.Remove(s.path(runID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

// List returns the run IDs with a checkpoint file.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	return out, nil
}
