// Package memory provides an in-process checkpoint store, the default for
// tests and single-shot runs that do not need resume across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/smallnest/ragpipe/store"
)

// Store keeps checkpoints in a map. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory checkpoint store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Save stores a copy of data under runID.
func (s *Store) Save(_ context.Context, runID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = append([]byte(nil), data...)
	return nil
}

// Load returns the checkpoint for runID, or store.ErrNotFound.
func (s *Store) Load(_ context.Context, runID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete removes runID's checkpoint if present.
func (s *Store) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns all run IDs with a checkpoint.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out, nil
}
