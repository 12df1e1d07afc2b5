// Package store defines checkpoint persistence for pipeline runs.
//
// A checkpoint is a best-effort snapshot of the outputs of a run's
// completed nodes, keyed by run ID. The engine writes them opportunistically
// during execution and reads them back on resubmission of the same run ID
// to skip already-finished work. Losing a checkpoint is always recoverable
// by re-execution, so backends favor simplicity over durability guarantees.
//
// Backends live in subpackages: memory, file, sqlite, redis and postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no checkpoint exists for the run.
var ErrNotFound = errors.New("checkpoint not found")

// CheckpointStore persists one opaque checkpoint blob per run ID.
type CheckpointStore interface {
	// Save stores the checkpoint for a run, replacing any previous one.
	Save(ctx context.Context, runID string, data []byte) error

	// Load returns the checkpoint for a run, or ErrNotFound.
	Load(ctx context.Context, runID string) ([]byte, error)

	// Delete removes a run's checkpoint. Deleting a missing checkpoint
	// is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs with a stored checkpoint.
	List(ctx context.Context) ([]string, error)
}

// Snapshot is the checkpoint wire format. Results holds each completed
// node's output in its handler's serialization; entries a reader cannot
// interpret are ignored and the node is re-executed.
type Snapshot struct {
	RunID     string                     `json:"run_id"`
	WrittenAt time.Time                  `json:"written_at"`
	Results   map[string]json.RawMessage `json:"results"`
}

// EncodeSnapshot serializes a snapshot to its stored form.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
