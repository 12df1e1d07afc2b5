package pipeline

import (
	"sort"
	"time"

	"github.com/smallnest/ragpipe"
)

// Status is the lifecycle phase of a run. Transitions are monotonic along
// Pending -> Running -> {Completed, Failed, Cancelled}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ExecutionState is a snapshot of one run. Progress is completed nodes over
// total nodes; CurrentNodes is the set of nodes in flight at snapshot time.
// Results maps node IDs to handler outputs and keeps the outputs of
// already-finished nodes even when the run fails or is cancelled.
type ExecutionState struct {
	RunID        string         `json:"run_id"`
	Status       Status         `json:"status"`
	Progress     float64        `json:"progress"`
	CurrentNodes []string       `json:"current_nodes,omitempty"`
	Results      map[string]any `json:"results,omitempty"`
	Error        *ragpipe.Error `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at,omitempty"`
	CompletedAt  time.Time      `json:"completed_at,omitempty"`
}

// clone deep-copies the snapshot containers so observers never alias
// engine-private state. Result values themselves are shared and immutable
// by contract.
func (s ExecutionState) clone() ExecutionState {
	out := s
	if s.CurrentNodes != nil {
		out.CurrentNodes = append([]string(nil), s.CurrentNodes...)
		sort.Strings(out.CurrentNodes)
	}
	if s.Results != nil {
		out.Results = make(map[string]any, len(s.Results))
		for k, v := range s.Results {
			out.Results[k] = v
		}
	}
	return out
}
