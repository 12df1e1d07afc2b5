package ragpipe

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine and the algorithm libraries
// can surface. Handlers return tagged errors; the engine records the kind on
// the run state.
type ErrorKind string

const (
	// KindInvalidGraph covers cycles, dangling edges, duplicate node IDs
	// and empty graphs, reported before run admission.
	KindInvalidGraph ErrorKind = "invalid_graph"

	// KindInvalidConfig covers unknown strategies, overlap >= chunkSize,
	// unrecognized config keys and missing required parameters.
	KindInvalidConfig ErrorKind = "invalid_config"

	// KindMissingInput means a stage required an upstream value (for
	// example a query embedding) that no parent supplied.
	KindMissingInput ErrorKind = "missing_input"

	// KindExternal covers embedder, LLM, reranker and repository
	// transport failures.
	KindExternal ErrorKind = "external"

	// KindTimeout means a per-node deadline elapsed.
	KindTimeout ErrorKind = "timeout"

	// KindCancelled means the cancellation signal was observed.
	KindCancelled ErrorKind = "cancelled"

	// KindInternal is the bug class; it is logged with full context.
	KindInternal ErrorKind = "internal"
)

// Error is the tagged error carried through handler failures up to the run
// state. NodeID is filled in by the engine when the failure belongs to a
// specific pipeline node.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	NodeID  string    `json:"node_id,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.NodeID != "" {
		msg = fmt.Sprintf("%s (node %s)", msg, e.NodeID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds a tagged error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an underlying error with a kind and message.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind of err, walking the wrap chain. Untagged errors
// report KindInternal; nil reports the empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
