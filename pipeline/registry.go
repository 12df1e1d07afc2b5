package pipeline

import (
	"context"
	"sync"
)

// Handler executes one node. Config is the node's own configuration; inputs
// maps each upstream node ID to that node's output. Inputs are shared with
// other consumers and must be treated as immutable; the returned output
// becomes the node's entry in the run results.
type Handler interface {
	Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, config map[string]any, inputs map[string]any) (any, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	return f(ctx, config, inputs)
}

// OutputDecoder is implemented by handlers whose output survives a
// checkpoint round trip. DecodeOutput turns the serialized form back into
// the value Execute would have returned. Handlers without it (or a decode
// failure) simply lose their checkpoint entry and re-execute on resume.
type OutputDecoder interface {
	DecodeOutput(data []byte) (any, error)
}

// Registry maps node kinds to handlers. It is populated once at startup and
// read concurrently by running engines.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]Handler)}
}

// Register binds a handler to a kind, replacing any previous binding.
func (r *Registry) Register(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Resolve looks up the handler for a kind.
func (r *Registry) Resolve(kind Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the kinds with a registered handler.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}
