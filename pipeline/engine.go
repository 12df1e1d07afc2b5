package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/log"
	"github.com/smallnest/ragpipe/store"
)

const (
	// DefaultWorkers caps concurrently executing handlers per engine.
	DefaultWorkers = 8

	// DefaultRateLimit caps concurrent external-service calls (embedder,
	// llm, reranker) across all runs of an engine.
	DefaultRateLimit = 5

	// DefaultCheckpointInterval spaces checkpoint writes.
	DefaultCheckpointInterval = 5 * time.Second
)

// Engine executes validated graphs. One engine may drive many runs; the
// worker cap applies per run while the rate gate is shared engine-wide.
type Engine struct {
	registry    *Registry
	workers     int
	rateLimit   int
	rate        *semaphore.Weighted
	checkpoints store.CheckpointStore
	ckptEvery   time.Duration
	logger      log.Logger
	clock       ragpipe.Clock

	mu   sync.RWMutex
	runs map[string]*run
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the per-run worker cap.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRateLimit sets the shared cap on concurrent external-service calls.
func WithRateLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rateLimit = n
		}
	}
}

// WithCheckpointStore enables best-effort checkpointing of node outputs.
func WithCheckpointStore(s store.CheckpointStore) Option {
	return func(e *Engine) { e.checkpoints = s }
}

// WithCheckpointInterval sets the minimum spacing between checkpoint
// writes. Zero writes after every completed node.
func WithCheckpointInterval(d time.Duration) Option {
	return func(e *Engine) { e.ckptEvery = d }
}

// WithLogger replaces the package-default logger.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c ragpipe.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New builds an engine over the given handler registry.
func New(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		workers:   DefaultWorkers,
		rateLimit: DefaultRateLimit,
		ckptEvery: DefaultCheckpointInterval,
		logger:    log.Default(),
		clock:     ragpipe.SystemClock{},
		runs:      make(map[string]*run),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rate = semaphore.NewWeighted(int64(e.rateLimit))
	return e
}

// RunOption configures one submission.
type RunOption func(*run)

// WithRunID pins the run identifier instead of generating one. Submitting
// with the ID of a checkpointed earlier run resumes it.
func WithRunID(id string) RunOption {
	return func(r *run) { r.state.RunID = id }
}

// run is the engine-private record of one execution. All fields behind mu
// are mutated only by the scheduler goroutine (plus Cancel's flag flip);
// workers hand results back over a channel.
type run struct {
	graph  *Graph
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     ExecutionState
	cancelled bool
	subs      []chan ExecutionState
}

// Submit validates the graph and, when it is admissible, starts executing
// it in the background and returns the run ID. Validation failures are
// reported synchronously as invalid-graph errors and execute nothing.
func (e *Engine) Submit(ctx context.Context, g *Graph, opts ...RunOption) (string, error) {
	if v := Validate(g); !v.OK() {
		return "", v.Err()
	}
	for _, node := range g.Nodes {
		if _, ok := e.registry.Resolve(node.Kind); !ok {
			return "", ragpipe.Errorf(ragpipe.KindInvalidGraph,
				"no handler registered for kind %q (node %s)", node.Kind, node.ID)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{
		graph:  g,
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
		state: ExecutionState{
			Status:  StatusPending,
			Results: make(map[string]any, len(g.Nodes)),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.state.RunID == "" {
		r.state.RunID = uuid.NewString()
	}

	e.mu.Lock()
	if _, exists := e.runs[r.state.RunID]; exists {
		e.mu.Unlock()
		cancel()
		return "", ragpipe.Errorf(ragpipe.KindInvalidGraph, "run %s already exists", r.state.RunID)
	}
	e.runs[r.state.RunID] = r
	e.mu.Unlock()

	go e.execute(r)
	return r.state.RunID, nil
}

// Status returns a snapshot of the run.
func (e *Engine) Status(runID string) (ExecutionState, error) {
	r, err := e.run(runID)
	if err != nil {
		return ExecutionState{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone(), nil
}

// Events subscribes to status updates for the run. The channel is closed
// after the terminal state is delivered. Delivery is best-effort: a slow
// consumer loses intermediate events, never the terminal one.
func (e *Engine) Events(runID string) (<-chan ExecutionState, error) {
	r, err := e.run(runID)
	if err != nil {
		return nil, err
	}
	ch := make(chan ExecutionState, 64)
	r.mu.Lock()
	snapshot := r.state.clone()
	terminal := snapshot.Status.Terminal()
	if !terminal {
		r.subs = append(r.subs, ch)
	}
	r.mu.Unlock()

	ch <- snapshot
	if terminal {
		close(ch)
	}
	return ch, nil
}

// Cancel requests cooperative cancellation: no new node starts, in-flight
// handlers see their context cancelled, and the run transitions to
// Cancelled once every in-flight handler has returned. Already-terminal
// runs are left untouched.
func (e *Engine) Cancel(runID string) error {
	r, err := e.run(runID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if !r.state.Status.Terminal() {
		r.cancelled = true
	}
	r.mu.Unlock()
	r.cancel()
	return nil
}

// Wait blocks until the run reaches a terminal state or ctx expires.
func (e *Engine) Wait(ctx context.Context, runID string) (ExecutionState, error) {
	r, err := e.run(runID)
	if err != nil {
		return ExecutionState{}, err
	}
	select {
	case <-r.done:
		return e.Status(runID)
	case <-ctx.Done():
		return ExecutionState{}, ctx.Err()
	}
}

func (e *Engine) run(runID string) (*run, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.runs[runID]
	if !ok {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidGraph, "unknown run %s", runID)
	}
	return r, nil
}

// nodeDone is a worker's report back to the scheduler.
type nodeDone struct {
	id  string
	out any
	err error
}

// execute is the scheduler loop: it owns the ready queue, in-degree
// counters and run state, dispatches ready nodes to worker goroutines up to
// the worker cap, and folds completions back in as they arrive.
func (e *Engine) execute(r *run) {
	defer close(r.done)
	defer r.cancel()

	g := r.graph
	total := len(g.Nodes)
	succ := g.Successors()
	indeg := InDegrees(g)

	completed := e.restoreCheckpoint(r, indeg)

	var ready []string
	for _, id := range sortedNodeIDs(g) {
		if indeg[id] == 0 {
			if _, done := r.restored(id); !done {
				ready = append(ready, id)
			}
		}
	}

	r.mu.Lock()
	r.state.Status = StatusRunning
	r.state.StartedAt = e.clock.Now()
	r.state.Progress = progress(completed, total)
	r.mu.Unlock()
	e.publish(r)

	doneCh := make(chan nodeDone)
	inFlight := 0
	lastCkpt := e.clock.Now()
	var failure *ragpipe.Error

	halted := func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.cancelled || failure != nil
	}

	for {
		// Dispatch greedily while slots are free. After a cancel or a
		// failure the remaining ready nodes are skipped, not run.
		for len(ready) > 0 && inFlight < e.workers && !halted() {
			id := ready[0]
			ready = ready[1:]
			node := g.Nodes[id]
			inputs := e.gather(r, g, id)
			r.mu.Lock()
			r.state.CurrentNodes = append(r.state.CurrentNodes, id)
			r.mu.Unlock()
			inFlight++
			e.logger.Debug("run %s: dispatch node %s (%s)", r.state.RunID, id, node.Kind)
			go func() {
				out, err := e.invoke(r.ctx, node, inputs)
				doneCh <- nodeDone{id: id, out: out, err: err}
			}()
		}

		if inFlight == 0 {
			break
		}

		d := <-doneCh
		inFlight--
		r.mu.Lock()
		r.state.CurrentNodes = removeString(r.state.CurrentNodes, d.id)
		r.mu.Unlock()

		if d.err != nil {
			tagged := e.tagError(r, d.id, d.err)
			// Keep the first real failure: peers cancelled in its wake
			// report context.Canceled, which must not mask it.
			if failure == nil || (failure.Kind == ragpipe.KindCancelled && tagged.Kind != ragpipe.KindCancelled) {
				failure = tagged
			}
			e.logger.Error("run %s: node %s failed: %v", r.state.RunID, d.id, tagged)
			r.cancel()
			e.publish(r)
			continue
		}

		completed++
		r.mu.Lock()
		r.state.Results[d.id] = d.out
		r.state.Progress = progress(completed, total)
		r.mu.Unlock()
		e.logger.Debug("run %s: node %s completed (%d/%d)", r.state.RunID, d.id, completed, total)

		for _, target := range succ[d.id] {
			indeg[target]--
			if indeg[target] == 0 {
				ready = append(ready, target)
			}
		}
		if e.checkpoints != nil && e.clock.Now().Sub(lastCkpt) >= e.ckptEvery {
			e.writeCheckpoint(r)
			lastCkpt = e.clock.Now()
		}
		e.publish(r)
	}

	e.finish(r, completed, total, failure)
}

// finish applies the terminal transition and the final checkpoint.
func (e *Engine) finish(r *run, completed, total int, failure *ragpipe.Error) {
	r.mu.Lock()
	switch {
	case r.cancelled:
		r.state.Status = StatusCancelled
		if failure != nil && failure.Kind == ragpipe.KindCancelled {
			r.state.Error = failure
		}
	case failure != nil:
		if failure.Kind == ragpipe.KindCancelled {
			r.state.Status = StatusCancelled
		} else {
			r.state.Status = StatusFailed
		}
		r.state.Error = failure
	default:
		r.state.Status = StatusCompleted
		r.state.Progress = progress(completed, total)
	}
	r.state.CompletedAt = e.clock.Now()
	status := r.state.Status
	r.mu.Unlock()

	if e.checkpoints != nil && status == StatusCompleted {
		e.writeCheckpoint(r)
	}
	e.logger.Info("run %s: %s (%d/%d nodes)", r.state.RunID, status, completed, total)
	e.publish(r)
}

// gather assembles the inputs view for a node: upstream node ID to output.
// Outputs are shared by reference; handlers must not mutate them.
func (e *Engine) gather(r *run, g *Graph, id string) map[string]any {
	inputs := make(map[string]any)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, edge := range g.Edges {
		if edge.Target != id {
			continue
		}
		if out, ok := r.state.Results[edge.Source]; ok {
			inputs[edge.Source] = out
		}
	}
	return inputs
}

// invoke runs one handler under its per-kind deadline and, for external
// kinds, the shared rate gate.
func (e *Engine) invoke(ctx context.Context, node Node, inputs map[string]any) (any, error) {
	if node.Kind.RateGated() {
		if err := e.rate.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer e.rate.Release(1)
	}

	h, ok := e.registry.Resolve(node.Kind)
	if !ok {
		return nil, ragpipe.Errorf(ragpipe.KindInternal, "handler for kind %q vanished", node.Kind)
	}

	timeout := node.Kind.DefaultTimeout()
	if v, ok := node.Config["timeout_sec"]; ok {
		switch sec := v.(type) {
		case int:
			timeout = time.Duration(sec) * time.Second
		case float64:
			timeout = time.Duration(sec * float64(time.Second))
		}
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return h.Execute(cctx, node.Config, inputs)
}

// tagError normalizes a handler failure into the error taxonomy and stamps
// the failing node. A failure observed after cancel was requested reports
// as cancelled, whatever the handler returned.
func (e *Engine) tagError(r *run, nodeID string, err error) *ragpipe.Error {
	r.mu.Lock()
	cancelled := r.cancelled
	r.mu.Unlock()

	var tagged *ragpipe.Error
	if !errors.As(err, &tagged) {
		tagged = ragpipe.WrapError(ragpipe.KindOf(err), err, "node execution failed")
	}
	out := *tagged
	out.NodeID = nodeID
	if cancelled {
		out.Kind = ragpipe.KindCancelled
	}
	return &out
}

// publish snapshots the state and fans it out to subscribers. Sends never
// block; a full subscriber just misses this event. Terminal states also
// close every subscription.
func (e *Engine) publish(r *run) {
	r.mu.Lock()
	snapshot := r.state.clone()
	var subs []chan ExecutionState
	if snapshot.Status.Terminal() {
		subs = r.subs
		r.subs = nil
	} else {
		subs = append(subs, r.subs...)
	}
	r.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
		}
		if snapshot.Status.Terminal() {
			close(ch)
		}
	}
}

// restoreCheckpoint pre-completes nodes whose outputs survive in the run's
// checkpoint, returning how many were restored. Entries whose handler
// cannot decode its serialized output are ignored and re-executed; load
// failures only log.
func (e *Engine) restoreCheckpoint(r *run, indeg map[string]int) int {
	if e.checkpoints == nil {
		return 0
	}
	data, err := e.checkpoints.Load(r.ctx, r.state.RunID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("run %s: checkpoint load failed: %v", r.state.RunID, err)
		}
		return 0
	}
	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		e.logger.Warn("run %s: checkpoint decode failed: %v", r.state.RunID, err)
		return 0
	}

	decoded := make(map[string]any, len(snap.Results))
	for id, raw := range snap.Results {
		node, ok := r.graph.Nodes[id]
		if !ok {
			continue
		}
		h, _ := e.registry.Resolve(node.Kind)
		dec, ok := h.(OutputDecoder)
		if !ok {
			continue
		}
		out, err := dec.DecodeOutput(raw)
		if err != nil {
			e.logger.Warn("run %s: checkpoint output for node %s unreadable, re-executing: %v",
				r.state.RunID, id, err)
			continue
		}
		decoded[id] = out
	}

	// Restored nodes must form a closed prefix of the DAG: a node whose
	// parent entry was dropped (unreadable, missing) is re-executed with
	// it, otherwise the re-run parent would decrement its successors'
	// in-degrees a second time.
	parents := r.graph.Parents()
	restored := make(map[string]bool, len(decoded))
	for changed := true; changed; {
		changed = false
		for id := range decoded {
			if restored[id] {
				continue
			}
			ok := true
			for _, p := range parents[id] {
				if !restored[p] {
					ok = false
					break
				}
			}
			if ok {
				restored[id] = true
				changed = true
			}
		}
	}

	succ := r.graph.Successors()
	restoredCount := 0
	for id, out := range decoded {
		if !restored[id] {
			e.logger.Warn("run %s: checkpoint for node %s lacks a parent, re-executing", r.state.RunID, id)
			continue
		}
		r.mu.Lock()
		r.state.Results[id] = out
		r.mu.Unlock()
		restoredCount++
		for _, target := range succ[id] {
			indeg[target]--
		}
	}
	return restoredCount
}

// writeCheckpoint serializes current results. Failures are logged and never
// fail the run.
func (e *Engine) writeCheckpoint(r *run) {
	r.mu.Lock()
	snap := store.Snapshot{
		RunID:     r.state.RunID,
		WrittenAt: e.clock.Now(),
		Results:   make(map[string]json.RawMessage, len(r.state.Results)),
	}
	for id, out := range r.state.Results {
		raw, err := json.Marshal(out)
		if err != nil {
			e.logger.Warn("run %s: skipping unserializable output of node %s: %v", r.state.RunID, id, err)
			continue
		}
		snap.Results[id] = raw
	}
	r.mu.Unlock()

	data, err := store.EncodeSnapshot(snap)
	if err != nil {
		e.logger.Warn("run %s: checkpoint encode failed: %v", r.state.RunID, err)
		return
	}
	if err := e.checkpoints.Save(r.ctx, r.state.RunID, data); err != nil {
		e.logger.Warn("run %s: checkpoint save failed: %v", r.state.RunID, err)
	}
}

// restored reports whether a node's output was pre-loaded from a
// checkpoint.
func (r *run) restored(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.state.Results[id]
	return out, ok
}

func progress(completed, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(completed) / float64(total)
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
