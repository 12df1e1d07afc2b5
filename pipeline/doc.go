// Package pipeline validates and executes RAG processing graphs.
//
// A graph is a set of typed nodes (loader, splitter, embedder, vector_db,
// retriever, reranker, llm, augmentor) connected by directed edges. The
// validator rejects cycles, dangling edges and duplicate IDs before a run is
// admitted. The engine then executes nodes greedily: a node becomes ready as
// soon as every parent has finished, a bounded worker pool drains the ready
// queue, and nodes that call external services additionally pass through a
// shared rate gate.
//
// Node semantics live entirely in handlers registered by kind; the engine
// only moves opaque outputs from parents to children, publishes progress
// events, writes best-effort checkpoints and honors cancellation.
package pipeline
