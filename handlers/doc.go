// Package handlers implements the node semantics for every pipeline kind:
// loader, splitter, embedder, vector_db, retriever, reranker, llm and
// augmentor.
//
// Each handler declares a closed configuration: the recognized keys are
// listed per handler and anything else is rejected as invalid config, so a
// typo in a pipeline definition fails loudly at the node instead of being
// silently ignored. Handlers are stateless between invocations; everything
// they need arrives through their dependencies at construction, the node
// config, and the upstream outputs.
//
// Every handler's output type round-trips through JSON, which is what lets
// the engine checkpoint node outputs and restore them on resume.
package handlers
