// Package ragpipe provides the shared data model and external ports for a
// Retrieval-Augmented-Generation processing engine.
//
// A pipeline is a directed acyclic graph of typed stages (loader, splitter,
// embedder, vector_db, retriever, reranker, llm, augmentor). The pipeline
// package validates and executes graphs; chunk, retrieve, rerank and augment
// implement the algorithms the stage handlers invoke.
//
// Everything the engine talks to outside the process — embedding models,
// LLMs, rerank services, the chunk repository — is a small interface defined
// here. Implementations live in provider/, adapter/ and repo/.
package ragpipe
