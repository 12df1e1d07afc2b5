package ragpipe

import "context"

// EmbedderInfo describes an embedding model behind the Embedder port.
type EmbedderInfo struct {
	Provider        string
	Model           string
	Dim             int
	CostPer1MTokens float64
}

// Embedder turns texts into dense vectors. Implementations batch as they
// see fit; the returned slice is index-aligned with texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Info() EmbedderInfo
}

// CompleteOptions tunes a single LLM completion.
type CompleteOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLM is a chat-completion model behind a provider API.
type LLM interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompleteOptions) (string, error)
}

// RerankedDoc is one scored document returned by a rerank service.
type RerankedDoc struct {
	// Index refers back into the docs slice passed to Rerank.
	Index int
	Score float64
}

// RerankService is a remote cross-encoder style rerank API.
type RerankService interface {
	Rerank(ctx context.Context, query string, docs []string, topK int) ([]RerankedDoc, error)
}

// CrossScorer scores (query, document) pairs with a local cross-encoder.
// The returned slice is index-aligned with docs.
type CrossScorer interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// ChunkRepository is the persistent home of chunks. The engine and the
// retriever library only ever use these named operations; storage layout is
// the repository's business.
type ChunkRepository interface {
	// Insert stores chunks. Parents must be inserted before children.
	Insert(ctx context.Context, chunks []Chunk) error

	// ByDocument returns all chunks of a document ordered by Index.
	ByDocument(ctx context.Context, documentID string) ([]Chunk, error)

	// ByIDs returns the chunks with the given IDs, in no particular order.
	// Missing IDs are silently dropped.
	ByIDs(ctx context.Context, ids []string) ([]Chunk, error)

	// DenseSearch returns up to limit chunks ordered by descending cosine
	// similarity to queryVec. documentID filters to one document when
	// non-empty.
	DenseSearch(ctx context.Context, queryVec []float32, limit int, documentID string) ([]ScoredChunk, error)

	// KeywordSearch returns up to limit chunks ordered by descending
	// full-text rank for queryText. The rank function is backend-specific
	// but monotone in relevance.
	KeywordSearch(ctx context.Context, queryText string, limit int, documentID string) ([]ScoredChunk, error)
}

// DocumentLoader reads a document into plain text plus metadata.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (text string, metadata map[string]any, err error)
}
