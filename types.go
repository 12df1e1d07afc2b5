package ragpipe

import "time"

// Chunk is a contiguous slice of a document's text together with its
// character offsets and an optional embedding.
//
// Invariants: 0 <= StartChar <= EndChar <= len(document text); Index is
// unique per DocumentID and dense from 0.
type Chunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Index      int            `json:"index"`
	StartChar  int            `json:"start_char"`
	EndChar    int            `json:"end_char"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Embedding  []float32      `json:"embedding,omitempty"`

	// ParentID is a non-owning handle to a larger enclosing chunk, used by
	// the parent-document retriever. Parents are inserted before children,
	// so no ownership cycle is possible.
	ParentID string `json:"parent_id,omitempty"`

	// FTSToken is the tokenized form indexed by keyword search backends.
	FTSToken string `json:"fts_token,omitempty"`
}

// RetrievalResult is one scored chunk in a retriever's output. Result sets
// are always ordered by descending Score; scores are comparable within one
// result set but not across retriever kinds.
type RetrievalResult struct {
	Chunk    Chunk          `json:"chunk"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScoredChunk is a repository search hit before retriever post-processing.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Clock abstracts time for timestamps and cache TTLs so tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
