// Package repo provides chunk repository implementations: a pure in-memory
// store with naive keyword matching, and a variant backed by a bleve
// full-text index.
package repo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/smallnest/ragpipe"
)

// Memory is an in-memory chunk repository. Dense search is exact cosine over
// every stored embedding; keyword search scores by query-token overlap. It
// is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	chunks map[string]ragpipe.Chunk
	byDoc  map[string][]string
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		chunks: make(map[string]ragpipe.Chunk),
		byDoc:  make(map[string][]string),
	}
}

// Insert stores chunks, replacing any previous chunk with the same ID.
func (m *Memory) Insert(_ context.Context, chunks []ragpipe.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		if c.ID == "" {
			return ragpipe.Errorf(ragpipe.KindInvalidConfig, "chunk with empty ID")
		}
		if _, exists := m.chunks[c.ID]; !exists {
			m.byDoc[c.DocumentID] = append(m.byDoc[c.DocumentID], c.ID)
		}
		m.chunks[c.ID] = c
	}
	return nil
}

// ByDocument returns a document's chunks ordered by Index.
func (m *Memory) ByDocument(_ context.Context, documentID string) ([]ragpipe.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byDoc[documentID]
	out := make([]ragpipe.Chunk, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.chunks[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ByIDs returns the chunks with the given IDs, silently dropping unknowns.
func (m *Memory) ByIDs(_ context.Context, ids []string) ([]ragpipe.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ragpipe.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// DenseSearch returns up to limit chunks by descending cosine similarity.
func (m *Memory) DenseSearch(_ context.Context, queryVec []float32, limit int, documentID string) ([]ragpipe.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []ragpipe.ScoredChunk
	for _, c := range m.chunks {
		if documentID != "" && c.DocumentID != documentID {
			continue
		}
		if len(c.Embedding) == 0 {
			continue
		}
		hits = append(hits, ragpipe.ScoredChunk{Chunk: c, Score: ragpipe.Cosine(queryVec, c.Embedding)})
	}
	return topHits(hits, limit), nil
}

// KeywordSearch scores chunks by the fraction of query tokens they contain.
// Chunks matching no token are excluded.
func (m *Memory) KeywordSearch(_ context.Context, queryText string, limit int, documentID string) ([]ragpipe.ScoredChunk, error) {
	terms := tokenize(queryText)
	if len(terms) == 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []ragpipe.ScoredChunk
	for _, c := range m.chunks {
		if documentID != "" && c.DocumentID != documentID {
			continue
		}
		text := c.FTSToken
		if text == "" {
			text = c.Text
		}
		tokens := make(map[string]bool)
		for _, tok := range tokenize(text) {
			tokens[tok] = true
		}
		matched := 0
		for _, term := range terms {
			if tokens[term] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, ragpipe.ScoredChunk{Chunk: c, Score: float64(matched) / float64(len(terms))})
	}
	return topHits(hits, limit), nil
}

func topHits(hits []ragpipe.ScoredChunk, limit int) []ragpipe.ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}
