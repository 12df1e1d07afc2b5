package retrieve

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// Hybrid fuses dense and keyword retrieval. Both branches fetch twice TopK
// candidates, each branch's scores are min-max normalized within its own
// list, and a chunk's combined score is
//
//	alpha*dense + (1-alpha)*keyword
//
// with a missing branch contributing zero. Alpha 1 is pure dense, alpha 0
// pure keyword.
type Hybrid struct {
	Repo     ragpipe.ChunkRepository
	Embedder ragpipe.Embedder

	// Alpha is the dense weight in [0,1]. The zero value means 0.5.
	Alpha float64

	alphaSet bool
}

// NewHybrid builds a hybrid retriever with an explicit dense weight.
func NewHybrid(repo ragpipe.ChunkRepository, emb ragpipe.Embedder, alpha float64) (*Hybrid, error) {
	if alpha < 0 || alpha > 1 {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "alpha must be in [0,1], got %v", alpha)
	}
	return &Hybrid{Repo: repo, Embedder: emb, Alpha: alpha, alphaSet: true}, nil
}

func (h *Hybrid) alpha() float64 {
	if !h.alphaSet && h.Alpha == 0 {
		return 0.5
	}
	return h.Alpha
}

// Retrieve fuses the two branches and returns the TopK best combined.
func (h *Hybrid) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	fetch := 2 * opts.TopK

	vec, err := queryVector(ctx, query, opts, h.Embedder)
	if err != nil {
		return nil, err
	}
	denseHits, err := h.Repo.DenseSearch(ctx, vec, fetch, opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "dense search")
	}
	kwHits, err := h.Repo.KeywordSearch(ctx, query, fetch, opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "keyword search")
	}

	denseNorm := normalizedByID(denseHits)
	kwNorm := normalizedByID(kwHits)

	chunks := make(map[string]ragpipe.Chunk)
	for _, hit := range denseHits {
		chunks[hit.Chunk.ID] = hit.Chunk
	}
	for _, hit := range kwHits {
		if _, ok := chunks[hit.Chunk.ID]; !ok {
			chunks[hit.Chunk.ID] = hit.Chunk
		}
	}

	a := h.alpha()
	out := make([]ragpipe.RetrievalResult, 0, len(chunks))
	for id, c := range chunks {
		d := denseNorm[id]
		k := kwNorm[id]
		out = append(out, ragpipe.RetrievalResult{
			Chunk: c,
			Score: a*d + (1-a)*k,
			Metadata: map[string]any{
				"dense_score":   d,
				"keyword_score": k,
			},
		})
	}
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, opts.TopK), nil
}

// normalizedByID min-max normalizes one branch's scores and keys them by
// chunk ID. A constant list normalizes to all ones.
func normalizedByID(hits []ragpipe.ScoredChunk) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	ragpipe.MinMaxNormalize(scores)
	out := make(map[string]float64, len(hits))
	for i, h := range hits {
		out[h.Chunk.ID] = scores[i]
	}
	return out
}
