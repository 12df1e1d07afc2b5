package retrieve

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// MMR applies maximal marginal relevance: a dense candidate pool of FetchK
// chunks is reduced to TopK by greedily picking the chunk with the best
// balance of query relevance and novelty against what is already selected:
//
//	mmr = lambda*relevance - (1-lambda)*maxSimilarityToSelected
//
// Lambda 1 is pure relevance, lambda 0 pure diversity.
type MMR struct {
	Repo     ragpipe.ChunkRepository
	Embedder ragpipe.Embedder

	// FetchK is the candidate pool size. Zero means max(20, 4*TopK).
	FetchK int

	// Lambda is the relevance weight in [0,1]. The zero value means 0.5.
	Lambda float64

	lambdaSet bool
}

// NewMMR builds an MMR retriever with an explicit relevance weight.
func NewMMR(repo ragpipe.ChunkRepository, emb ragpipe.Embedder, lambda float64, fetchK int) (*MMR, error) {
	if lambda < 0 || lambda > 1 {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "lambda must be in [0,1], got %v", lambda)
	}
	if fetchK < 0 {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "fetchK must be non-negative, got %d", fetchK)
	}
	return &MMR{Repo: repo, Embedder: emb, Lambda: lambda, FetchK: fetchK, lambdaSet: true}, nil
}

func (m *MMR) lambda() float64 {
	if !m.lambdaSet && m.Lambda == 0 {
		return 0.5
	}
	return m.Lambda
}

func (m *MMR) fetchK(topK int) int {
	if m.FetchK > 0 {
		return m.FetchK
	}
	return max(20, 4*topK)
}

// Retrieve selects TopK diverse results from the dense candidate pool.
func (m *MMR) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	vec, err := queryVector(ctx, query, opts, m.Embedder)
	if err != nil {
		return nil, err
	}
	hits, err := m.Repo.DenseSearch(ctx, vec, m.fetchK(opts.TopK), opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "dense search")
	}
	if len(hits) == 0 {
		return []ragpipe.RetrievalResult{}, nil
	}

	lambda := m.lambda()
	remaining := append([]ragpipe.ScoredChunk(nil), hits...)
	var selected []ragpipe.RetrievalResult

	for len(selected) < opts.TopK && len(remaining) > 0 {
		bestIdx := -1
		bestScore := 0.0
		for i, cand := range remaining {
			redundancy := 0.0
			for _, s := range selected {
				if sim := ragpipe.Cosine(cand.Chunk.Embedding, s.Chunk.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*cand.Score - (1-lambda)*redundancy
			if bestIdx < 0 || score > bestScore ||
				(score == bestScore && cand.Chunk.ID < remaining[bestIdx].Chunk.ID) {
				bestIdx = i
				bestScore = score
			}
		}
		picked := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		selected = append(selected, ragpipe.RetrievalResult{
			Chunk: picked.Chunk,
			Score: picked.Score,
			Metadata: map[string]any{
				"mmr_score": bestScore,
			},
		})
	}
	return selected, nil
}
