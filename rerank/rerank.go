// Package rerank reorders retrieval results with a second, more expensive
// scoring pass: a local cross-encoder, a remote rerank API, or reciprocal
// rank fusion.
package rerank

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// Reranker reorders results for a query and truncates to topK. The returned
// results carry the rerank score in Score; the retrieval score moves to the
// "original_score" metadata key.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []ragpipe.RetrievalResult, topK int) ([]ragpipe.RetrievalResult, error)
}

// rescored copies r with a new score, preserving the old one in metadata.
func rescored(r ragpipe.RetrievalResult, score float64) ragpipe.RetrievalResult {
	md := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		md[k] = v
	}
	md["original_score"] = r.Score
	return ragpipe.RetrievalResult{Chunk: r.Chunk, Score: score, Metadata: md}
}

// CrossEncoder reranks with a local cross-encoder model that scores
// (query, document) pairs jointly.
type CrossEncoder struct {
	Scorer ragpipe.CrossScorer
}

// Rerank scores every result against the query and returns the topK best.
func (ce *CrossEncoder) Rerank(ctx context.Context, query string, results []ragpipe.RetrievalResult, topK int) ([]ragpipe.RetrievalResult, error) {
	if len(results) == 0 || topK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Chunk.Text
	}
	scores, err := ce.Scorer.Score(ctx, query, docs)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "cross-encoder scoring failed")
	}
	if len(scores) != len(results) {
		return nil, ragpipe.Errorf(ragpipe.KindExternal,
			"cross-encoder returned %d scores for %d documents", len(scores), len(results))
	}
	out := make([]ragpipe.RetrievalResult, len(results))
	for i, r := range results {
		out[i] = rescored(r, scores[i])
	}
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, topK), nil
}

// Remote reranks through a hosted rerank API. A transport failure degrades
// to the input order truncated to topK instead of failing the stage; the
// degraded results are tagged so callers can tell.
type Remote struct {
	Service ragpipe.RerankService
}

// Rerank sends the documents to the remote service and maps the returned
// indices back onto the results.
func (rm *Remote) Rerank(ctx context.Context, query string, results []ragpipe.RetrievalResult, topK int) ([]ragpipe.RetrievalResult, error) {
	if len(results) == 0 || topK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Chunk.Text
	}
	ranked, err := rm.Service.Rerank(ctx, query, docs, topK)
	if err != nil {
		out := ragpipe.Truncate(append([]ragpipe.RetrievalResult(nil), results...), topK)
		for i := range out {
			md := make(map[string]any, len(out[i].Metadata)+1)
			for k, v := range out[i].Metadata {
				md[k] = v
			}
			md["rerank_degraded"] = true
			out[i].Metadata = md
		}
		return out, nil
	}
	out := make([]ragpipe.RetrievalResult, 0, len(ranked))
	for _, rd := range ranked {
		if rd.Index < 0 || rd.Index >= len(results) {
			return nil, ragpipe.Errorf(ragpipe.KindExternal,
				"rerank service returned index %d out of range %d", rd.Index, len(results))
		}
		out = append(out, rescored(results[rd.Index], rd.Score))
	}
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, topK), nil
}
