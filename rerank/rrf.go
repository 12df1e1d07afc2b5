package rerank

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// DefaultRRFConstant is the standard smoothing constant from the reciprocal
// rank fusion literature.
const DefaultRRFConstant = 60

// RRF fuses ranked lists by reciprocal rank: a document at rank r (zero
// based) contributes 1/(K+r+1). Scores from different retrievers never mix
// directly, only their ranks do.
type RRF struct {
	// K is the smoothing constant. Zero means DefaultRRFConstant.
	K int
}

func (f *RRF) k() int {
	if f.K <= 0 {
		return DefaultRRFConstant
	}
	return f.K
}

// Rerank rescales a single list by reciprocal rank. The input order is
// already the ranking, so the order is preserved and only scores change.
func (f *RRF) Rerank(_ context.Context, _ string, results []ragpipe.RetrievalResult, topK int) ([]ragpipe.RetrievalResult, error) {
	if len(results) == 0 || topK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	out := make([]ragpipe.RetrievalResult, len(results))
	for i, r := range results {
		out[i] = rescored(r, 1/float64(f.k()+i+1))
	}
	return ragpipe.Truncate(out, topK), nil
}

// Fuse merges several ranked lists into one, keyed by chunk ID. A chunk's
// fused score is the sum of its reciprocal rank contributions across every
// list it appears in. Ties break by ascending chunk ID.
func (f *RRF) Fuse(lists [][]ragpipe.RetrievalResult, topK int) []ragpipe.RetrievalResult {
	if topK <= 0 {
		return []ragpipe.RetrievalResult{}
	}
	fused := make(map[string]ragpipe.RetrievalResult)
	scores := make(map[string]float64)
	for _, list := range lists {
		for rank, r := range list {
			id := r.Chunk.ID
			scores[id] += 1 / float64(f.k()+rank+1)
			if _, seen := fused[id]; !seen {
				fused[id] = r
			}
		}
	}
	out := make([]ragpipe.RetrievalResult, 0, len(fused))
	for id, r := range fused {
		out = append(out, rescored(r, scores[id]))
	}
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, topK)
}
