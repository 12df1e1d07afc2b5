package chunk

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// splitSemantic cuts at topic shifts. Sentences are embedded and
// unit-normalized, every inter-sentence gap gets a similarity score from the
// windowed means on either side, and a cut happens only where the score is a
// local minimum below the threshold and the accumulated chunk has reached
// MinChunkSize. Boundary gaps compare against a sentinel similarity of 1, so
// the first and last gaps need no special casing.
func splitSemantic(ctx context.Context, text string, p Params, emb ragpipe.Embedder) ([]Candidate, error) {
	sents := sentenceSpans(text)
	if len(sents) == 0 {
		return nil, nil
	}
	if len(sents) == 1 {
		return []Candidate{candidate(text, sents[0].start, sents[0].end)}, nil
	}

	texts := make([]string, len(sents))
	for i, s := range sents {
		texts[i] = text[s.start:s.end]
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "embedding sentences for semantic split")
	}
	if len(vecs) != len(texts) {
		return nil, ragpipe.Errorf(ragpipe.KindExternal,
			"embedder returned %d vectors for %d sentences", len(vecs), len(texts))
	}
	for i, v := range vecs {
		vecs[i] = ragpipe.Normalize(v)
	}

	w := p.WindowSize
	if w <= 0 {
		w = defaultGapWindow
	}
	nGaps := len(sents) - 1
	sims := make([]float64, nGaps)
	for g := 0; g < nGaps; g++ {
		lo := max(0, g+1-w)
		hi := min(len(sents), g+1+w)
		sims[g] = ragpipe.Cosine(ragpipe.Mean(vecs[lo:g+1]), ragpipe.Mean(vecs[g+1:hi]))
	}
	simAt := func(g int) float64 {
		if g < 0 || g >= nGaps {
			return 1
		}
		return sims[g]
	}

	threshold := p.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	minSize := p.MinChunkSize
	if minSize <= 0 {
		minSize = defaultMinChunkSize
	}

	var out []Candidate
	start := sents[0].start
	for g := 0; g < nGaps; g++ {
		valley := sims[g] <= simAt(g-1) && sims[g] <= simAt(g+1)
		if sims[g] < threshold && valley && sents[g].end-start >= minSize {
			out = append(out, candidate(text, start, sents[g].end))
			start = sents[g+1].start
		}
	}
	out = append(out, candidate(text, start, sents[len(sents)-1].end))
	return out, nil
}
