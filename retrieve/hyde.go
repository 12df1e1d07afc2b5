package retrieve

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// HyDE retrieves with a hypothetical document: the query is expanded into a
// short passage that could answer it, and that passage's embedding is
// searched instead of the query's. A failing generator degrades to the plain
// query text.
type HyDE struct {
	Repo     ragpipe.ChunkRepository
	Embedder ragpipe.Embedder

	// Hypothesize writes a passage that could plausibly answer the query.
	Hypothesize func(ctx context.Context, query string) (string, error)
}

// Retrieve embeds the hypothetical document and runs a dense search with it.
func (h *HyDE) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	text := query
	degraded := false
	if h.Hypothesize != nil {
		if hypo, err := h.Hypothesize(ctx, query); err == nil && hypo != "" {
			text = hypo
		} else {
			degraded = true
		}
	}

	searchOpts := opts
	searchOpts.QueryEmbedding = nil
	vec, err := queryVector(ctx, text, searchOpts, h.Embedder)
	if err != nil {
		return nil, err
	}
	hits, err := h.Repo.DenseSearch(ctx, vec, opts.TopK, opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "dense search")
	}

	out := make([]ragpipe.RetrievalResult, len(hits))
	for i, hit := range hits {
		md := map[string]any{"hypothetical_document": text}
		if degraded {
			md["hyde_degraded"] = true
		}
		out[i] = ragpipe.RetrievalResult{Chunk: hit.Chunk, Score: hit.Score, Metadata: md}
	}
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, opts.TopK), nil
}
