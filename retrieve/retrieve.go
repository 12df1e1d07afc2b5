// Package retrieve implements the retrieval strategies over a chunk
// repository: dense and keyword search plus the composite retrievers built
// on them (hybrid fusion, MMR diversification, parent-document expansion,
// multi-query fusion, HyDE and query expansion).
//
// Every retriever returns results ordered by descending score with ties
// broken by ascending chunk ID, and never more than TopK of them.
package retrieve

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// Options carries the per-call retrieval knobs shared by all retrievers.
type Options struct {
	// TopK caps the result count. Zero or negative yields an empty set.
	TopK int

	// DocumentID restricts the search to one document when non-empty.
	DocumentID string

	// QueryEmbedding, when set, is used instead of embedding the query
	// text. Dense retrieval without either an embedding or an embedder
	// fails with a missing-input error.
	QueryEmbedding []float32
}

// Retriever finds the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error)
}

// queryVector resolves the query embedding: the caller-supplied vector wins,
// otherwise the query text is embedded.
func queryVector(ctx context.Context, query string, opts Options, emb ragpipe.Embedder) ([]float32, error) {
	if len(opts.QueryEmbedding) > 0 {
		return opts.QueryEmbedding, nil
	}
	if emb == nil {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput,
			"dense retrieval needs a query embedding or an embedder")
	}
	vecs, err := emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "embedding query")
	}
	if len(vecs) != 1 {
		return nil, ragpipe.Errorf(ragpipe.KindExternal,
			"embedder returned %d vectors for one query", len(vecs))
	}
	return vecs[0], nil
}

func toResults(hits []ragpipe.ScoredChunk) []ragpipe.RetrievalResult {
	out := make([]ragpipe.RetrievalResult, len(hits))
	for i, h := range hits {
		out[i] = ragpipe.RetrievalResult{Chunk: h.Chunk, Score: h.Score}
	}
	return out
}

// Dense retrieves by cosine similarity between the query embedding and the
// stored chunk embeddings.
type Dense struct {
	Repo     ragpipe.ChunkRepository
	Embedder ragpipe.Embedder
}

// Retrieve runs a dense similarity search.
func (d *Dense) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	vec, err := queryVector(ctx, query, opts, d.Embedder)
	if err != nil {
		return nil, err
	}
	hits, err := d.Repo.DenseSearch(ctx, vec, opts.TopK, opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "dense search")
	}
	out := toResults(hits)
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, opts.TopK), nil
}

// Keyword retrieves by full-text rank over the repository's keyword index.
type Keyword struct {
	Repo ragpipe.ChunkRepository
}

// Retrieve runs a keyword search.
func (k *Keyword) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	hits, err := k.Repo.KeywordSearch(ctx, query, opts.TopK, opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "keyword search")
	}
	out := toResults(hits)
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, opts.TopK), nil
}
