package retrieve

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/rerank"
)

// MultiQuery retrieves with several phrasings of the query in parallel and
// fuses the ranked lists with reciprocal rank fusion. A failing variant
// generator degrades to the original query alone; a failing retrieval fails
// the whole call.
type MultiQuery struct {
	Base Retriever

	// Variants rewrites the query into alternative phrasings. The original
	// query is always searched even if Variants omits or drops it.
	Variants func(ctx context.Context, query string) ([]string, error)

	// RRFK is the fusion smoothing constant. Zero means the default.
	RRFK int
}

// Retrieve fans the variants out over Base and fuses the results.
func (mq *MultiQuery) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	queries := []string{query}
	if mq.Variants != nil {
		if variants, err := mq.Variants(ctx, query); err == nil {
			for _, v := range variants {
				if v != "" && v != query {
					queries = append(queries, v)
				}
			}
		}
	}

	// Each goroutine writes its own slot, so no lock is needed.
	lists := make([][]ragpipe.RetrievalResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			results, err := mq.Base.Retrieve(gctx, q, opts)
			if err != nil {
				return err
			}
			lists[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fuser := &rerank.RRF{K: mq.RRFK}
	fused := fuser.Fuse(lists, opts.TopK)
	for i := range fused {
		fused[i].Metadata["query_variants"] = queries
	}
	return fused, nil
}
