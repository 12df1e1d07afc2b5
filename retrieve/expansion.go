package retrieve

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// Expansion broadens the query with related terms before delegating to the
// base retriever. A failing expander degrades to the original query.
type Expansion struct {
	Base Retriever

	// Expand returns the query broadened with synonyms and related terms.
	Expand func(ctx context.Context, query string) (string, error)
}

// Retrieve searches with the expanded query.
func (e *Expansion) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	expanded := query
	if e.Expand != nil {
		if exp, err := e.Expand(ctx, query); err == nil && exp != "" {
			expanded = exp
		}
	}
	results, err := e.Base.Retrieve(ctx, expanded, opts)
	if err != nil {
		return nil, err
	}
	if expanded != query {
		for i := range results {
			if results[i].Metadata == nil {
				results[i].Metadata = map[string]any{}
			}
			results[i].Metadata["expanded_query"] = expanded
		}
	}
	return results, nil
}
