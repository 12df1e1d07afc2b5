package handlers

import (
	"context"
	"encoding/json"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/augment"
	"github.com/smallnest/ragpipe/retrieve"
)

// Retriever runs one retrieval strategy, optionally wrapped by query-side
// augmentation. Recognized config keys: "strategy" ("dense", "keyword",
// "hybrid", "mmr", "parent_document"; default "dense"), "query", "top_k",
// "document_id", "alpha", "lambda", "fetch_k", "multi_query", "n_queries",
// "hyde", "expansion", "rrf_k".
type Retriever struct {
	Repo      ragpipe.ChunkRepository
	Embedder  ragpipe.Embedder
	Augmentor *augment.Augmentor
}

// Execute resolves the retriever composition from config and returns
// *RetrieverOutput.
func (r *Retriever) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	c, err := parseConf(config, "strategy", "query", "top_k", "document_id",
		"alpha", "lambda", "fetch_k", "multi_query", "n_queries", "hyde", "expansion", "rrf_k")
	if err != nil {
		return nil, err
	}
	if r.Repo == nil {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "retriever has no repository configured")
	}

	query, err := c.str("query", "")
	if err != nil {
		return nil, err
	}
	if query == "" {
		query = upstreamQuery(inputs)
	}
	if query == "" {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "retriever has no query")
	}

	topK, err := c.integer("top_k", 5)
	if err != nil {
		return nil, err
	}
	docID, err := c.str("document_id", "")
	if err != nil {
		return nil, err
	}

	base, strategy, err := r.baseRetriever(c)
	if err != nil {
		return nil, err
	}
	wrapped, augmentation, err := r.wrap(c, base)
	if err != nil {
		return nil, err
	}

	opts := retrieve.Options{
		TopK:           topK,
		DocumentID:     docID,
		QueryEmbedding: upstreamQueryEmbedding(inputs),
	}
	results, err := wrapped.Retrieve(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return &RetrieverOutput{
		Results:      results,
		Count:        len(results),
		Strategy:     strategy,
		Augmentation: augmentation,
	}, nil
}

// DecodeOutput restores a checkpointed retriever result.
func (r *Retriever) DecodeOutput(data []byte) (any, error) {
	var out RetrieverOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Retriever) baseRetriever(c conf) (retrieve.Retriever, string, error) {
	strategy, err := c.str("strategy", "dense")
	if err != nil {
		return nil, "", err
	}
	switch strategy {
	case "dense":
		return &retrieve.Dense{Repo: r.Repo, Embedder: r.Embedder}, strategy, nil
	case "keyword":
		return &retrieve.Keyword{Repo: r.Repo}, strategy, nil
	case "hybrid":
		alpha, err := c.float("alpha", 0.5)
		if err != nil {
			return nil, "", err
		}
		h, err := retrieve.NewHybrid(r.Repo, r.Embedder, alpha)
		if err != nil {
			return nil, "", err
		}
		return h, strategy, nil
	case "mmr":
		lambda, err := c.float("lambda", 0.5)
		if err != nil {
			return nil, "", err
		}
		fetchK, err := c.integer("fetch_k", 0)
		if err != nil {
			return nil, "", err
		}
		m, err := retrieve.NewMMR(r.Repo, r.Embedder, lambda, fetchK)
		if err != nil {
			return nil, "", err
		}
		return m, strategy, nil
	case "parent_document":
		return &retrieve.ParentDocument{Repo: r.Repo, Embedder: r.Embedder}, strategy, nil
	default:
		return nil, "", ragpipe.Errorf(ragpipe.KindInvalidConfig, "unknown retrieval strategy %q", strategy)
	}
}

// wrap layers the configured query augmentations around base. hyde replaces
// the base strategy (it is a dense search over the hypothetical document),
// while expansion and multi_query decorate whatever is underneath.
func (r *Retriever) wrap(c conf, base retrieve.Retriever) (retrieve.Retriever, map[string]any, error) {
	augmentation := map[string]any{}

	useHyde, err := c.boolean("hyde", false)
	if err != nil {
		return nil, nil, err
	}
	if useHyde {
		base = &retrieve.HyDE{Repo: r.Repo, Embedder: r.Embedder, Hypothesize: r.hypothesize()}
		augmentation["hyde"] = true
	}

	useExpansion, err := c.boolean("expansion", false)
	if err != nil {
		return nil, nil, err
	}
	if useExpansion {
		base = &retrieve.Expansion{Base: base, Expand: r.expand()}
		augmentation["expansion"] = true
	}

	useMulti, err := c.boolean("multi_query", false)
	if err != nil {
		return nil, nil, err
	}
	if useMulti {
		n, err := c.integer("n_queries", 3)
		if err != nil {
			return nil, nil, err
		}
		rrfK, err := c.integer("rrf_k", 0)
		if err != nil {
			return nil, nil, err
		}
		base = &retrieve.MultiQuery{Base: base, Variants: r.variants(n), RRFK: rrfK}
		augmentation["multi_query"] = true
		augmentation["n_queries"] = n
	}

	if len(augmentation) == 0 {
		augmentation = nil
	}
	return base, augmentation, nil
}

func (r *Retriever) variants(n int) func(ctx context.Context, query string) ([]string, error) {
	if r.Augmentor == nil {
		return nil
	}
	return func(ctx context.Context, query string) ([]string, error) {
		return r.Augmentor.MultiQuery(ctx, query, n)
	}
}

func (r *Retriever) hypothesize() func(ctx context.Context, query string) (string, error) {
	if r.Augmentor == nil {
		return nil
	}
	return r.Augmentor.HyDE
}

func (r *Retriever) expand() func(ctx context.Context, query string) (string, error) {
	if r.Augmentor == nil {
		return nil
	}
	return r.Augmentor.Expand
}

// upstreamQuery falls back to augmentor or llm output as the query text.
func upstreamQuery(inputs map[string]any) string {
	for _, id := range sortedInputIDs(inputs) {
		switch in := inputs[id].(type) {
		case *AugmentorOutput:
			if in.Text != "" {
				return in.Text
			}
			if len(in.Queries) > 0 {
				return in.Queries[0]
			}
		case *LLMOutput:
			if in.Response != "" {
				return in.Response
			}
		}
	}
	return ""
}

// upstreamQueryEmbedding picks up a single-vector embedder output, the
// pattern for pipelines that embed the query in a dedicated node.
func upstreamQueryEmbedding(inputs map[string]any) []float32 {
	for _, id := range sortedInputIDs(inputs) {
		if in, ok := inputs[id].(*EmbedderOutput); ok && len(in.Vectors) == 1 && len(in.Chunks) == 0 {
			return in.Vectors[0]
		}
	}
	return nil
}
