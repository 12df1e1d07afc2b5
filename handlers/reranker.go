package handlers

import (
	"context"
	"encoding/json"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/rerank"
)

// Reranker re-scores upstream retrieval results. Recognized config keys:
// "kind" ("cross_encoder", "remote" or "rrf"; default "remote" when a
// service is wired, otherwise "rrf"), "query", "top_k", "rrf_k".
//
// With several upstream retrievers and kind "rrf" the handler fuses their
// lists; the other kinds re-score the concatenation.
type Reranker struct {
	Service ragpipe.RerankService
	Scorer  ragpipe.CrossScorer
}

// Execute reranks and returns *RerankerOutput.
func (rr *Reranker) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	c, err := parseConf(config, "kind", "query", "top_k", "rrf_k")
	if err != nil {
		return nil, err
	}
	kind, err := c.str("kind", rr.defaultKind())
	if err != nil {
		return nil, err
	}
	query, err := c.str("query", "")
	if err != nil {
		return nil, err
	}
	topK, err := c.integer("top_k", 5)
	if err != nil {
		return nil, err
	}
	rrfK, err := c.integer("rrf_k", 0)
	if err != nil {
		return nil, err
	}

	lists := gatherResultLists(inputs)
	if len(lists) == 0 {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "reranker has no upstream results")
	}

	var results []ragpipe.RetrievalResult
	switch kind {
	case "rrf":
		f := &rerank.RRF{K: rrfK}
		if len(lists) > 1 {
			results = f.Fuse(lists, topK)
		} else {
			results, err = f.Rerank(ctx, query, lists[0], topK)
		}
	case "cross_encoder":
		if rr.Scorer == nil {
			return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "reranker has no cross-encoder configured")
		}
		ce := &rerank.CrossEncoder{Scorer: rr.Scorer}
		results, err = ce.Rerank(ctx, query, flatten(lists), topK)
	case "remote":
		if rr.Service == nil {
			return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "reranker has no remote service configured")
		}
		rm := &rerank.Remote{Service: rr.Service}
		results, err = rm.Rerank(ctx, query, flatten(lists), topK)
	default:
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "unknown reranker kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return &RerankerOutput{Results: results, Count: len(results)}, nil
}

// DecodeOutput restores a checkpointed reranker result.
func (rr *Reranker) DecodeOutput(data []byte) (any, error) {
	var out RerankerOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (rr *Reranker) defaultKind() string {
	if rr.Service != nil {
		return "remote"
	}
	if rr.Scorer != nil {
		return "cross_encoder"
	}
	return "rrf"
}

// gatherResultLists collects one ranked list per upstream retriever or
// reranker node, in node-ID order.
func gatherResultLists(inputs map[string]any) [][]ragpipe.RetrievalResult {
	var out [][]ragpipe.RetrievalResult
	for _, id := range sortedInputIDs(inputs) {
		switch in := inputs[id].(type) {
		case *RetrieverOutput:
			out = append(out, in.Results)
		case *RerankerOutput:
			out = append(out, in.Results)
		}
	}
	return out
}

func flatten(lists [][]ragpipe.RetrievalResult) []ragpipe.RetrievalResult {
	if len(lists) == 1 {
		return lists[0]
	}
	var out []ragpipe.RetrievalResult
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, r := range list {
			if !seen[r.Chunk.ID] {
				seen[r.Chunk.ID] = true
				out = append(out, r)
			}
		}
	}
	return out
}
