package handlers

import (
	"context"
	"encoding/json"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/augment"
)

// Augmentor rewrites queries ahead of retrieval. Recognized config keys:
// "operation" ("multi_query", "hyde" or "expansion"), "query", "n_queries".
// All operations degrade to the original query when no model is available,
// so a missing LLM never breaks the pipeline.
type Augmentor struct {
	Augmentor *augment.Augmentor
}

// Execute runs the configured operation and returns *AugmentorOutput.
func (a *Augmentor) Execute(ctx context.Context, config map[string]any, _ map[string]any) (any, error) {
	c, err := parseConf(config, "operation", "query", "n_queries")
	if err != nil {
		return nil, err
	}
	op, err := c.str("operation", "multi_query")
	if err != nil {
		return nil, err
	}
	query, err := c.str("query", "")
	if err != nil {
		return nil, err
	}
	if query == "" {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "augmentor has no query")
	}

	aug := a.Augmentor
	if aug == nil {
		aug = augment.New(nil)
	}

	switch op {
	case "multi_query":
		n, err := c.integer("n_queries", 3)
		if err != nil {
			return nil, err
		}
		queries, err := aug.MultiQuery(ctx, query, n)
		if err != nil {
			return nil, err
		}
		return &AugmentorOutput{Operation: op, Queries: queries}, nil
	case "hyde":
		text, err := aug.HyDE(ctx, query)
		if err != nil {
			return nil, err
		}
		return &AugmentorOutput{Operation: op, Text: text}, nil
	case "expansion":
		text, err := aug.Expand(ctx, query)
		if err != nil {
			return nil, err
		}
		return &AugmentorOutput{Operation: op, Text: text}, nil
	default:
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "unknown augmentor operation %q", op)
	}
}

// DecodeOutput restores a checkpointed augmentor result.
func (a *Augmentor) DecodeOutput(data []byte) (any, error) {
	var out AugmentorOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
