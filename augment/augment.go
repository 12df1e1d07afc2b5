// Package augment rewrites user queries with an LLM before retrieval:
// multi-query variants, hypothetical documents for HyDE, and keyword
// expansion. Every operation degrades to the original query when the model
// is unavailable, so augmentation can never lose the user's question.
package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/smallnest/ragpipe"
)

const (
	defaultCacheSize = 512
	defaultVariants  = 3

	multiQueryPrompt = `You are a search query generator. Given a user question, produce %d alternative phrasings that would retrieve the same information. Respond with a JSON array of strings and nothing else.`

	hydePrompt = `You are a knowledgeable writer. Write one short paragraph that could plausibly appear in a document answering the user's question. Do not mention the question itself.`

	expandPrompt = `You are a search assistant. List synonyms and closely related terms for the key concepts in the user's query, as a single comma-separated line and nothing else.`
)

// Augmentor rewrites queries through an LLM, caching responses so repeated
// queries in one session cost a single completion.
type Augmentor struct {
	llm   ragpipe.LLM
	cache *lru.Cache[string, string]
	model string
}

// Option configures an Augmentor.
type Option func(*Augmentor)

// WithModel pins the completion model instead of the provider default.
func WithModel(model string) Option {
	return func(a *Augmentor) { a.model = model }
}

// New builds an Augmentor. A nil llm is allowed; every operation then takes
// its deterministic fallback path.
func New(llm ragpipe.LLM, opts ...Option) *Augmentor {
	cache, _ := lru.New[string, string](defaultCacheSize)
	a := &Augmentor{llm: llm, cache: cache}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// complete runs one cached completion. The bool reports whether a usable
// response was obtained; false means the caller should degrade.
func (a *Augmentor) complete(ctx context.Context, cacheKey, system, user string) (string, bool) {
	if a.llm == nil {
		return "", false
	}
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached, true
	}
	resp, err := a.llm.Complete(ctx, system, user, ragpipe.CompleteOptions{Model: a.model})
	if err != nil || strings.TrimSpace(resp) == "" {
		return "", false
	}
	a.cache.Add(cacheKey, resp)
	return resp, true
}

// MultiQuery returns at most n query phrasings. The original query is
// always first and never dropped; alternatives fill the remaining slots.
func (a *Augmentor) MultiQuery(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		n = defaultVariants
	}
	out := []string{query}
	resp, ok := a.complete(ctx, "multi:"+query, fmt.Sprintf(multiQueryPrompt, n), query)
	if !ok {
		return out, nil
	}
	for _, v := range parseVariants(resp) {
		if len(out) >= n {
			break
		}
		if v == query {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// HyDE returns a hypothetical passage answering the query, or the query
// itself when the model cannot be reached.
func (a *Augmentor) HyDE(ctx context.Context, query string) (string, error) {
	resp, ok := a.complete(ctx, "hyde:"+query, hydePrompt, query)
	if !ok {
		return query, nil
	}
	return strings.TrimSpace(resp), nil
}

// Expand returns the query broadened with related terms, or the query
// unchanged when the model cannot be reached.
func (a *Augmentor) Expand(ctx context.Context, query string) (string, error) {
	resp, ok := a.complete(ctx, "expand:"+query, expandPrompt, query)
	if !ok {
		return query, nil
	}
	var terms []string
	for _, term := range strings.Split(resp, ",") {
		term = strings.TrimSpace(term)
		if term != "" && !strings.EqualFold(term, query) {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return query, nil
	}
	return query + " " + strings.Join(terms, " "), nil
}

// parseVariants extracts query variants from a model response: a JSON array
// of strings when the model obeyed, otherwise one variant per line with
// list markers and quotes stripped.
func parseVariants(resp string) []string {
	resp = strings.TrimSpace(resp)

	var arr []string
	if err := json.Unmarshal([]byte(resp), &arr); err == nil {
		out := arr[:0]
		for _, v := range arr {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	var out []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"'`)
		line = strings.TrimRight(line, ",")
		if line != "" && line != "[" && line != "]" {
			out = append(out, line)
		}
	}
	return out
}
