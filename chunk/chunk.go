// Package chunk splits document text into chunk candidates under a named
// strategy. All strategies are pure and deterministic: a candidate carries
// the exact byte offsets of its text within the input, and with zero overlap
// concatenating the candidates in order reproduces the input.
package chunk

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// Strategy names a chunking algorithm.
type Strategy string

const (
	Fixed          Strategy = "fixed"
	Recursive      Strategy = "recursive"
	Sentence       Strategy = "sentence"
	Paragraph      Strategy = "paragraph"
	SentenceWindow Strategy = "sentence_window"
	Heading        Strategy = "heading"
	CodeAware      Strategy = "code_aware"
	Semantic       Strategy = "semantic"
)

// Params carries the knobs shared by the strategies. Zero values fall back
// to the documented defaults.
type Params struct {
	// ChunkSize is the target chunk length in bytes. Default 512.
	ChunkSize int
	// Overlap is the number of trailing bytes repeated at the start of the
	// next chunk, for the strategies that overlap. sentence_window counts
	// it in sentences instead. Default 0. Must be smaller than ChunkSize.
	Overlap int
	// WindowSize is the sentence window width for sentence_window and the
	// gap context width for semantic. Default 3 and 1 respectively.
	WindowSize int
	// Threshold is the semantic similarity cut below which a valley gap
	// starts a new chunk. Default 0.5.
	Threshold float64
	// MinChunkSize is the minimum accumulated length before the semantic
	// strategy may split. Default 100.
	MinChunkSize int
}

// Candidate is one chunk candidate: a slice of the input text with its
// offsets and strategy-specific metadata.
type Candidate struct {
	Text      string         `json:"text"`
	StartChar int            `json:"start_char"`
	EndChar   int            `json:"end_char"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

const (
	defaultChunkSize    = 512
	defaultWindowSize   = 3
	defaultGapWindow    = 1
	defaultThreshold    = 0.5
	defaultMinChunkSize = 100
)

func (p Params) chunkSize() int {
	if p.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return p.ChunkSize
}

// Split applies the named strategy to text. Empty input yields zero
// candidates; it never panics on degenerate input.
//
// The semantic strategy needs an embedder and must be invoked through
// SplitSemantic instead; Split rejects it with InvalidConfig.
func Split(text string, strategy Strategy, params Params) ([]Candidate, error) {
	if err := validate(strategy, params); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	switch strategy {
	case Fixed:
		return splitFixed(text, params), nil
	case Recursive:
		return splitRecursive(text, params), nil
	case Sentence:
		return splitSentence(text, params), nil
	case Paragraph:
		return splitParagraph(text, params), nil
	case SentenceWindow:
		return splitSentenceWindow(text, params), nil
	case Heading:
		return splitHeading(text), nil
	case CodeAware:
		return splitCodeAware(text, params), nil
	case Semantic:
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig,
			"semantic strategy requires an embedder; use SplitSemantic")
	default:
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "unknown chunking strategy %q", strategy)
	}
}

// SplitSemantic applies the semantic valley-split strategy, embedding
// sentences through emb.
func SplitSemantic(ctx context.Context, text string, params Params, emb ragpipe.Embedder) ([]Candidate, error) {
	if err := validate(Semantic, params); err != nil {
		return nil, err
	}
	if emb == nil {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "semantic strategy requires an embedder")
	}
	return splitSemantic(ctx, text, params, emb)
}

func validate(strategy Strategy, params Params) error {
	switch strategy {
	case Fixed, Recursive, Sentence, Paragraph, SentenceWindow, Heading, CodeAware, Semantic:
	default:
		return ragpipe.Errorf(ragpipe.KindInvalidConfig, "unknown chunking strategy %q", strategy)
	}
	if params.ChunkSize < 0 {
		return ragpipe.Errorf(ragpipe.KindInvalidConfig, "chunkSize must be positive, got %d", params.ChunkSize)
	}
	if params.Overlap < 0 {
		return ragpipe.Errorf(ragpipe.KindInvalidConfig, "overlap must be non-negative, got %d", params.Overlap)
	}
	if params.Overlap >= params.chunkSize() {
		return ragpipe.Errorf(ragpipe.KindInvalidConfig,
			"overlap %d must be smaller than chunkSize %d", params.Overlap, params.chunkSize())
	}
	return nil
}

func candidate(text string, start, end int) Candidate {
	return Candidate{Text: text[start:end], StartChar: start, EndChar: end}
}
