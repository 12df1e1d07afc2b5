package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/chunk"
)

// Splitter chunks upstream document text. Recognized config keys: "method",
// "chunk_size", "overlap", "window_size", "threshold", "min_chunk_size",
// "document_id". The semantic method additionally needs the embedder
// dependency.
type Splitter struct {
	// Embedder is only required for the semantic method.
	Embedder ragpipe.Embedder
}

// Execute splits the gathered text and returns *SplitterOutput.
func (s *Splitter) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	c, err := parseConf(config, "method", "chunk_size", "overlap",
		"window_size", "threshold", "min_chunk_size", "document_id")
	if err != nil {
		return nil, err
	}
	method, err := c.str("method", string(chunk.Recursive))
	if err != nil {
		return nil, err
	}
	params, err := splitParams(c)
	if err != nil {
		return nil, err
	}
	docID, err := c.str("document_id", "doc")
	if err != nil {
		return nil, err
	}

	text := gatherText(inputs)
	if text == "" {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "splitter has no upstream text")
	}

	var candidates []chunk.Candidate
	if chunk.Strategy(method) == chunk.Semantic {
		candidates, err = chunk.SplitSemantic(ctx, text, params, s.Embedder)
	} else {
		candidates, err = chunk.Split(text, chunk.Strategy(method), params)
	}
	if err != nil {
		return nil, err
	}

	chunks := make([]ragpipe.Chunk, len(candidates))
	for i, cand := range candidates {
		chunks[i] = ragpipe.Chunk{
			ID:         fmt.Sprintf("%s-%d", docID, i),
			DocumentID: docID,
			Text:       cand.Text,
			Index:      i,
			StartChar:  cand.StartChar,
			EndChar:    cand.EndChar,
			Metadata:   cand.Metadata,
		}
	}
	return &SplitterOutput{Chunks: chunks, Count: len(chunks), Strategy: method}, nil
}

// DecodeOutput restores a checkpointed splitter result.
func (s *Splitter) DecodeOutput(data []byte) (any, error) {
	var out SplitterOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func splitParams(c conf) (chunk.Params, error) {
	var p chunk.Params
	var err error
	if p.ChunkSize, err = c.integer("chunk_size", 0); err != nil {
		return p, err
	}
	// An omitted chunk_size takes the strategy default; an explicit
	// non-positive one is a config mistake, not a request for the default.
	if c.has("chunk_size") && p.ChunkSize <= 0 {
		return p, ragpipe.Errorf(ragpipe.KindInvalidConfig, "chunk_size must be positive, got %d", p.ChunkSize)
	}
	if p.Overlap, err = c.integer("overlap", 0); err != nil {
		return p, err
	}
	if p.WindowSize, err = c.integer("window_size", 0); err != nil {
		return p, err
	}
	if p.Threshold, err = c.float("threshold", 0); err != nil {
		return p, err
	}
	if p.MinChunkSize, err = c.integer("min_chunk_size", 0); err != nil {
		return p, err
	}
	return p, nil
}

// gatherText concatenates upstream document texts in node-ID order, each
// terminated by a blank line so the last chunk of one document never glues
// onto the first chunk of the next.
func gatherText(inputs map[string]any) string {
	var out string
	for _, id := range sortedInputIDs(inputs) {
		switch in := inputs[id].(type) {
		case *LoaderOutput:
			if in.Text != "" {
				out += in.Text + "\n\n"
			}
		case string:
			if in != "" {
				out += in + "\n\n"
			}
		}
	}
	return out
}
