package handlers

import (
	"context"
	"encoding/json"

	"github.com/smallnest/ragpipe"
)

// Embedder embeds upstream chunks. Recognized config keys:
// "attach_to_chunks" (copy each vector onto its chunk in the output,
// default false).
type Embedder struct {
	Embedder ragpipe.Embedder
}

// Execute embeds the gathered chunk texts and returns *EmbedderOutput.
func (e *Embedder) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	c, err := parseConf(config, "attach_to_chunks")
	if err != nil {
		return nil, err
	}
	attach, err := c.boolean("attach_to_chunks", false)
	if err != nil {
		return nil, err
	}
	if e.Embedder == nil {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "embedder has no provider configured")
	}

	chunks := gatherChunks(inputs)
	if len(chunks) == 0 {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "embedder has no upstream chunks")
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vecs, err := e.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "embedding %d chunks", len(texts))
	}
	if len(vecs) != len(texts) {
		return nil, ragpipe.Errorf(ragpipe.KindExternal,
			"embedder returned %d vectors for %d chunks", len(vecs), len(texts))
	}

	info := e.Embedder.Info()
	dims := info.Dim
	if dims == 0 && len(vecs) > 0 {
		dims = len(vecs[0])
	}
	out := &EmbedderOutput{
		Dimensions: dims,
		Count:      len(vecs),
		Vectors:    vecs,
		Provider:   info.Provider,
		Model:      info.Model,
	}
	if attach {
		attached := make([]ragpipe.Chunk, len(chunks))
		copy(attached, chunks)
		for i := range attached {
			attached[i].Embedding = vecs[i]
		}
		out.Chunks = attached
	}
	return out, nil
}

// DecodeOutput restores a checkpointed embedder result.
func (e *Embedder) DecodeOutput(data []byte) (any, error) {
	var out EmbedderOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// gatherChunks collects upstream chunks in node-ID order. Embedder outputs
// with attached chunks take precedence over plain splitter outputs from the
// same upstream set.
func gatherChunks(inputs map[string]any) []ragpipe.Chunk {
	var out []ragpipe.Chunk
	for _, id := range sortedInputIDs(inputs) {
		switch in := inputs[id].(type) {
		case *SplitterOutput:
			out = append(out, in.Chunks...)
		case *EmbedderOutput:
			out = append(out, in.Chunks...)
		case *VectorDBOutput:
			out = append(out, in.Chunks...)
		}
	}
	return out
}
