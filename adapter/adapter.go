// Package adapter bridges langchaingo components onto the ragpipe ports,
// so any embedder, chat model or document loader from that ecosystem can
// drive a pipeline without a bespoke integration.
package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragpipe"
)

// Embedder adapts a langchaingo embeddings.Embedder to the ragpipe
// Embedder port. Info describes the underlying model; langchaingo does not
// expose it, so the caller supplies it.
type Embedder struct {
	emb  embeddings.Embedder
	info ragpipe.EmbedderInfo
}

// NewEmbedder wraps emb with the given model description.
func NewEmbedder(emb embeddings.Embedder, info ragpipe.EmbedderInfo) *Embedder {
	return &Embedder{emb: emb, info: info}
}

// Embed embeds texts through the wrapped embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.emb.EmbedDocuments(ctx, texts)
}

// Info returns the model description supplied at construction.
func (e *Embedder) Info() ragpipe.EmbedderInfo { return e.info }

// LLM adapts a langchaingo llms.Model to the ragpipe LLM port.
type LLM struct {
	model llms.Model
}

// NewLLM wraps model.
func NewLLM(model llms.Model) *LLM {
	return &LLM{model: model}
}

// Complete sends system and user messages and returns the first choice.
func (l *LLM) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ragpipe.CompleteOptions) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	var callOpts []llms.CallOption
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	resp, err := l.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// FileLoader reads local files through langchaingo's document loaders,
// picked by extension: HTML through the HTML loader, everything else as
// plain text. Loaded parts are joined with blank lines.
type FileLoader struct{}

// Load reads the file at path.
func (FileLoader) Load(ctx context.Context, path string) (string, map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	var loader documentloaders.Loader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		loader = documentloaders.NewHTML(f)
	case ".csv":
		loader = documentloaders.NewCSV(f)
	default:
		loader = documentloaders.NewText(f)
	}
	docs, err := loader.Load(ctx)
	if err != nil {
		return "", nil, err
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.PageContent != "" {
			parts = append(parts, d.PageContent)
		}
	}
	metadata := map[string]any{"source": path}
	if len(docs) > 0 && docs[0].Metadata != nil {
		for k, v := range docs[0].Metadata {
			metadata[k] = v
		}
	}
	return strings.Join(parts, "\n\n"), metadata, nil
}
