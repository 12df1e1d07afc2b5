// Package openai implements the Embedder and LLM ports over the OpenAI
// API (or any compatible endpoint).
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smallnest/ragpipe"
)

// Embedder embeds texts with an OpenAI embedding model.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	info   ragpipe.EmbedderInfo
}

// EmbedderOptions configures an Embedder.
type EmbedderOptions struct {
	APIKey  string
	BaseURL string

	// Model defaults to text-embedding-3-small.
	Model string

	// Dim and CostPer1MTokens document the model; they are advisory.
	Dim             int
	CostPer1MTokens float64
}

// NewEmbedder builds an OpenAI-backed embedder.
func NewEmbedder(opts EmbedderOptions) *Embedder {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dim := opts.Dim
	if dim == 0 {
		dim = 1536
	}
	return &Embedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
		info: ragpipe.EmbedderInfo{
			Provider:        "openai",
			Model:           model,
			Dim:             dim,
			CostPer1MTokens: opts.CostPer1MTokens,
		},
	}
}

// Embed embeds texts in one request.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Info describes the configured model.
func (e *Embedder) Info() ragpipe.EmbedderInfo { return e.info }

// LLM completes prompts with an OpenAI chat model.
type LLM struct {
	client *openai.Client
	model  string
}

// LLMOptions configures an LLM.
type LLMOptions struct {
	APIKey  string
	BaseURL string

	// Model defaults to gpt-4o-mini and may be overridden per call.
	Model string
}

// NewLLM builds an OpenAI-backed chat model.
func NewLLM(opts LLMOptions) *LLM {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &LLM{client: openai.NewClientWithConfig(cfg), model: model}
}

// Complete runs one chat completion.
func (l *LLM) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ragpipe.CompleteOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = l.model
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}
	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
