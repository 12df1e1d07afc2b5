package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallnest/ragpipe"
)

// contextChunks caps how many retrieved chunks feed the prompt when no
// fuller text source is available upstream.
const contextChunks = 3

// LLM composes a prompt from upstream outputs and completes it. Recognized
// config keys: "prompt", "system_prompt", "model", "max_tokens",
// "temperature".
//
// Context is taken from upstream by precedence: a loaded document's full
// text, then its preview, then a previous llm response, then the top
// retrieved chunks.
type LLM struct {
	Model ragpipe.LLM
}

// Execute completes the composed prompt and returns *LLMOutput.
func (l *LLM) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	c, err := parseConf(config, "prompt", "system_prompt", "model", "max_tokens", "temperature")
	if err != nil {
		return nil, err
	}
	if l.Model == nil {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "llm has no provider configured")
	}
	prompt, err := c.str("prompt", "")
	if err != nil {
		return nil, err
	}
	system, err := c.str("system_prompt", "You are a helpful assistant. Answer using the provided context.")
	if err != nil {
		return nil, err
	}
	model, err := c.str("model", "")
	if err != nil {
		return nil, err
	}
	maxTokens, err := c.integer("max_tokens", 0)
	if err != nil {
		return nil, err
	}
	temperature, err := c.float("temperature", 0)
	if err != nil {
		return nil, err
	}

	user := composePrompt(prompt, inputs)
	if user == "" {
		return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "llm has neither a prompt nor upstream context")
	}

	resp, err := l.Model.Complete(ctx, system, user, ragpipe.CompleteOptions{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "llm completion")
	}
	return &LLMOutput{Response: resp, Model: model}, nil
}

// DecodeOutput restores a checkpointed llm result.
func (l *LLM) DecodeOutput(data []byte) (any, error) {
	var out LLMOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// composePrompt joins the configured prompt with the best upstream context.
func composePrompt(prompt string, inputs map[string]any) string {
	context := upstreamContext(inputs)
	switch {
	case prompt != "" && context != "":
		return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, prompt)
	case prompt != "":
		return prompt
	default:
		return context
	}
}

func upstreamContext(inputs map[string]any) string {
	var fullText, textPreview, response string
	var chunkTexts []string

	for _, id := range sortedInputIDs(inputs) {
		switch in := inputs[id].(type) {
		case *LoaderOutput:
			if fullText == "" {
				fullText = in.Text
			}
			if textPreview == "" {
				textPreview = in.TextPreview
			}
		case *LLMOutput:
			if response == "" {
				response = in.Response
			}
		case *RetrieverOutput:
			chunkTexts = appendChunkTexts(chunkTexts, in.Results)
		case *RerankerOutput:
			chunkTexts = appendChunkTexts(chunkTexts, in.Results)
		}
	}

	switch {
	case fullText != "":
		return fullText
	case textPreview != "":
		return textPreview
	case response != "":
		return response
	case len(chunkTexts) > 0:
		return strings.Join(chunkTexts, "\n\n")
	}
	return ""
}

func appendChunkTexts(texts []string, results []ragpipe.RetrievalResult) []string {
	for _, r := range results {
		if len(texts) >= contextChunks {
			break
		}
		texts = append(texts, r.Chunk.Text)
	}
	return texts
}
