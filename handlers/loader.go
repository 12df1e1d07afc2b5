package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/smallnest/ragpipe"
)

// Loader reads a document into plain text. Recognized config keys: "text"
// (inline document, wins over path) and "path" (resolved through the
// DocumentLoader port).
type Loader struct {
	Docs ragpipe.DocumentLoader
}

// Execute loads the document and returns *LoaderOutput.
func (l *Loader) Execute(ctx context.Context, config map[string]any, _ map[string]any) (any, error) {
	c, err := parseConf(config, "text", "path")
	if err != nil {
		return nil, err
	}
	text, err := c.str("text", "")
	if err != nil {
		return nil, err
	}
	metadata := map[string]any{}
	if text == "" {
		path, err := c.str("path", "")
		if err != nil {
			return nil, err
		}
		// Paths pasted from JSON sometimes keep their quotes.
		path = strings.Trim(strings.TrimSpace(path), `"'`)
		if path == "" {
			return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "loader needs text or path")
		}
		if l.Docs == nil {
			return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "loader has no document source configured")
		}
		text, metadata, err = l.Docs.Load(ctx, path)
		if err != nil {
			return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "loading %s", path)
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["path"] = path
	}
	return &LoaderOutput{
		Text:        text,
		TextPreview: preview(text),
		Metadata:    metadata,
	}, nil
}

// DecodeOutput restores a checkpointed loader result.
func (l *Loader) DecodeOutput(data []byte) (any, error) {
	var out LoaderOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	return text[:previewLen]
}
