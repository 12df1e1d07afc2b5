package handlers

import (
	"context"
	"encoding/json"

	"github.com/smallnest/ragpipe"
)

// VectorDB moves chunks between the pipeline and the chunk repository.
// Recognized config keys: "operation" ("insert", the default, or "select")
// and "document_id" (required for select).
type VectorDB struct {
	Repo ragpipe.ChunkRepository
}

// Execute inserts the gathered chunks or fetches a document's chunks, and
// returns *VectorDBOutput.
func (v *VectorDB) Execute(ctx context.Context, config map[string]any, inputs map[string]any) (any, error) {
	c, err := parseConf(config, "operation", "document_id")
	if err != nil {
		return nil, err
	}
	op, err := c.str("operation", "insert")
	if err != nil {
		return nil, err
	}
	if v.Repo == nil {
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "vector_db has no repository configured")
	}

	switch op {
	case "insert":
		chunks := gatherChunks(inputs)
		if len(chunks) == 0 {
			return nil, ragpipe.Errorf(ragpipe.KindMissingInput, "vector_db insert has no upstream chunks")
		}
		if err := v.Repo.Insert(ctx, chunks); err != nil {
			return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "inserting %d chunks", len(chunks))
		}
		return &VectorDBOutput{Inserted: len(chunks)}, nil

	case "select":
		docID, err := c.str("document_id", "")
		if err != nil {
			return nil, err
		}
		if docID == "" {
			return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "vector_db select needs document_id")
		}
		chunks, err := v.Repo.ByDocument(ctx, docID)
		if err != nil {
			return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "selecting chunks of %s", docID)
		}
		return &VectorDBOutput{Chunks: chunks}, nil

	default:
		return nil, ragpipe.Errorf(ragpipe.KindInvalidConfig, "unknown vector_db operation %q", op)
	}
}

// DecodeOutput restores a checkpointed vector_db result.
func (v *VectorDB) DecodeOutput(data []byte) (any, error) {
	var out VectorDBOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
