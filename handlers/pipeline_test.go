package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragpipe/pipeline"
	"github.com/smallnest/ragpipe/repo"
)

// TestPipeline_LoadSplitEmbed runs a full load -> split -> embed graph
// through the engine with every handler registered.
func TestPipeline_LoadSplitEmbed(t *testing.T) {
	t.Parallel()

	reg := pipeline.NewRegistry()
	RegisterAll(reg, Deps{Embedder: onesEmbedder{dim: 4}, Repo: repo.NewMemory()})

	g := pipeline.NewGraph().
		AddNode("load", pipeline.KindLoader, map[string]any{
			"text": "AI is hot. Cooking is fun.",
		}).
		AddNode("split", pipeline.KindSplitter, map[string]any{
			"method":     "recursive",
			"chunk_size": 12,
		}).
		AddNode("embed", pipeline.KindEmbedder, nil).
		AddEdge("load", "split").
		AddEdge("split", "embed")

	eng := pipeline.New(reg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runID, err := eng.Submit(ctx, g)
	require.NoError(t, err)

	state, err := eng.Wait(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusCompleted, state.Status)
	assert.InDelta(t, 1.0, state.Progress, 1e-9)

	split := state.Results["split"].(*SplitterOutput)
	assert.Equal(t, 4, split.Count)

	embed := state.Results["embed"].(*EmbedderOutput)
	assert.Equal(t, 4, embed.Dimensions)
	assert.Equal(t, split.Count, embed.Count)
}

// TestPipeline_IndexThenQuery exercises the full indexing and query path:
// chunks are embedded, stored, then retrieved and answered.
func TestPipeline_IndexThenQuery(t *testing.T) {
	t.Parallel()

	mem := repo.NewMemory()
	llm := &echoLLM{reply: "AI is popular right now."}

	reg := pipeline.NewRegistry()
	RegisterAll(reg, Deps{Embedder: onesEmbedder{dim: 4}, Repo: mem, LLM: llm})

	g := pipeline.NewGraph().
		AddNode("load", pipeline.KindLoader, map[string]any{
			"text": "AI is hot. Cooking is fun.",
		}).
		AddNode("split", pipeline.KindSplitter, map[string]any{
			"method":      "sentence",
			"chunk_size":  15,
			"document_id": "doc1",
		}).
		AddNode("embed", pipeline.KindEmbedder, map[string]any{
			"attach_to_chunks": true,
		}).
		AddNode("store", pipeline.KindVectorDB, nil).
		AddNode("find", pipeline.KindRetriever, map[string]any{
			"strategy": "dense",
			"query":    "what is hot?",
			"top_k":    2,
		}).
		AddNode("answer", pipeline.KindLLM, map[string]any{
			"prompt": "What is hot?",
		}).
		AddEdge("load", "split").
		AddEdge("split", "embed").
		AddEdge("embed", "store").
		AddEdge("store", "find").
		AddEdge("find", "answer")

	eng := pipeline.New(reg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runID, err := eng.Submit(ctx, g)
	require.NoError(t, err)

	state, err := eng.Wait(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusCompleted, state.Status)

	stored := state.Results["store"].(*VectorDBOutput)
	assert.Equal(t, 2, stored.Inserted)

	found := state.Results["find"].(*RetrieverOutput)
	assert.Equal(t, 2, found.Count)

	answered := state.Results["answer"].(*LLMOutput)
	assert.Equal(t, "AI is popular right now.", answered.Response)
	assert.Contains(t, llm.lastUser, "What is hot?")
}

// TestPipeline_NodeConfigErrorFailsRun checks that a handler config error
// surfaces as a failed run carrying the offending node ID.
func TestPipeline_NodeConfigErrorFailsRun(t *testing.T) {
	t.Parallel()

	reg := pipeline.NewRegistry()
	RegisterAll(reg, Deps{Embedder: onesEmbedder{dim: 4}})

	g := pipeline.NewGraph().
		AddNode("load", pipeline.KindLoader, map[string]any{
			"text":  "doc",
			"bogus": true,
		})

	eng := pipeline.New(reg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runID, err := eng.Submit(ctx, g)
	require.NoError(t, err)

	state, err := eng.Wait(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusFailed, state.Status)
	require.NotNil(t, state.Error)
	assert.Equal(t, "load", state.Error.NodeID)
}
