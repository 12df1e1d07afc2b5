package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/repo"
)

// onesEmbedder returns the all-ones vector of a fixed dimension.
type onesEmbedder struct {
	dim int
}

func (o onesEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, o.dim)
		for j := range vec {
			vec[j] = 1
		}
		out[i] = vec
	}
	return out, nil
}

func (o onesEmbedder) Info() ragpipe.EmbedderInfo {
	return ragpipe.EmbedderInfo{Provider: "test", Model: "ones", Dim: o.dim}
}

// echoLLM answers with a fixed reply and records the last prompts.
type echoLLM struct {
	lastSystem string
	lastUser   string
	reply      string
}

func (e *echoLLM) Complete(_ context.Context, system, user string, _ ragpipe.CompleteOptions) (string, error) {
	e.lastSystem = system
	e.lastUser = user
	return e.reply, nil
}

func TestLoader_InlineText(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 300)
	out, err := (&Loader{}).Execute(context.Background(), map[string]any{"text": long}, nil)
	require.NoError(t, err)

	lo := out.(*LoaderOutput)
	assert.Equal(t, long, lo.Text)
	assert.Len(t, lo.TextPreview, previewLen)
}

func TestLoader_RejectsUnknownKey(t *testing.T) {
	t.Parallel()

	_, err := (&Loader{}).Execute(context.Background(), map[string]any{"pathh": "f.txt"}, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))
	assert.Contains(t, err.Error(), "pathh")
}

func TestLoader_NeedsTextOrPath(t *testing.T) {
	t.Parallel()

	_, err := (&Loader{}).Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))
}

func TestSplitter_RecursiveFromLoader(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{
		"load": &LoaderOutput{Text: "AI is hot. Cooking is fun."},
	}
	config := map[string]any{"method": "recursive", "chunk_size": 12, "overlap": 0}

	out, err := (&Splitter{}).Execute(context.Background(), config, inputs)
	require.NoError(t, err)

	so := out.(*SplitterOutput)
	assert.Equal(t, 4, so.Count)
	require.Len(t, so.Chunks, 4)
	for i, ch := range so.Chunks {
		assert.Equal(t, i, ch.Index)
		assert.LessOrEqual(t, ch.StartChar, ch.EndChar)
	}
}

func TestSplitter_NoUpstreamText(t *testing.T) {
	t.Parallel()

	_, err := (&Splitter{}).Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindMissingInput))
}

func TestSplitter_ExplicitZeroChunkSize(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{"load": &LoaderOutput{Text: "some text"}}
	config := map[string]any{"method": "fixed", "chunk_size": 0}

	_, err := (&Splitter{}).Execute(context.Background(), config, inputs)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))

	// Omitting chunk_size still falls back to the strategy default.
	out, err := (&Splitter{}).Execute(context.Background(),
		map[string]any{"method": "fixed"}, inputs)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*SplitterOutput).Count)
}

func TestSplitter_InvalidOverlap(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{"load": &LoaderOutput{Text: "some text"}}
	config := map[string]any{"method": "fixed", "chunk_size": 10, "overlap": 10}

	_, err := (&Splitter{}).Execute(context.Background(), config, inputs)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))
}

func TestEmbedder_Basic(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{
		"split": &SplitterOutput{Chunks: []ragpipe.Chunk{
			{ID: "c0", Text: "one"},
			{ID: "c1", Text: "two"},
		}},
	}
	out, err := (&Embedder{Embedder: onesEmbedder{dim: 4}}).Execute(context.Background(), nil, inputs)
	require.NoError(t, err)

	eo := out.(*EmbedderOutput)
	assert.Equal(t, 4, eo.Dimensions)
	assert.Equal(t, 2, eo.Count)
	assert.Empty(t, eo.Chunks)
}

func TestEmbedder_AttachToChunks(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{
		"split": &SplitterOutput{Chunks: []ragpipe.Chunk{{ID: "c0", Text: "one"}}},
	}
	out, err := (&Embedder{Embedder: onesEmbedder{dim: 3}}).Execute(
		context.Background(), map[string]any{"attach_to_chunks": true}, inputs)
	require.NoError(t, err)

	eo := out.(*EmbedderOutput)
	require.Len(t, eo.Chunks, 1)
	assert.Equal(t, []float32{1, 1, 1}, eo.Chunks[0].Embedding)

	// The upstream chunk itself stays untouched.
	up := inputs["split"].(*SplitterOutput)
	assert.Nil(t, up.Chunks[0].Embedding)
}

func TestVectorDB_InsertThenSelect(t *testing.T) {
	t.Parallel()

	mem := repo.NewMemory()
	ctx := context.Background()

	inputs := map[string]any{
		"split": &SplitterOutput{Chunks: []ragpipe.Chunk{
			{ID: "c0", DocumentID: "d1", Text: "alpha", Index: 0},
			{ID: "c1", DocumentID: "d1", Text: "beta", Index: 1},
		}},
	}
	out, err := (&VectorDB{Repo: mem}).Execute(ctx, nil, inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, out.(*VectorDBOutput).Inserted)

	out, err = (&VectorDB{Repo: mem}).Execute(ctx,
		map[string]any{"operation": "select", "document_id": "d1"}, nil)
	require.NoError(t, err)
	assert.Len(t, out.(*VectorDBOutput).Chunks, 2)
}

func TestRetriever_DenseWithUpstreamEmbedding(t *testing.T) {
	t.Parallel()

	mem := repo.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Insert(ctx, []ragpipe.Chunk{
		{ID: "c0", DocumentID: "d", Text: "cats", Embedding: []float32{1, 0}},
		{ID: "c1", DocumentID: "d", Text: "dogs", Embedding: []float32{0, 1}},
	}))

	inputs := map[string]any{
		"qe": &EmbedderOutput{Vectors: [][]float32{{1, 0}}},
	}
	config := map[string]any{"strategy": "dense", "query": "cats", "top_k": 1}

	out, err := (&Retriever{Repo: mem}).Execute(ctx, config, inputs)
	require.NoError(t, err)

	ro := out.(*RetrieverOutput)
	require.Equal(t, 1, ro.Count)
	assert.Equal(t, "c0", ro.Results[0].Chunk.ID)
}

func TestRetriever_UnknownStrategy(t *testing.T) {
	t.Parallel()

	config := map[string]any{"strategy": "psychic", "query": "q"}
	_, err := (&Retriever{Repo: repo.NewMemory()}).Execute(context.Background(), config, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))
}

func TestRetriever_NoQuery(t *testing.T) {
	t.Parallel()

	_, err := (&Retriever{Repo: repo.NewMemory()}).Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindMissingInput))
}

func TestRetriever_QueryFromAugmentor(t *testing.T) {
	t.Parallel()

	mem := repo.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Insert(ctx, []ragpipe.Chunk{
		{ID: "c0", DocumentID: "d", Text: "rewritten question answer", FTSToken: "rewritten question answer"},
	}))

	inputs := map[string]any{
		"aug": &AugmentorOutput{Operation: "expansion", Text: "rewritten question"},
	}
	config := map[string]any{"strategy": "keyword", "top_k": 5}

	out, err := (&Retriever{Repo: mem}).Execute(ctx, config, inputs)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*RetrieverOutput).Count)
}

func TestReranker_RRFFusesMultipleRetrievers(t *testing.T) {
	t.Parallel()

	listA := []ragpipe.RetrievalResult{
		{Chunk: ragpipe.Chunk{ID: "x"}, Score: 0.9},
		{Chunk: ragpipe.Chunk{ID: "y"}, Score: 0.5},
	}
	listB := []ragpipe.RetrievalResult{
		{Chunk: ragpipe.Chunk{ID: "y"}, Score: 0.8},
		{Chunk: ragpipe.Chunk{ID: "z"}, Score: 0.2},
	}
	inputs := map[string]any{
		"r1": &RetrieverOutput{Results: listA},
		"r2": &RetrieverOutput{Results: listB},
	}

	out, err := (&Reranker{}).Execute(context.Background(),
		map[string]any{"kind": "rrf", "top_k": 3}, inputs)
	require.NoError(t, err)

	ro := out.(*RerankerOutput)
	require.Equal(t, 3, ro.Count)
	// y appears in both lists, so it fuses highest.
	assert.Equal(t, "y", ro.Results[0].Chunk.ID)
}

func TestReranker_NoUpstream(t *testing.T) {
	t.Parallel()

	_, err := (&Reranker{}).Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindMissingInput))
}

func TestLLM_PromptPrecedence(t *testing.T) {
	t.Parallel()

	llm := &echoLLM{reply: "answer"}
	h := &LLM{Model: llm}

	// Full text beats retrieved chunks.
	inputs := map[string]any{
		"load": &LoaderOutput{Text: "the whole document", TextPreview: "the whole"},
		"ret": &RetrieverOutput{Results: []ragpipe.RetrievalResult{
			{Chunk: ragpipe.Chunk{Text: "a chunk"}},
		}},
	}
	out, err := h.Execute(context.Background(), map[string]any{"prompt": "What is this?"}, inputs)
	require.NoError(t, err)
	assert.Equal(t, "answer", out.(*LLMOutput).Response)
	assert.Contains(t, llm.lastUser, "the whole document")
	assert.NotContains(t, llm.lastUser, "a chunk")

	// Without a loader, the top chunks feed the prompt.
	inputs = map[string]any{
		"ret": &RetrieverOutput{Results: []ragpipe.RetrievalResult{
			{Chunk: ragpipe.Chunk{Text: "chunk one"}},
			{Chunk: ragpipe.Chunk{Text: "chunk two"}},
			{Chunk: ragpipe.Chunk{Text: "chunk three"}},
			{Chunk: ragpipe.Chunk{Text: "chunk four"}},
		}},
	}
	_, err = h.Execute(context.Background(), map[string]any{"prompt": "q"}, inputs)
	require.NoError(t, err)
	assert.Contains(t, llm.lastUser, "chunk one")
	assert.Contains(t, llm.lastUser, "chunk three")
	assert.NotContains(t, llm.lastUser, "chunk four")
}

func TestLLM_NoContextNoPrompt(t *testing.T) {
	t.Parallel()

	_, err := (&LLM{Model: &echoLLM{reply: "r"}}).Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindMissingInput))
}

func TestAugmentor_DegradesWithoutLLM(t *testing.T) {
	t.Parallel()

	h := &Augmentor{}
	out, err := h.Execute(context.Background(),
		map[string]any{"operation": "multi_query", "query": "original"}, nil)
	require.NoError(t, err)

	ao := out.(*AugmentorOutput)
	assert.Equal(t, []string{"original"}, ao.Queries)

	out, err = h.Execute(context.Background(),
		map[string]any{"operation": "hyde", "query": "original"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "original", out.(*AugmentorOutput).Text)
}

func TestAugmentor_UnknownOperation(t *testing.T) {
	t.Parallel()

	_, err := (&Augmentor{}).Execute(context.Background(),
		map[string]any{"operation": "teleport", "query": "q"}, nil)
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))
}
