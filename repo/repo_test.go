package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragpipe"
)

func seed(t *testing.T, r ragpipe.ChunkRepository) {
	t.Helper()
	err := r.Insert(context.Background(), []ragpipe.Chunk{
		{ID: "c1", DocumentID: "doc1", Index: 0, Text: "solar panels convert sunlight", Embedding: []float32{1, 0}},
		{ID: "c2", DocumentID: "doc1", Index: 1, Text: "wind turbines spin in the wind", Embedding: []float32{0.9, 0.1}},
		{ID: "c3", DocumentID: "doc2", Index: 0, Text: "chocolate cake recipe with sugar", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
}

func TestMemoryDenseSearch(t *testing.T) {
	m := NewMemory()
	seed(t, m)

	hits, err := m.DenseSearch(context.Background(), []float32{1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "c2", hits[1].Chunk.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	t.Run("document filter", func(t *testing.T) {
		hits, err := m.DenseSearch(context.Background(), []float32{0, 1}, 10, "doc1")
		require.NoError(t, err)
		for _, h := range hits {
			assert.Equal(t, "doc1", h.Chunk.DocumentID)
		}
	})
}

func TestMemoryKeywordSearch(t *testing.T) {
	m := NewMemory()
	seed(t, m)

	hits, err := m.KeywordSearch(context.Background(), "wind turbines", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c2", hits[0].Chunk.ID)

	t.Run("no match yields empty", func(t *testing.T) {
		hits, err := m.KeywordSearch(context.Background(), "quantum entanglement", 10, "")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestMemoryByDocument(t *testing.T) {
	m := NewMemory()
	seed(t, m)

	chunks, err := m.ByDocument(context.Background(), "doc1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestMemoryByIDs(t *testing.T) {
	m := NewMemory()
	seed(t, m)

	chunks, err := m.ByIDs(context.Background(), []string{"c3", "missing", "c1"})
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestMemoryRejectsEmptyID(t *testing.T) {
	m := NewMemory()
	err := m.Insert(context.Background(), []ragpipe.Chunk{{Text: "no id"}})
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidConfig))
}

func TestBleveKeywordSearch(t *testing.T) {
	b, err := NewBleve()
	require.NoError(t, err)
	seed(t, b)

	hits, err := b.KeywordSearch(context.Background(), "chocolate cake", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c3", hits[0].Chunk.ID)

	t.Run("document filter", func(t *testing.T) {
		hits, err := b.KeywordSearch(context.Background(), "wind", 10, "doc2")
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = b.KeywordSearch(context.Background(), "wind", 10, "doc1")
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "c2", hits[0].Chunk.ID)
	})

	t.Run("dense search still served from memory", func(t *testing.T) {
		hits, err := b.DenseSearch(context.Background(), []float32{0, 1}, 1, "")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "c3", hits[0].Chunk.ID)
	})
}
