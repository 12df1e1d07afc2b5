package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragpipe"
)

func TestValidate_EmptyGraph(t *testing.T) {
	t.Parallel()

	v := Validate(NewGraph())
	assert.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "no nodes")

	v = Validate(nil)
	assert.False(t, v.OK())
}

func TestValidate_ValidLinear(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("load", KindLoader, nil).
		AddNode("split", KindSplitter, nil).
		AddNode("embed", KindEmbedder, nil).
		AddEdge("load", "split").
		AddEdge("split", "embed")

	v := Validate(g)
	assert.True(t, v.OK())
	assert.Empty(t, v.Warnings)

	// Validation is idempotent.
	assert.True(t, Validate(g).OK())
}

func TestValidate_UnknownKind(t *testing.T) {
	t.Parallel()

	g := NewGraph().AddNode("x", Kind("mystery"), nil)
	v := Validate(g)
	require.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "unknown kind")
}

func TestValidate_DanglingEdges(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddEdge("a", "ghost").
		AddEdge("phantom", "a")

	v := Validate(g)
	require.False(t, v.OK())
	assert.Len(t, v.Errors, 2)
}

func TestValidate_SelfLoopAndDuplicate(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddNode("b", KindSplitter, nil).
		AddEdge("a", "a").
		AddEdge("a", "b").
		AddEdge("a", "b")

	v := Validate(g)
	require.False(t, v.OK())

	var selfLoop, duplicate bool
	for _, e := range v.Errors {
		if e == "edge a->a: self-loop" {
			selfLoop = true
		}
		if e == "edge a->b: duplicate" {
			duplicate = true
		}
	}
	assert.True(t, selfLoop)
	assert.True(t, duplicate)
}

func TestValidate_Cycle(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddNode("b", KindSplitter, nil).
		AddNode("c", KindEmbedder, nil).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", "a")

	v := Validate(g)
	require.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "cycle detected")
}

func TestValidate_AccumulatesAllProblems(t *testing.T) {
	t.Parallel()

	// A cycle and a dangling edge must both be reported.
	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddNode("b", KindSplitter, nil).
		AddEdge("a", "b").
		AddEdge("b", "a").
		AddEdge("a", "ghost")

	v := Validate(g)
	require.False(t, v.OK())
	assert.GreaterOrEqual(t, len(v.Errors), 2)
}

func TestValidate_OrphanWarning(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddNode("b", KindSplitter, nil).
		AddNode("island", KindLLM, nil).
		AddEdge("a", "b")

	v := Validate(g)
	assert.True(t, v.OK())
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "island")

	// A single-node graph is not an orphan.
	solo := NewGraph().AddNode("only", KindLoader, nil)
	assert.Empty(t, Validate(solo).Warnings)
}

func TestValidationErr(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddEdge("a", "ghost").
		AddEdge("phantom", "a")

	err := Validate(g).Err()
	require.Error(t, err)
	assert.True(t, ragpipe.IsKind(err, ragpipe.KindInvalidGraph))
	assert.Contains(t, err.Error(), "and 1 more")

	assert.NoError(t, Validation{}.Err())
}

func TestInDegrees(t *testing.T) {
	t.Parallel()

	g := NewGraph().
		AddNode("a", KindLoader, nil).
		AddNode("b", KindSplitter, nil).
		AddNode("c", KindEmbedder, nil).
		AddNode("d", KindLLM, nil).
		AddEdge("a", "b").
		AddEdge("a", "c").
		AddEdge("b", "d").
		AddEdge("c", "d")

	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}, InDegrees(g))
}
