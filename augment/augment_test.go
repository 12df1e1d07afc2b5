package augment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragpipe"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Complete(context.Context, string, string, ragpipe.CompleteOptions) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestMultiQuery(t *testing.T) {
	t.Run("parses a JSON array response", func(t *testing.T) {
		llm := &fakeLLM{response: `["how do solar panels work", "solar panel mechanism"]`}
		a := New(llm)
		out, err := a.MultiQuery(context.Background(), "explain solar panels", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"explain solar panels",
			"how do solar panels work",
			"solar panel mechanism",
		}, out)
	})

	t.Run("falls back to line parsing", func(t *testing.T) {
		llm := &fakeLLM{response: "1. first variant\n2. second variant\n"}
		a := New(llm)
		out, err := a.MultiQuery(context.Background(), "q", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"q", "first variant", "second variant"}, out)
	})

	t.Run("llm failure preserves the original query", func(t *testing.T) {
		a := New(&fakeLLM{err: errors.New("rate limited")})
		out, err := a.MultiQuery(context.Background(), "q", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"q"}, out)
	})

	t.Run("nil llm preserves the original query", func(t *testing.T) {
		a := New(nil)
		out, err := a.MultiQuery(context.Background(), "q", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"q"}, out)
	})

	t.Run("duplicate of the original is dropped", func(t *testing.T) {
		llm := &fakeLLM{response: `["q", "other phrasing"]`}
		a := New(llm)
		out, err := a.MultiQuery(context.Background(), "q", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"q", "other phrasing"}, out)
	})

	t.Run("never returns more than n queries", func(t *testing.T) {
		llm := &fakeLLM{response: `["a", "b", "c", "d", "e"]`}
		a := New(llm)
		out, err := a.MultiQuery(context.Background(), "q", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"q", "a"}, out)

		out, err = a.MultiQuery(context.Background(), "orig", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"orig", "a", "b"}, out)
	})
}

func TestHyDE(t *testing.T) {
	t.Run("returns the generated passage", func(t *testing.T) {
		a := New(&fakeLLM{response: "Solar panels convert light into current.\n"})
		out, err := a.HyDE(context.Background(), "how do solar panels work")
		require.NoError(t, err)
		assert.Equal(t, "Solar panels convert light into current.", out)
	})

	t.Run("degrades to the query on failure", func(t *testing.T) {
		a := New(&fakeLLM{err: errors.New("down")})
		out, err := a.HyDE(context.Background(), "the question")
		require.NoError(t, err)
		assert.Equal(t, "the question", out)
	})
}

func TestExpand(t *testing.T) {
	t.Run("appends related terms", func(t *testing.T) {
		a := New(&fakeLLM{response: "photovoltaic, PV cells, renewable"})
		out, err := a.Expand(context.Background(), "solar energy")
		require.NoError(t, err)
		assert.Equal(t, "solar energy photovoltaic PV cells renewable", out)
	})

	t.Run("degrades to the query on failure", func(t *testing.T) {
		a := New(&fakeLLM{err: errors.New("down")})
		out, err := a.Expand(context.Background(), "solar energy")
		require.NoError(t, err)
		assert.Equal(t, "solar energy", out)
	})
}

func TestResponseCaching(t *testing.T) {
	llm := &fakeLLM{response: `["variant"]`}
	a := New(llm)

	_, err := a.MultiQuery(context.Background(), "q", 3)
	require.NoError(t, err)
	_, err = a.MultiQuery(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)

	// A different operation on the same query is a separate cache entry.
	_, err = a.HyDE(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
}
