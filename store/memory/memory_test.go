package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragpipe/store"
)

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "run-1", []byte(`{"a":1}`)))

	data, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), data)

	// Overwrite replaces.
	require.NoError(t, s.Save(ctx, "run-1", []byte(`{"a":2}`)))
	data, err = s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), data)
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_DeleteAndList(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "run-1", []byte("x")))
	require.NoError(t, s.Save(ctx, "run-2", []byte("y")))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, ids)

	require.NoError(t, s.Delete(ctx, "run-1"))
	require.NoError(t, s.Delete(ctx, "run-1")) // idempotent

	_, err = s.Load(ctx, "run-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "run-1", []byte("abc")))

	data, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	data[0] = 'z'

	again, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
