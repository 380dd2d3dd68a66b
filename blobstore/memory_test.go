package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutOpen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "dir/a.bin", []byte{1, 2, 3}))

	blob, err := s.Open(ctx, "dir/a.bin")
	require.NoError(t, err)
	defer blob.Close()

	data, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, int64(3), blob.Size())
}

func TestMemoryStore_OpenMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutCopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	src := []byte{1, 2, 3}
	require.NoError(t, s.Put(ctx, "a", src))
	src[0] = 9

	blob, err := s.Open(ctx, "a")
	require.NoError(t, err)
	defer blob.Close()
	data, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "data/b.wav", []byte{1}))
	require.NoError(t, s.Put(ctx, "data/a.wav", []byte{1}))
	require.NoError(t, s.Put(ctx, "data/embeddings/m/a.emb", []byte{1}))
	require.NoError(t, s.Put(ctx, "other/c.wav", []byte{1}))

	names, err := s.List(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/a.wav", "data/b.wav"}, names)
}
