package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fadgo/blobstore"
	"github.com/hupe1980/fadgo/codec"
	"github.com/hupe1980/fadgo/embedding"
)

func putEmbedding(t *testing.T, blobs blobstore.Store, name string, rows [][]float64) {
	t.Helper()
	a, err := embedding.FromRows(rows)
	require.NoError(t, err)
	blob, err := embedding.Encode(a, codec.None{})
	require.NoError(t, err)
	require.NoError(t, blobs.Put(context.Background(), name, blob))
}

func TestStore_Load_ComputesOnceThenHits(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	putEmbedding(t, blobs, "bg/embeddings/m/a.emb", [][]float64{{1, 2}, {3, 4}})
	putEmbedding(t, blobs, "bg/embeddings/m/b.emb", [][]float64{{5, 6}})

	var events []bool
	s := NewStore(blobs, "m", func(o *StoreOptions) {
		o.OnCacheEvent = func(hit bool) { events = append(events, hit) }
	})

	first, err := s.Load(ctx, "bg")
	require.NoError(t, err)

	second, err := s.Load(ctx, "bg")
	require.NoError(t, err)

	// Computed on the first load, read back on the second.
	assert.Equal(t, []bool{false, true}, events)

	assert.InDeltaSlice(t, first.Mu, second.Mu, 1e-12)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, first.Cov.At(i, j), second.Cov.At(i, j), 1e-12)
		}
	}
}

func TestStore_Load_MatchesBatchOverAllFiles(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	rowsA := [][]float64{{1, 2}, {3, 4}}
	rowsB := [][]float64{{5, 6}, {7, 10}}
	putEmbedding(t, blobs, "bg/embeddings/m/a.emb", rowsA)
	putEmbedding(t, blobs, "bg/embeddings/m/b.emb", rowsB)

	all, err := embedding.FromRows(append(append([][]float64{}, rowsA...), rowsB...))
	require.NoError(t, err)
	want, err := Batch(all)
	require.NoError(t, err)

	got, err := NewStore(blobs, "m").Load(ctx, "bg")
	require.NoError(t, err)

	assert.InDeltaSlice(t, want.Mu, got.Mu, 1e-9)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, want.Cov.At(i, j), got.Cov.At(i, j), 1e-9)
		}
	}
}

func TestStore_Load_PersistsManifest(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	putEmbedding(t, blobs, "bg/embeddings/m/a.emb", [][]float64{{1, 2, 3}, {4, 5, 6}})

	s := NewStore(blobs, "m")
	_, err := s.Load(ctx, "bg")
	require.NoError(t, err)

	blob, err := blobs.Open(ctx, "bg/stats/m/manifest.json")
	require.NoError(t, err)
	defer blob.Close()
	data, err := blob.Bytes()
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, codec.Default.Unmarshal(data, &m))
	assert.Equal(t, Manifest{Model: "m", Dim: 3, Frames: 2}, m)
}

func TestStore_Load_NoEmbeddings(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	_, err := NewStore(blobs, "m").Load(ctx, "empty")
	assert.ErrorIs(t, err, ErrNoEmbeddings)
}

func TestStore_Load_PerModelIsolation(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	putEmbedding(t, blobs, "bg/embeddings/m1/a.emb", [][]float64{{1}, {2}})

	_, err := NewStore(blobs, "m1").Load(ctx, "bg")
	require.NoError(t, err)

	// A different model over the same directory has its own cache and its
	// own embedding subtree.
	_, err = NewStore(blobs, "m2").Load(ctx, "bg")
	assert.ErrorIs(t, err, ErrNoEmbeddings)
}
