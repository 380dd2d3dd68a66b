package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fadgo/blobstore"
	"github.com/hupe1980/fadgo/model"
	"github.com/hupe1980/fadgo/testutil"
)

// second-long waveform whose frames carry the given leading sample values.
func wave(sr int, frames ...float32) model.Waveform {
	w := make(model.Waveform, sr*len(frames))
	for i, v := range frames {
		w[i] = v
	}
	return w
}

func newTestCache(t *testing.T, waves map[string]model.Waveform, optFns ...func(*Options)) (*EmbeddingCache, *testutil.FakeModel) {
	t.Helper()
	m := testutil.NewFakeModel("m", 2)
	loader := &testutil.FakeLoader{Waves: waves}
	return New(blobstore.NewMemoryStore(), m, loader, optFns...), m
}

func TestEmbeddingCache_Path(t *testing.T) {
	c, _ := newTestCache(t, nil)

	assert.Equal(t, "data/embeddings/m/foo.emb", c.Path("data/foo.wav"))
	assert.Equal(t, "data/embeddings/m/foo.emb", c.Path("data/foo.flac"))
	assert.Equal(t, "embeddings/m/bare.emb", c.Path("bare.wav"))
}

func TestEmbeddingCache_EnsureCachedIdempotent(t *testing.T) {
	ctx := context.Background()
	sr := 16000

	var hits, misses int
	c, m := newTestCache(t,
		map[string]model.Waveform{"data/a.wav": wave(sr, 1, 2)},
		func(o *Options) {
			o.OnCacheEvent = func(hit bool) {
				if hit {
					hits++
				} else {
					misses++
				}
			}
		},
	)

	require.NoError(t, c.EnsureCached(ctx, "data/a.wav"))
	require.NoError(t, c.EnsureCached(ctx, "data/a.wav"))

	// The second call finds the entry and never touches the model.
	assert.Equal(t, int64(1), m.EmbedCalls.Load())
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, hits)
}

func TestEmbeddingCache_ReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	sr := 16000

	c, _ := newTestCache(t, map[string]model.Waveform{"data/a.wav": wave(sr, 1, 2, 3)})

	require.NoError(t, c.EnsureCached(ctx, "data/a.wav"))

	a, err := c.Read(ctx, "data/a.wav")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Frames())
	assert.Equal(t, 2, a.Dim())
	assert.Equal(t, []float64{1, 1}, a.Row(0))
	assert.Equal(t, []float64{3, 3}, a.Row(2))
}

func TestEmbeddingCache_ReadMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, nil)

	_, err := c.Read(ctx, "data/never.wav")

	var miss *ErrCacheMiss
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, "data/never.wav", miss.Name)
	assert.Equal(t, "m", miss.Model)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestEmbeddingCache_EnsureCachedAll(t *testing.T) {
	ctx := context.Background()
	sr := 16000

	waves := map[string]model.Waveform{
		"data/a.wav": wave(sr, 1),
		"data/b.wav": wave(sr, 2),
		"data/c.wav": wave(sr, 3),
	}
	c, m := newTestCache(t, waves, func(o *Options) { o.Workers = 2 })

	names := []string{"data/a.wav", "data/b.wav", "data/c.wav"}
	require.NoError(t, c.EnsureCachedAll(ctx, names))
	assert.Equal(t, int64(3), m.EmbedCalls.Load())

	// A second pass is a pure cache hit.
	require.NoError(t, c.EnsureCachedAll(ctx, names))
	assert.Equal(t, int64(3), m.EmbedCalls.Load())
}

func TestEmbeddingCache_LoadFiles(t *testing.T) {
	ctx := context.Background()
	sr := 16000

	waves := map[string]model.Waveform{
		"data/a.wav": wave(sr, 1, 1), // 2 frames each
		"data/b.wav": wave(sr, 2, 2),
		"data/c.wav": wave(sr, 3, 3),
	}
	c, _ := newTestCache(t, waves)
	for name := range waves {
		require.NoError(t, c.EnsureCached(ctx, name))
	}
	for name := range waves {
		require.NoError(t, c.blobs.Put(ctx, name, []byte("audio")))
	}

	t.Run("Unbounded", func(t *testing.T) {
		arrays, names, err := c.LoadFiles(ctx, "data")
		require.NoError(t, err)
		assert.Equal(t, []string{"data/a.wav", "data/b.wav", "data/c.wav"}, names)
		require.Len(t, arrays, 3)
		assert.Equal(t, []float64{2, 2}, arrays[1].Row(0))
	})

	t.Run("MaxFramesOvershoots", func(t *testing.T) {
		// Three files of two frames with a bound of three: the crossing file
		// is included whole, so two files and four frames are returned.
		arrays, names, err := c.LoadFiles(ctx, "data", func(o *LoadOptions) { o.MaxFrames = 3 })
		require.NoError(t, err)
		assert.Equal(t, []string{"data/a.wav", "data/b.wav"}, names)

		total := 0
		for _, a := range arrays {
			total += a.Frames()
		}
		assert.Equal(t, 4, total)
	})

	t.Run("MaxFramesCrossedByFirstFile", func(t *testing.T) {
		arrays, names, err := c.LoadFiles(ctx, "data", func(o *LoadOptions) { o.MaxFrames = 1 })
		require.NoError(t, err)
		assert.Equal(t, []string{"data/a.wav"}, names)
		assert.Len(t, arrays, 1)
	})

	t.Run("EmptyDir", func(t *testing.T) {
		_, _, err := c.LoadFiles(ctx, "elsewhere")
		assert.Error(t, err)
	})
}

func TestEmbeddingCache_LoadAll(t *testing.T) {
	ctx := context.Background()
	sr := 16000

	waves := map[string]model.Waveform{
		"data/a.wav": wave(sr, 1),
		"data/b.wav": wave(sr, 2),
	}
	c, _ := newTestCache(t, waves)
	for name := range waves {
		require.NoError(t, c.EnsureCached(ctx, name))
		require.NoError(t, c.blobs.Put(ctx, name, []byte("audio")))
	}

	all, err := c.LoadAll(ctx, "data")
	require.NoError(t, err)
	require.Equal(t, 2, all.Frames())
	assert.Equal(t, []float64{1, 1}, all.Row(0))
	assert.Equal(t, []float64{2, 2}, all.Row(1))
}
