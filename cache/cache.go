// Package cache persists one embedding array per (audio file, model) pair
// and retrieves cached arrays for whole directories.
//
// Cache entries are keyed by path and model name; presence alone signals
// validity. Source audio is assumed immutable once first cached: a changed
// file behind an existing entry is NOT detected (known limitation;
// content-hash keys would change the observable cache layout).
package cache

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fadgo/blobstore"
	"github.com/hupe1980/fadgo/codec"
	"github.com/hupe1980/fadgo/embedding"
	"github.com/hupe1980/fadgo/model"
	"github.com/hupe1980/fadgo/resource"
)

// Ext is the file extension of cached embedding blobs.
const Ext = ".emb"

// ErrCacheMiss indicates a read of an embedding that was never cached.
// Callers must EnsureCached first.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCacheMiss struct {
	Name  string
	Model string
	cause error
}

func (e *ErrCacheMiss) Error() string {
	return fmt.Sprintf("embedding for %s not cached under model %s", e.Name, e.Model)
}

func (e *ErrCacheMiss) Unwrap() error { return e.cause }

// Options configures an EmbeddingCache.
type Options struct {
	// Compressor encodes newly written blobs. Defaults to
	// codec.DefaultCompressor.
	Compressor codec.Compressor

	// Workers bounds the pool used by EnsureCachedAll and parallel
	// directory loads. Defaults to 8.
	Workers int

	// Controller, if set, bounds concurrent model inference and throttles
	// cache writes.
	Controller *resource.Controller

	// OnCompute, if set, is called once per embedding actually computed.
	OnCompute func(d time.Duration, err error)

	// OnCacheEvent, if set, is called with hit=true when EnsureCached
	// found an existing entry.
	OnCacheEvent func(hit bool)
}

// EmbeddingCache computes, persists and retrieves embedding arrays.
type EmbeddingCache struct {
	blobs  blobstore.Store
	model  model.EmbeddingModel
	loader model.AudioLoader
	opts   Options
}

// New creates an EmbeddingCache over the given store and collaborators.
func New(blobs blobstore.Store, m model.EmbeddingModel, loader model.AudioLoader, optFns ...func(*Options)) *EmbeddingCache {
	opts := Options{
		Compressor: codec.DefaultCompressor,
		Workers:    8,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &EmbeddingCache{blobs: blobs, model: m, loader: loader, opts: opts}
}

// Store returns the underlying blob store.
func (c *EmbeddingCache) Store() blobstore.Store { return c.blobs }

// Path returns the cache location for an audio file: a deterministic
// function of the file's path and the model name. For dir/foo.wav it is
// dir/embeddings/<model>/foo.emb.
func (c *EmbeddingCache) Path(name string) string {
	base := path.Base(name)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return path.Join(path.Dir(name), "embeddings", c.model.Name(), stem+Ext)
}

// EnsureCached computes and persists the embedding for one audio file if no
// cache entry exists; otherwise it is a no-op. Repeated calls are
// idempotent. Two callers racing on the same missing entry perform
// duplicate work but cannot corrupt the cache: the write is an atomic
// per-file create, not a lock.
func (c *EmbeddingCache) EnsureCached(ctx context.Context, name string) error {
	target := c.Path(name)

	ok, err := c.blobs.Exists(ctx, target)
	if err != nil {
		return err
	}
	if ok {
		if c.opts.OnCacheEvent != nil {
			c.opts.OnCacheEvent(true)
		}
		return nil
	}
	if c.opts.OnCacheEvent != nil {
		c.opts.OnCacheEvent(false)
	}

	arr, err := c.compute(ctx, name)
	if err != nil {
		return err
	}

	blob, err := embedding.Encode(arr, c.opts.Compressor)
	if err != nil {
		return err
	}
	if err := c.opts.Controller.ThrottleIO(ctx, len(blob)); err != nil {
		return err
	}
	return c.blobs.Put(ctx, target, blob)
}

func (c *EmbeddingCache) compute(ctx context.Context, name string) (*embedding.Array, error) {
	if err := c.opts.Controller.AcquireEmbedSlot(ctx); err != nil {
		return nil, err
	}
	defer c.opts.Controller.ReleaseEmbedSlot()

	start := time.Now()
	arr, err := func() (*embedding.Array, error) {
		w, err := c.loader.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("cache: loading audio %s: %w", name, err)
		}
		return c.model.Embedding(ctx, w)
	}()
	if c.opts.OnCompute != nil {
		c.opts.OnCompute(time.Since(start), err)
	}
	return arr, err
}

// EnsureCachedAll fills missing cache entries for the given files in a
// bounded worker pool.
func (c *EmbeddingCache) EnsureCachedAll(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, name := range names {
		name := name
		g.Go(func() error {
			return c.EnsureCached(ctx, name)
		})
	}
	return g.Wait()
}

// Read returns the cached embedding for one audio file. It fails with
// ErrCacheMiss when no entry exists.
func (c *EmbeddingCache) Read(ctx context.Context, name string) (*embedding.Array, error) {
	blob, err := c.blobs.Open(ctx, c.Path(name))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &ErrCacheMiss{Name: name, Model: c.model.Name(), cause: err}
		}
		return nil, err
	}
	defer blob.Close()

	data, err := blob.Bytes()
	if err != nil {
		return nil, err
	}
	return embedding.Decode(data)
}

// ListFiles returns the audio files directly under dir, sorted. Cache
// subtrees (embeddings/, stats/) live in subdirectories and are excluded by
// construction.
func (c *EmbeddingCache) ListFiles(ctx context.Context, dir string) ([]string, error) {
	return c.blobs.List(ctx, dir)
}

// LoadOptions configures directory loads.
type LoadOptions struct {
	// MaxFrames bounds the cumulative frame count. Zero means unbounded.
	//
	// Files are read in stable (sorted) order and inclusion stops once the
	// total crosses MaxFrames; the crossing file is included in full. The
	// overshoot is intentional, no file is ever truncated mid-way.
	MaxFrames int
}

// LoadFiles reads the cached embeddings of all regular files under dir and
// returns the per-file arrays paired with their file names.
func (c *EmbeddingCache) LoadFiles(ctx context.Context, dir string, optFns ...func(*LoadOptions)) ([]*embedding.Array, []string, error) {
	var opts LoadOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	names, err := c.ListFiles(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("cache: no files under %s", dir)
	}

	if opts.MaxFrames > 0 {
		// Bounded loads are sequential: the stopping point depends on the
		// cumulative frame count.
		var arrays []*embedding.Array
		var kept []string
		total := 0
		for _, name := range names {
			a, err := c.Read(ctx, name)
			if err != nil {
				return nil, nil, err
			}
			arrays = append(arrays, a)
			kept = append(kept, name)
			total += a.Frames()
			if total > opts.MaxFrames {
				break
			}
		}
		return arrays, kept, nil
	}

	arrays := make([]*embedding.Array, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			a, err := c.Read(ctx, name)
			if err != nil {
				return err
			}
			arrays[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return arrays, names, nil
}

// LoadAll reads the cached embeddings of all regular files under dir and
// stacks them into one array.
func (c *EmbeddingCache) LoadAll(ctx context.Context, dir string, optFns ...func(*LoadOptions)) (*embedding.Array, error) {
	arrays, _, err := c.LoadFiles(ctx, dir, optFns...)
	if err != nil {
		return nil, err
	}
	return embedding.Concat(arrays...)
}
