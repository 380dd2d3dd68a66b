package fadgo

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/fadgo/cache"
	"github.com/hupe1980/fadgo/distance"
	"github.com/hupe1980/fadgo/model"
	"github.com/hupe1980/fadgo/resource"
	"github.com/hupe1980/fadgo/stats"
	"github.com/hupe1980/fadgo/util"
)

// FAD scores audio collections against a background distribution.
//
// All methods are safe for concurrent use once Load has returned.
type FAD struct {
	mu     sync.Mutex // protects loaded
	loaded bool

	model   model.EmbeddingModel
	cache   *cache.EmbeddingCache
	stats   *stats.Store
	logger  *Logger
	metrics MetricsCollector
	rng     *util.RNG
	workers int
	dataDir string
}

// New creates a FAD engine over the given collaborators. The model is not
// touched until Load is called.
func New(m model.EmbeddingModel, loader model.AudioLoader, optFns ...Option) (*FAD, error) {
	o := applyOptions(optFns)

	seed := o.seed
	if !o.seedSet {
		seed = time.Now().UnixNano()
	}

	resCfg := o.resourceCfg
	if resCfg.MaxEmbedWorkers <= 0 {
		resCfg.MaxEmbedWorkers = int64(o.workers)
	}
	controller := resource.NewController(resCfg)

	metrics := o.metrics
	f := &FAD{
		model:   m,
		logger:  o.logger.WithModel(m.Name()),
		metrics: metrics,
		rng:     util.NewRNG(seed),
		workers: o.workers,
		dataDir: o.dataDir,
	}

	f.cache = cache.New(o.store, m, loader, func(co *cache.Options) {
		co.Compressor = o.compressor
		co.Workers = o.workers
		co.Controller = controller
		co.OnCompute = metrics.RecordEmbeddingCompute
		co.OnCacheEvent = metrics.RecordEmbeddingCache
	})

	f.stats = stats.NewStore(o.store, m.Name(), func(so *stats.StoreOptions) {
		so.Codec = o.manifestCodec
		so.Compressor = o.compressor
		so.OnCacheEvent = metrics.RecordStatsCache
	})

	return f, nil
}

// Load prepares the embedding model for inference. It must be called before
// CacheEmbeddings; operations that only read existing caches do not need it.
func (f *FAD) Load(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return nil
	}
	if err := f.model.Load(ctx); err != nil {
		return err
	}
	f.loaded = true
	return nil
}

// Close releases the embedding model.
func (f *FAD) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil
	}
	f.loaded = false
	return f.model.Close()
}

func (f *FAD) isLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Cache returns the underlying embedding cache.
func (f *FAD) Cache() *cache.EmbeddingCache { return f.cache }

// CacheEmbeddings fills missing embedding cache entries for every regular
// file under the given directories, in a bounded worker pool. Entries that
// already exist are left untouched.
func (f *FAD) CacheEmbeddings(ctx context.Context, dirs ...string) error {
	if !f.isLoaded() {
		return ErrNotLoaded
	}
	for _, dir := range dirs {
		names, err := f.cache.ListFiles(ctx, dir)
		if err != nil {
			return err
		}
		if err := f.cache.EnsureCachedAll(ctx, names); err != nil {
			return translateError(err)
		}
		f.logger.InfoContext(ctx, "embeddings cached", "dir", dir, "files", len(names))
	}
	return nil
}

// Score calculates a single FAD score between a background and an eval set.
// Both directories must have their embeddings cached; statistics are
// computed (and persisted) on first use.
func (f *FAD) Score(ctx context.Context, backgroundDir, evalDir string) (float64, error) {
	bg, err := f.loadStats(ctx, backgroundDir)
	if err != nil {
		return 0, err
	}
	ev, err := f.loadStats(ctx, evalDir)
	if err != nil {
		return 0, err
	}

	score, err := f.frechet(bg, ev)
	f.logger.LogScore(ctx, backgroundDir, evalDir, score, err)
	return score, err
}

func (f *FAD) loadStats(ctx context.Context, dir string) (stats.Gaussian, error) {
	g, err := f.stats.Load(ctx, dir)
	if err != nil {
		return stats.Gaussian{}, translateError(err)
	}
	return g, nil
}

func (f *FAD) frechet(g1, g2 stats.Gaussian) (float64, error) {
	start := time.Now()
	d, err := distance.Frechet(g1, g2)
	f.metrics.RecordDistance(time.Since(start), err)
	return d, translateError(err)
}
