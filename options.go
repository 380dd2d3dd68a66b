package fadgo

import (
	"log/slog"

	"github.com/hupe1980/fadgo/blobstore"
	"github.com/hupe1980/fadgo/codec"
	"github.com/hupe1980/fadgo/resource"
)

type options struct {
	store         blobstore.Store
	compressor    codec.Compressor
	manifestCodec codec.Codec
	logger        *Logger
	metrics       MetricsCollector
	workers       int
	seed          int64
	seedSet       bool
	resourceCfg   resource.Config
	dataDir       string
}

// Option configures engine construction.
type Option func(*options)

// WithBlobStore configures the store holding cached embeddings, persisted
// statistics and reports. Defaults to a local store rooted at the working
// directory.
func WithBlobStore(store blobstore.Store) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithCompressor configures the compressor for newly written embedding and
// statistics blobs. Existing blobs decode by the name in their header
// regardless of this setting.
//
// If nil is passed, codec.DefaultCompressor is used.
func WithCompressor(c codec.Compressor) Option {
	return func(o *options) {
		if c == nil {
			c = codec.DefaultCompressor
		}
		o.compressor = c
	}
}

// WithCodec configures the codec used for statistics manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.manifestCodec = c
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}

// WithWorkers bounds the worker pools used for cache fills, directory loads,
// per-file ranking and FAD-inf bootstrap steps. Defaults to 8.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSeed fixes the seed of the bootstrap random source, making FADInf
// deterministic. Without it the engine seeds from the clock.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seedSet = true
	}
}

// WithResourceConfig bounds model inference concurrency and cache IO
// throughput. By default inference concurrency equals the worker count and
// IO is unthrottled.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceCfg = cfg
	}
}

// WithDataDir sets the directory (a store-relative path) that individual
// score reports are written under. Defaults to the store root.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		store:         blobstore.NewLocalStore("."),
		compressor:    codec.DefaultCompressor,
		manifestCodec: codec.Default,
		logger:        NoopLogger(),
		metrics:       NoopMetricsCollector{},
		workers:       8,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	return o
}
