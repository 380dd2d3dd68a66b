package stats

import (
	"context"
	"errors"
	"fmt"
	"path"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/fadgo/blobstore"
	"github.com/hupe1980/fadgo/codec"
	"github.com/hupe1980/fadgo/embedding"
)

// ErrNoEmbeddings is returned when statistics are requested for a directory
// whose embedding subtree holds no cached embeddings.
var ErrNoEmbeddings = errors.New("stats: no cached embeddings under directory")

// Manifest describes a persisted statistics pair. It is written beside the
// mu/cov blobs so caches are self-describing.
type Manifest struct {
	Model  string `json:"model"`
	Dim    int    `json:"dim"`
	Frames int64  `json:"frames"`
}

// StoreOptions configures a statistics Store.
type StoreOptions struct {
	// Codec encodes the manifest. Defaults to codec.Default.
	Codec codec.Codec

	// Compressor encodes the mu/cov blobs. Defaults to
	// codec.DefaultCompressor.
	Compressor codec.Compressor

	// OnCacheEvent, if set, is called with hit=true when persisted
	// statistics were found and hit=false when they had to be computed.
	// This is the instrumentation hook tests and metrics attach to.
	OnCacheEvent func(hit bool)
}

// Store loads Gaussian statistics for a directory, computing and persisting
// them on first access. Statistics are cached per (directory, model) under
// stats/<model>/ inside the directory; presence alone signals validity.
type Store struct {
	blobs blobstore.Store
	model string
	opts  StoreOptions
}

// NewStore creates a statistics store for the given model name.
func NewStore(blobs blobstore.Store, model string, optFns ...func(*StoreOptions)) *Store {
	opts := StoreOptions{
		Codec:      codec.Default,
		Compressor: codec.DefaultCompressor,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return &Store{blobs: blobs, model: model, opts: opts}
}

func (s *Store) muName(dir string) string {
	return path.Join(dir, "stats", s.model, "mu.bin")
}

func (s *Store) covName(dir string) string {
	return path.Join(dir, "stats", s.model, "cov.bin")
}

func (s *Store) manifestName(dir string) string {
	return path.Join(dir, "stats", s.model, "manifest.json")
}

// EmbeddingDir returns the embedding subtree the statistics of dir are
// computed over.
func (s *Store) EmbeddingDir(dir string) string {
	return path.Join(dir, "embeddings", s.model)
}

// Load returns the Gaussian statistics for dir. A persisted pair is used
// when present; otherwise the statistics are streamed over all cached
// embeddings under the directory's embedding subtree, persisted and
// returned.
func (s *Store) Load(ctx context.Context, dir string) (Gaussian, error) {
	ok, err := s.exists(ctx, dir)
	if err != nil {
		return Gaussian{}, err
	}
	if ok {
		g, err := s.read(ctx, dir)
		if err != nil {
			return Gaussian{}, err
		}
		if s.opts.OnCacheEvent != nil {
			s.opts.OnCacheEvent(true)
		}
		return g, nil
	}

	g, frames, err := s.compute(ctx, dir)
	if err != nil {
		return Gaussian{}, err
	}
	if err := s.persist(ctx, dir, g, frames); err != nil {
		return Gaussian{}, err
	}
	if s.opts.OnCacheEvent != nil {
		s.opts.OnCacheEvent(false)
	}
	return g, nil
}

func (s *Store) exists(ctx context.Context, dir string) (bool, error) {
	muOK, err := s.blobs.Exists(ctx, s.muName(dir))
	if err != nil || !muOK {
		return false, err
	}
	return s.blobs.Exists(ctx, s.covName(dir))
}

func (s *Store) compute(ctx context.Context, dir string) (Gaussian, int64, error) {
	names, err := s.blobs.List(ctx, s.EmbeddingDir(dir))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Gaussian{}, 0, fmt.Errorf("%w: %s", ErrNoEmbeddings, dir)
		}
		return Gaussian{}, 0, err
	}
	if len(names) == 0 {
		return Gaussian{}, 0, fmt.Errorf("%w: %s", ErrNoEmbeddings, dir)
	}

	acc := NewAccumulator()
	for _, name := range names {
		a, err := s.readArray(ctx, name)
		if err != nil {
			return Gaussian{}, 0, fmt.Errorf("stats: reading %s: %w", name, err)
		}
		if err := acc.Add(a); err != nil {
			return Gaussian{}, 0, fmt.Errorf("stats: accumulating %s: %w", name, err)
		}
	}

	g, err := acc.Finalize()
	if err != nil {
		return Gaussian{}, 0, err
	}
	return g, acc.Frames(), nil
}

func (s *Store) persist(ctx context.Context, dir string, g Gaussian, frames int64) error {
	dim := g.Dim()

	muArr := embedding.New(1, dim)
	muArr.SetRow(0, g.Mu)
	muBlob, err := embedding.Encode(muArr, s.opts.Compressor)
	if err != nil {
		return err
	}

	covArr := embedding.New(dim, dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			covArr.Row(i)[j] = g.Cov.At(i, j)
		}
	}
	covBlob, err := embedding.Encode(covArr, s.opts.Compressor)
	if err != nil {
		return err
	}

	manifest, err := s.opts.Codec.Marshal(Manifest{Model: s.model, Dim: dim, Frames: frames})
	if err != nil {
		return err
	}

	if err := s.blobs.Put(ctx, s.muName(dir), muBlob); err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, s.covName(dir), covBlob); err != nil {
		return err
	}
	return s.blobs.Put(ctx, s.manifestName(dir), manifest)
}

func (s *Store) read(ctx context.Context, dir string) (Gaussian, error) {
	muArr, err := s.readArray(ctx, s.muName(dir))
	if err != nil {
		return Gaussian{}, err
	}
	covArr, err := s.readArray(ctx, s.covName(dir))
	if err != nil {
		return Gaussian{}, err
	}

	dim := muArr.Dim()
	if muArr.Frames() != 1 || covArr.Frames() != dim || covArr.Dim() != dim {
		return Gaussian{}, fmt.Errorf("stats: corrupt persisted statistics for %s", dir)
	}

	mu := make([]float64, dim)
	copy(mu, muArr.Row(0))

	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, (covArr.At(i, j)+covArr.At(j, i))/2)
		}
	}

	return Gaussian{Mu: mu, Cov: cov}, nil
}

func (s *Store) readArray(ctx context.Context, name string) (*embedding.Array, error) {
	blob, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := blob.Bytes()
	if err != nil {
		return nil, err
	}
	return embedding.Decode(data)
}
