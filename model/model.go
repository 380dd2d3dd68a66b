// Package model defines the contracts for the external collaborators of the
// FAD engine: the pretrained embedding model and the audio loader.
//
// The engine never decodes audio or runs inference itself; it only consumes
// the waveform and embedding values these interfaces produce.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/fadgo/embedding"
)

// Waveform is a mono audio signal, one sample per element, at the sample
// rate the owning model expects.
type Waveform []float32

// EmbeddingModel produces embeddings from waveforms.
//
// Name must be stable across runs: it is part of every cache key, so two
// models with the same name share cached embeddings.
type EmbeddingModel interface {
	// Name returns the stable model identifier used in cache paths.
	Name() string

	// SampleRate returns the sample rate the model expects, in Hz.
	SampleRate() int

	// Load prepares the model for inference. Embedding must not be called
	// before Load has returned successfully.
	Load(ctx context.Context) error

	// Close releases model resources.
	Close() error

	// Embedding computes the embedding array for one waveform.
	Embedding(ctx context.Context, w Waveform) (*embedding.Array, error)
}

// AudioLoader decodes and resamples one audio file into a waveform at the
// model's sample rate. Implementations own format support and conversion
// strategy; the engine only depends on the resulting waveform.
type AudioLoader interface {
	Load(ctx context.Context, name string) (Waveform, error)
}

// ChainLoader tries each loader in order and returns the first successful
// waveform. This expresses the usual fast-path/fallback split: a native
// resampler first, a slower format-converting pipeline for everything it
// rejects.
type ChainLoader []AudioLoader

// Load implements AudioLoader.
func (c ChainLoader) Load(ctx context.Context, name string) (Waveform, error) {
	if len(c) == 0 {
		return nil, errors.New("model: chain loader has no loaders")
	}
	var errs []error
	for _, l := range c {
		w, err := l.Load(ctx, name)
		if err == nil {
			return w, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("model: all loaders failed for %s: %w", name, errors.Join(errs...))
}

// LoaderFunc adapts a function to the AudioLoader interface.
type LoaderFunc func(ctx context.Context, name string) (Waveform, error)

// Load implements AudioLoader.
func (f LoaderFunc) Load(ctx context.Context, name string) (Waveform, error) {
	return f(ctx, name)
}
