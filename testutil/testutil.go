// Package testutil provides fake collaborators and data generators for
// tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/fadgo/embedding"
	"github.com/hupe1980/fadgo/model"
	"github.com/hupe1980/fadgo/util"
)

// FakeModel is an in-memory model.EmbeddingModel. By default it derives a
// deterministic embedding from the waveform: one frame per second of audio
// (at least one), every feature of frame i equal to the i-th sample value.
type FakeModel struct {
	ModelName string
	SR        int
	Dim       int

	// EmbedFn overrides the default embedding derivation.
	EmbedFn func(w model.Waveform) (*embedding.Array, error)

	// LoadCalls and EmbedCalls count lifecycle and inference invocations.
	LoadCalls  atomic.Int64
	EmbedCalls atomic.Int64

	closed atomic.Bool
}

// NewFakeModel creates a FakeModel with the given name and feature
// dimension at 16kHz.
func NewFakeModel(name string, dim int) *FakeModel {
	return &FakeModel{ModelName: name, SR: 16000, Dim: dim}
}

// Name implements model.EmbeddingModel.
func (m *FakeModel) Name() string { return m.ModelName }

// SampleRate implements model.EmbeddingModel.
func (m *FakeModel) SampleRate() int { return m.SR }

// Load implements model.EmbeddingModel.
func (m *FakeModel) Load(context.Context) error {
	m.LoadCalls.Add(1)
	return nil
}

// Close implements model.EmbeddingModel.
func (m *FakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

// Embedding implements model.EmbeddingModel.
func (m *FakeModel) Embedding(_ context.Context, w model.Waveform) (*embedding.Array, error) {
	m.EmbedCalls.Add(1)
	if m.EmbedFn != nil {
		return m.EmbedFn(w)
	}

	frames := max(1, len(w)/m.SR)
	a := embedding.New(frames, m.Dim)
	for i := 0; i < frames; i++ {
		v := 0.0
		if i < len(w) {
			v = float64(w[i])
		}
		row := a.Row(i)
		for j := range row {
			row[j] = v
		}
	}
	return a, nil
}

// FakeLoader is an in-memory model.AudioLoader backed by a name→waveform
// map.
type FakeLoader struct {
	Waves map[string]model.Waveform

	// Err, if set, is returned for every load.
	Err error

	// LoadCalls counts invocations.
	LoadCalls atomic.Int64
}

// Load implements model.AudioLoader.
func (l *FakeLoader) Load(_ context.Context, name string) (model.Waveform, error) {
	l.LoadCalls.Add(1)
	if l.Err != nil {
		return nil, l.Err
	}
	w, ok := l.Waves[name]
	if !ok {
		return nil, fmt.Errorf("testutil: no waveform for %s", name)
	}
	return w, nil
}

// ConstArray builds a frames×dim array with every row equal to row.
func ConstArray(frames int, row []float64) *embedding.Array {
	a := embedding.New(frames, len(row))
	for i := 0; i < frames; i++ {
		a.SetRow(i, row)
	}
	return a
}

// GaussianArray builds a frames×dim array of N(mu, sigma²) samples drawn
// from rng.
func GaussianArray(rng *util.RNG, frames, dim int, mu, sigma float64) *embedding.Array {
	a := embedding.New(frames, dim)
	for i := 0; i < frames; i++ {
		row := a.Row(i)
		for j := range row {
			row[j] = mu + sigma*rng.NormFloat64()
		}
	}
	return a
}
