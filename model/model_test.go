package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainLoader(t *testing.T) {
	ctx := context.Background()
	errNative := errors.New("unsupported container")
	errFallback := errors.New("conversion failed")

	native := LoaderFunc(func(_ context.Context, name string) (Waveform, error) {
		if name == "a.wav" {
			return Waveform{1, 2, 3}, nil
		}
		return nil, errNative
	})
	fallback := LoaderFunc(func(_ context.Context, name string) (Waveform, error) {
		if name == "b.ogg" {
			return Waveform{4, 5}, nil
		}
		return nil, errFallback
	})

	chain := ChainLoader{native, fallback}

	t.Run("FirstLoaderWins", func(t *testing.T) {
		w, err := chain.Load(ctx, "a.wav")
		require.NoError(t, err)
		assert.Equal(t, Waveform{1, 2, 3}, w)
	})

	t.Run("FallsBack", func(t *testing.T) {
		w, err := chain.Load(ctx, "b.ogg")
		require.NoError(t, err)
		assert.Equal(t, Waveform{4, 5}, w)
	})

	t.Run("AllFailJoined", func(t *testing.T) {
		_, err := chain.Load(ctx, "c.mp3")
		require.Error(t, err)
		assert.ErrorIs(t, err, errNative)
		assert.ErrorIs(t, err, errFallback)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ChainLoader{}.Load(ctx, "a.wav")
		assert.Error(t, err)
	})
}
