package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestRNG_Derive(t *testing.T) {
	base := NewRNG(42)

	// Same offset gives the same stream, different offsets diverge.
	x := base.Derive(3).SampleWithReplacement(32, 100)
	y := base.Derive(3).SampleWithReplacement(32, 100)
	z := base.Derive(4).SampleWithReplacement(32, 100)

	assert.Equal(t, x, y)
	assert.NotEqual(t, x, z)

	// Deriving does not advance the parent stream.
	assert.Equal(t, int64(42), base.Seed())
}

func TestRNG_SampleWithReplacement(t *testing.T) {
	rng := NewRNG(1)

	idx := rng.SampleWithReplacement(1000, 7)
	require.Len(t, idx, 1000)

	seen := make(map[int]bool)
	for _, i := range idx {
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, 7)
		seen[i] = true
	}
	// 1000 draws over 7 values hit every value.
	assert.Len(t, seen, 7)
}

func TestRNG_Float64Range(t *testing.T) {
	rng := NewRNG(9)
	for i := 0; i < 100; i++ {
		v := rng.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
