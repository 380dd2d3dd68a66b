// Package util provides the seeded random number generator used for
// bootstrap sampling.
package util

import (
	"math/rand"
	"sync"
)

// RNG is a seeded random number generator. It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Derive returns a new RNG seeded from this one's seed and the given offset.
// Work split across goroutines stays deterministic regardless of scheduling
// when each unit derives its own generator.
func (r *RNG) Derive(offset int64) *RNG {
	return NewRNG(r.seed + offset + 1)
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard normal pseudo-random number.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// SampleWithReplacement returns n indices drawn uniformly at random, with
// replacement, from [0,max). Locks once per call.
func (r *RNG) SampleWithReplacement(n, max int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, n)
	for i := range out {
		out[i] = r.rand.Intn(max)
	}
	return out
}
