// Package stats computes and persists the Gaussian statistics (mean vector,
// covariance matrix) of embedding arrays.
package stats

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/fadgo/embedding"
)

// Gaussian is the empirical distribution of a set of embedding frames.
type Gaussian struct {
	// Mu is the feature-wise mean.
	Mu []float64

	// Cov is the sample covariance matrix (n−1 normalization).
	Cov *mat.SymDense
}

// Dim returns the feature dimension.
func (g Gaussian) Dim() int { return len(g.Mu) }

// ErrDimensionMismatch indicates that two statistics, or two embedding
// arrays being accumulated, have different feature dimensions.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrNoFrames indicates an attempt to form statistics from zero frames.
type ErrNoFrames struct{}

func (e *ErrNoFrames) Error() string {
	return "statistics require at least one embedding frame"
}

// Batch computes the Gaussian statistics of one embedding array: mean over
// rows, sample covariance over rows feature-wise.
//
// A single-row array yields an all-zero covariance matrix. That is a valid
// degenerate distribution, not an error.
func Batch(a *embedding.Array) (Gaussian, error) {
	frames, dim := a.Dims()
	if frames < 1 {
		return Gaussian{}, &ErrNoFrames{}
	}

	mu := make([]float64, dim)
	for i := 0; i < frames; i++ {
		row := a.Row(i)
		for j, v := range row {
			mu[j] += v
		}
	}
	for j := range mu {
		mu[j] /= float64(frames)
	}

	cov := mat.NewSymDense(dim, nil)
	if frames > 1 {
		stat.CovarianceMatrix(cov, a, nil)
	}

	return Gaussian{Mu: mu, Cov: cov}, nil
}

// Accumulator computes Gaussian statistics over a stream of embedding
// arrays without keeping them all resident. It accumulates the frame count,
// the running row sum and the running sum of row outer products; Finalize
// derives the same mean and covariance Batch would produce on the
// concatenation, within floating tolerance, for any partition of the frames.
type Accumulator struct {
	n     int64
	sum   []float64
	outer *mat.Dense
	dim   int
}

// NewAccumulator creates an empty Accumulator. The feature dimension is
// fixed by the first array added.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Frames returns the number of frames accumulated so far.
func (acc *Accumulator) Frames() int64 { return acc.n }

// Add folds one embedding array into the running sums.
func (acc *Accumulator) Add(a *embedding.Array) error {
	frames, dim := a.Dims()
	if frames < 1 {
		return &ErrNoFrames{}
	}
	if acc.dim == 0 {
		acc.dim = dim
		acc.sum = make([]float64, dim)
		acc.outer = mat.NewDense(dim, dim, nil)
	}
	if dim != acc.dim {
		return &ErrDimensionMismatch{Expected: acc.dim, Actual: dim}
	}

	for i := 0; i < frames; i++ {
		row := a.Row(i)
		for j, v := range row {
			acc.sum[j] += v
		}
	}

	var prod mat.Dense
	prod.Mul(a.T(), a)
	acc.outer.Add(acc.outer, &prod)

	acc.n += int64(frames)
	return nil
}

// Finalize derives the Gaussian statistics from the accumulated sums:
// mu = sum/N, cov = (outer − N·mu⊗mu)/(N−1).
func (acc *Accumulator) Finalize() (Gaussian, error) {
	if acc.n < 1 {
		return Gaussian{}, &ErrNoFrames{}
	}

	n := float64(acc.n)
	mu := make([]float64, acc.dim)
	for j, s := range acc.sum {
		mu[j] = s / n
	}

	cov := mat.NewSymDense(acc.dim, nil)
	if acc.n > 1 {
		// The accumulated outer-product matrix is symmetric up to floating
		// error; average the two triangles when folding into SymDense.
		for i := 0; i < acc.dim; i++ {
			for j := i; j < acc.dim; j++ {
				v := (acc.outer.At(i, j) + acc.outer.At(j, i)) / 2
				cov.SetSym(i, j, (v-n*mu[i]*mu[j])/(n-1))
			}
		}
	}

	return Gaussian{Mu: mu, Cov: cov}, nil
}
