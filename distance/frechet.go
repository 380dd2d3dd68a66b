// Package distance computes the Frechet distance between two multivariate
// Gaussians X_1 ~ N(mu_1, C_1) and X_2 ~ N(mu_2, C_2):
//
//	d^2 = ||mu_1 - mu_2||^2 + Tr(C_1 + C_2 - 2*sqrt(C_1*C_2))
//
// The matrix square root is taken of the (generally non-symmetric) product
// C_1*C_2, so the eigendecomposition and the intermediate matrix are
// complex. A nearly singular product is retried with a small epsilon added
// to both diagonals; a residual imaginary component beyond tolerance is an
// error.
package distance

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/fadgo/stats"
)

// DefaultEps is the diagonal regularization used when the square root of
// the covariance product comes back non-finite.
const DefaultEps = 1e-6

// imagTolerance bounds the imaginary component allowed to remain on the
// diagonal of the matrix square root before the result is rejected.
const imagTolerance = 1e-3

// ErrNumericalInstability indicates that the matrix square root stayed
// non-finite after epsilon regularization, or kept an imaginary component
// beyond tolerance.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrNumericalInstability struct {
	MaxImag float64
	cause   error
}

func (e *ErrNumericalInstability) Error() string {
	if e.MaxImag > 0 {
		return fmt.Sprintf("numerical instability: imaginary component %g exceeds tolerance %g", e.MaxImag, imagTolerance)
	}
	return "numerical instability: matrix square root is not finite"
}

func (e *ErrNumericalInstability) Unwrap() error { return e.cause }

// Options configures the Frechet distance calculation.
type Options struct {
	// Eps is the diagonal regularization for the near-singular retry.
	Eps float64
}

// Frechet returns the Frechet distance between two Gaussian statistics.
// It is zero when both statistics are identical and symmetric in its
// arguments.
func Frechet(g1, g2 stats.Gaussian, optFns ...func(*Options)) (float64, error) {
	opts := Options{Eps: DefaultEps}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	dim := g1.Dim()
	if d2 := g2.Dim(); d2 != dim {
		return 0, &stats.ErrDimensionMismatch{Expected: dim, Actual: d2}
	}

	var diffDot float64
	for i := range g1.Mu {
		d := g1.Mu[i] - g2.Mu[i]
		diffDot += d * d
	}

	var prod mat.Dense
	prod.Mul(g1.Cov, g2.Cov)

	covmean, err := sqrtm(&prod, dim)
	if err != nil || !allFinite(covmean) {
		// Product might be almost singular; retry with regularized inputs.
		prod.Mul(addEps(g1.Cov, opts.Eps), addEps(g2.Cov, opts.Eps))
		covmean, err = sqrtm(&prod, dim)
		if err != nil {
			return 0, &ErrNumericalInstability{cause: err}
		}
		if !allFinite(covmean) {
			return 0, &ErrNumericalInstability{}
		}
	}

	// Numerical error can leave a slight imaginary component.
	var maxImag float64
	for i := 0; i < dim; i++ {
		if im := math.Abs(imag(covmean[i*dim+i])); im > maxImag {
			maxImag = im
		}
	}
	if maxImag > imagTolerance {
		return 0, &ErrNumericalInstability{MaxImag: maxImag}
	}

	var trCovmean float64
	for i := 0; i < dim; i++ {
		trCovmean += real(covmean[i*dim+i])
	}

	return diffDot + mat.Trace(g1.Cov) + mat.Trace(g2.Cov) - 2*trCovmean, nil
}

// sqrtm computes a matrix square root of p via eigendecomposition:
// p = V·D·V⁻¹ implies sqrt(p) = V·D^½·V⁻¹. The result is returned as a
// row-major n×n complex matrix.
func sqrtm(p *mat.Dense, n int) ([]complex128, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(p, mat.EigenRight); !ok {
		return nil, errors.New("distance: eigendecomposition did not converge")
	}

	values := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	roots := make([]complex128, n)
	for i, v := range values {
		roots[i] = cmplx.Sqrt(v)
	}

	vinv, err := invertComplex(&vecs, n)
	if err != nil {
		return nil, err
	}

	// covmean[i][j] = sum_k V[i][k] * roots[k] * Vinv[k][j]
	out := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			vs := vecs.At(i, k) * roots[k]
			if vs == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i*n+j] += vs * vinv[k*n+j]
			}
		}
	}
	return out, nil
}

// invertComplex inverts a complex n×n matrix by embedding it into the real
// 2n×2n matrix [[Re,-Im],[Im,Re]]; the inverse of the embedding is the
// embedding of the inverse.
func invertComplex(v *mat.CDense, n int) ([]complex128, error) {
	m := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re, im := real(v.At(i, j)), imag(v.At(i, j))
			m.Set(i, j, re)
			m.Set(i, j+n, -im)
			m.Set(i+n, j, im)
			m.Set(i+n, j+n, re)
		}
	}

	var minv mat.Dense
	if err := minv.Inverse(m); err != nil {
		return nil, fmt.Errorf("distance: eigenvector matrix is singular: %w", err)
	}

	out := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = complex(minv.At(i, j), minv.At(i+n, j))
		}
	}
	return out, nil
}

func addEps(c *mat.SymDense, eps float64) *mat.Dense {
	n := c.SymmetricDim()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, c.At(i, j))
		}
		out.Set(i, i, out.At(i, i)+eps)
	}
	return out
}

func allFinite(c []complex128) bool {
	for _, v := range c {
		re, im := real(v), imag(v)
		if math.IsNaN(re) || math.IsInf(re, 0) || math.IsNaN(im) || math.IsInf(im, 0) {
			return false
		}
	}
	return true
}
