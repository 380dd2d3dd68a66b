package fadgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fadgo/cache"
	"github.com/hupe1980/fadgo/distance"
	"github.com/hupe1980/fadgo/stats"
)

var (
	// ErrNotLoaded is returned when embeddings are requested before the
	// model was loaded via Load.
	ErrNotLoaded = errors.New("embedding model not loaded")

	// ErrInvalidSteps is returned when FADInf is asked for fewer than two
	// regression steps.
	ErrInvalidSteps = errors.New("fad-inf requires at least two steps")

	// ErrInvalidMinN is returned when the FADInf minimum sample size is not
	// positive or exceeds the available frames.
	ErrInvalidMinN = errors.New("invalid minimum sample size")
)

// ErrCacheMiss indicates a read of an embedding that was never cached.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCacheMiss struct {
	Name  string
	Model string
	cause error
}

func (e *ErrCacheMiss) Error() string {
	return fmt.Sprintf("embedding for %s not cached under model %s", e.Name, e.Model)
}

func (e *ErrCacheMiss) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates that two compared statistics have
// different feature dimensions.
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

// ErrNumericalInstability indicates the Frechet distance calculation could
// not produce a finite, real result.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrNumericalInstability struct {
	MaxImag float64
	cause   error
}

func (e *ErrNumericalInstability) Error() string {
	if e.MaxImag > 0 {
		return fmt.Sprintf("numerical instability: imaginary component %g", e.MaxImag)
	}
	return "numerical instability in Frechet distance"
}

func (e *ErrNumericalInstability) Unwrap() error { return e.cause }

// translateError normalizes subpackage errors to the root taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var cm *cache.ErrCacheMiss
	if errors.As(err, &cm) {
		return &ErrCacheMiss{Name: cm.Name, Model: cm.Model, cause: err}
	}

	var dm *stats.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	var ni *distance.ErrNumericalInstability
	if errors.As(err, &ni) {
		return &ErrNumericalInstability{MaxImag: ni.MaxImag, cause: err}
	}

	return err
}
