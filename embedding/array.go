// Package embedding provides the embedding array type produced by an
// embedding model for one audio file, and its persisted binary format.
package embedding

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Array is a dense 2-D array of embeddings: one row per time frame,
// one column per feature dimension. Rows are stored contiguously.
//
// An Array is immutable once cached; mutating methods exist only to build
// arrays before they are persisted.
type Array struct {
	data   []float64
	frames int
	dim    int
}

// New creates a zeroed Array with the given shape.
func New(frames, dim int) *Array {
	if frames < 0 || dim <= 0 {
		panic(fmt.Sprintf("embedding: invalid shape %dx%d", frames, dim))
	}
	return &Array{
		data:   make([]float64, frames*dim),
		frames: frames,
		dim:    dim,
	}
}

// FromRows builds an Array from a slice of equally sized rows.
func FromRows(rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("embedding: no rows")
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("embedding: zero feature dimension")
	}
	a := New(len(rows), dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("embedding: row %d has %d features, want %d", i, len(row), dim)
		}
		copy(a.Row(i), row)
	}
	return a, nil
}

// Frames returns the number of time frames (rows).
func (a *Array) Frames() int { return a.frames }

// Dim returns the feature dimension (columns).
func (a *Array) Dim() int { return a.dim }

// Row returns a view of frame i. The slice aliases the array storage.
func (a *Array) Row(i int) []float64 {
	return a.data[i*a.dim : (i+1)*a.dim]
}

// SetRow copies row into frame i.
func (a *Array) SetRow(i int, row []float64) {
	if len(row) != a.dim {
		panic(fmt.Sprintf("embedding: row has %d features, want %d", len(row), a.dim))
	}
	copy(a.Row(i), row)
}

// Gather returns a new Array holding the frames at the given indices,
// in order. Indices may repeat (bootstrap sampling with replacement).
func (a *Array) Gather(indices []int) *Array {
	out := New(len(indices), a.dim)
	for i, idx := range indices {
		copy(out.Row(i), a.Row(idx))
	}
	return out
}

// Dims implements gonum's mat.Matrix.
func (a *Array) Dims() (r, c int) { return a.frames, a.dim }

// At implements gonum's mat.Matrix.
func (a *Array) At(i, j int) float64 { return a.data[i*a.dim+j] }

// T implements gonum's mat.Matrix.
func (a *Array) T() mat.Matrix { return mat.Transpose{Matrix: a} }

// Concat stacks the given arrays row-wise into one Array.
// All arrays must share the same feature dimension.
func Concat(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("embedding: nothing to concatenate")
	}
	dim := arrays[0].dim
	total := 0
	for i, a := range arrays {
		if a.dim != dim {
			return nil, fmt.Errorf("embedding: array %d has dimension %d, want %d", i, a.dim, dim)
		}
		total += a.frames
	}
	out := New(total, dim)
	off := 0
	for _, a := range arrays {
		copy(out.data[off:], a.data)
		off += len(a.data)
	}
	return out, nil
}
