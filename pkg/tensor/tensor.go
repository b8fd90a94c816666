// Package tensor provides dense row-major float32 tensors for image and
// feature buffers moving between the renderer and its rasterizer.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Float32 is a dense row-major tensor of float32 values. The zero value is
// an empty tensor; use New to allocate one with a shape.
//
// Float32 implements gonum's mat.Matrix as a rows-by-cells view: the
// outermost dimension indexes rows and all remaining dimensions are
// flattened into columns. This keeps gonum's reductions usable on image
// tensors of any rank.
type Float32 struct {
	Sizes  []int
	Values []float32
}

// New allocates a zero-filled tensor with the given dimension sizes.
// Panics if any size is negative.
func New(sizes ...int) *Float32 {
	n := 1
	for _, s := range sizes {
		if s < 0 {
			panic(fmt.Sprintf("tensor: negative dimension size %d", s))
		}
		n *= s
	}
	return &Float32{
		Sizes:  append([]int(nil), sizes...),
		Values: make([]float32, n),
	}
}

// NewValues wraps an existing value slice with a shape. The slice is not
// copied. Returns an error when the element count does not match the shape.
func NewValues(values []float32, sizes ...int) (*Float32, error) {
	n := 1
	for _, s := range sizes {
		n *= s
	}
	if n != len(values) {
		return nil, fmt.Errorf("tensor: %d values do not fit shape %v", len(values), sizes)
	}
	return &Float32{Sizes: append([]int(nil), sizes...), Values: values}, nil
}

// Len returns the number of elements in the tensor.
func (t *Float32) Len() int { return len(t.Values) }

// NumDims returns the number of dimensions.
func (t *Float32) NumDims() int { return len(t.Sizes) }

// DimSize returns the size of the given dimension.
func (t *Float32) DimSize(dim int) int { return t.Sizes[dim] }

// RowCellSize returns the size of the outermost dimension and the flattened
// size of all remaining inner dimensions.
func (t *Float32) RowCellSize() (rows, cells int) {
	if len(t.Sizes) == 0 {
		return 0, 0
	}
	rows = t.Sizes[0]
	cells = 1
	for _, s := range t.Sizes[1:] {
		cells *= s
	}
	return rows, cells
}

// Offset returns the flat index for the given per-dimension indices.
func (t *Float32) Offset(ix ...int) int {
	if len(ix) != len(t.Sizes) {
		panic(fmt.Sprintf("tensor: %d indices for %d dims", len(ix), len(t.Sizes)))
	}
	off := 0
	for d, i := range ix {
		off = off*t.Sizes[d] + i
	}
	return off
}

// Value returns the element at the given per-dimension indices.
func (t *Float32) Value(ix ...int) float32 {
	return t.Values[t.Offset(ix...)]
}

// Set stores val at the given per-dimension indices.
func (t *Float32) Set(val float32, ix ...int) {
	t.Values[t.Offset(ix...)] = val
}

// Fill sets every element to val.
func (t *Float32) Fill(val float32) {
	for i := range t.Values {
		t.Values[i] = val
	}
}

// Clone returns a deep copy of the tensor.
func (t *Float32) Clone() *Float32 {
	c := New(t.Sizes...)
	copy(c.Values, t.Values)
	return c
}

// Dims is the gonum mat.Matrix method reporting the rows-by-cells view.
func (t *Float32) Dims() (r, c int) {
	return t.RowCellSize()
}

// At is the gonum mat.Matrix element accessor over the rows-by-cells view.
func (t *Float32) At(i, j int) float64 {
	_, cells := t.RowCellSize()
	return float64(t.Values[i*cells+j])
}

// T is the gonum mat.Matrix transpose, implemented as a lazy view.
func (t *Float32) T() mat.Matrix {
	return mat.Transpose{Matrix: t}
}
