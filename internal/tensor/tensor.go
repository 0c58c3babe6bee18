// Package tensor implements the dense float32 container and the CPU kernels
// the rest of Whisker is built on.
//
// A Tensor owns a flat row-major buffer whose length always equals the
// product of its shape. Tensors never alias each other: Clone performs a
// full copy and every kernel that writes takes an explicit output tensor,
// except for the documented in-place kernels (ReLU, Softmax, AddBias).
package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Tensor is a dense rank-1 or rank-2 float32 array.
type Tensor struct {
	data  []float32
	shape Shape
}

// New creates a zero-filled tensor with the given shape.
// Returns a shape error if the shape has an invalid rank or dimension.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Tensor{
		data:  make([]float32, shape.NumElements()),
		shape: shape.Clone(),
	}, nil
}

// Zeros creates a zero-filled tensor, panicking on an invalid shape.
//
// Use this only where the shape is derived from an already-validated
// configuration; otherwise use New and handle the error.
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(fmt.Sprintf("tensor.Zeros: %v", err))
	}
	return t
}

// FromSlice creates a tensor backed by a copy of data.
// The data length must equal the shape product.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: data length %d does not match shape %v (%d elements)",
			ErrShape, len(data), shape, shape.NumElements())
	}
	t := &Tensor{
		data:  make([]float32, len(data)),
		shape: shape.Clone(),
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying buffer. The buffer is owned by the tensor;
// callers must not retain it past the tensor's lifetime.
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at (row, col).
// Panics if the tensor is not rank 2 or the indices are out of bounds.
func (t *Tensor) At(row, col int) float32 {
	t.check2D(row, col)
	return t.data[row*t.shape[1]+col]
}

// Set stores v at (row, col).
// Panics if the tensor is not rank 2 or the indices are out of bounds.
func (t *Tensor) Set(row, col int, v float32) {
	t.check2D(row, col)
	t.data[row*t.shape[1]+col] = v
}

// At1 returns the element at linear index i, valid for any rank.
func (t *Tensor) At1(i int) float32 {
	return t.data[i]
}

// Set1 stores v at linear index i, valid for any rank.
func (t *Tensor) Set1(i int, v float32) {
	t.data[i] = v
}

// Row returns a view of row i of a rank-2 tensor.
// The returned slice shares memory with the tensor.
func (t *Tensor) Row(i int) []float32 {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Tensor.Row: tensor is rank %d, not 2", len(t.shape)))
	}
	if i < 0 || i >= t.shape[0] {
		panic(fmt.Sprintf("Tensor.Row: row %d out of range [0, %d)", i, t.shape[0]))
	}
	cols := t.shape[1]
	return t.data[i*cols : (i+1)*cols]
}

// Zero sets every element to 0.
func (t *Tensor) Zero() {
	clear(t.data)
}

// Clone returns a value-independent copy: same shape, fully copied buffer.
// Mutating the clone never affects the original.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		data:  make([]float32, len(t.data)),
		shape: t.shape.Clone(),
	}
	copy(c.data, t.data)
	return c
}

// Transpose returns a new tensor with rows and columns swapped.
// Panics if the tensor is not rank 2.
func (t *Tensor) Transpose() *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Tensor.Transpose: tensor is rank %d, not 2", len(t.shape)))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := Zeros(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out
}

// Randn fills the tensor with independent draws from a zero-mean Gaussian
// with the given standard deviation.
//
// Values are generated with the Box-Muller transform from two uniform(0,1)
// draws per element, so a tensor filled from an identically seeded generator
// reproduces bit-for-bit across runs. The generator is owned by the caller
// (typically one per model), which keeps initialization reproducible
// per-model rather than per-process.
func (t *Tensor) Randn(std float32, rng *rand.Rand) {
	for i := range t.data {
		// 1-Float64() maps [0,1) to (0,1], keeping the log argument positive.
		u1 := 1 - rng.Float64()
		u2 := rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		t.data[i] = float32(z) * std
	}
}

func (t *Tensor) check2D(row, col int) {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: 2D accessor on rank-%d tensor", len(t.shape)))
	}
	if row < 0 || row >= t.shape[0] || col < 0 || col >= t.shape[1] {
		panic(fmt.Sprintf("tensor: index (%d, %d) out of range for shape %v", row, col, t.shape))
	}
}
