package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
//
// Whisker tensors are rank 1 (vectors) or rank 2 (matrices). Higher ranks
// are rejected at construction rather than silently flattened.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the total number of elements described by the shape.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has rank 1 or 2 and only positive dimensions.
func (s Shape) Validate() error {
	if len(s) < 1 || len(s) > 2 {
		return fmt.Errorf("%w: rank must be 1 or 2, got %d", ErrShape, len(s))
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be > 0)", ErrShape, i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}
