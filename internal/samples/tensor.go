package samples

import (
	"fmt"
	"slices"
)

// Tensor is a dense row-major array of float64 values.
//
// Tensors handed out by a Store are copies; mutating one never affects the
// store. Tensor itself exposes no mutators.
type Tensor struct {
	shape []int
	data  []float64
}

// NewTensor creates a tensor of the given shape backed by a copy of data.
// len(data) must equal the product of shape (1 for a rank-0 tensor).
func NewTensor(shape []int, data []float64) (*Tensor, error) {
	size, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, newShapeMismatch("", "tensor of shape %v needs %d values, got %d", shape, size, len(data))
	}
	return &Tensor{shape: slices.Clone(shape), data: slices.Clone(data)}, nil
}

// newTensorNoCopy wraps data without copying. Callers must own data.
func newTensorNoCopy(shape []int, data []float64) *Tensor {
	return &Tensor{shape: shape, data: data}
}

func shapeSize(shape []int) (int, error) {
	size := 1
	for i, d := range shape {
		if d < 0 {
			return 0, newShapeMismatch("", "negative dimension %d at axis %d", d, i)
		}
		size *= d
	}
	return size, nil
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int {
	return slices.Clone(t.shape)
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Len returns the size of the leading axis, or 0 for a rank-0 tensor.
func (t *Tensor) Len() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.shape[0]
}

// Size returns the total number of values.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Values returns a copy of the underlying row-major data.
func (t *Tensor) Values() []float64 {
	return slices.Clone(t.data)
}

// At returns the value at the given index. It panics if the number of
// indices does not match the rank or an index is out of range, like slice
// indexing does.
func (t *Tensor) At(idx ...int) float64 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("samples: At got %d indices for rank-%d tensor", len(idx), len(t.shape)))
	}
	off := 0
	for axis, i := range idx {
		if i < 0 || i >= t.shape[axis] {
			panic(fmt.Sprintf("samples: index %d out of range [0, %d) on axis %d", i, t.shape[axis], axis))
		}
		off = off*t.shape[axis] + i
	}
	return t.data[off]
}

// Index returns a copy of the i-th slice along the leading axis, with that
// axis removed.
func (t *Tensor) Index(i int) (*Tensor, error) {
	if len(t.shape) == 0 {
		return nil, newShapeMismatch("", "cannot index a rank-0 tensor")
	}
	if i < 0 || i >= t.shape[0] {
		return nil, newIndexOutOfRange("tensor", i, t.shape[0])
	}
	stride := 1
	for _, d := range t.shape[1:] {
		stride *= d
	}
	data := slices.Clone(t.data[i*stride : (i+1)*stride])
	return newTensorNoCopy(slices.Clone(t.shape[1:]), data), nil
}

// Equal reports whether two tensors have identical shape and values.
// NaN values compare unequal, matching float semantics.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil {
		return false
	}
	return slices.Equal(t.shape, other.shape) && slices.Equal(t.data, other.data)
}

// String renders a short description, not the values.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}
