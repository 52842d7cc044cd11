package cpu

import (
	"fmt"

	"github.com/born-ml/curvature/internal/tensor"
)

// Reshape returns a copy of t with a new shape of the same element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	result := cpu.alloc("reshape", newShape)
	copy(result.Data(), t.Data())
	return result
}

// Transpose swaps the two dimensions of a 2-D tensor.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got shape %v", shape))
	}
	rows, cols := shape[0], shape[1]
	result := cpu.alloc("transpose", tensor.Shape{cols, rows})
	src, dst := t.Data(), result.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}
	return result
}

// Cat concatenates tensors along dim 0. All trailing dimensions must match.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}
	first := tensors[0].Shape()
	if len(first) == 0 {
		panic("cat: cannot concatenate scalars")
	}

	rows := 0
	for i, t := range tensors {
		s := t.Shape()
		if len(s) != len(first) || !s[1:].Equal(first[1:]) {
			panic(fmt.Sprintf("cat: tensor %d has shape %v, incompatible with %v", i, s, first))
		}
		rows += s[0]
	}

	outShape := first.Clone()
	outShape[0] = rows
	result := cpu.alloc("cat", outShape)
	off := 0
	for _, t := range tensors {
		off += copy(result.Data()[off:], t.Data())
	}
	return result
}

// Narrow returns rows [start, start+length) of dim 0 as a new tensor.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("narrow: cannot narrow a scalar")
	}
	if start < 0 || length <= 0 || start+length > shape[0] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dimension 0 of shape %v",
			start, start+length, shape))
	}

	outShape := shape.Clone()
	outShape[0] = length
	result := cpu.alloc("narrow", outShape)
	row := shape.NumElements() / shape[0]
	copy(result.Data(), x.Data()[start*row:(start+length)*row])
	return result
}
