package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/curvature/internal/tensor"
)

// Sum adds all elements into a scalar (shape []).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.alloc("sum", tensor.Shape{})
	result.Data()[0] = floats.Sum(x.Data())
	return result
}

// SumDim sums along dim. With keepDim the reduced dimension stays as 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumdim: invalid dimension %d for shape %v", dim, shape))
	}

	kept := shape.Clone()
	kept[dim] = 1
	result := cpu.SumTo(x, kept)
	if keepDim {
		return result
	}

	squeezed := make(tensor.Shape, 0, len(shape)-1)
	squeezed = append(squeezed, shape[:dim]...)
	squeezed = append(squeezed, shape[dim+1:]...)
	return cpu.Reshape(result, squeezed)
}

// SumTo reduces x to shape by summing over the broadcast dimensions.
// It is the adjoint of Expand: shape must broadcast to x's shape.
func (cpu *CPUBackend) SumTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if !broadcastsTo(shape, x.Shape()) {
		panic(fmt.Sprintf("sumto: %v does not broadcast to %v", shape, x.Shape()))
	}
	result := cpu.alloc("sumto", shape)
	out := result.Data()
	for i, j := range broadcastIndices(x.Shape(), shape) {
		out[j] += x.Data()[i]
	}
	return result
}

// Expand broadcasts x to shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if !broadcastsTo(x.Shape(), shape) {
		panic(fmt.Sprintf("expand: %v does not broadcast to %v", x.Shape(), shape))
	}
	result := cpu.alloc("expand", shape)
	out := result.Data()
	for i, j := range broadcastIndices(shape, x.Shape()) {
		out[i] = x.Data()[j]
	}
	return result
}
