package ops

import "github.com/born-ml/curvature/internal/tensor"

// SumOp represents output = Σ x (scalar).
//
// Backward: the scalar gradient is broadcast back to x's shape.
type SumOp struct{ node }

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{newNode(output, x)}
}

// Backward computes the gradient for Sum.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Expand(outputGrad, op.inputs[0].Shape())}
}

// SumDimOp represents a sum along one dimension.
//
// Backward: restore the reduced dimension as size 1 (when keepDim was
// false), then broadcast back to x's shape.
type SumDimOp struct {
	node
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	if dim < 0 {
		dim += len(x.Shape())
	}
	return &SumDimOp{node: newNode(output, x), dim: dim, keepDim: keepDim}
}

// Backward computes the gradient for SumDim.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	in := op.inputs[0].Shape()
	grad := outputGrad
	if !op.keepDim {
		kept := in.Clone()
		kept[op.dim] = 1
		grad = backend.Reshape(grad, kept)
	}
	return []*tensor.RawTensor{backend.Expand(grad, in)}
}

// SumToOp represents reducing x to a broadcast-compatible smaller shape.
//
// Backward: Expand, its adjoint.
type SumToOp struct{ node }

// NewSumToOp creates a new SumToOp.
func NewSumToOp(x, output *tensor.RawTensor) *SumToOp {
	return &SumToOp{newNode(output, x)}
}

// Backward computes the gradient for SumTo.
func (op *SumToOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Expand(outputGrad, op.inputs[0].Shape())}
}

// ExpandOp represents broadcasting x to a larger shape.
//
// Backward: SumTo, its adjoint.
type ExpandOp struct{ node }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{newNode(output, x)}
}

// Backward computes the gradient for Expand.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend)}
}
