// Package ops defines the differentiable operations recorded on a gradient tape.
//
// Each operation keeps its inputs and output from the forward pass and
// computes input gradients from the output gradient. Backward is written
// entirely in terms of tensor.Backend calls: when the backend passed in is
// itself recording, the gradient computation lands on the tape and can be
// differentiated again (Hessian-vector products, higher-order derivatives).
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise with broadcasting
//   - MatMulOp, TransposeOp: 2-D linear algebra
//   - ReshapeOp, CatOp, NarrowOp: layout changes along dim 0
//   - MulScalarOp, AddScalarOp: scalar affine maps
//   - ExpOp, LogOp, TanhOp, SigmoidOp, ReLUOp: element-wise math
//   - SumOp, SumDimOp, SumToOp, ExpandOp: reductions and broadcasts
package ops

import "github.com/born-ml/curvature/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The result has one entry per input; a nil entry means no gradient
	// flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// node holds the bookkeeping shared by every operation.
type node struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func newNode(output *tensor.RawTensor, inputs ...*tensor.RawTensor) node {
	return node{inputs: inputs, output: output}
}

// Inputs returns the input tensors.
func (n *node) Inputs() []*tensor.RawTensor {
	return n.inputs
}

// Output returns the output tensor.
func (n *node) Output() *tensor.RawTensor {
	return n.output
}
