package ops

import "github.com/born-ml/curvature/internal/tensor"

// ReshapeOp records a reshape.
//
// Backward: reshape the output gradient back to the input shape.
type ReshapeOp struct{ node }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{newNode(output, x)}
}

// Backward computes the gradient for Reshape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// CatOp represents concatenation along dim 0.
//
// Backward: each input receives the rows of the output gradient it
// contributed.
type CatOp struct{ node }

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor) *CatOp {
	return &CatOp{newNode(output, inputs...)}
}

// Backward splits the gradient at the input boundaries.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	start := 0
	for i, in := range op.inputs {
		rows := in.Shape()[0]
		grads[i] = backend.Narrow(outputGrad, start, rows)
		start += rows
	}
	return grads
}

// NarrowOp represents selecting rows [start, start+length) of dim 0.
//
// Backward: the gradient is placed back at its rows, zeros elsewhere.
// The zero padding is concatenated rather than scattered so the backward
// pass stays on the tape.
type NarrowOp struct {
	node
	start int
}

// NewNarrowOp creates a new NarrowOp.
func NewNarrowOp(x, output *tensor.RawTensor, start int) *NarrowOp {
	return &NarrowOp{node: newNode(output, x), start: start}
}

// Backward pads the gradient back to the input shape.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	in := op.inputs[0].Shape()
	length := outputGrad.Shape()[0]
	tail := in[0] - op.start - length

	parts := make([]*tensor.RawTensor, 0, 3)
	if op.start > 0 {
		parts = append(parts, zeroRows(in, op.start, backend))
	}
	parts = append(parts, outputGrad)
	if tail > 0 {
		parts = append(parts, zeroRows(in, tail, backend))
	}
	if len(parts) == 1 {
		return []*tensor.RawTensor{outputGrad}
	}
	return []*tensor.RawTensor{backend.Cat(parts)}
}

func zeroRows(like tensor.Shape, rows int, backend tensor.Backend) *tensor.RawTensor {
	shape := like.Clone()
	shape[0] = rows
	return tensor.Zeros(shape, backend.Device())
}
