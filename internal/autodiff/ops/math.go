package ops

import "github.com/born-ml/curvature/internal/tensor"

// ExpOp represents output = exp(x).
//
// Backward: grad_x = grad * exp(x), reusing the forward output.
type ExpOp struct{ node }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{newNode(output, x)}
}

// Backward computes the gradient for exp.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = log(x).
//
// Backward: grad_x = grad / x.
type LogOp struct{ node }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{newNode(output, x)}
}

// Backward computes the gradient for log.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// TanhOp represents output = tanh(x).
//
// Backward: grad_x = grad * (1 - tanh²(x)).
type TanhOp struct{ node }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{newNode(output, x)}
}

// Backward computes the gradient for tanh.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	squared := backend.Mul(y, y)
	derivative := backend.AddScalar(backend.MulScalar(squared, -1), 1)
	return []*tensor.RawTensor{backend.Mul(outputGrad, derivative)}
}

// SigmoidOp represents output = σ(x).
//
// Backward: grad_x = grad * σ(x) * (1 - σ(x)).
type SigmoidOp struct{ node }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{newNode(output, x)}
}

// Backward computes the gradient for sigmoid.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	derivative := backend.Sub(y, backend.Mul(y, y))
	return []*tensor.RawTensor{backend.Mul(outputGrad, derivative)}
}

// ReLUOp represents output = max(0, x).
//
// Backward: grad_x = grad * 1[x > 0]. The mask is a constant; its own
// derivative is zero almost everywhere.
type ReLUOp struct{ node }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{newNode(output, x)}
}

// Backward computes the gradient for ReLU.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	mask := tensor.Zeros(x.Shape(), backend.Device())
	m := mask.Data()
	for i, v := range x.Data() {
		if v > 0 {
			m[i] = 1
		}
	}
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}
