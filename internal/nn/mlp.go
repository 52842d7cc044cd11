// Package nn provides the dense layered model and the costs the curvature
// estimators are usually pointed at.
//
// Nothing here owns parameters: models read them from the list they are
// handed, so the same model function can be evaluated on the caller's
// parameters, on a per-example snapshot, or on any backend.
package nn

import (
	"fmt"

	"github.com/born-ml/curvature/internal/tensor"
)

// Activation is an element-wise non-linearity.
type Activation func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor

// Identity returns x unchanged.
func Identity(_ tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return x }

// Tanh applies the hyperbolic tangent.
func Tanh(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Tanh(x) }

// Sigmoid applies the logistic function.
func Sigmoid(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Sigmoid(x) }

// ReLU applies max(0, x). Its second derivative is zero almost everywhere.
func ReLU(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.ReLU(x) }

// MLP is a stack of fully connected layers.
//
// Layer l computes a_{l+1} = act(a_l @ W_l + b_l), where W_l has shape
// [Layers[l], Layers[l+1]] and b_l has shape [Layers[l+1]]. Hidden layers use
// Hidden; the last layer uses Output.
//
// Example:
//
//	model := nn.MLP{Layers: []int{2, 3, 1}, Hidden: nn.Tanh}
//	params := nn.InitParams(model.Layers, rng, false)
//	out := model.Forward(backend, x, params) // [batch, 1]
type MLP struct {
	Layers      []int
	Hidden      Activation // nil means Identity
	Output      Activation // nil means Identity
	Interleaved bool       // params ordered W_0, b_0, W_1, b_1, ...
}

// NumLayers returns L, the number of weight matrices.
func (m MLP) NumLayers() int {
	return len(m.Layers) - 1
}

// Weight returns W_l from params.
func (m MLP) Weight(params []*tensor.RawTensor, l int) *tensor.RawTensor {
	if m.Interleaved {
		return params[2*l]
	}
	return params[l]
}

// Bias returns b_l from params.
func (m MLP) Bias(params []*tensor.RawTensor, l int) *tensor.RawTensor {
	if m.Interleaved {
		return params[2*l+1]
	}
	return params[m.NumLayers()+l]
}

// Forward runs x of shape [batch, Layers[0]] through the network.
//
// Panics if params does not hold 2L tensors; shape errors surface as
// backend panics.
func (m MLP) Forward(b tensor.Backend, x *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor {
	n := m.NumLayers()
	if len(params) != 2*n {
		panic(fmt.Sprintf("mlp: expected %d parameter tensors, got %d", 2*n, len(params)))
	}

	hidden, output := m.Hidden, m.Output
	if hidden == nil {
		hidden = Identity
	}
	if output == nil {
		output = Identity
	}

	a := x
	for l := 0; l < n; l++ {
		z := b.Add(b.MatMul(a, m.Weight(params, l)), m.Bias(params, l))
		if l < n-1 {
			a = hidden(b, z)
		} else {
			a = output(b, z)
		}
	}
	return a
}
