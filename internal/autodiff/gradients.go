package autodiff

import (
	"errors"
	"fmt"

	"github.com/born-ml/curvature/internal/tensor"
)

// ErrNotRecording is returned when gradients are requested from a tape
// that never recorded the output.
var ErrNotRecording = errors.New("autodiff: tape is not recording")

// GradientOption configures a Gradients call.
type GradientOption func(*gradientConfig)

type gradientConfig struct {
	createGraph bool
}

// CreateGraph records the backward pass on the tape, so the returned
// gradients are differentiable expressions of the tape's leaves.
// Required for the first pass of a Hessian-vector product.
func CreateGraph() GradientOption {
	return func(c *gradientConfig) {
		c.createGraph = true
	}
}

// Gradients computes d(sum(output))/d(wrt[i]) for every i.
//
// The result has one entry per wrt tensor, with the same shape. An entry is
// nil when output does not depend on that tensor. The output gradient is
// seeded with ones, so a non-scalar output is differentiated as the sum of
// its elements.
//
// Without CreateGraph the backward pass runs on the wrapped backend and
// nothing is recorded: gradients are plain values.
func (b *AutodiffBackend[B]) Gradients(output *tensor.RawTensor, wrt []*tensor.RawTensor, opts ...GradientOption) ([]*tensor.RawTensor, error) {
	var cfg gradientConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !b.tape.IsRecording() {
		return nil, ErrNotRecording
	}

	seed := tensor.Ones(output.Shape(), b.Device())

	var grads map[*tensor.RawTensor]*tensor.RawTensor
	if cfg.createGraph {
		grads = b.tape.Backward(output, seed, b)
	} else {
		b.tape.StopRecording()
		grads = b.tape.Backward(output, seed, b.inner)
		b.tape.StartRecording()
	}

	out := make([]*tensor.RawTensor, len(wrt))
	for i, w := range wrt {
		g, ok := grads[w]
		if !ok {
			continue
		}
		if !g.Shape().Equal(w.Shape()) {
			return nil, fmt.Errorf("autodiff: gradient for input %d has shape %v, want %v", i, g.Shape(), w.Shape())
		}
		out[i] = g
	}
	return out, nil
}

// Backward computes gradients of output with respect to every tensor it
// depends on, without recording the backward pass.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	y := backend.Mul(x, x)
//	grads := autodiff.Backward(y, backend)
//	dx := grads[x] // 2x
func Backward[B tensor.Backend](output *tensor.RawTensor, backend *AutodiffBackend[B]) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := tensor.Ones(output.Shape(), backend.Device())
	wasRecording := backend.tape.IsRecording()
	backend.tape.StopRecording()
	defer func() {
		if wasRecording {
			backend.tape.StartRecording()
		}
	}()
	return backend.tape.Backward(output, seed, backend.inner)
}
