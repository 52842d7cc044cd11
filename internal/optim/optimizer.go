// Package optim implements optimizers over flattened parameter vectors.
//
// This package provides:
//   - Optimizer interface: first-order step from a gradient
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - Newton: damped Newton step from an exact Hessian
//
// Parameters are immutable tensors, so every step returns a new flat vector.
//
// Example usage:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01}, backend)
//	flat, _ := est.Flatten(est.Params())
//	for range steps {
//	    grad, _ := est.Gradient()
//	    flat, _ = opt.Step(flat, grad)
//	    params, _ := est.Unflatten(flat)
//	    est, _ = est.WithParams(params)
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/curvature/internal/tensor"
)

// Optimizer is the base interface for first-order optimization algorithms.
type Optimizer interface {
	// Step returns params moved against grad. Both are flat vectors of the
	// same length; the optimizer keeps its own state between calls.
	Step(params, grad *tensor.RawTensor) (*tensor.RawTensor, error)

	// LR returns the current learning rate.
	LR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

func checkVectors(params, grad *tensor.RawTensor) error {
	if params == nil || grad == nil {
		return fmt.Errorf("optim: params and gradient are required")
	}
	if len(params.Shape()) != 1 || !params.Shape().Equal(grad.Shape()) {
		return fmt.Errorf("optim: params %v and gradient %v must be flat vectors of equal length",
			params.Shape(), grad.Shape())
	}
	return nil
}
