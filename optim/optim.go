// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers over flattened parameter vectors,
// including a damped Newton step driven by the exact Hessian.
//
// Example:
//
//	newton := optim.NewNewton(optim.NewtonConfig{Damping: 1e-3}, cpu.New())
//	flat, _ := est.Flatten(est.Params())
//	grad, _ := est.Gradient()
//	h, _ := est.FullHessian()
//	flat, _ = newton.Step(flat, grad, h)
package optim

import (
	"github.com/born-ml/curvature/internal/optim"
	"github.com/born-ml/curvature/internal/tensor"
)

// Optimizer is the interface for first-order optimizers.
type Optimizer = optim.Optimizer

// SGD is Stochastic Gradient Descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig holds configuration for SGD.
type SGDConfig = optim.SGDConfig

// Adam is the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig holds configuration for Adam.
type AdamConfig = optim.AdamConfig

// Newton takes damped Newton steps from an exact Hessian.
type Newton[B tensor.Backend] = optim.Newton[B]

// NewtonConfig holds configuration for Newton.
type NewtonConfig = optim.NewtonConfig

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(config, backend)
}

// NewAdam creates a new Adam optimizer.
func NewAdam[B tensor.Backend](config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(config, backend)
}

// NewNewton creates a new Newton optimizer.
func NewNewton[B tensor.Backend](config NewtonConfig, backend B) *Newton[B] {
	return optim.NewNewton(config, backend)
}
