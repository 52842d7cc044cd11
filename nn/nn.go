// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the feed-forward model and costs used with the
// curvature estimators.
//
// Example:
//
//	model := nn.MLP{Layers: []int{4, 8, 3}, Hidden: nn.Tanh}
//	params := nn.InitParams(model.Layers, rand.New(rand.NewPCG(1, 2)), false)
//
//	cfg := hessian.DefaultConfig()
//	cfg.Layers = model.Layers
//	cfg.Model = model.Forward
//	cfg.Cost = nn.SoftmaxCrossEntropy
//	cfg.Params = params
package nn

import (
	"math/rand/v2"

	"github.com/born-ml/curvature/internal/nn"
	"github.com/born-ml/curvature/internal/tensor"
)

// MLP is a stack of fully connected layers.
type MLP = nn.MLP

// Activation is an element-wise non-linearity.
type Activation = nn.Activation

// Cost computes a scalar from labels and model output.
type Cost = nn.Cost

// Activations.
var (
	Identity Activation = nn.Identity
	Tanh     Activation = nn.Tanh
	Sigmoid  Activation = nn.Sigmoid
	ReLU     Activation = nn.ReLU
)

// Costs.
var (
	SumSquaredError     Cost = nn.SumSquaredError
	MeanSquaredError    Cost = nn.MeanSquaredError
	SoftmaxCrossEntropy Cost = nn.SoftmaxCrossEntropy
)

// WithL2 adds lambda/2 · Σ ||W||² over the weight matrices to cost.
func WithL2(cost Cost, lambda float64) Cost {
	return nn.WithL2(cost, lambda)
}

// Xavier returns a [fanIn, fanOut] weight matrix with Glorot-uniform entries.
func Xavier(fanIn, fanOut int, rng *rand.Rand) *tensor.RawTensor {
	return nn.Xavier(fanIn, fanOut, rng)
}

// InitParams builds Xavier weights and zero biases for layers.
func InitParams(layers []int, rng *rand.Rand, interleaved bool) []*tensor.RawTensor {
	return nn.InitParams(layers, rng, interleaved)
}
