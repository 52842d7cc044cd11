// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package hessian computes second-order curvature information of a scalar
// cost with respect to a layered model's parameters.
//
// HessianVectorProduct returns H·v without forming H. FullHessian
// assembles the exact P×P matrix from P such products. OPGApproximation
// returns the outer product of per-example gradients, a cheaper
// positive-semidefinite surrogate that equals the Hessian only under a
// Gauss-Newton assumption on the cost.
//
// Example:
//
//	model := nn.MLP{Layers: []int{2, 3, 1}, Hidden: nn.Tanh}
//
//	cfg := hessian.DefaultConfig()
//	cfg.Layers = model.Layers
//	cfg.Model = model.Forward
//	cfg.Cost = nn.MeanSquaredError
//	cfg.Params = nn.InitParams(model.Layers, rng, false)
//	cfg.X, cfg.Y = x, y
//	cfg.BatchSize = 4
//
//	est, err := hessian.New(cpu.New(), cfg)
//	h, err := est.FullHessian()        // *mat.Dense, 13×13
//	g, err := est.OPGApproximation()   // *mat.SymDense, 13×13
package hessian

import (
	"github.com/born-ml/curvature/internal/hessian"
	"github.com/born-ml/curvature/internal/parallel"
	"github.com/born-ml/curvature/internal/tensor"
)

// Estimator computes curvature for one model, cost, parameter point and
// batch.
type Estimator[B tensor.Backend] = hessian.Estimator[B]

// Config holds everything an Estimator is built from.
type Config = hessian.Config

// ModelFunc computes the model output for an input under params.
type ModelFunc = hessian.ModelFunc

// CostFunc computes a scalar cost from labels and model output.
type CostFunc = hessian.CostFunc

// ParallelConfig controls how independent evaluations are fanned out.
type ParallelConfig = parallel.Config

// Schema describes the parameter structure by its layer widths.
type Schema = hessian.Schema

// Codec maps between structured parameters and the flat vector.
type Codec = hessian.Codec

// Layout selects the structured parameter order.
type Layout = hessian.Layout

// Parameter layouts.
const (
	LayoutWeightsThenBiases = hessian.LayoutWeightsThenBiases
	LayoutInterleaved       = hessian.LayoutInterleaved
)

// Errors. Match with errors.Is.
var (
	ErrSchema            = hessian.ErrSchema
	ErrShape             = hessian.ErrShape
	ErrBatchShape        = hessian.ErrBatchShape
	ErrGraphConstruction = hessian.ErrGraphConstruction
)

// New validates cfg and builds an Estimator on backend.
func New[B tensor.Backend](backend B, cfg Config) (*Estimator[B], error) {
	return hessian.New(backend, cfg)
}

// DefaultConfig returns a Config with the canonical layout, sequential
// execution and a discarding logger.
func DefaultConfig() Config {
	return hessian.DefaultConfig()
}

// DefaultParallel returns a parallel configuration sized to the machine.
func DefaultParallel() ParallelConfig {
	return parallel.DefaultConfig()
}

// NewSchema validates layer widths.
func NewSchema(layers []int) (*Schema, error) {
	return hessian.NewSchema(layers)
}

// NewCodec builds the flatten/unflatten mapping for schema under layout.
func NewCodec(schema *Schema, layout Layout) (*Codec, error) {
	return hessian.NewCodec(schema, layout)
}
