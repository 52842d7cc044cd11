// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation,
// including gradients of gradients.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x, _ := tensor.FromSlice([]float64{3}, tensor.Shape{1}, tensor.CPU)
//	y := backend.Mul(backend.Mul(x, x), x)
//
//	g, _ := backend.Gradients(y, []*tensor.RawTensor{x}, autodiff.CreateGraph())
//	h, _ := backend.Gradients(g[0], []*tensor.RawTensor{x}) // 18
package autodiff

import (
	"github.com/born-ml/curvature/internal/autodiff"
	"github.com/born-ml/curvature/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// GradientOption configures a Gradients call.
type GradientOption = autodiff.GradientOption

// ErrNotRecording is returned when gradients are requested from a tape
// that is not recording.
var ErrNotRecording = autodiff.ErrNotRecording

// CreateGraph keeps the backward pass on the tape so the gradients can be
// differentiated again.
func CreateGraph() GradientOption {
	return autodiff.CreateGraph()
}

// Backward computes gradients of output with respect to every tensor it
// depends on.
func Backward[B tensor.Backend](output *tensor.RawTensor, backend *Backend[B]) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(output, backend)
}
