// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types the curvature estimators
// operate on.
//
// Tensors are float64, row-major and immutable once an operation has
// produced them. All computation goes through a Backend; wrap one with
// autodiff.New to record operations for differentiation.
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
//	y := backend.MatMul(x, x)
package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/curvature/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} is a 2×3 matrix; Shape{} is a scalar.
type Shape = tensor.Shape

// RawTensor is the float64 tensor every backend operates on.
type RawTensor = tensor.RawTensor

// Backend is the set of operations a compute device provides.
type Backend = tensor.Backend

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the host device.
const CPU Device = tensor.CPU

// BroadcastShapes returns the shape two operands broadcast to.
func BroadcastShapes(a, b Shape) (Shape, error) {
	return tensor.BroadcastShapes(a, b)
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice(data []float64, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, device Device) *RawTensor {
	return tensor.Zeros(shape, device)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, device Device) *RawTensor {
	return tensor.Ones(shape, device)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64, device Device) *RawTensor {
	return tensor.Full(shape, value, device)
}

// Eye creates the n×n identity matrix.
func Eye(n int, device Device) *RawTensor {
	return tensor.Eye(n, device)
}

// Basis returns the i-th standard basis vector of length n.
func Basis(n, i int, device Device) *RawTensor {
	return tensor.Basis(n, i, device)
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn(shape Shape, rng *rand.Rand, device Device) *RawTensor {
	return tensor.Randn(shape, rng, device)
}
