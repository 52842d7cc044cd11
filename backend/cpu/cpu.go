// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Matrix products are delegated to gonum; element-wise operations use
// NumPy-style broadcasting. Every operation allocates its result, so the
// backend holds no mutable state and is safe for concurrent use.
package cpu

import (
	internalcpu "github.com/born-ml/curvature/internal/backend/cpu"
	"github.com/born-ml/curvature/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Ones(tensor.Shape{2, 3}, tensor.CPU)
//	s := backend.Sum(x)
func New() *Backend {
	return internalcpu.New()
}
