// Copyright 2026 Raster ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// The backend implements the full tensor.Backend capability set:
//   - Element-wise arithmetic with NumPy-compatible broadcasting
//   - Scalar operations
//   - Im2col 2D convolutions
//   - ReLU, Sigmoid and Softplus activations
//   - Channel concatenation
//
// Example:
//
//	import (
//	    "github.com/raster-ml/raster/backend/cpu"
//	    "github.com/raster-ml/raster/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	}
package cpu

import (
	internalcpu "github.com/raster-ml/raster/internal/backend/cpu"
	"github.com/raster-ml/raster/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of all tensor
// operations; no CGO is involved.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
