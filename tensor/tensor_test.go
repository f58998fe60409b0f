// Copyright 2026 Raster ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/raster-ml/raster/internal/backend/cpu"
	"github.com/raster-ml/raster/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", raw.NumElements())
	}
}

// TestTensorAPI exercises creation and arithmetic through the facade.
func TestTensorAPI(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)

	z := x.Add(y).MulScalar(2.5)
	for i, v := range z.Data() {
		if v != 2.5 {
			t.Errorf("z[%d] = %v, want 2.5", i, v)
		}
	}

	data := []float32{1, 2, 3, 4}
	w, err := tensor.FromSlice(data, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if w.At(1, 0) != 3 {
		t.Errorf("At(1,0) = %v, want 3", w.At(1, 0))
	}

	c := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{w, w}, 0)
	if !c.Shape().Equal(tensor.Shape{4, 2}) {
		t.Errorf("Cat shape = %v, want [4 2]", c.Shape())
	}
}

// TestBroadcastShapes verifies facade broadcasting rules.
func TestBroadcastShapes(t *testing.T) {
	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{1, 4, 1, 1}, tensor.Shape{2, 4, 3, 3})
	if err != nil {
		t.Fatalf("BroadcastShapes failed: %v", err)
	}
	if !broadcast {
		t.Error("expected broadcasting to be reported")
	}
	if !shape.Equal(tensor.Shape{2, 4, 3, 3}) {
		t.Errorf("broadcast shape = %v, want [2 4 3 3]", shape)
	}
}
