// Copyright 2026 Raster ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math"
	"testing"

	"github.com/raster-ml/raster/backend/cpu"
	"github.com/raster-ml/raster/nn"
	"github.com/raster-ml/raster/tensor"
)

// TestModuleInterface verifies that concrete types implement Module.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[*cpu.Backend]
	}{
		{
			name:   "PixelConv2D",
			module: nn.NewPixelConv2D("c.rb", "rb", 6, 4, 3, 1, 1, true, backend),
		},
		{
			name:   "ConvBlock",
			module: nn.NewConvBlock("res2", 6, 4, 3, false, backend),
		},
		{
			name:   "ResNetBlock",
			module: nn.NewResNetBlock("2a", 6, 1, 1, 2, 3, backend),
		},
		{
			name:   "FinalBlock",
			module: nn.NewFinalBlock("1", 6, 3, 1, backend),
		},
		{
			name:   "ReLU",
			module: nn.NewReLU[*cpu.Backend](),
		},
		{
			name:   "Softplus",
			module: nn.NewSoftplus[*cpu.Backend](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.module == nil {
				t.Fatal("module is nil")
			}
			_ = tt.module.Parameters()
		})
	}
}

// TestEndToEnd builds a tiny masked network, scores an image batch and
// derives sampling tables from the head output.
func TestEndToEnd(t *testing.T) {
	backend := cpu.New()
	nComponents := 2

	first := nn.NewConvBlock("res1", 3, 2, 3, true, backend)    // [N, 6, H, W]
	res := nn.NewResNetBlock("2a", 6, 1, 1, 2, 3, backend)      // [N, 6, H, W]
	head := nn.NewFinalBlock("1", 6, 3*nComponents, 1, backend) // [N, 18, H, W]

	images := tensor.Randn[float32](tensor.Shape{2, 3, 4, 4}, backend).MulScalar(0.5)

	features := first.Forward(images)
	features = res.Forward(features)
	params := head.Forward(features)

	if !params.Shape().Equal(tensor.Shape{2, 9 * nComponents, 4, 4}) {
		t.Fatalf("head output shape = %v, want [2 18 4 4]", params.Shape())
	}

	criterion := nn.NewLogisticMixtureLoss(4, 4, 3, nComponents, backend)
	loss := criterion.Forward(images, params)

	if !loss.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("loss shape = %v, want [2]", loss.Shape())
	}
	for i := 0; i < 2; i++ {
		v := float64(loss.At(i))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("loss[%d] = %v, want finite", i, v)
		}
	}

	// Mixture parameters of the R channel at pixel (0,0), batch 0.
	ms := make([]float64, nComponents)
	invs := make([]float64, nComponents)
	logits := make([]float64, nComponents)
	for k := 0; k < nComponents; k++ {
		ms[k] = float64(params.At(0, k, 0, 0))
		invs[k] = float64(params.At(0, 3*nComponents+k, 0, 0))
		logits[k] = float64(params.At(0, 6*nComponents+k, 0, 0))
	}
	weights := make([]float64, nComponents)
	for k, lw := range nn.LogSoftmax(logits) {
		weights[k] = math.Exp(lw)
	}

	table := nn.ComputeMixture(ms, invs, weights, nComponents)
	sum := 0.0
	for i, p := range table {
		if p < 0 {
			t.Errorf("table[%d] = %v, want non-negative", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-4 {
		t.Errorf("table sums to %v, want 1", sum)
	}
}
