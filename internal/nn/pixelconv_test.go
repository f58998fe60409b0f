package nn

import (
	"testing"

	"github.com/raster-ml/raster/internal/backend/cpu"
	"github.com/raster-ml/raster/internal/tensor"
)

// TestPixelConv2D_Creation tests layer creation and shapes.
func TestPixelConv2D_Creation(t *testing.T) {
	backend := cpu.New()

	conv := NewPixelConv2D("head.rb", "rb", 6, 4, 3, 1, 1, true, backend)

	if conv.InChannels() != 6 {
		t.Errorf("Expected in_channels=6, got %d", conv.InChannels())
	}
	if conv.Filters() != 4 {
		t.Errorf("Expected filters=4, got %d", conv.Filters())
	}
	if conv.PType() != "rb" {
		t.Errorf("Expected ptype=rb, got %s", conv.PType())
	}

	// Weight shape: [4, 6, 3, 3]
	weightShape := conv.weight.Tensor().Shape()
	expectedShape := tensor.Shape{4, 6, 3, 3}
	if !weightShape.Equal(expectedShape) {
		t.Errorf("Weight shape: expected %v, got %v", expectedShape, weightShape)
	}

	// Mask shape matches weight shape
	if !conv.Mask().Shape().Equal(expectedShape) {
		t.Errorf("Mask shape: expected %v, got %v", expectedShape, conv.Mask().Shape())
	}

	params := conv.Parameters()
	if len(params) != 2 {
		t.Errorf("Expected 2 parameters (weight, bias), got %d", len(params))
	}
	if params[0].Name() != "head.rb.weight" {
		t.Errorf("Expected weight name head.rb.weight, got %s", params[0].Name())
	}
	if params[1].Name() != "head.rb.bias" {
		t.Errorf("Expected bias name head.rb.bias, got %s", params[1].Name())
	}
}

// TestPixelConv2D_InvalidArgs tests constructor validation.
func TestPixelConv2D_InvalidArgs(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name string
		fn   func()
	}{
		{"bad ptype", func() { NewPixelConv2D("c", "xa", 6, 4, 3, 1, 1, true, backend) }},
		{"bad variant", func() { NewPixelConv2D("c", "rc", 6, 4, 3, 1, 1, true, backend) }},
		{"channels not divisible by 3", func() { NewPixelConv2D("c", "rb", 4, 4, 3, 1, 1, true, backend) }},
		{"zero filters", func() { NewPixelConv2D("c", "rb", 6, 0, 3, 1, 1, true, backend) }},
		{"even kernel", func() { NewPixelConv2D("c", "rb", 6, 4, 4, 1, 2, true, backend) }},
		{"negative padding", func() { NewPixelConv2D("c", "rb", 6, 4, 3, 1, -1, true, backend) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Expected panic for %s", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

// TestPixelConv2D_MaskBinary verifies every mask entry is exactly 0 or 1.
func TestPixelConv2D_MaskBinary(t *testing.T) {
	backend := cpu.New()

	for _, ptype := range []string{"ra", "ga", "ba", "rb", "gb", "bb"} {
		conv := NewPixelConv2D("c."+ptype, ptype, 6, 4, 5, 1, 2, false, backend)
		for _, v := range conv.Mask().Data() {
			if v != 0 && v != 1 {
				t.Fatalf("ptype %s: mask entry %v is not binary", ptype, v)
			}
		}
	}
}

// TestPixelConv2D_MaskRasterOrder enumerates a 5x5 "rb" mask over all
// positions and checks exactly the raster-prior taps are open.
func TestPixelConv2D_MaskRasterOrder(t *testing.T) {
	backend := cpu.New()

	inChannels, filters, kernel := 6, 3, 5
	conv := NewPixelConv2D("c.rb", "rb", inChannels, filters, kernel, 1, 2, false, backend)
	mask := conv.Mask()

	mid := kernel / 2
	group := inChannels / 3 // R mask sees channels [0, group)

	for f := 0; f < filters; f++ {
		for c := 0; c < inChannels; c++ {
			for k1 := 0; k1 < kernel; k1++ {
				for k2 := 0; k2 < kernel; k2++ {
					spatialOK := k1 < mid || (k1 == mid && k2 <= mid)
					channelOK := c < group
					want := float32(0)
					if spatialOK && channelOK {
						want = 1
					}
					got := mask.At(f, c, k1, k2)
					if got != want {
						t.Errorf("mask[%d,%d,%d,%d] = %v, want %v", f, c, k1, k2, got, want)
					}
				}
			}
		}
	}
}

// TestPixelConv2D_MaskCenterVariants checks the center tap rule that
// separates type A from type B masks.
func TestPixelConv2D_MaskCenterVariants(t *testing.T) {
	backend := cpu.New()

	inChannels, kernel := 6, 3
	mid := kernel / 2

	maskA := NewPixelConv2D("c.ga", "ga", inChannels, 2, kernel, 1, 1, false, backend).Mask()
	maskB := NewPixelConv2D("c.gb", "gb", inChannels, 2, kernel, 1, 1, false, backend).Mask()

	// Channel groups for inChannels=6: R=[0,2), G=[2,4), B=[4,6).
	for c := 0; c < inChannels; c++ {
		gotA := maskA.At(0, c, mid, mid)
		gotB := maskB.At(0, c, mid, mid)

		switch {
		case c < 2: // earlier group: center open for both variants
			if gotA != 1 || gotB != 1 {
				t.Errorf("channel %d center: got a=%v b=%v, want 1/1", c, gotA, gotB)
			}
		case c < 4: // own group: type A blocks the center, type B allows it
			if gotA != 0 {
				t.Errorf("channel %d center: type A should block own group, got %v", c, gotA)
			}
			if gotB != 1 {
				t.Errorf("channel %d center: type B should allow own group, got %v", c, gotB)
			}
		default: // later group: blocked for both
			if gotA != 0 || gotB != 0 {
				t.Errorf("channel %d center: got a=%v b=%v, want 0/0", c, gotA, gotB)
			}
		}
	}
}

// TestPixelConv2D_ForwardShape checks same-padding preserves spatial dims.
func TestPixelConv2D_ForwardShape(t *testing.T) {
	backend := cpu.New()

	conv := NewPixelConv2D("c.gb", "gb", 6, 4, 3, 1, 1, true, backend)
	input := tensor.Zeros[float32](tensor.Shape{2, 6, 8, 8}, backend)

	output := conv.Forward(input)

	expectedShape := tensor.Shape{2, 4, 8, 8}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}
}

// TestPixelConv2D_Causality perturbs a future pixel and checks the
// output at the current pixel does not move.
func TestPixelConv2D_Causality(t *testing.T) {
	backend := cpu.New()

	inChannels, filters, kernel := 3, 3, 3
	conv := NewPixelConv2D("c.bb", "bb", inChannels, filters, kernel, 1, 1, true, backend)

	h, w := 5, 5
	base := tensor.Zeros[float32](tensor.Shape{1, inChannels, h, w}, backend)
	outBase := conv.Forward(base)

	// Perturbations strictly after (2,2) in raster order.
	future := [][2]int{{2, 3}, {3, 0}, {3, 2}, {4, 4}}
	for _, pos := range future {
		perturbed := tensor.Zeros[float32](tensor.Shape{1, inChannels, h, w}, backend)
		for c := 0; c < inChannels; c++ {
			perturbed.Set(100.0, 0, c, pos[0], pos[1])
		}
		outPert := conv.Forward(perturbed)

		for f := 0; f < filters; f++ {
			if outBase.At(0, f, 2, 2) != outPert.At(0, f, 2, 2) {
				t.Errorf("output[%d,2,2] changed after perturbing future pixel %v", f, pos)
			}
		}
	}
}

// TestPixelConv2D_MaskAppliedEachForward overwrites the weight after
// construction and checks masked taps still contribute nothing.
func TestPixelConv2D_MaskAppliedEachForward(t *testing.T) {
	backend := cpu.New()

	inChannels, filters, kernel := 3, 2, 3
	conv := NewPixelConv2D("c.rb", "rb", inChannels, filters, kernel, 1, 1, false, backend)

	// All-ones weight: without the mask every tap would fire.
	weightData := conv.weight.Tensor().Raw().AsFloat32()
	for i := range weightData {
		weightData[i] = 1.0
	}

	input := tensor.Zeros[float32](tensor.Shape{1, inChannels, 3, 3}, backend)
	for c := 0; c < inChannels; c++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				input.Set(1.0, 0, c, i, j)
			}
		}
	}

	output := conv.Forward(input)

	// At the center pixel (1,1) of an all-ones image, the convolution
	// sums exactly the open mask taps: the R mask sees one channel
	// group across the row above (3 taps), the left neighbor and the
	// center (2 taps), all at full padding coverage.
	group := inChannels / 3
	expected := float32(group * 5)
	got := output.At(0, 0, 1, 1)
	if got != expected {
		t.Errorf("masked all-ones conv at center: got %v, want %v", got, expected)
	}
}
