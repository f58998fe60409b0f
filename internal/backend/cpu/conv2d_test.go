package cpu

import (
	"testing"

	"github.com/raster-ml/raster/internal/tensor"
)

func TestConv2D_KnownValues(t *testing.T) {
	backend := newTestBackend()

	// 3x3 input, 2x2 kernel, stride 1, no padding.
	input := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	kernel := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, 1, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("output shape: got %v", output.Shape())
	}

	// [0,0]: 1*1 + 2*2 + 3*4 + 4*5 = 37, etc.
	expected := []float32{37, 47, 67, 77}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("expected %v, got %v", expected, output.AsFloat32())
	}
}

func TestConv2D_SamePadding(t *testing.T) {
	backend := newTestBackend()

	// 3x3 kernel with padding 1 keeps spatial dims ("same" padding).
	input := fromFloat32(t, make([]float32, 25), tensor.Shape{1, 1, 5, 5})
	input.AsFloat32()[12] = 1 // impulse at center

	kernel := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})

	output := backend.Conv2D(input, kernel, 1, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 5, 5}) {
		t.Fatalf("same-padding output shape: got %v", output.Shape())
	}

	// Convolving an impulse writes the kernel (cross-correlation layout)
	// centered on the impulse.
	out := output.AsFloat32()
	// Output position (1,1) sees the impulse at kernel position (2,2).
	if out[1*5+1] != 9 {
		t.Errorf("out[1,1]: expected 9, got %f", out[1*5+1])
	}
	if out[2*5+2] != 5 {
		t.Errorf("out[2,2]: expected 5, got %f", out[2*5+2])
	}
	if out[3*5+3] != 1 {
		t.Errorf("out[3,3]: expected 1, got %f", out[3*5+3])
	}
}

func TestConv2D_MultiChannel(t *testing.T) {
	backend := newTestBackend()

	// Two input channels, one output channel, 1x1 kernel: output is a
	// weighted channel sum.
	input := fromFloat32(t, []float32{
		1, 2, 3, 4, // channel 0
		10, 20, 30, 40, // channel 1
	}, tensor.Shape{1, 2, 2, 2})
	kernel := fromFloat32(t, []float32{2, 0.5}, tensor.Shape{1, 2, 1, 1})

	output := backend.Conv2D(input, kernel, 1, 0)

	expected := []float32{7, 14, 21, 28}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("expected %v, got %v", expected, output.AsFloat32())
	}
}

func TestConv2D_Batched(t *testing.T) {
	backend := newTestBackend()

	input := fromFloat32(t, []float32{
		1, 1, 1, 1, // batch 0
		2, 2, 2, 2, // batch 1
	}, tensor.Shape{2, 1, 2, 2})
	kernel := fromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, 1, 0)

	if !output.Shape().Equal(tensor.Shape{2, 1, 1, 1}) {
		t.Fatalf("batched output shape: got %v", output.Shape())
	}
	if !float32SliceEqual(output.AsFloat32(), []float32{4, 8}) {
		t.Errorf("batched: got %v", output.AsFloat32())
	}
}

func TestConv2D_AgreesWithMock(t *testing.T) {
	backend := newTestBackend()
	mock := tensor.NewMockBackend()

	// Pseudo-random but deterministic values.
	inData := make([]float32, 2*3*4*4)
	for i := range inData {
		inData[i] = float32((i*31)%17) / 4.0
	}
	kData := make([]float32, 2*3*3*3)
	for i := range kData {
		kData[i] = float32((i*13)%11)/5.0 - 1.0
	}

	input := fromFloat32(t, inData, tensor.Shape{2, 3, 4, 4})
	kernel := fromFloat32(t, kData, tensor.Shape{2, 3, 3, 3})

	got := backend.Conv2D(input, kernel, 1, 1)
	want := mock.Conv2D(input, kernel, 1, 1)

	if !got.Shape().Equal(want.Shape()) {
		t.Fatalf("shape mismatch: %v vs %v", got.Shape(), want.Shape())
	}
	if !float32SliceEqual(got.AsFloat32(), want.AsFloat32()) {
		t.Errorf("im2col and direct convolution disagree")
	}
}
