package cpu

import (
	"github.com/raster-ml/raster/internal/tensor"
)

// Vectorized kernels: equal-shape fast path, one tight loop per dtype.

func binaryVectorizedFloat32(dst, a, b []float32, op func(x, y float32) float32) {
	for i := range dst {
		dst[i] = op(a[i], b[i])
	}
}

func binaryVectorizedFloat64(dst, a, b []float64, op func(x, y float64) float64) {
	for i := range dst {
		dst[i] = op(a[i], b[i])
	}
}

// Broadcast kernels: strided access, size-1 dimensions get stride 0.

func binaryBroadcastFloat32(result, a, b *tensor.RawTensor, op func(x, y float32) float32) {
	outShape := result.Shape()
	aStrides := computeBroadcastStridesForShape(a.Shape(), outShape)
	bStrides := computeBroadcastStridesForShape(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	out := result.AsFloat32()

	for i := range out {
		out[i] = op(aData[computeFlatIndex(i, outStrides, aStrides)],
			bData[computeFlatIndex(i, outStrides, bStrides)])
	}
}

func binaryBroadcastFloat64(result, a, b *tensor.RawTensor, op func(x, y float64) float64) {
	outShape := result.Shape()
	aStrides := computeBroadcastStridesForShape(a.Shape(), outShape)
	bStrides := computeBroadcastStridesForShape(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	aData := a.AsFloat64()
	bData := b.AsFloat64()
	out := result.AsFloat64()

	for i := range out {
		out[i] = op(aData[computeFlatIndex(i, outStrides, aStrides)],
			bData[computeFlatIndex(i, outStrides, bStrides)])
	}
}

// computeBroadcastStridesForShape computes the effective strides of inShape
// when broadcast into outShape. Dimensions of size 1 (or missing on the left)
// contribute stride 0 so the same element is reused.
func computeBroadcastStridesForShape(inShape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	inStrides := inShape.ComputeStrides()
	offset := len(outShape) - len(inShape)

	for i := range outShape {
		inIdx := i - offset
		if inIdx < 0 || inShape[inIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = inStrides[inIdx]
		}
	}
	return strides
}

// computeFlatIndex maps a flat output index to a flat input index via strides.
func computeFlatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	remaining := outIdx
	for d := 0; d < len(outStrides); d++ {
		coord := remaining / outStrides[d]
		remaining %= outStrides[d]
		idx += coord * inStrides[d]
	}
	return idx
}
