package cpu

import (
	"fmt"

	"github.com/raster-ml/raster/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same dtype and the same shape except along the
// concatenation dimension. Supports negative dim indexing (-1 = last).
//
// Example:
//
//	c := backend.Cat([]*tensor.RawTensor{a, b}, 1) // channel concat
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim

	result, err := tensor.NewRaw(outShape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	// Byte-level copy: treat each tensor as [outer, dim*inner] rows and
	// interleave the rows into the output. Works for every dtype.
	elemSize := dtype.Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}

	out := result.Data()
	outRowBytes := totalDim * inner * elemSize
	offset := 0
	for _, t := range tensors {
		data := t.Data()
		rowBytes := t.Shape()[dim] * inner * elemSize
		for o := 0; o < outer; o++ {
			copy(out[o*outRowBytes+offset:o*outRowBytes+offset+rowBytes],
				data[o*rowBytes:(o+1)*rowBytes])
		}
		offset += rowBytes
	}

	return result
}
