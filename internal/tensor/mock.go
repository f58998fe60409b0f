package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively for correctness verification.
// Only Float32 tensors are supported.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// MulScalar multiplies each element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := float64(scalar.(float32))
	return m.unary(x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar to each element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := float64(scalar.(float32))
	return m.unary(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from each element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := float64(scalar.(float32))
	return m.unary(x, func(v float64) float64 { return v - s })
}

// DivScalar divides each element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := float64(scalar.(float32))
	return m.unary(x, func(v float64) float64 { return v / s })
}

// Exp computes element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unary(x, math.Exp)
}

// Log computes element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unary(x, math.Log)
}

// ReLU computes element-wise max(0, x).
func (m *MockBackend) ReLU(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Max(0, v) })
}

// Sigmoid computes element-wise 1/(1+exp(-x)).
func (m *MockBackend) Sigmoid(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
}

// Softplus computes element-wise log(1+exp(x)).
func (m *MockBackend) Softplus(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Log1p(math.Exp(v)) })
}

// Reshape returns a tensor with the same data and a new shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", t.Shape(), newShape))
	}
	result := t.Clone()
	result.shape = newShape.Clone()
	result.stride = newShape.ComputeStrides()
	return result
}

// Conv2D performs a direct (non-im2col) 2D convolution for test verification.
func (m *MockBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	inShape := input.Shape()
	kShape := kernel.Shape()
	if len(inShape) != 4 || len(kShape) != 4 {
		panic("conv2d: input and kernel must be 4D")
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]
	if kShape[1] != cIn {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kShape[1]))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1

	result, err := NewRaw(Shape{n, cOut, hOut, wOut}, Float32, m.Device())
	if err != nil {
		panic(err)
	}

	in := input.AsFloat32()
	k := kernel.AsFloat32()
	out := result.AsFloat32()

	for b := 0; b < n; b++ {
		for o := 0; o < cOut; o++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					var sum float32
					for c := 0; c < cIn; c++ {
						for y := 0; y < kh; y++ {
							for x := 0; x < kw; x++ {
								ih := oh*stride - padding + y
								iw := ow*stride - padding + x
								if ih < 0 || ih >= h || iw < 0 || iw >= w {
									continue
								}
								sum += in[b*cIn*h*w+c*h*w+ih*w+iw] * k[o*cIn*kh*kw+c*kh*kw+y*kw+x]
							}
						}
					}
					out[b*cOut*hOut*wOut+o*hOut*wOut+oh*wOut+ow] = sum
				}
			}
		}
	}

	return result
}

// Cat concatenates tensors along the given dimension.
func (m *MockBackend) Cat(tensors []*RawTensor, dim int) *RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	totalDim := 0
	for _, t := range tensors {
		totalDim += t.Shape()[dim]
	}
	outShape := shape.Clone()
	outShape[dim] = totalDim

	result, err := NewRaw(outShape, Float32, m.Device())
	if err != nil {
		panic(err)
	}

	// Treat each tensor as [outer, dimSize, inner] and copy rows.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}

	out := result.AsFloat32()
	outRow := totalDim * inner
	offset := 0
	for _, t := range tensors {
		data := t.AsFloat32()
		dimSize := t.Shape()[dim]
		row := dimSize * inner
		for o := 0; o < outer; o++ {
			copy(out[o*outRow+offset:o*outRow+offset+row], data[o*row:(o+1)*row])
		}
		offset += row
	}

	return result
}

// unary applies op element-wise (Float32 tensors only).
func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		dst[i] = float32(op(float64(v)))
	}
	return result
}

// elementWise performs element-wise operations with broadcasting.
func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	out := result.AsFloat32()

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range out {
		aIdx := broadcastIndex(i, outStrides, aStrides)
		bIdx := broadcastIndex(i, outStrides, bStrides)
		out[i] = float32(op(float64(aData[aIdx]), float64(bData[bIdx])))
	}

	return result
}

// broadcastStrides computes the strides of inShape as broadcast into outShape.
// Broadcast dimensions (size 1, or missing on the left) get stride 0.
func broadcastStrides(inShape, outShape Shape) []int {
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

// broadcastIndex maps a flat output index to a flat input index using strides.
func broadcastIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	remaining := outIdx
	for d := 0; d < len(outStrides); d++ {
		coord := remaining / outStrides[d]
		remaining %= outStrides[d]
		idx += coord * inStrides[d]
	}
	return idx
}
