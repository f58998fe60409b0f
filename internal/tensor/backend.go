package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The capability set is the one the autoregressive core consumes: element-wise
// arithmetic with broadcasting, scalar ops, the convolution primitive, the
// activations used by the masked-convolution blocks, and channel
// concatenation.
//
// Implementations:
//   - CPU: Pure Go (internal/backend/cpu)
//   - MockBackend: minimal in-package backend for tensor tests
type Backend interface {
	// Element-wise binary operations (with broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Convolutional operations.
	// Input [N, C_in, H, W], kernel [C_out, C_in, K_h, K_w].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor

	// Scalar operations (element-wise with scalar).
	MulScalar(x *RawTensor, scalar any) *RawTensor // multiply by scalar
	AddScalar(x *RawTensor, scalar any) *RawTensor // add scalar
	SubScalar(x *RawTensor, scalar any) *RawTensor // subtract scalar
	DivScalar(x *RawTensor, scalar any) *RawTensor // divide by scalar

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor // Exponential.
	Log(x *RawTensor) *RawTensor // Natural logarithm.

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor     // max(0, x).
	Sigmoid(x *RawTensor) *RawTensor  // 1 / (1 + exp(-x)).
	Softplus(x *RawTensor) *RawTensor // log(1 + exp(x)), overflow-safe.

	// Manipulation operations.
	Cat(tensors []*RawTensor, dim int) *RawTensor // Concatenate along dimension.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}
