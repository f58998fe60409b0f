package cpu

import (
	"math"

	"github.com/raster-ml/raster/internal/tensor"
)

// ReLU computes element-wise max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryMath("relu", x, func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// Sigmoid computes element-wise 1 / (1 + exp(-x)).
//
// The computation is overflow-safe: for x >= 0 it evaluates
// 1 / (1 + exp(-x)); for x < 0 it evaluates exp(x) / (1 + exp(x)).
// Both forms only exponentiate non-positive arguments.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryMath("sigmoid", x, func(v float64) float64 {
		if v >= 0 {
			return 1.0 / (1.0 + math.Exp(-v))
		}
		e := math.Exp(v)
		return e / (1.0 + e)
	})
}

// Softplus computes element-wise log(1 + exp(x)).
//
// For large x this saturates to x (log1p(exp(x)) would overflow), and for
// very negative x to exp(x); both limits follow the stable identity
// softplus(x) = max(x, 0) + log1p(exp(-|x|)).
func (cpu *CPUBackend) Softplus(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryMath("softplus", x, softplus)
}

// softplus is the scalar stable softplus shared with the backend tests.
func softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}
