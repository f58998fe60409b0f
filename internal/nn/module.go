// Package nn implements the neural network building blocks of the Raster
// autoregressive image model.
//
// This package provides:
//   - Module interface: base interface for all network components
//   - Parameter: trainable parameters
//   - PixelConv2D: causally masked convolution layer
//   - ConvBlock, ResNetBlock, FinalBlock: masked-convolution assemblies
//   - LogisticMixtureLoss: discretized mixture-of-logistics likelihood
//   - ComputePVals, ComputeMixture: 256-bin probability tables for sampling
//   - Activations: ReLU, Sigmoid, Softplus
//   - Initialization: Xavier, Zeros
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/raster-ml/raster/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules can be composed to build larger architectures; the model-assembly
// driver owning the full network graph lives outside this package.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// The masked-convolution modules expect [batch, channels, height, width].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Returns an empty slice for
	// modules without trainable parameters (e.g. activations).
	Parameters() []*Parameter[B]
}
