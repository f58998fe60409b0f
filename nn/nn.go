// Copyright 2026 Raster ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks for autoregressive
// image models in the Raster ML library.
//
// The package centers on causally masked convolutions: layers whose
// kernels are multiplied by fixed binary masks so that each output
// pixel depends only on pixels earlier in raster order and on color
// channels earlier in the fixed R, G, B ordering.
//
// Building blocks:
//   - PixelConv2D: masked convolution with type A/B masks per channel
//   - ConvBlock, ResNetBlock, FinalBlock: masked network assembly
//   - LogisticMixtureLoss: discretized mixture-of-logistics NLL
//   - ComputePVals, ComputeMixture: 256-bin sampling tables
//   - ReLU, Sigmoid, Softplus: activation modules
//
// Example:
//
//	backend := cpu.New()
//	first := nn.NewConvBlock("res1", 3, 32, 7, true, backend) // type A masks
//	res := nn.NewResNetBlock("2a", 96, 16, 16, 32, 3, backend)
//	head := nn.NewFinalBlock("1", 96, 3*nComponents, 1, backend)
//
//	features := first.Forward(images)           // [N, 96, H, W]
//	features = res.Forward(features)            // [N, 96, H, W]
//	params := head.Forward(features)            // [N, 9K, H, W]
//
//	criterion := nn.NewLogisticMixtureLoss(rows, cols, 3, nComponents, backend)
//	loss := criterion.Forward(images, params)   // [N]
package nn

import (
	"github.com/raster-ml/raster/internal/nn"
	"github.com/raster-ml/raster/tensor"
)

// Module is the interface implemented by all neural network layers.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a trainable tensor with an optional gradient.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter wrapping a tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// PixelConv2D is a causally masked 2D convolution.
type PixelConv2D[B tensor.Backend] = nn.PixelConv2D[B]

// NewPixelConv2D creates a masked convolution. Parameters register as
// name+".weight" and name+".bias".
//
// ptype selects the mask: "ra", "ga", "ba" (type A, first layer) or
// "rb", "gb", "bb" (type B, inner layers).
func NewPixelConv2D[B tensor.Backend](
	name, ptype string,
	inChannels, filters int,
	kernelSize, stride, padding int,
	useBias bool,
	backend B,
) *PixelConv2D[B] {
	return nn.NewPixelConv2D(name, ptype, inChannels, filters, kernelSize, stride, padding, useBias, backend)
}

// ConvBlock is a triple of masked convolutions, one per color channel,
// ReLU'd and concatenated on the channel axis.
type ConvBlock[B tensor.Backend] = nn.ConvBlock[B]

// NewConvBlock creates a masked convolution triple; each convolution is
// named name+"."+ptype. Set isFirst for the layer that reads the raw
// image.
func NewConvBlock[B tensor.Backend](
	name string,
	inChannels, filters, kernelSize int,
	isFirst bool,
	backend B,
) *ConvBlock[B] {
	return nn.NewConvBlock(name, inChannels, filters, kernelSize, isFirst, backend)
}

// ResNetBlock is a residual bottleneck of three ConvBlocks.
type ResNetBlock[B tensor.Backend] = nn.ResNetBlock[B]

// NewResNetBlock creates a residual bottleneck; 3*f3 must equal
// inChannels so the residual add is shape-valid. Stages are named
// "res"+name+"_branch_a-1x1", "_branch_b-<k>x<k>" and "_branch_c-1x1".
func NewResNetBlock[B tensor.Backend](
	name string,
	inChannels int,
	f1, f2, f3 int,
	kernelSize int,
	backend B,
) *ResNetBlock[B] {
	return nn.NewResNetBlock(name, inChannels, f1, f2, f3, kernelSize, backend)
}

// FinalBlock is the terminal projection: a single conv triple without a
// residual connection, outputting 3*filters channels.
type FinalBlock[B tensor.Backend] = nn.FinalBlock[B]

// NewFinalBlock creates a terminal projection block; convolutions are
// named "final"+name+"."+ptype.
func NewFinalBlock[B tensor.Backend](
	name string,
	inChannels, filters, kernelSize int,
	backend B,
) *FinalBlock[B] {
	return nn.NewFinalBlock(name, inChannels, filters, kernelSize, backend)
}

// Activations

// ReLU applies f(x) = max(0, x).
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Softplus applies f(x) = log(1 + exp(x)).
type Softplus[B tensor.Backend] = nn.Softplus[B]

// NewSoftplus creates a Softplus activation module.
func NewSoftplus[B tensor.Backend]() *Softplus[B] {
	return nn.NewSoftplus[B]()
}

// Loss

// LogisticMixtureLoss is the discretized mixture-of-logistics negative
// log-likelihood over 8-bit pixels rescaled to [-1, 1].
type LogisticMixtureLoss[B tensor.Backend] = nn.LogisticMixtureLoss[B]

// NewLogisticMixtureLoss creates the mixture loss for images of the
// given size with nComponents logistic components per color channel.
func NewLogisticMixtureLoss[B tensor.Backend](
	imgRows, imgCols, imgChns, nComponents int,
	backend B,
) *LogisticMixtureLoss[B] {
	return nn.NewLogisticMixtureLoss(imgRows, imgCols, imgChns, nComponents, backend)
}

// Numeric utilities

// SafeSigmoid computes the logistic sigmoid, saturating exactly to 0
// below -20 and to 1 above 20.
func SafeSigmoid(x float64) float64 {
	return nn.SafeSigmoid(x)
}

// LogisticCDF evaluates the logistic CDF at x for a location and scale.
func LogisticCDF(x, loc, scale float64) float64 {
	return nn.LogisticCDF(x, loc, scale)
}

// LogSoftmax computes log(softmax(z)) with the log-sum-exp trick.
func LogSoftmax(z []float64) []float64 {
	return nn.LogSoftmax(z)
}

// ComputePVals builds the 256-bin probability table of one logistic
// component over 8-bit pixel values.
func ComputePVals(m, invs float64) []float64 {
	return nn.ComputePVals(m, invs)
}

// ComputeMixture builds the 256-bin probability table of a logistic
// mixture from externally normalized weights.
func ComputeMixture(ms, invs, weights []float64, nComps int) []float64 {
	return nn.ComputeMixture(ms, invs, weights, nComps)
}

// Initialization

// Xavier creates a tensor with Xavier/Glorot uniform initialization.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros creates a zero-initialized float32 tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a one-initialized float32 tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
