package nn

import (
	"fmt"

	"github.com/raster-ml/raster/internal/tensor"
)

// ConvBlock bundles three masked convolutions, one per color channel.
//
// Each PixelConv2D predicts features for one channel group (R, G, B),
// the three outputs are ReLU'd and concatenated on the channel axis.
// The block uses type B masks ("rb", "gb", "bb"), or type A masks
// ("ra", "ga", "ba") when isFirst is set and the input is a raw image
// whose channels must not see themselves at the center pixel.
//
// Convolutions run at stride 1 with kernelSize/2 padding, so spatial
// dimensions are preserved.
//
// Input shape:  [batch, in_channels, height, width]
// Output shape: [batch, 3*filters, height, width]
type ConvBlock[B tensor.Backend] struct {
	name       string
	inChannels int
	filters    int
	kernelSize int

	convR *PixelConv2D[B]
	convG *PixelConv2D[B]
	convB *PixelConv2D[B]
	relu  *ReLU[B]

	backend B
}

// NewConvBlock creates a triple of masked convolutions with shared
// geometry.
//
// Parameters:
//   - name: Block name; each convolution is named name+"."+ptype, so
//     parameters come out as e.g. name+".rb.weight"
//   - inChannels: Number of input channels (must be divisible by 3)
//   - filters: Output channels per color group; the block outputs
//     3*filters channels
//   - kernelSize: Square kernel side length
//   - isFirst: Use type A masks (first layer on a raw image)
//   - backend: Backend for computation
func NewConvBlock[B tensor.Backend](
	name string,
	inChannels, filters, kernelSize int,
	isFirst bool,
	backend B,
) *ConvBlock[B] {
	variant := "b"
	if isFirst {
		variant = "a"
	}
	padding := kernelSize / 2

	conv := func(ptype string) *PixelConv2D[B] {
		return NewPixelConv2D(name+"."+ptype, ptype, inChannels, filters, kernelSize, 1, padding, true, backend)
	}

	return &ConvBlock[B]{
		name:       name,
		inChannels: inChannels,
		filters:    filters,
		kernelSize: kernelSize,
		convR:      conv("r" + variant),
		convG:      conv("g" + variant),
		convB:      conv("b" + variant),
		relu:       NewReLU[B](),
		backend:    backend,
	}
}

// Forward runs the three masked convolutions and concatenates their
// activations on the channel axis, R group first, then G, then B.
func (cb *ConvBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	r := cb.relu.Forward(cb.convR.Forward(input))
	g := cb.relu.Forward(cb.convG.Forward(input))
	b := cb.relu.Forward(cb.convB.Forward(input))
	return tensor.Cat([]*tensor.Tensor[float32, B]{r, g, b}, 1)
}

// Parameters returns the trainable parameters of all three convolutions.
func (cb *ConvBlock[B]) Parameters() []*Parameter[B] {
	params := cb.convR.Parameters()
	params = append(params, cb.convG.Parameters()...)
	params = append(params, cb.convB.Parameters()...)
	return params
}

// OutChannels returns the number of output channels (3*filters).
func (cb *ConvBlock[B]) OutChannels() int {
	return 3 * cb.filters
}

// Name returns the block name.
func (cb *ConvBlock[B]) Name() string {
	return cb.name
}

// String returns a string representation of the block.
func (cb *ConvBlock[B]) String() string {
	return fmt.Sprintf("ConvBlock(name=%s, in_channels=%d, filters=%d, kernel_size=%d)",
		cb.name, cb.inChannels, cb.filters, cb.kernelSize)
}

// ResNetBlock is a residual bottleneck of three ConvBlocks.
//
// The layout follows the classic bottleneck: a 1x1 reduction, a kxk
// spatial convolution, a 1x1 expansion, with the block input added to
// the result. All three stages keep causal type B masks, so the
// residual path never widens the receptive field past the raster order.
//
// The expansion must restore the input width: 3*f3 == inChannels.
type ResNetBlock[B tensor.Backend] struct {
	name       string
	inChannels int

	reduce *ConvBlock[B]
	conv   *ConvBlock[B]
	expand *ConvBlock[B]
}

// NewResNetBlock creates a residual bottleneck block.
//
// The three stages are named "res"+name+"_branch_a-1x1",
// "_branch_b-<k>x<k>" and "_branch_c-1x1", so with name "2a" the
// reduction's R convolution registers "res2a_branch_a-1x1.rb.weight".
//
// Parameters:
//   - name: Block name, conventionally stage number plus block letter
//     ("2a", "2b", ...)
//   - inChannels: Number of input channels (must be divisible by 3)
//   - f1, f2, f3: Per-color-group filter counts for the reduction,
//     spatial, and expansion stages; 3*f3 must equal inChannels
//   - kernelSize: Kernel side length of the middle spatial stage
//   - backend: Backend for computation
func NewResNetBlock[B tensor.Backend](
	name string,
	inChannels int,
	f1, f2, f3 int,
	kernelSize int,
	backend B,
) *ResNetBlock[B] {
	if 3*f3 != inChannels {
		panic(fmt.Sprintf("resnetblock: residual shape mismatch: 3*f3=%d != in_channels=%d", 3*f3, inChannels))
	}

	base := "res" + name + "_branch"

	return &ResNetBlock[B]{
		name:       name,
		inChannels: inChannels,
		reduce:     NewConvBlock(base+"_a-1x1", inChannels, f1, 1, false, backend),
		conv:       NewConvBlock(fmt.Sprintf("%s_b-%dx%d", base, kernelSize, kernelSize), 3*f1, f2, kernelSize, false, backend),
		expand:     NewConvBlock(base+"_c-1x1", 3*f2, f3, 1, false, backend),
	}
}

// Forward runs the bottleneck and adds the block input to its output.
func (rb *ResNetBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := rb.reduce.Forward(input)
	out = rb.conv.Forward(out)
	out = rb.expand.Forward(out)
	return out.Add(input)
}

// Parameters returns the trainable parameters of all three stages.
func (rb *ResNetBlock[B]) Parameters() []*Parameter[B] {
	params := rb.reduce.Parameters()
	params = append(params, rb.conv.Parameters()...)
	params = append(params, rb.expand.Parameters()...)
	return params
}

// Name returns the block name.
func (rb *ResNetBlock[B]) Name() string {
	return rb.name
}

// String returns a string representation of the block.
func (rb *ResNetBlock[B]) String() string {
	return fmt.Sprintf("ResNetBlock(name=%s, in_channels=%d, filters=[%d, %d, %d])",
		rb.name, rb.inChannels, rb.reduce.filters, rb.conv.filters, rb.expand.filters)
}

// FinalBlock is the terminal projection of the network: a single
// ConvBlock-shaped triple of type B convolutions, ReLU'd and
// concatenated, without a residual connection, so the output width is
// free to differ from the input. With filters set to 3*K it projects
// onto the 9*K channels a logistic mixture head needs.
type FinalBlock[B tensor.Backend] struct {
	name  string
	inner *ConvBlock[B]
}

// NewFinalBlock creates a terminal projection block. Convolutions are
// named "final"+name+"."+ptype; kernelSize 1 gives the original 1x1
// head.
func NewFinalBlock[B tensor.Backend](
	name string,
	inChannels, filters, kernelSize int,
	backend B,
) *FinalBlock[B] {
	return &FinalBlock[B]{
		name:  name,
		inner: NewConvBlock("final"+name, inChannels, filters, kernelSize, false, backend),
	}
}

// Forward runs the conv triple without a residual connection.
func (fb *FinalBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return fb.inner.Forward(input)
}

// Parameters returns the trainable parameters of the conv triple.
func (fb *FinalBlock[B]) Parameters() []*Parameter[B] {
	return fb.inner.Parameters()
}

// OutChannels returns the number of output channels (3*filters).
func (fb *FinalBlock[B]) OutChannels() int {
	return fb.inner.OutChannels()
}

// Name returns the block name.
func (fb *FinalBlock[B]) Name() string {
	return fb.name
}

// String returns a string representation of the block.
func (fb *FinalBlock[B]) String() string {
	return fmt.Sprintf("FinalBlock(name=%s, in_channels=%d, filters=%d, kernel_size=%d)",
		fb.name, fb.inner.inChannels, fb.inner.filters, fb.inner.kernelSize)
}
