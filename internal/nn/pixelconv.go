package nn

import (
	"fmt"

	"github.com/raster-ml/raster/internal/tensor"
)

// PixelConv2D is a causally masked 2D convolutional layer for
// autoregressive image models.
//
// The layer behaves like a regular Conv2D except that a fixed binary mask
// is multiplied into the weight on every forward pass, so each output
// pixel only ever depends on pixels above it, pixels to its left on the
// same row, and (depending on the mask type) color channels earlier in
// the fixed R, G, B ordering.
//
// The mask type encodes which color channel this layer predicts and
// whether the layer may see its own channel at the center pixel:
//
//	"ra", "ga", "ba": type A masks for the R, G, B channels. The center
//	  tap of the kernel is blocked for the layer's own channel group.
//	  Used for the first layer of a network, where the input is the
//	  raw image and a channel must not see itself.
//	"rb", "gb", "bb": type B masks. The center tap is allowed for the
//	  layer's own channel group. Used for all subsequent layers, where
//	  the input is feature maps already causally restricted.
//
// Input channels are treated as three contiguous groups of equal size
// (R features, G features, B features), so inChannels must be divisible
// by 3. The G mask sees the R group, the B mask sees R and G, and the R
// mask sees no channel groups (only spatial context).
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [filters, in_channels, kernel_size, kernel_size]
// Output shape: [batch, filters, out_h, out_w]
type PixelConv2D[B tensor.Backend] struct {
	name       string
	ptype      string
	inChannels int
	filters    int
	kernelSize int
	stride     int
	padding    int
	useBias    bool

	weight *Parameter[B] // [filters, in_channels, k, k]
	bias   *Parameter[B] // [filters] or nil
	mask   *tensor.Tensor[float32, B]

	backend B
}

// NewPixelConv2D creates a new causally masked convolutional layer.
//
// Parameters:
//   - name: Layer name; parameters are registered as name+".weight" and
//     name+".bias"
//   - ptype: Mask type, one of "ra", "ga", "ba", "rb", "gb", "bb"
//   - inChannels: Number of input channels (must be divisible by 3)
//   - filters: Number of output channels
//   - kernelSize: Square kernel side length (must be odd, so the mask
//     has a well-defined center tap)
//   - stride: Stride for convolution
//   - padding: Zero padding applied to the input; use kernelSize/2 for
//     "same" output size at stride 1
//   - useBias: Whether to include a bias term
//   - backend: Backend for computation
//
// Weights use Xavier initialization and the bias starts at zero. The
// mask is built once here and never trained.
func NewPixelConv2D[B tensor.Backend](
	name, ptype string,
	inChannels, filters int,
	kernelSize, stride, padding int,
	useBias bool,
	backend B,
) *PixelConv2D[B] {
	if !validPType(ptype) {
		panic(fmt.Sprintf("pixelconv2d: invalid mask type %q (want one of ra, ga, ba, rb, gb, bb)", ptype))
	}
	if inChannels <= 0 || inChannels%3 != 0 {
		panic(fmt.Sprintf("pixelconv2d: in_channels %d must be positive and divisible by 3", inChannels))
	}
	if filters <= 0 {
		panic(fmt.Sprintf("pixelconv2d: invalid filters %d", filters))
	}
	if kernelSize <= 0 || kernelSize%2 == 0 {
		panic(fmt.Sprintf("pixelconv2d: kernel size %d must be positive and odd", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("pixelconv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("pixelconv2d: invalid padding %d", padding))
	}

	weightShape := tensor.Shape{filters, inChannels, kernelSize, kernelSize}

	fanIn := inChannels * kernelSize * kernelSize
	fanOut := filters * kernelSize * kernelSize
	weight := Xavier(fanIn, fanOut, weightShape, backend)
	weightParam := NewParameter(name+".weight", weight)

	var biasParam *Parameter[B]
	if useBias {
		bias := Zeros(tensor.Shape{filters}, backend)
		biasParam = NewParameter(name+".bias", bias)
	}

	mask := buildCausalMask[B](ptype, inChannels, filters, kernelSize, backend)

	return &PixelConv2D[B]{
		name:       name,
		ptype:      ptype,
		inChannels: inChannels,
		filters:    filters,
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		useBias:    useBias,
		weight:     weightParam,
		bias:       biasParam,
		mask:       mask,
		backend:    backend,
	}
}

func validPType(ptype string) bool {
	switch ptype {
	case "ra", "ga", "ba", "rb", "gb", "bb":
		return true
	}
	return false
}

// buildCausalMask constructs the binary mask for a given mask type.
//
// Mask shape matches the weight: [filters, inChannels, k, k]. An entry
// is zeroed when the kernel tap (k1, k2) lies below the center row, to
// the right of the center on the center row, or when the input channel
// belongs to a color group at or past the one this mask type predicts.
// Type A masks additionally zero the center tap for the layer's own
// channel group.
func buildCausalMask[B tensor.Backend](
	ptype string,
	inChannels, filters, kernelSize int,
	backend B,
) *tensor.Tensor[float32, B] {
	group := inChannels / 3
	var filtPrev, filtThres int
	switch ptype[0] {
	case 'r':
		filtPrev, filtThres = 0, group
	case 'g':
		filtPrev, filtThres = group, 2*group
	case 'b':
		filtPrev, filtThres = 2*group, 3*group
	}
	typeA := ptype[1] == 'a'
	mid := kernelSize / 2

	shape := tensor.Shape{filters, inChannels, kernelSize, kernelSize}
	data := make([]float32, shape.NumElements())
	idx := 0
	for f := 0; f < filters; f++ {
		for c := 0; c < inChannels; c++ {
			for k1 := 0; k1 < kernelSize; k1++ {
				for k2 := 0; k2 < kernelSize; k2++ {
					v := float32(1)
					switch {
					case k1 > mid:
						v = 0
					case k1 == mid && k2 > mid:
						v = 0
					case c >= filtThres:
						v = 0
					case typeA && c >= filtPrev && k1 == mid && k2 == mid:
						// c < filtThres here, so this is the layer's own group.
						v = 0
					}
					data[idx] = v
					idx++
				}
			}
		}
	}

	mask, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		panic(fmt.Sprintf("pixelconv2d: building mask: %v", err))
	}
	return mask
}

// Forward performs the masked forward pass.
//
// The mask is applied to the weight on every call, so the convolution
// stays causal even after weight updates.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, filters, out_h, out_w].
func (p *PixelConv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("pixelconv2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != p.inChannels {
		panic(fmt.Sprintf("pixelconv2d: input channels %d != expected %d", inputShape[1], p.inChannels))
	}

	maskedWeight := p.weight.Tensor().Mul(p.mask)

	outputRaw := p.backend.Conv2D(
		input.Raw(),
		maskedWeight.Raw(),
		p.stride,
		p.padding,
	)
	output := tensor.New[float32, B](outputRaw, p.backend)

	if p.useBias {
		biasReshaped := p.bias.Tensor().Reshape(1, p.filters, 1, 1)
		output = output.Add(biasReshaped)
	}

	return output
}

// Parameters returns all trainable parameters. The mask is fixed and
// not included.
func (p *PixelConv2D[B]) Parameters() []*Parameter[B] {
	if p.useBias {
		return []*Parameter[B]{p.weight, p.bias}
	}
	return []*Parameter[B]{p.weight}
}

// Mask returns the fixed binary causality mask,
// shaped [filters, in_channels, k, k].
func (p *PixelConv2D[B]) Mask() *tensor.Tensor[float32, B] {
	return p.mask
}

// Name returns the layer name.
func (p *PixelConv2D[B]) Name() string {
	return p.name
}

// PType returns the mask type string.
func (p *PixelConv2D[B]) PType() string {
	return p.ptype
}

// Filters returns the number of output channels.
func (p *PixelConv2D[B]) Filters() int {
	return p.filters
}

// InChannels returns the number of input channels.
func (p *PixelConv2D[B]) InChannels() int {
	return p.inChannels
}

// KernelSize returns the square kernel side length.
func (p *PixelConv2D[B]) KernelSize() int {
	return p.kernelSize
}

// String returns a string representation of the layer.
func (p *PixelConv2D[B]) String() string {
	return fmt.Sprintf("PixelConv2D(name=%s, ptype=%s, in_channels=%d, filters=%d, kernel_size=%d, stride=%d, padding=%d, bias=%v)",
		p.name, p.ptype, p.inChannels, p.filters, p.kernelSize, p.stride, p.padding, p.useBias)
}
