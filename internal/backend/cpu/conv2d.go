package cpu

import (
	"fmt"

	"github.com/raster-ml/raster/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Algorithm:
//  1. Transform input patches into columns (im2col)
//  2. Treat the kernel as a [C_out, C_in*K_h*K_w] matrix
//  3. Matrix-multiply and rearrange into [N, C_out, H_out, W_out]
//
// Im2col converts convolution into a cache-friendly matmul.
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("conv2d: unsupported dtype %s (only float32 supported)", input.DType()))
	}

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]

	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	inputData := input.AsFloat32()
	kernelData := kernel.AsFloat32()
	outputData := output.AsFloat32()

	// Step 1: im2col, one row per output position.
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]float32, colHeight*colWidth)
	im2col(colBuf, inputData, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	// Steps 2+3: kernelData is already laid out as [C_out, C_in*K_h*K_w]
	// row-major, so the matmul is a dot product of kernel rows with colBuf rows.
	// The output index is computed directly in [N, C_out, H_out, W_out] order,
	// folding in the rearrangement step.
	hw := hOut * wOut
	for o := 0; o < cOut; o++ {
		kernelRow := kernelData[o*colWidth : (o+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			colRow := colBuf[j*colWidth : (j+1)*colWidth]
			var sum float32
			for k, kv := range kernelRow {
				sum += kv * colRow[k]
			}
			b := j / hw
			outputData[b*cOut*hw+o*hw+j%hw] = sum
		}
	}

	return output
}

// im2col flattens each receptive-field patch of the input into one row of
// colBuf. Out-of-bounds positions (zero padding) stay zero.
//
// Input: [N, C, H, W]; output: colBuf [N*H_out*W_out, C*K_h*K_w].
func im2col(colBuf, inputData []float32, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	colIdx := 0

	for b := 0; b < n; b++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for y := 0; y < kh; y++ {
						for x := 0; x < kw; x++ {
							ih := hStart + y
							iw := wStart + x
							if ih >= 0 && ih < h && iw >= 0 && iw < w {
								colBuf[bufIdx] = inputData[b*c*h*w+ch*h*w+ih*w+iw]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
