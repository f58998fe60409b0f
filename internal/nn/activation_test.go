package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raster-ml/raster/internal/backend/cpu"
	"github.com/raster-ml/raster/internal/tensor"
)

func TestReLU_Forward(t *testing.T) {
	backend := cpu.New()

	input, err := tensor.FromSlice([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5}, backend)
	require.NoError(t, err)

	relu := NewReLU[*cpu.CPUBackend]()
	output := relu.Forward(input)

	expected := []float32{0, 0, 0, 0.5, 2}
	assert.Equal(t, expected, output.Data())
	assert.Nil(t, relu.Parameters())
}

func TestSigmoid_Forward(t *testing.T) {
	backend := cpu.New()

	input, err := tensor.FromSlice([]float32{-1, 0, 1}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	sigmoid := NewSigmoid[*cpu.CPUBackend]()
	output := sigmoid.Forward(input)

	data := output.Data()
	assert.InDelta(t, 0.26894, float64(data[0]), 1e-4)
	assert.InDelta(t, 0.5, float64(data[1]), 1e-6)
	assert.InDelta(t, 0.73106, float64(data[2]), 1e-4)
}

func TestSoftplus_Forward(t *testing.T) {
	backend := cpu.New()

	input, err := tensor.FromSlice([]float32{-50, 0, 3, 50}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	softplus := NewSoftplus[*cpu.CPUBackend]()
	output := softplus.Forward(input)

	data := output.Data()
	assert.InDelta(t, 0.0, float64(data[0]), 1e-6, "large negative saturates to 0")
	assert.InDelta(t, math.Log(2), float64(data[1]), 1e-6)
	assert.InDelta(t, math.Log1p(math.Exp(3)), float64(data[2]), 1e-5)
	assert.InDelta(t, 50.0, float64(data[3]), 1e-4, "large positive is linear")
}
