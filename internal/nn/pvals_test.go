package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, SafeSigmoid(0))
	assert.Equal(t, 0.0, SafeSigmoid(-20.001), "saturates below -20")
	assert.Equal(t, 1.0, SafeSigmoid(20.001), "saturates above 20")

	// Symmetry in the non-saturated range.
	assert.InDelta(t, 1.0, SafeSigmoid(3.7)+SafeSigmoid(-3.7), 1e-12)

	// Monotone through the saturation boundary.
	assert.Greater(t, SafeSigmoid(19.9), 0.999)
	assert.Less(t, SafeSigmoid(-19.9), 0.001)
}

func TestLogisticCDF(t *testing.T) {
	// CDF at the location is one half for any scale.
	assert.InDelta(t, 0.5, LogisticCDF(0.3, 0.3, 1.0), 1e-12)
	assert.InDelta(t, 0.5, LogisticCDF(-0.7, -0.7, 0.01), 1e-12)

	// Wider scale flattens the curve.
	narrow := LogisticCDF(0.1, 0.0, 0.01)
	wide := LogisticCDF(0.1, 0.0, 1.0)
	assert.Greater(t, narrow, wide)
}

func TestComputePVals_Distribution(t *testing.T) {
	for _, m := range []float64{-1.0, -0.5, 0.0, 0.5, 1.0} {
		for invs := -5.0; invs <= 5.0; invs += 1.0 {
			pvals := ComputePVals(m, invs)
			require.Len(t, pvals, 256)

			sum := 0.0
			for i, p := range pvals {
				assert.GreaterOrEqual(t, p, 0.0, "m=%v invs=%v bin=%d", m, invs, i)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-4, "m=%v invs=%v", m, invs)
		}
	}
}

func TestComputePVals_PeakTracksMean(t *testing.T) {
	// A narrow component centered on pixel 200 should put its largest
	// bin at 200 in pixel coordinates: m = (200 - 127.5) / 127.5.
	m := (200.0 - 127.5) / 127.5
	pvals := ComputePVals(m, 4.0)

	best := 0
	for i, p := range pvals {
		if p > pvals[best] {
			best = i
		}
	}
	assert.Equal(t, 200, best)
}

func TestComputeMixture_SingleComponent(t *testing.T) {
	ms := []float64{0.25}
	invs := []float64{1.5}
	weights := []float64{1.0}

	mixture := ComputeMixture(ms, invs, weights, 1)
	pvals := ComputePVals(ms[0], invs[0])

	require.Len(t, mixture, 256)
	for i := range mixture {
		assert.Equal(t, pvals[i], mixture[i], "bin %d", i)
	}
}

func TestComputeMixture_WeightedSum(t *testing.T) {
	ms := []float64{-0.5, 0.5}
	invs := []float64{2.0, 2.0}
	weights := []float64{0.3, 0.7}

	mixture := ComputeMixture(ms, invs, weights, 2)

	sum := 0.0
	for _, p := range mixture {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-4, "normalized weights keep total mass 1")

	// Spot-check one bin against the manual weighted sum.
	a := ComputePVals(ms[0], invs[0])
	b := ComputePVals(ms[1], invs[1])
	assert.InDelta(t, 0.3*a[100]+0.7*b[100], mixture[100], 1e-15)
}

func TestComputeMixture_ShortSlices(t *testing.T) {
	assert.Panics(t, func() {
		ComputeMixture([]float64{0}, []float64{0}, []float64{1}, 2)
	})
}
