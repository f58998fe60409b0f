package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SafeSigmoid computes 1 / (1 + exp(-x)), saturating exactly to 0
// below -20 and to 1 above 20 so the exponential never overflows.
func SafeSigmoid(x float64) float64 {
	if x < -20 {
		return 0.0
	}
	if x > 20 {
		return 1.0
	}
	return 1.0 / (1.0 + math.Exp(-x))
}

// LogisticCDF evaluates the logistic distribution CDF at x for the
// given location and scale.
func LogisticCDF(x, loc, scale float64) float64 {
	return SafeSigmoid((x - loc) / scale)
}

// ComputePVals builds the 256-bin probability table of a single
// logistic component over 8-bit pixel values.
//
// Pixel value i occupies the bin [i-0.5, i+0.5] mapped into the
// rescaled coordinate space by (edge - 127.5) / 127.5. Interior bins
// get the CDF difference across their edges; bin 0 gets all mass below
// its upper edge and bin 255 all mass above its lower edge, so the
// table covers the full real line and sums to 1.
//
// Parameters:
//   - m: Component mean in rescaled [-1, 1] units
//   - invs: Log-inverse-scale; the logistic scale is 1/exp(invs)
func ComputePVals(m, invs float64) []float64 {
	scale := 1.0 / math.Exp(invs)
	pvals := make([]float64, 256)
	for i := 0; i < 256; i++ {
		upper := (float64(i) + 0.5 - 127.5) / 127.5
		lower := (float64(i) - 0.5 - 127.5) / 127.5
		switch i {
		case 0:
			pvals[i] = LogisticCDF(upper, m, scale)
		case 255:
			pvals[i] = 1.0 - LogisticCDF(lower, m, scale)
		default:
			pvals[i] = LogisticCDF(upper, m, scale) - LogisticCDF(lower, m, scale)
		}
	}
	return pvals
}

// ComputeMixture builds the 256-bin probability table of a logistic
// mixture as the weighted sum of per-component tables.
//
// The weights are expected to be already normalized (for example the
// softmax of the mixture logits); this function does not renormalize.
func ComputeMixture(ms, invs, weights []float64, nComps int) []float64 {
	if len(ms) < nComps || len(invs) < nComps || len(weights) < nComps {
		panic(fmt.Sprintf("computemixture: parameter slices shorter than n_comps=%d (ms=%d, invs=%d, weights=%d)",
			nComps, len(ms), len(invs), len(weights)))
	}

	mixture := make([]float64, 256)
	for i := 0; i < nComps; i++ {
		floats.AddScaled(mixture, weights[i], ComputePVals(ms[i], invs[i]))
	}
	return mixture
}
