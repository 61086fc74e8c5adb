// Package stats provides the signal statistics used around the basecall
// training loop: robust scaling, studentisation and start-time priors.
package stats

import (
	"math"
	"slices"

	"github.com/Linkrw12/taiyaki/internal/simd"
)

// MadScale scales the median absolute deviation to be a consistent
// estimator of the standard deviation of a normal distribution.
const MadScale = 1.4826

// MedMad returns the median of xs and the scaled median absolute deviation,
// i.e. the median of |x - median|. A non-positive factor selects MadScale.
// Both results are NaN for empty input.
func MedMad(xs []float32, factor float32) (med, mad float32) {
	if factor <= 0 {
		factor = MadScale
	}
	if len(xs) == 0 {
		nan := float32(math.NaN())
		return nan, nan
	}
	scratch := make([]float32, len(xs))
	copy(scratch, xs)
	med = median(scratch)
	for i, v := range xs {
		scratch[i] = float32(math.Abs(float64(v - med)))
	}
	mad = factor * median(scratch)
	return med, mad
}

// Mad returns the scaled median absolute deviation of xs.
// A non-positive factor selects MadScale.
func Mad(xs []float32, factor float32) float32 {
	_, mad := MedMad(xs, factor)
	return mad
}

// median sorts scratch in place and returns its median, averaging the two
// middle elements for even lengths.
func median(scratch []float32) float32 {
	slices.Sort(scratch)
	n := len(scratch)
	if n%2 == 1 {
		return scratch[n/2]
	}
	return float32((float64(scratch[n/2-1]) + float64(scratch[n/2])) / 2)
}

// Studentise shifts and scales xs in place to zero mean and unit standard
// deviation. A zero-variance input is only shifted.
func Studentise(xs []float32) {
	if len(xs) == 0 {
		return
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, v := range xs {
		d := float64(v) - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(xs)))
	if std <= 0 {
		std = 1
	}
	scale := float32(1 / std)
	simd.Affine(xs, scale, float32(-mean/std))
}

// GeometricPrior returns log probabilities for a start time with a geometric
// distribution of mean m over n positions. With rev the distribution is
// reversed, putting its mass at the end.
func GeometricPrior(n int, m float64, rev bool) []float32 {
	p := 1 / (1 + m)
	logP := math.Log(p)
	logQ := math.Log1p(-p)
	prior := make([]float32, n)
	for i := range prior {
		prior[i] = float32(logP + float64(i)*logQ)
	}
	if rev {
		slices.Reverse(prior)
	}
	return prior
}
