package stats

import (
	"math"
	"slices"
)

// RollingQuantile tracks an upper quantile of a series over a sliding
// window. An upper quantile of 0.05 tracks the value exceeded by 5% of the
// recent data.
type RollingQuantile struct {
	upper   float64
	window  int
	minData int
	data    []float64 // ring buffer once the window is full
	next    int
	scratch []float64
}

// NewRollingQuantile creates a tracker over the last window values that
// starts reporting once minData values have been seen. Window and minData
// are clamped to at least 1, upperQuantile to [0, 1].
func NewRollingQuantile(upperQuantile float64, window, minData int) *RollingQuantile {
	return &RollingQuantile{
		upper:   math.Min(math.Max(upperQuantile, 0), 1),
		window:  max(window, 1),
		minData: max(minData, 1),
	}
}

// Update absorbs x and returns the current quantile estimate. The second
// result is false while fewer than minData values have been seen.
func (r *RollingQuantile) Update(x float64) (float64, bool) {
	if len(r.data) < r.window {
		r.data = append(r.data, x)
	} else {
		r.data[r.next] = x
		r.next = (r.next + 1) % r.window
	}
	if len(r.data) < r.minData {
		return 0, false
	}
	r.scratch = append(r.scratch[:0], r.data...)
	slices.Sort(r.scratch)
	return quantile(r.scratch, 1-r.upper), true
}

// quantile returns the q-th quantile of sorted values by linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := q * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
