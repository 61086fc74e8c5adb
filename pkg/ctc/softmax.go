package ctc

import (
	"fmt"
	"math"

	"github.com/Linkrw12/taiyaki/internal/simd"
)

// LogSoftmaxLattice normalises raw network logits into the log
// probabilities the scoring operations expect. Each (block, element) row is
// normalised in place; the accumulation runs in float64 so wide rows do not
// lose mass.
func LogSoftmaxLattice(logits []float32, nstate, nblk, nbatch int) error {
	if nstate < 1 || nblk < 1 || nbatch < 1 {
		return fmt.Errorf("%w: nstate %d, nblk %d, nbatch %d", ErrInvalidShape, nstate, nblk, nbatch)
	}
	if want := nblk * nbatch * nstate; len(logits) != want {
		return fmt.Errorf("%w: logits length %d, want %d", ErrInvalidShape, len(logits), want)
	}
	for off := 0; off < len(logits); off += nstate {
		row := logits[off : off+nstate]
		maxv := simd.Max(row)
		var sum float64
		for _, x := range row {
			sum += math.Exp(float64(x - maxv))
		}
		lse := float64(maxv) + math.Log(sum)
		simd.Affine(row, 1, float32(-lse))
	}
	return nil
}
