// Package flipflop implements flip-flop coding of base sequences.
//
// Flip-flop models double the alphabet: each base has a "flip" state and a
// "flop" state, and consecutive identical bases alternate between the two.
// A run such as AAA is coded flip-flop-flip, which keeps repeated bases
// distinguishable from a single held state in the network output.
package flipflop

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultAlphabet is the canonical base ordering for nucleotide models.
const DefaultAlphabet = "ACGT"

var ErrBadStateCount = errors.New("invalid flip-flop state count")

// FlopMask reports which labels take the flop state: entry n is true when
// labels[n] sits at an odd (zero-based) position within a run of identical
// labels.
//
// For labels 1 3 2 3 3 3 3 1 1 the mask marks positions 4, 6 and 8.
func FlopMask(labels []int32) []bool {
	mask := make([]bool, len(labels))
	run := 0
	for i, v := range labels {
		if i > 0 && v == labels[i-1] {
			run++
		} else {
			run = 0
		}
		mask[i] = run%2 == 1
	}
	return mask
}

// Code returns the flip-flop coded labels: flop positions are offset by
// nbase, flip positions pass through. Labels must lie in [0, nbase).
//
// For labels 1 3 2 3 3 3 3 1 1 with nbase 4 the code is 1 3 2 3 7 3 7 1 5.
func Code(labels []int32, nbase int) []int32 {
	out := make([]int32, len(labels))
	run := 0
	for i, v := range labels {
		if i > 0 && v == labels[i-1] {
			run++
		} else {
			run = 0
		}
		if run%2 == 1 {
			v += int32(nbase)
		}
		out[i] = v
	}
	return out
}

// PathString converts a flip-flop state path into a basecall. A base is
// emitted at every transition between distinct states; includeFirst controls
// whether the source state of the first transition is also emitted.
// Path values must lie in [0, 2*len(alphabet)).
func PathString(path []int32, alphabet string, includeFirst bool) (string, error) {
	if alphabet == "" {
		return "", errors.New("empty alphabet")
	}
	doubled := alphabet + alphabet
	var sb strings.Builder
	for i, v := range path {
		if int(v) < 0 || int(v) >= len(doubled) {
			return "", fmt.Errorf("path state %d out of range [0,%d) at position %d", v, len(doubled), i)
		}
		if i == 0 {
			if includeFirst {
				sb.WriteByte(doubled[v])
			}
			continue
		}
		if v != path[i-1] {
			sb.WriteByte(doubled[v])
		}
	}
	return sb.String(), nil
}

// NStates returns the transition-state count of a flip-flop network over an
// alphabet of nbase letters: 2*nbase*(nbase+1).
func NStates(nbase int) int {
	return 2 * nbase * (nbase + 1)
}

// NBases inverts NStates, failing when nstates does not correspond to a
// whole alphabet.
func NBases(nstates int) (int, error) {
	for b := 1; 2*b*(b+1) <= nstates; b++ {
		if 2*b*(b+1) == nstates {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrBadStateCount, nstates)
}
