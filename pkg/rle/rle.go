// Package rle run-length encodes label sequences.
//
// A sequence of integer labels is coded as a pair of equal-length arrays:
// the symbols of each run and the run lengths. Runs are maximal, so adjacent
// symbols in the coded form always differ and every run length is at least 1.
package rle

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch = errors.New("mismatched symbol and run arrays")
	ErrBadRun         = errors.New("non-positive run length")
)

// Encode codes labels as (symbols, runs). Both results have one entry per
// maximal run. Empty input yields empty, non-nil results.
func Encode(labels []int32) (syms, runs []int32) {
	syms = make([]int32, 0, len(labels))
	runs = make([]int32, 0, len(labels))
	for i, v := range labels {
		if i > 0 && v == labels[i-1] {
			runs[len(runs)-1]++
			continue
		}
		syms = append(syms, v)
		runs = append(runs, 1)
	}
	return syms, runs
}

// Decode expands (symbols, runs) back into a label sequence.
// It fails if the arrays differ in length or any run is shorter than 1.
func Decode(syms, runs []int32) ([]int32, error) {
	if len(syms) != len(runs) {
		return nil, fmt.Errorf("%w: %d symbols, %d runs", ErrLengthMismatch, len(syms), len(runs))
	}
	var n int
	for i, r := range runs {
		if r < 1 {
			return nil, fmt.Errorf("%w: run %d has length %d", ErrBadRun, i, r)
		}
		n += int(r)
	}
	out := make([]int32, 0, n)
	for i, r := range runs {
		for ; r > 0; r-- {
			out = append(out, syms[i])
		}
	}
	return out, nil
}

// Total returns the decoded length of a run array, i.e. the sum of its runs.
func Total(runs []int32) int {
	var n int
	for _, r := range runs {
		n += int(r)
	}
	return n
}
