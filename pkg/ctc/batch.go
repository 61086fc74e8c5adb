package ctc

import "fmt"

// Batch carries one network output tensor and its targets through the
// scoring operations. All slices use the layouts described in the package
// documentation. The struct is read-only to the kernel, so one Batch may be
// scored from several goroutines at once.
type Batch struct {
	// LogProb holds NBlk*NBatch*NState normalised log probabilities,
	// block-major.
	LogProb []float32

	NState int
	NBlk   int
	NBatch int

	// Seqs and RLE hold NBatch*MaxSeqLen entries each; row b is padded
	// beyond SeqLen[b] and the padding is never read.
	Seqs []int32
	RLE  []int32

	// SeqLen gives the used length of each target row.
	SeqLen []int32

	MaxSeqLen int
}

// lpIndex returns the LogProb offset of (block t, element b, symbol 0).
func (b *Batch) lpIndex(t, elem int) int {
	return (t*b.NBatch + elem) * b.NState
}

// target returns the used portion of element elem's symbol and run rows.
func (b *Batch) target(elem int) (seq, runs []int32) {
	off := elem * b.MaxSeqLen
	n := int(b.SeqLen[elem])
	return b.Seqs[off : off+n], b.RLE[off : off+n]
}

// PackTargets flattens per-element target slices into the padded matrices a
// Batch wants. Rows shorter than the longest are padded with zeros.
func PackTargets(seqs, runs [][]int32) (flatSeqs, flatRuns []int32, seqLen []int32, maxSeqLen int, err error) {
	if len(seqs) != len(runs) {
		return nil, nil, nil, 0, fmt.Errorf("%w: %d symbol rows, %d run rows", ErrInvalidTarget, len(seqs), len(runs))
	}
	for i := range seqs {
		if len(seqs[i]) != len(runs[i]) {
			return nil, nil, nil, 0, fmt.Errorf("%w: element %d has %d symbols, %d runs", ErrInvalidTarget, i, len(seqs[i]), len(runs[i]))
		}
		maxSeqLen = max(maxSeqLen, len(seqs[i]))
	}
	n := len(seqs)
	flatSeqs = make([]int32, n*maxSeqLen)
	flatRuns = make([]int32, n*maxSeqLen)
	seqLen = make([]int32, n)
	for i := range seqs {
		copy(flatSeqs[i*maxSeqLen:], seqs[i])
		copy(flatRuns[i*maxSeqLen:], runs[i])
		seqLen[i] = int32(len(seqs[i]))
	}
	return flatSeqs, flatRuns, seqLen, maxSeqLen, nil
}
