package ctc

import "fmt"

// Options configure a Kernel.
type Options struct {
	// Topology selects the alignment rules. The zero value is
	// TopologySlack.
	Topology Topology
	// Workers caps the goroutines scoring one batch. Zero or negative
	// selects GOMAXPROCS.
	Workers int
}

// Kernel scores batches under a fixed set of options. The zero value scores
// with default options; Kernels are cheap and safe for concurrent use.
type Kernel struct {
	opts Options
}

// New returns a Kernel with the given options.
func New(opts Options) *Kernel {
	return &Kernel{opts: opts}
}

// Topology reports the kernel's alignment topology.
func (k *Kernel) Topology() Topology {
	return k.opts.Topology
}

// Cost writes each element's total alignment log score into score.
func (k *Kernel) Cost(b *Batch, score []float32) error {
	if err := k.validate(b); err != nil {
		return err
	}
	if err := checkLen("score", len(score), b.NBatch); err != nil {
		return err
	}
	k.dispatch(&job{batch: b, mode: opCost, topo: k.opts.Topology, score: score})
	return nil
}

// Grad writes scores exactly as Cost does and fills grad with
// d(score)/d(logprob), laid out like the input log probabilities. Rows of
// elements scoring -Inf are zero.
func (k *Kernel) Grad(b *Batch, score, grad []float32) error {
	if err := k.validate(b); err != nil {
		return err
	}
	if err := checkLen("score", len(score), b.NBatch); err != nil {
		return err
	}
	if err := checkLen("grad", len(grad), b.NBlk*b.NBatch*b.NState); err != nil {
		return err
	}
	k.dispatch(&job{batch: b, mode: opGrad, topo: k.opts.Topology, score: score, grad: grad})
	return nil
}

// Align writes each element's best single alignment score into score and
// the aligned network symbol of every block into states, laid out
// states[t*NBatch+b]. Elements with no alignment score -Inf and get -1
// states.
func (k *Kernel) Align(b *Batch, score []float32, states []int32) error {
	if err := k.validate(b); err != nil {
		return err
	}
	if err := checkLen("score", len(score), b.NBatch); err != nil {
		return err
	}
	if err := checkLen("states", len(states), b.NBlk*b.NBatch); err != nil {
		return err
	}
	k.dispatch(&job{batch: b, mode: opAlign, topo: k.opts.Topology, score: score, states: states})
	return nil
}

func checkLen(name string, got, want int) error {
	if got < want {
		return fmt.Errorf("%w: %s length %d, want at least %d", ErrBufferTooSmall, name, got, want)
	}
	return nil
}

// validate rejects malformed batches before any scoring work starts.
func (k *Kernel) validate(b *Batch) error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrInvalidShape)
	}
	minState := 1
	if k.opts.Topology == TopologySlack {
		// The stay symbol occupies the last index, so at least one
		// more is needed for targets.
		minState = 2
	}
	switch {
	case b.NState < minState:
		return fmt.Errorf("%w: nstate %d, want at least %d for %s topology", ErrInvalidShape, b.NState, minState, k.opts.Topology)
	case b.NBlk < 1 || b.NBatch < 1:
		return fmt.Errorf("%w: nblk %d, nbatch %d", ErrInvalidShape, b.NBlk, b.NBatch)
	case b.MaxSeqLen < 0:
		return fmt.Errorf("%w: negative maxseqlen %d", ErrInvalidShape, b.MaxSeqLen)
	}
	if want := b.NBlk * b.NBatch * b.NState; len(b.LogProb) != want {
		return fmt.Errorf("%w: logprob length %d, want %d", ErrInvalidShape, len(b.LogProb), want)
	}
	if want := b.NBatch * b.MaxSeqLen; len(b.Seqs) != want || len(b.RLE) != want {
		return fmt.Errorf("%w: seqs length %d, rle length %d, want %d", ErrInvalidShape, len(b.Seqs), len(b.RLE), want)
	}
	if len(b.SeqLen) != b.NBatch {
		return fmt.Errorf("%w: seqlen length %d, want %d", ErrInvalidShape, len(b.SeqLen), b.NBatch)
	}
	return k.validateTargets(b)
}

// validateTargets walks every used target entry. Out-of-range symbols and
// non-positive runs are caller bugs, not merely unsatisfiable targets, and
// fail the whole call.
func (k *Kernel) validateTargets(b *Batch) error {
	maxSym := int32(b.NState)
	if k.opts.Topology == TopologySlack {
		maxSym-- // stay symbol is reserved
	}
	for elem := 0; elem < b.NBatch; elem++ {
		n := b.SeqLen[elem]
		if n < 0 || int(n) > b.MaxSeqLen {
			return fmt.Errorf("%w: element %d: seqlen %d outside [0, %d]", ErrInvalidTarget, elem, n, b.MaxSeqLen)
		}
		seq, runs := b.target(elem)
		for i := range seq {
			if seq[i] < 0 || seq[i] >= maxSym {
				return fmt.Errorf("%w: element %d: symbol %d at position %d outside [0, %d)", ErrInvalidTarget, elem, seq[i], i, maxSym)
			}
			if runs[i] < 1 {
				return fmt.Errorf("%w: element %d: run length %d at position %d", ErrInvalidTarget, elem, runs[i], i)
			}
		}
	}
	return nil
}

var defaultKernel = New(Options{})

// Cost scores b with default options. See Kernel.Cost.
func Cost(b *Batch, score []float32) error {
	return defaultKernel.Cost(b, score)
}

// Grad scores and differentiates b with default options. See Kernel.Grad.
func Grad(b *Batch, score, grad []float32) error {
	return defaultKernel.Grad(b, score, grad)
}

// Align recovers best alignments for b with default options. See
// Kernel.Align.
func Align(b *Batch, score []float32, states []int32) error {
	return defaultKernel.Align(b, score, states)
}
