// Package ctc scores run-length encoded target sequences against the block
// outputs of a basecall network and differentiates that score.
//
// A network emits one categorical distribution over NState symbols for each
// of NBlk signal blocks. A target is a run-length encoded sequence: pairs
// (symbol, run) meaning the symbol is held for that many consecutive blocks.
// The score of a batch element is the log probability that the network
// output explains its target, summed over every block-to-target alignment
// allowed by the topology. Cost computes the score, Grad additionally
// computes d(score)/d(logprob), and Align recovers the single best alignment
// instead of summing.
//
// # Input conventions
//
// The network output is passed as a flat []float32 of normalised
// log probabilities, laid out block-major:
//
//	logprob[(t*NBatch + b)*NState + s]
//
// for block t, batch element b and symbol s. Outputs that are raw logits can
// be normalised in place with LogSoftmaxLattice first. Because inputs are
// already normalised, the gradient returned by Grad is the posterior
// probability that block t emits symbol s, which makes each gradient block
// row sum to one wherever the score is finite.
//
// Targets are padded int32 matrices, also row-major: element b occupies
// Seqs[b*MaxSeqLen : b*MaxSeqLen+SeqLen[b]] and likewise in RLE.
//
// # Topologies
//
// TopologySlack, the default, reserves the last symbol index (NState-1) as a
// stay symbol that no target may use. A target pair (s, r) occupies exactly
// r consecutive blocks of s; between runs, before the first and after the
// last, the alignment may hold the stay symbol for any number of blocks.
// When two adjacent runs carry the same symbol at least one stay block must
// separate them, otherwise the run boundary would be unobservable. With
// every run equal to one block this is the classic blank-separated CTC
// chain, except that a symbol never stretches across extra blocks; duration
// is exactly what the run length encodes.
//
// TopologyExact has no stay symbol: the runs must tile the NBlk blocks
// precisely, so a target is either infeasible or admits the single alignment
// its run lengths dictate.
//
// # Failure behaviour
//
// Malformed shapes, out-of-range symbols and non-positive run lengths are
// caller bugs and reported as errors before any scoring happens. A target
// that is merely unsatisfiable, such as run lengths summing past NBlk, is
// not an error: its score is -Inf, its gradient zero and its alignment
// states -1, without disturbing the other batch elements.
package ctc
