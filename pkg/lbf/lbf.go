// Package lbf implements the Lattice Batch File format.
//
// LBF is a single-file, memory-mappable container for scored basecaller
// batches: network log probabilities, run-length targets and the scores or
// alignments computed from them. It describes data only and never implies
// how the batch was produced.
package lbf

// LBF global constants must never change.
const (
	// Magic is the file magic for all LBF containers, encoded as "LBF\0".
	Magic = "LBF\x00"

	// CurrentMajor changes only on breaking format changes.
	CurrentMajor uint16 = 1

	// CurrentMinor may add new optional sections or fields.
	CurrentMinor uint16 = 0

	// FlagNormalised marks log probability rows as log-softmax normalised.
	FlagNormalised uint64 = 1 << 0
)

type SectionType uint32

const (
	SectionManifest SectionType = 0x0001
	SectionDims     SectionType = 0x0002
	SectionLogProb  SectionType = 0x0003
	SectionTargets  SectionType = 0x0004
	SectionScores   SectionType = 0x0005
	SectionStates   SectionType = 0x0006
)

type Header struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	FileSize         uint64
	Flags            uint64
}

type Section struct {
	Type    uint32
	Version uint32
	Offset  uint64
	Size    uint64
}

func (h *Header) Valid() bool {
	if string(h.Magic[:]) != Magic {
		return false
	}
	if h.HeaderSize < lbfHeaderSize {
		return false
	}
	return true
}

func (h *Header) Compatible() bool {
	return h.Major == CurrentMajor
}

func (s *Section) End() uint64 {
	return s.Offset + s.Size
}
