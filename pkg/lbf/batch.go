package lbf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Linkrw12/taiyaki/pkg/ctc"
)

// BatchFile bundles one batch with its optional outputs for storage.
//
// On disk the dims section fixes the tensor shapes, the targets section
// concatenates the symbol matrix, the run matrix and the length vector, and
// the scores, states and manifest sections are present only when their
// fields are non-nil.
type BatchFile struct {
	Batch    *ctc.Batch
	Scores   []float32 // per-element scores
	States   []int32   // per-block aligned symbols
	Manifest []byte    // caller-defined metadata, stored verbatim
	Flags    uint64
}

const lbfDimsSize = 16

type dims struct {
	nstate, nblk, nbatch, maxSeqLen int
}

func (d dims) logProbLen() int { return d.nblk * d.nbatch * d.nstate }
func (d dims) targetLen() int  { return d.nbatch * d.maxSeqLen }
func (d dims) statesLen() int  { return d.nblk * d.nbatch }

func encodeDims(d dims) []byte {
	buf := make([]byte, lbfDimsSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(d.nstate))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(d.nblk))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(d.nbatch))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(d.maxSeqLen))
	return buf
}

func decodeDims(src []byte) (dims, error) {
	if len(src) != lbfDimsSize {
		return dims{}, fmt.Errorf("%w: dims section size %d", ErrCorruptFile, len(src))
	}
	var vals [4]int
	for i := range vals {
		v := binary.LittleEndian.Uint32(src[4*i:])
		if v > math.MaxInt32 {
			return dims{}, fmt.Errorf("%w: dimension %d out of range", ErrCorruptFile, i)
		}
		vals[i] = int(v)
	}
	d := dims{nstate: vals[0], nblk: vals[1], nbatch: vals[2], maxSeqLen: vals[3]}
	// Element counts must also stay indexable once multiplied out.
	if uint64(d.nstate)*uint64(d.nblk)*uint64(d.nbatch) > math.MaxInt32 ||
		uint64(d.nbatch)*uint64(d.maxSeqLen) > math.MaxInt32 {
		return dims{}, fmt.Errorf("%w: dimensions overflow", ErrCorruptFile)
	}
	return d, nil
}

func encodeF32(xs []float32) []byte {
	buf := make([]byte, 4*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeF32(src []byte) []float32 {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return out
}

func encodeI32(xs []int32) []byte {
	buf := make([]byte, 4*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(x))
	}
	return buf
}

func decodeI32(src []byte) []int32 {
	out := make([]int32, len(src)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return out
}

func encodeTargets(b *ctc.Batch) []byte {
	buf := make([]byte, 0, 4*(len(b.Seqs)+len(b.RLE)+len(b.SeqLen)))
	buf = append(buf, encodeI32(b.Seqs)...)
	buf = append(buf, encodeI32(b.RLE)...)
	buf = append(buf, encodeI32(b.SeqLen)...)
	return buf
}

// WriteBatchFile stores bf at path, replacing any existing file.
func WriteBatchFile(path string, bf *BatchFile) error {
	if bf == nil || bf.Batch == nil {
		return errors.New("lbf: nil batch")
	}
	b := bf.Batch
	d := dims{nstate: b.NState, nblk: b.NBlk, nbatch: b.NBatch, maxSeqLen: b.MaxSeqLen}
	if d.nstate < 1 || d.nblk < 1 || d.nbatch < 1 || d.maxSeqLen < 0 {
		return fmt.Errorf("lbf: bad batch dims %+v", d)
	}
	if len(b.LogProb) != d.logProbLen() {
		return fmt.Errorf("lbf: logprob length %d, want %d", len(b.LogProb), d.logProbLen())
	}
	if len(b.Seqs) != d.targetLen() || len(b.RLE) != d.targetLen() || len(b.SeqLen) != d.nbatch {
		return fmt.Errorf("lbf: target lengths %d/%d/%d, want %d/%d/%d",
			len(b.Seqs), len(b.RLE), len(b.SeqLen), d.targetLen(), d.targetLen(), d.nbatch)
	}
	if bf.Scores != nil && len(bf.Scores) != d.nbatch {
		return fmt.Errorf("lbf: scores length %d, want %d", len(bf.Scores), d.nbatch)
	}
	if bf.States != nil && len(bf.States) != d.statesLen() {
		return fmt.Errorf("lbf: states length %d, want %d", len(bf.States), d.statesLen())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return err
	}

	write := func() error {
		if err := w.AddFlags(bf.Flags); err != nil {
			return err
		}
		if err := w.WriteSection(SectionDims, 1, encodeDims(d)); err != nil {
			return err
		}
		if err := w.WriteSection(SectionLogProb, 1, encodeF32(b.LogProb)); err != nil {
			return err
		}
		if err := w.WriteSection(SectionTargets, 1, encodeTargets(b)); err != nil {
			return err
		}
		if bf.Scores != nil {
			if err := w.WriteSection(SectionScores, 1, encodeF32(bf.Scores)); err != nil {
				return err
			}
		}
		if bf.States != nil {
			if err := w.WriteSection(SectionStates, 1, encodeI32(bf.States)); err != nil {
				return err
			}
		}
		if bf.Manifest != nil {
			if err := w.WriteSection(SectionManifest, 1, bf.Manifest); err != nil {
				return err
			}
		}
		return w.Finalise()
	}
	if err := write(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadBatchFile loads a batch file. All data is copied out of the mapping,
// so the returned value does not pin the file.
func ReadBatchFile(path string) (*BatchFile, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	required := func(t SectionType, name string) ([]byte, error) {
		s := f.Section(t)
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSection, name)
		}
		return f.SectionData(s), nil
	}

	rawDims, err := required(SectionDims, "dims")
	if err != nil {
		return nil, err
	}
	d, err := decodeDims(rawDims)
	if err != nil {
		return nil, err
	}

	rawLP, err := required(SectionLogProb, "logprob")
	if err != nil {
		return nil, err
	}
	if len(rawLP) != 4*d.logProbLen() {
		return nil, fmt.Errorf("%w: logprob section size %d, want %d", ErrCorruptFile, len(rawLP), 4*d.logProbLen())
	}

	rawTgt, err := required(SectionTargets, "targets")
	if err != nil {
		return nil, err
	}
	if want := 4 * (2*d.targetLen() + d.nbatch); len(rawTgt) != want {
		return nil, fmt.Errorf("%w: targets section size %d, want %d", ErrCorruptFile, len(rawTgt), want)
	}
	seqEnd := 4 * d.targetLen()
	rleEnd := 2 * seqEnd

	bf := &BatchFile{
		Batch: &ctc.Batch{
			LogProb:   decodeF32(rawLP),
			NState:    d.nstate,
			NBlk:      d.nblk,
			NBatch:    d.nbatch,
			Seqs:      decodeI32(rawTgt[:seqEnd]),
			RLE:       decodeI32(rawTgt[seqEnd:rleEnd]),
			SeqLen:    decodeI32(rawTgt[rleEnd:]),
			MaxSeqLen: d.maxSeqLen,
		},
		Flags: f.Header.Flags,
	}

	if s := f.Section(SectionScores); s != nil {
		raw := f.SectionData(s)
		if len(raw) != 4*d.nbatch {
			return nil, fmt.Errorf("%w: scores section size %d, want %d", ErrCorruptFile, len(raw), 4*d.nbatch)
		}
		bf.Scores = decodeF32(raw)
	}
	if s := f.Section(SectionStates); s != nil {
		raw := f.SectionData(s)
		if len(raw) != 4*d.statesLen() {
			return nil, fmt.Errorf("%w: states section size %d, want %d", ErrCorruptFile, len(raw), 4*d.statesLen())
		}
		bf.States = decodeI32(raw)
	}
	if s := f.Section(SectionManifest); s != nil {
		bf.Manifest = append([]byte(nil), f.SectionData(s)...)
	}
	return bf, nil
}
