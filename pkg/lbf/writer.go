package lbf

import (
	"errors"
	"io"
	"os"
	"sort"
	"sync"
)

const writerPadBufSize = 4096

// Writer builds an LBF file by appending sections. It reserves space for the
// header up-front and patches it during Finalise.
type Writer struct {
	f        *os.File
	sections []Section
	seen     map[SectionType]struct{}
	closed   bool

	flags uint64

	padBuf []byte

	mu sync.Mutex
}

// NewWriter creates a writer targeting the given file. It truncates the file
// and reserves space for the header.
func NewWriter(f *os.File) (*Writer, error) {
	if f == nil {
		return nil, errors.New("lbf: nil file")
	}
	// Always produce a file whose on-disk size matches header.FileSize.
	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	w := &Writer{
		f:      f,
		seen:   make(map[SectionType]struct{}),
		padBuf: make([]byte, writerPadBufSize),
	}
	if err := w.writeZeros(lbfHeaderSize); err != nil {
		return nil, err
	}
	if err := w.alignTo(lbfAlign); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteSection writes a section payload and records it in the section table.
// Sections may be written in any order; a section type may only be written
// once.
func (w *Writer) WriteSection(typ SectionType, version uint32, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("lbf: writer already finalised")
	}
	if _, ok := w.seen[typ]; ok {
		return errors.New("lbf: duplicate section type")
	}

	if err := w.alignTo(lbfAlign); err != nil {
		return err
	}
	offset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		if err := writeFull(w.f, data); err != nil {
			return err
		}
	}

	w.sections = append(w.sections, Section{
		Type:    uint32(typ),
		Version: version,
		Offset:  uint64(offset),
		Size:    uint64(len(data)),
	})
	w.seen[typ] = struct{}{}
	return nil
}

// AddFlags sets format-level flag bits in the final header.
func (w *Writer) AddFlags(flags uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("lbf: writer already finalised")
	}
	w.flags |= flags
	return nil
}

// Finalise writes the section directory and patches the header. After
// Finalise, the writer must not be used again.
func (w *Writer) Finalise() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("lbf: writer already finalised")
	}
	w.closed = true

	// Deterministic directory ordering.
	sort.Slice(w.sections, func(i, j int) bool {
		return w.sections[i].Type < w.sections[j].Type
	})

	if err := w.alignTo(lbfAlign); err != nil {
		return err
	}
	sectionDirOffset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	var secBuf [lbfSectionSize]byte
	for i := range w.sections {
		if !encodeSection(secBuf[:], w.sections[i]) {
			return errors.New("lbf: encode section failed")
		}
		if err := writeFull(w.f, secBuf[:]); err != nil {
			return err
		}
	}

	// The target file may have been reused, so pin the size explicitly.
	fileSize, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := w.f.Truncate(fileSize); err != nil {
		return err
	}

	var header Header
	copy(header.Magic[:], Magic)
	header.Major = CurrentMajor
	header.Minor = CurrentMinor
	header.HeaderSize = lbfHeaderSize
	header.SectionCount = uint32(len(w.sections))
	header.SectionDirOffset = uint64(sectionDirOffset)
	header.FileSize = uint64(fileSize)
	header.Flags = w.flags

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var hdrBuf [lbfHeaderSize]byte
	if !encodeHeader(hdrBuf[:], header) {
		return errors.New("lbf: encode header failed")
	}
	if err := writeFull(w.f, hdrBuf[:]); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *Writer) alignTo(n int64) error {
	if n <= 1 {
		return nil
	}
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	mod := pos % n
	if mod == 0 {
		return nil
	}
	return w.writeZeros(int(n - mod))
}

func (w *Writer) writeZeros(n int) error {
	for n > 0 {
		toWrite := min(n, len(w.padBuf))
		if err := writeFull(w.f, w.padBuf[:toWrite]); err != nil {
			return err
		}
		n -= toWrite
	}
	return nil
}
