package lbf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeContainer builds a small two-section file and returns its bytes.
func writeContainer(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.lbf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.AddFlags(FlagNormalised); err != nil {
		t.Fatalf("add flags: %v", err)
	}
	if err := w.WriteSection(SectionManifest, 1, []byte("manifest-data")); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := w.WriteSection(SectionScores, 1, []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("write scores: %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close writer file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return data
}

func TestOpenReaderAtRoundTrip(t *testing.T) {
	t.Parallel()

	data := writeContainer(t)
	lf, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() {
		if cerr := lf.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	if lf.mmapped {
		t.Fatal("OpenReaderAt should not mmap")
	}
	if lf.Header == nil || lf.Header.HeaderSize != lbfHeaderSize {
		t.Fatalf("bad header: %+v", lf.Header)
	}
	if lf.Header.Flags&FlagNormalised == 0 {
		t.Fatalf("flags not preserved: %x", lf.Header.Flags)
	}
	if lf.Header.FileSize != uint64(len(data)) {
		t.Fatalf("file size %d, want %d", lf.Header.FileSize, len(data))
	}

	sec := lf.Section(SectionManifest)
	if sec == nil {
		t.Fatal("missing manifest section")
	}
	if got := lf.SectionData(sec); !bytes.Equal(got, []byte("manifest-data")) {
		t.Fatalf("manifest mismatch: %q", got)
	}
	if sec.Offset%lbfAlign != 0 {
		t.Fatalf("section offset %d not aligned", sec.Offset)
	}
	if lf.Section(SectionStates) != nil {
		t.Fatal("unexpected states section")
	}
}

func TestOpenMmap(t *testing.T) {
	t.Parallel()

	data := writeContainer(t)
	path := filepath.Join(t.TempDir(), "batch.lbf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	lf, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sec := lf.Section(SectionScores)
	if sec == nil {
		t.Fatal("missing scores section")
	}
	if got := lf.SectionData(sec); !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("scores mismatch: %v", got)
	}
	if err := lf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if lf.Data != nil || lf.Header != nil {
		t.Fatal("close did not release the file")
	}
}

func TestHeaderAndSectionEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := Header{
		Magic:            [4]byte{'L', 'B', 'F', 0},
		Major:            0x1122,
		Minor:            0x3344,
		HeaderSize:       lbfHeaderSize,
		SectionCount:     7,
		SectionDirOffset: 0x0102030405060708,
		FileSize:         0x1112131415161718,
		Flags:            0x2122232425262728,
	}
	var hdrRaw [lbfHeaderSize]byte
	if !encodeHeader(hdrRaw[:], h) {
		t.Fatal("encode header failed")
	}
	if hdrRaw[4] != 0x22 || hdrRaw[5] != 0x11 {
		t.Fatalf("major is not little-endian: %x", hdrRaw[4:6])
	}
	if hdrRaw[16] != 0x08 || hdrRaw[23] != 0x01 {
		t.Fatalf("section dir offset is not little-endian: %x", hdrRaw[16:24])
	}
	decodedH, ok := decodeHeader(hdrRaw[:])
	if !ok {
		t.Fatal("decode header failed")
	}
	if decodedH != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", decodedH, h)
	}

	s := Section{
		Type:    0x11223344,
		Version: 0x55667788,
		Offset:  0x0102030405060708,
		Size:    0x1112131415161718,
	}
	var secRaw [lbfSectionSize]byte
	if !encodeSection(secRaw[:], s) {
		t.Fatal("encode section failed")
	}
	if secRaw[0] != 0x44 || secRaw[3] != 0x11 {
		t.Fatalf("section type is not little-endian: %x", secRaw[0:4])
	}
	if secRaw[8] != 0x08 || secRaw[15] != 0x01 {
		t.Fatalf("section offset is not little-endian: %x", secRaw[8:16])
	}
	decodedS, ok := decodeSection(secRaw[:])
	if !ok {
		t.Fatal("decode section failed")
	}
	if decodedS != s {
		t.Fatalf("section round-trip mismatch: got %+v want %+v", decodedS, s)
	}
}

func TestDuplicateSectionRejected(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "dup.lbf"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteSection(SectionManifest, 1, []byte("a")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.WriteSection(SectionManifest, 1, []byte("b")); err == nil {
		t.Fatal("duplicate section accepted")
	}
}

func TestWriterFinalisedRejectsUse(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "done.lbf"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteSection(SectionManifest, 1, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := w.WriteSection(SectionScores, 1, nil); err == nil {
		t.Fatal("write after finalise accepted")
	}
	if err := w.Finalise(); err == nil {
		t.Fatal("double finalise accepted")
	}
}

func TestCorruptFiles(t *testing.T) {
	t.Parallel()

	base := writeContainer(t)
	cases := []struct {
		name    string
		mutate  func(data []byte) []byte
		wantErr error
	}{
		{
			name:    "truncated header",
			mutate:  func(data []byte) []byte { return data[:lbfHeaderSize-1] },
			wantErr: ErrCorruptFile,
		},
		{
			name: "bad magic",
			mutate: func(data []byte) []byte {
				data[0] = 'X'
				return data
			},
			wantErr: ErrInvalidMagic,
		},
		{
			name: "unsupported major",
			mutate: func(data []byte) []byte {
				binary.LittleEndian.PutUint16(data[4:6], CurrentMajor+1)
				return data
			},
			wantErr: ErrUnsupportedMajor,
		},
		{
			name: "file size mismatch",
			mutate: func(data []byte) []byte {
				binary.LittleEndian.PutUint64(data[24:32], uint64(len(data))+8)
				return data
			},
			wantErr: ErrCorruptFile,
		},
		{
			name: "misaligned section",
			mutate: func(data []byte) []byte {
				dir := binary.LittleEndian.Uint64(data[16:24])
				off := binary.LittleEndian.Uint64(data[dir+8 : dir+16])
				binary.LittleEndian.PutUint64(data[dir+8:dir+16], off+1)
				return data
			},
			wantErr: ErrCorruptFile,
		},
		{
			name: "section past end",
			mutate: func(data []byte) []byte {
				dir := binary.LittleEndian.Uint64(data[16:24])
				binary.LittleEndian.PutUint64(data[dir+16:dir+24], uint64(len(data)))
				return data
			},
			wantErr: ErrCorruptFile,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data := tc.mutate(bytes.Clone(base))
			_, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
