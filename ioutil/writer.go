package ioutil

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Writer accumulates little-endian fixed-width fields into an
// io.WriteSeeker. The BigWig writer uses it both for the streaming
// body and, in the finalization pass, for seeking back to patch
// placeholder offsets.
type Writer struct {
	w io.WriteSeeker
}

// NewWriter wraps an io.WriteSeeker.
func NewWriter(w io.WriteSeeker) *Writer { return &Writer{w: w} }

// Tell returns the writer's current position.
func (w *Writer) Tell() (int64, error) { return w.w.Seek(0, io.SeekCurrent) }

// Seek moves to an absolute offset, used to patch header fields once
// their true values are known.
func (w *Writer) Seek(offset int64) error {
	_, err := w.w.Seek(offset, io.SeekStart)
	return errors.Wrap(err, "ioutil: seek")
}

func (w *Writer) write(b []byte) error {
	_, err := w.w.Write(b)
	return errors.Wrap(err, "ioutil: write")
}

func (w *Writer) U8(v uint8) error  { return w.write([]byte{v}) }
func (w *Writer) U16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return w.write(b[:])
}
func (w *Writer) U32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return w.write(b[:])
}
func (w *Writer) U64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return w.write(b[:])
}
func (w *Writer) I32(v int32) error { return w.U32(uint32(v)) }
func (w *Writer) F32(v float32) error { return w.U32(math.Float32bits(v)) }
func (w *Writer) F64(v float64) error { return w.U64(math.Float64bits(v)) }

// FixedString writes s zero-padded (or truncated) to exactly n bytes.
func (w *Writer) FixedString(s string, n int) error {
	b := make([]byte, n)
	copy(b, s)
	return w.write(b)
}

// Raw writes p verbatim.
func (w *Writer) Raw(p []byte) error { return w.write(p) }
