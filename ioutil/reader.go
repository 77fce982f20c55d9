package ioutil

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pbenner/rustynetics/bbierrors"
)

// Reader is a cursor over a Transport, offering the fixed-width
// little-endian primitives the BBI format is built from. It is not
// safe for concurrent use; callers needing concurrent queries must
// open independent Readers.
type Reader struct {
	t   Transport
	pos int64
}

// NewReader wraps a Transport with a cursor starting at offset 0.
func NewReader(t Transport) *Reader { return &Reader{t: t} }

// Transport exposes the underlying capability, e.g. for Size().
func (r *Reader) Transport() Transport { return r.t }

// Tell returns the current cursor position.
func (r *Reader) Tell() int64 { return r.pos }

// Seek moves the cursor to an absolute offset from the start of the
// resource; BBI files never need relative seeks.
func (r *Reader) Seek(offset int64) { r.pos = offset }

func (r *Reader) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.t.ReadAt(buf, r.pos)
	if got < n {
		if err == nil {
			err = bbierrors.New(bbierrors.KindTruncated, "short read", nil)
		} else {
			err = bbierrors.New(bbierrors.KindTruncated, "short read", err)
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// FixedString reads an n-byte, NUL-padded field and trims the padding.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.read(n)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// Bytes reads n raw bytes without interpretation.
func (r *Reader) Bytes(n int) ([]byte, error) { return r.read(n) }

// BytesAt reads n raw bytes starting at an absolute offset, leaving the
// cursor positioned right after them; used to fetch a data block once
// its (offset, size) is known from an R-tree leaf, independent of
// wherever the cursor was left by index traversal.
func (r *Reader) BytesAt(offset int64, n int) ([]byte, error) {
	r.Seek(offset)
	return r.read(n)
}
