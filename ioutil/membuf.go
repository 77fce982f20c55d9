package ioutil

import "io"

// MemBuffer is an in-memory io.WriteSeeker, the growable scratch buffer
// the data-block packer builds a block into before it is compressed and
// flushed, mirroring the write-side buffering BigWig writers keep per
// in-progress block.
type MemBuffer struct {
	buf []byte
	pos int64
}

func (m *MemBuffer) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *MemBuffer) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	}
	if target < 0 {
		return 0, io.ErrShortBuffer
	}
	m.pos = target
	return target, nil
}

// Bytes returns the buffer's contents written so far.
func (m *MemBuffer) Bytes() []byte { return m.buf }

// BytesTransport adapts a fixed byte slice to the Transport interface,
// letting ioutil.Reader decode an already-fetched (and, for BBI blocks,
// already-decompressed) buffer with the same primitives used for files
// and HTTP ranges.
type BytesTransport struct {
	buf []byte
}

// NewBytesTransport wraps buf for random-access reads.
func NewBytesTransport(buf []byte) *BytesTransport { return &BytesTransport{buf: buf} }

func (b *BytesTransport) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (b *BytesTransport) Size() (int64, error) { return int64(len(b.buf)), nil }
func (b *BytesTransport) Close() error         { return nil }
