package ioutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	mem := &MemBuffer{}
	w := NewWriter(mem)
	require.NoError(t, w.U8(7))
	require.NoError(t, w.U16(1234))
	require.NoError(t, w.U32(987654))
	require.NoError(t, w.U64(1 << 40))
	require.NoError(t, w.F32(3.5))
	require.NoError(t, w.F64(2.25))
	require.NoError(t, w.FixedString("chr1", 8))
	require.NoError(t, w.Raw([]byte{1, 2, 3}))

	r := NewReader(NewBytesTransport(mem.Bytes()))
	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(1234), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(987654), u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), u64)

	f32, err := r.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	f64, err := r.F64()
	require.NoError(t, err)
	assert.Equal(t, 2.25, f64)

	s, err := r.FixedString(8)
	require.NoError(t, err)
	assert.Equal(t, "chr1", s)

	raw, err := r.Bytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)
}

func TestReaderBytesAtIsIndependentOfCursor(t *testing.T) {
	mem := &MemBuffer{}
	w := NewWriter(mem)
	require.NoError(t, w.Raw([]byte("abcdefgh")))

	r := NewReader(NewBytesTransport(mem.Bytes()))
	_, err := r.U32() // advances cursor to 4
	require.NoError(t, err)

	b, err := r.BytesAt(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("cdef"), b)
}

func TestWriterSeekPatchesEarlierField(t *testing.T) {
	mem := &MemBuffer{}
	w := NewWriter(mem)
	require.NoError(t, w.U32(0)) // placeholder
	require.NoError(t, w.U32(42))

	require.NoError(t, w.Seek(0))
	require.NoError(t, w.U32(99))

	r := NewReader(NewBytesTransport(mem.Bytes()))
	v, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(99), v)
}

func TestReadPastEndIsTruncated(t *testing.T) {
	r := NewReader(NewBytesTransport([]byte{1, 2}))
	_, err := r.U32()
	require.Error(t, err)
}

func TestCompressBlockRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated many times for compressibility")
	compressed, err := CompressBlock(data, 0)
	require.NoError(t, err)

	decompressed, err := DecompressBlock(compressed, uint32(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}

func TestDecompressBlockEnforcesSizeLimit(t *testing.T) {
	data := make([]byte, 1000)
	compressed, err := CompressBlock(data, 0)
	require.NoError(t, err)

	_, err = DecompressBlock(compressed, 10)
	assert.Error(t, err)
}

func TestIsRetriableForServerErrorNotClientError(t *testing.T) {
	assert.True(t, isRetriable(&serverError{status: 503}))
	assert.False(t, isRetriable(errors.New("client error 404")))
	assert.False(t, isRetriable(nil))
}
