package bbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/ioutil"
)

func TestHeaderPlaceholderThenPatchRoundTrip(t *testing.T) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)

	zoomHeaders := []ZoomHeader{
		{ReductionLevel: 160, DataOffset: 1000, IndexOffset: 2000},
		{ReductionLevel: 640, DataOffset: 3000, IndexOffset: 4000},
	}
	require.NoError(t, WriteHeaderPlaceholder(w, len(zoomHeaders)))

	h := &Header{
		Version:            MaxSupportedVersion,
		ZoomLevels:         uint16(len(zoomHeaders)),
		ChromTreeOffset:    64 + uint64(24*len(zoomHeaders)),
		FullDataOffset:     500,
		FullIndexOffset:    600,
		TotalSummaryOffset: 700,
		ZoomHeaders:        zoomHeaders,
		BasesCovered:       12345,
		MinVal:             -1.5,
		MaxVal:             9.25,
		SumData:            100.5,
		SumSquares:         250.75,
	}
	// grow the buffer out to the summary offset before patching
	require.NoError(t, w.Seek(int64(h.TotalSummaryOffset)+40))
	require.NoError(t, w.Raw(nil))
	require.NoError(t, PatchHeader(w, h))

	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	got, err := ReadHeader(r)
	require.NoError(t, err)

	assert.Equal(t, h.Version, got.Version)
	assert.Equal(t, h.ZoomLevels, got.ZoomLevels)
	assert.Equal(t, h.ChromTreeOffset, got.ChromTreeOffset)
	assert.Equal(t, h.FullDataOffset, got.FullDataOffset)
	assert.Equal(t, h.FullIndexOffset, got.FullIndexOffset)
	assert.Equal(t, h.TotalSummaryOffset, got.TotalSummaryOffset)
	require.Equal(t, zoomHeaders, got.ZoomHeaders)
	assert.Equal(t, h.BasesCovered, got.BasesCovered)
	assert.Equal(t, h.MinVal, got.MinVal)
	assert.Equal(t, h.MaxVal, got.MaxVal)
	assert.Equal(t, h.SumData, got.SumData)
	assert.Equal(t, h.SumSquares, got.SumSquares)
	assert.True(t, got.Compressed() == (got.UncompressBufSize > 0))
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	require.NoError(t, w.U32(0xdeadbeef))
	require.NoError(t, w.Raw(make([]byte, HeaderSize-4)))

	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	_, err := ReadHeader(r)
	assert.Error(t, err)
}

func TestReadHeaderRejectsUnsupportedVersion(t *testing.T) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	require.NoError(t, w.U32(MagicBigWig))
	require.NoError(t, w.U16(99)) // version
	require.NoError(t, w.Raw(make([]byte, HeaderSize-4-2)))

	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	_, err := ReadHeader(r)
	assert.Error(t, err)
}
