package bbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/ioutil"
)

func makeLeaves(n int) []Leaf {
	leaves := make([]Leaf, n)
	for i := 0; i < n; i++ {
		start := uint32(i * 100)
		end := start + 100
		leaves[i] = Leaf{
			ChromIdxStart: 0,
			ChromIdxEnd:   0,
			BaseStart:     start,
			BaseEnd:       end,
			DataOffset:    uint64(i * 10),
			Size:          10,
		}
	}
	return leaves
}

func TestWriteRTreeRejectsEmptyLeaves(t *testing.T) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	_, err := WriteRTree(w, nil, DefaultRTreeBlockSize, DefaultItemsPerSlotData)
	assert.Error(t, err)
}

func TestWriteRTreeRejectsOutOfOrderLeaves(t *testing.T) {
	leaves := []Leaf{
		{ChromIdxStart: 0, ChromIdxEnd: 0, BaseStart: 100, BaseEnd: 200},
		{ChromIdxStart: 0, ChromIdxEnd: 0, BaseStart: 50, BaseEnd: 90},
	}
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	_, err := WriteRTree(w, leaves, DefaultRTreeBlockSize, DefaultItemsPerSlotData)
	assert.Error(t, err)
}

func TestWriteReadRTreeRoundTripSmallFanout(t *testing.T) {
	// itemsPerSlot=2, blockSize=2 forces multiple internal levels for 20 leaves.
	leaves := makeLeaves(20)

	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	headerOffset, err := WriteRTree(w, leaves, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), headerOffset)

	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	tree, err := ReadRTreeHeader(r, headerOffset)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), tree.NItems)

	pointers, err := tree.Overlapping(r, 0, 250, 550)
	require.NoError(t, err)

	// leaves covering [200,300) through [500,600) overlap [250,550):
	// that's leaves with Start in {200,300,400,500} => 4 leaves (indices 2..5)
	require.Len(t, pointers, 4)
	for i, p := range pointers {
		assert.Equal(t, uint64((2+i)*10), p.Offset)
	}
}

func TestOverlappingReturnsAscendingOffsets(t *testing.T) {
	leaves := makeLeaves(8)
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	headerOffset, err := WriteRTree(w, leaves, 3, 3)
	require.NoError(t, err)

	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	tree, err := ReadRTreeHeader(r, headerOffset)
	require.NoError(t, err)

	pointers, err := tree.Overlapping(r, 0, 0, 800)
	require.NoError(t, err)
	require.Len(t, pointers, 8)
	for i := 1; i < len(pointers); i++ {
		assert.Less(t, pointers[i-1].Offset, pointers[i].Offset)
	}
}

func TestOverlappingEmptyResultOutsideRange(t *testing.T) {
	leaves := makeLeaves(5)
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	headerOffset, err := WriteRTree(w, leaves, 4, 4)
	require.NoError(t, err)

	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	tree, err := ReadRTreeHeader(r, headerOffset)
	require.NoError(t, err)

	pointers, err := tree.Overlapping(r, 1, 0, 100) // chrom 1 never appears
	require.NoError(t, err)
	assert.Empty(t, pointers)
}
