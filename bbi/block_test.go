package bbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackFixedStep(t *testing.T) {
	records := []Record{
		{ChromIdx: 0, Start: 0, End: 10, Value: 1},
		{ChromIdx: 0, Start: 10, End: 20, Value: 2},
		{ChromIdx: 0, Start: 20, End: 30, Value: 3},
	}
	buf, stats, err := PackBlock(records)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), stats.ValidCount)
	assert.Equal(t, uint8(BlockTypeFixedStep), buf[20])

	got, err := UnpackBlock(buf)
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestPackUnpackVariableStep(t *testing.T) {
	records := []Record{
		{ChromIdx: 0, Start: 0, End: 10, Value: 1},
		{ChromIdx: 0, Start: 25, End: 35, Value: 2},
		{ChromIdx: 0, Start: 70, End: 80, Value: 3},
	}
	buf, _, err := PackBlock(records)
	require.NoError(t, err)
	assert.Equal(t, uint8(BlockTypeVariableStep), buf[20])

	got, err := UnpackBlock(buf)
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestPackUnpackBedGraph(t *testing.T) {
	records := []Record{
		{ChromIdx: 0, Start: 0, End: 10, Value: 1},
		{ChromIdx: 0, Start: 10, End: 40, Value: 2},
		{ChromIdx: 0, Start: 90, End: 91, Value: 3},
	}
	buf, _, err := PackBlock(records)
	require.NoError(t, err)
	assert.Equal(t, uint8(BlockTypeBedGraph), buf[20])

	got, err := UnpackBlock(buf)
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestPackBlockRejectsEmpty(t *testing.T) {
	_, _, err := PackBlock(nil)
	assert.Error(t, err)
}

func TestPackBlockRejectsMultipleChromosomes(t *testing.T) {
	records := []Record{
		{ChromIdx: 0, Start: 0, End: 10, Value: 1},
		{ChromIdx: 1, Start: 10, End: 20, Value: 2},
	}
	_, _, err := PackBlock(records)
	assert.Error(t, err)
}

func TestBlockStatsMerge(t *testing.T) {
	a := NewBlockStats()
	a.add(2, 10)
	b := NewBlockStats()
	b.add(4, 5)

	a.Merge(b)
	assert.Equal(t, uint64(15), a.ValidCount)
	assert.Equal(t, float64(2), a.Min)
	assert.Equal(t, float64(4), a.Max)
	assert.InDelta(t, 2*10+4*5, a.Sum, 1e-9)
}

func TestBlockStatsMergeIntoEmpty(t *testing.T) {
	a := NewBlockStats()
	b := NewBlockStats()
	b.add(7, 3)
	a.Merge(b)
	assert.Equal(t, uint64(3), a.ValidCount)
	assert.Equal(t, float64(7), a.Min)
	assert.Equal(t, float64(7), a.Max)
}
