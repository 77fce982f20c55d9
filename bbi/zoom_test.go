package bbi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoomSchedule(t *testing.T) {
	schedule := ZoomSchedule(3, 10, 1)
	require.Len(t, schedule, 3)
	assert.Equal(t, schedule[1], schedule[0]*4)
	assert.Equal(t, schedule[2], schedule[1]*4)
}

func TestZoomScheduleZeroLevels(t *testing.T) {
	assert.Nil(t, ZoomSchedule(0, 10, 1))
}

func TestSelectZoomLevelPicksCoarsestQualifying(t *testing.T) {
	headers := []ZoomHeader{
		{ReductionLevel: 160},
		{ReductionLevel: 640},
		{ReductionLevel: 2560},
	}
	h, ok := SelectZoomLevel(headers, 1000)
	require.True(t, ok)
	assert.Equal(t, uint32(640), h.ReductionLevel)
}

func TestSelectZoomLevelNoneQualifies(t *testing.T) {
	headers := []ZoomHeader{{ReductionLevel: 2000}}
	_, ok := SelectZoomLevel(headers, 100)
	assert.False(t, ok)
}

func TestSelectClosestZoomLevel(t *testing.T) {
	headers := []ZoomHeader{
		{ReductionLevel: 160},
		{ReductionLevel: 640},
		{ReductionLevel: 2560},
	}
	h, ok := SelectClosestZoomLevel(headers, 1000)
	require.True(t, ok)
	assert.Equal(t, uint32(640), h.ReductionLevel) // |1000-640|=360 < |1000-160|=840 < |1000-2560|=1560
}

func TestBuildZoomLevelPartitionsIntoWindows(t *testing.T) {
	records := []Record{
		{ChromIdx: 0, Start: 0, End: 50, Value: 2},
		{ChromIdx: 0, Start: 50, End: 100, Value: 4},
		{ChromIdx: 0, Start: 150, End: 200, Value: 6},
	}
	zooms := BuildZoomLevel(records, 100)
	require.Len(t, zooms, 2)
	assert.Equal(t, uint32(0), zooms[0].Start)
	assert.Equal(t, uint32(100), zooms[0].End)
	assert.Equal(t, uint32(100), zooms[0].ValidCount)
	assert.InDelta(t, float64(2*50+4*50), float64(zooms[0].SumData), 1e-3)

	assert.Equal(t, uint32(100), zooms[1].Start)
	assert.Equal(t, uint32(50), zooms[1].ValidCount)
}

func TestPackUnpackZoomBlockRoundTrip(t *testing.T) {
	records := []ZoomRecord{
		{ChromIdx: 0, Start: 0, End: 100, ValidCount: 100, MinVal: 1, MaxVal: 5, SumData: 250, SumSquares: 900},
		{ChromIdx: 0, Start: 100, End: 200, ValidCount: 80, MinVal: 0, MaxVal: 3, SumData: 120, SumSquares: 300},
	}
	buf, err := PackZoomBlock(records)
	require.NoError(t, err)
	got, err := UnpackZoomBlock(buf)
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestMergeZoomRecordsProratesOverlap(t *testing.T) {
	records := []ZoomRecord{
		{ChromIdx: 0, Start: 0, End: 100, ValidCount: 100, MinVal: 1, MaxVal: 5, SumData: 300, SumSquares: 1000},
	}
	merged := MergeZoomRecords(records, 50, 100)
	assert.InDelta(t, 50, merged.Valid, 1e-9)
	assert.InDelta(t, 150, merged.Sum, 1e-6)
	assert.Equal(t, 1.0, merged.Min)
	assert.Equal(t, 5.0, merged.Max)
	assert.InDelta(t, 3.0, merged.Mean(), 1e-9)
}

func TestMergeZoomRecordsNoOverlapYieldsNaNMinMax(t *testing.T) {
	records := []ZoomRecord{{ChromIdx: 0, Start: 0, End: 10, ValidCount: 10, MinVal: 1, MaxVal: 2}}
	merged := MergeZoomRecords(records, 100, 200)
	assert.Equal(t, 0.0, merged.Valid)
	assert.True(t, math.IsNaN(merged.Min))
	assert.True(t, math.IsNaN(merged.Mean()))
}
