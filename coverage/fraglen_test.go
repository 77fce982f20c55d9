package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/genome"
)

// syntheticFraglenReads builds forward/reverse read pairs at irregularly
// spaced positions (to avoid aliasing the cross-correlation against the
// spacing itself) whose 5' ends are separated by exactly trueFragLen,
// so the cross-correlation curve has an unambiguous peak there.
func syntheticFraglenReads(chromLen, readLength, trueFragLen int) []ReadRecord {
	deltas := []int{41, 53, 67, 71, 59, 47, 83, 61, 73, 43}
	var reads []ReadRecord
	pos := 80
	for i := 0; pos+readLength+trueFragLen < chromLen; i++ {
		reads = append(reads, ReadRecord{ChromID: 0, Pos0: uint32(pos), CigarRefLen: uint32(readLength)})
		revPos := pos + trueFragLen - (readLength - 1)
		reads = append(reads, ReadRecord{ChromID: 0, Pos0: uint32(revPos), CigarRefLen: uint32(readLength), Reverse: true})
		pos += deltas[i%len(deltas)]
	}
	return reads
}

func TestEstimateFragmentLengthRecoversPlantedPeak(t *testing.T) {
	const chromLen = 6000
	const readLength = 36
	const trueFragLen = 150

	g, err := genome.New([]string{"chr1"}, []uint32{chromLen})
	require.NoError(t, err)
	reads := syntheticFraglenReads(chromLen, readLength, trueFragLen)
	require.True(t, len(reads) > 100)

	opts := FraglenOptions{DMax: 400, NMin: 50, PhantomWindow: 10}
	est, err := EstimateFragmentLength(reads, g, readLength, opts)
	require.NoError(t, err)
	assert.InDelta(t, trueFragLen, est.Length, 3)
	require.Len(t, est.Correlations, opts.DMax+1)
	assert.InDelta(t, 1.0, est.Correlations[trueFragLen], 1e-6)
}

func TestEstimateFragmentLengthFailsBelowNMin(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	reads := []ReadRecord{{ChromID: 0, Pos0: 10, CigarRefLen: 30}}

	_, err = EstimateFragmentLength(reads, g, 30, FraglenOptions{DMax: 100, NMin: 1000})
	require.Error(t, err)
	assert.True(t, bbierrors.Is(err, bbierrors.KindFraglenEstimation))
}

func TestEstimateFragmentLengthExcludesPhantomPeak(t *testing.T) {
	const chromLen = 3000
	const readLength = 8
	const phantomLag = 16 // == 2*readLength, the argmax floor, also inside the +/-10 window around readLength

	g, err := genome.New([]string{"chr1"}, []uint32{chromLen})
	require.NoError(t, err)
	// plant the peak exactly at the phantom-peak lag; it must be excluded
	// from the argmax search even though it dominates the correlation curve
	reads := syntheticFraglenReads(chromLen, readLength, phantomLag)
	opts := FraglenOptions{DMax: 200, NMin: 50, PhantomWindow: 10}
	est, err := EstimateFragmentLength(reads, g, readLength, opts)
	require.NoError(t, err)
	require.Len(t, est.Correlations, opts.DMax+1)
	assert.InDelta(t, 1.0, est.Correlations[phantomLag], 1e-6)
	assert.NotEqual(t, phantomLag, est.Length)
}
