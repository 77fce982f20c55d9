package coverage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/genome"
)

func TestBuildInputTrackMergesMultipleFiles(t *testing.T) {
	g := testGenome(t)
	files := []InputFile{
		{Name: "a", Reads: []ReadRecord{{ChromID: 0, Pos0: 0, CigarRefLen: 100}}, FragmentLength: 100},
		{Name: "b", Reads: []ReadRecord{{ChromID: 0, Pos0: 0, CigarRefLen: 100}}, FragmentLength: 100},
	}
	tr, reads, fragLens, err := BuildInputTrack(context.Background(), "merged", g, files, PipelineOptions{Binsize: 100})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), reads)
	assert.Equal(t, []int{100, 100}, fragLens)
	v, _ := tr.At(0, 0)
	assert.Equal(t, float32(2), v)
}

func TestBuildInputTrackSkipsBrokenInputsWhenRequested(t *testing.T) {
	g := testGenome(t)
	files := []InputFile{
		{Name: "good", Reads: []ReadRecord{{ChromID: 0, Pos0: 0, CigarRefLen: 100}}, FragmentLength: 100},
		{Name: "bad", Reads: []ReadRecord{{ChromID: 99, Pos0: 0, CigarRefLen: 10}}, FragmentLength: 100},
	}
	opts := PipelineOptions{Binsize: 100, SkipBrokenInputs: true}
	tr, reads, fragLens, err := BuildInputTrack(context.Background(), "merged", g, files, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reads)
	assert.Equal(t, []int{100}, fragLens)
	v, _ := tr.At(0, 0)
	assert.Equal(t, float32(1), v)
}

func TestBuildInputTrackFailsHardWithoutSkip(t *testing.T) {
	g := testGenome(t)
	files := []InputFile{
		{Name: "bad", Reads: []ReadRecord{{ChromID: 99, Pos0: 0, CigarRefLen: 10}}, FragmentLength: 100},
	}
	_, _, _, err := BuildInputTrack(context.Background(), "merged", g, files, PipelineOptions{Binsize: 100})
	assert.Error(t, err)
}

func TestBuildInputTrackReportsEstimatedFragmentLength(t *testing.T) {
	const chromLen = 6000
	const readLength = 36
	const trueFragLen = 150

	g, err := genome.New([]string{"chr1"}, []uint32{chromLen})
	require.NoError(t, err)
	reads := syntheticFraglenReads(chromLen, readLength, trueFragLen)
	require.True(t, len(reads) > 100)

	opts := PipelineOptions{
		Binsize:         100,
		EstimateFraglen: true,
		Fraglen:         FraglenOptions{DMax: 400, NMin: 50, PhantomWindow: 10},
	}
	files := []InputFile{{Name: "t", Reads: reads, ReadLength: readLength}}

	_, _, fragLens, err := BuildInputTrack(context.Background(), "merged", g, files, opts)
	require.NoError(t, err)
	require.Len(t, fragLens, 1)
	assert.InDelta(t, trueFragLen, fragLens[0], 3)
}

func TestPipelineTreatmentOnlyRawCombine(t *testing.T) {
	g := testGenome(t)
	treatment := []InputFile{
		{Name: "t", Reads: []ReadRecord{{ChromID: 0, Pos0: 0, CigarRefLen: 100}}, FragmentLength: 100},
	}
	opts := DefaultPipelineOptions()
	opts.Binsize = 100
	opts.Normalize.Combine = CombineRaw
	opts.Normalize.EffectiveGenomeSize = 0 // degenerate -> RPGCScale is a no-op

	out, err := Pipeline(context.Background(), g, treatment, nil, opts)
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	assert.Equal(t, float32(1), v)
}

func TestPipelineTreatmentAndControlLog2Ratio(t *testing.T) {
	g := testGenome(t)
	treatment := []InputFile{
		{Name: "t", Reads: []ReadRecord{{ChromID: 0, Pos0: 0, CigarRefLen: 100}}, FragmentLength: 100},
	}
	control := []InputFile{
		{Name: "c", Reads: []ReadRecord{{ChromID: 0, Pos0: 0, CigarRefLen: 100}}, FragmentLength: 100},
	}
	opts := DefaultPipelineOptions()
	opts.Binsize = 100
	opts.Normalize.Combine = CombineLog2Ratio
	opts.Normalize.EffectiveGenomeSize = 0 // no-op scaling so both sides stay at raw 1.0

	out, err := Pipeline(context.Background(), g, treatment, control, opts)
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	assert.InDelta(t, 0.0, v, 1e-6) // log2((1+1)/(1+1)) == 0
}
