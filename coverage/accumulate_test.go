package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/track"
)

func testGenome(t *testing.T) *genome.Genome {
	t.Helper()
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	return g
}

func TestFragmentIntervalSingleEndExtension(t *testing.T) {
	r := ReadRecord{ChromID: 0, Pos0: 100, CigarRefLen: 36}
	opts := AccumulateOptions{FragmentLength: 200}
	start, end := fragmentInterval(r, 1000, opts)
	assert.Equal(t, uint32(100), start)
	assert.Equal(t, uint32(300), end)
}

func TestFragmentIntervalReverseStrandExtendsLeftward(t *testing.T) {
	r := ReadRecord{ChromID: 0, Pos0: 500, CigarRefLen: 36, Reverse: true}
	opts := AccumulateOptions{FragmentLength: 200}
	start, end := fragmentInterval(r, 1000, opts)
	assert.Equal(t, uint32(536), end)
	assert.Equal(t, uint32(336), start)
}

func TestFragmentIntervalPairedUsesTLEN(t *testing.T) {
	r := ReadRecord{ChromID: 0, Pos0: 100, CigarRefLen: 36, Paired: true, TemplateLength: 300}
	opts := AccumulateOptions{SpanMode: SpanFromTLEN}
	start, end := fragmentInterval(r, 1000, opts)
	assert.Equal(t, uint32(100), start)
	assert.Equal(t, uint32(400), end)
}

func TestFragmentIntervalClipsToChromosomeEnd(t *testing.T) {
	r := ReadRecord{ChromID: 0, Pos0: 950, CigarRefLen: 36}
	opts := AccumulateOptions{FragmentLength: 200}
	start, end := fragmentInterval(r, 1000, opts)
	assert.Equal(t, uint32(1000), end)
	assert.Equal(t, uint32(950), start)
}

func TestAccumulateFractionalOverlap(t *testing.T) {
	g := testGenome(t)
	tr := track.New("t", g, 100)
	reads := []ReadRecord{{ChromID: 0, Pos0: 50, CigarRefLen: 100}}
	err := Accumulate(tr, reads, AccumulateOptions{Binsize: 100})
	require.NoError(t, err)
	v0, _ := tr.At(0, 0)
	v1, _ := tr.At(0, 100)
	assert.InDelta(t, 0.5, v0, 1e-6)
	assert.InDelta(t, 0.5, v1, 1e-6)
}

func TestAccumulateAnyOverlapPileup(t *testing.T) {
	g := testGenome(t)
	tr := track.New("t", g, 100)
	reads := []ReadRecord{{ChromID: 0, Pos0: 50, CigarRefLen: 100}}
	err := Accumulate(tr, reads, AccumulateOptions{Binsize: 100, Overlap: OverlapAny})
	require.NoError(t, err)
	v0, _ := tr.At(0, 0)
	v1, _ := tr.At(0, 100)
	assert.Equal(t, float32(1), v0)
	assert.Equal(t, float32(1), v1)
}

func TestAccumulateRejectsUnknownChromosome(t *testing.T) {
	g := testGenome(t)
	tr := track.New("t", g, 100)
	reads := []ReadRecord{{ChromID: 7, Pos0: 0, CigarRefLen: 10}}
	err := Accumulate(tr, reads, AccumulateOptions{Binsize: 100})
	assert.Error(t, err)
}
