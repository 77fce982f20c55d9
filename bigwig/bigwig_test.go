package bigwig

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/bbi"
	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/ioutil"
)

func testGenome(t *testing.T) *genome.Genome {
	t.Helper()
	g, err := genome.New([]string{"chr1", "chr2"}, []uint32{1000, 400})
	require.NoError(t, err)
	return g
}

func TestWriteReadBigWigBaseLevelRoundTrip(t *testing.T) {
	g := testGenome(t)
	mem := &ioutil.MemBuffer{}

	opts := DefaultWriterOptions()
	opts.ZoomLevels = 0 // exercise the base-level path in isolation
	w, err := Create(mem, g, 10, opts)
	require.NoError(t, err)

	require.NoError(t, w.AddRecord(0, 0, 10, 1))
	require.NoError(t, w.AddRecord(0, 10, 20, 2))
	require.NoError(t, w.AddRecord(0, 20, 30, 3))
	require.NoError(t, w.AddRecord(1, 0, 10, 9))
	require.NoError(t, w.Close())

	rd, err := newReader(ioutil.NewBytesTransport(mem.Bytes()))
	require.NoError(t, err)
	defer rd.Close()

	assert.Equal(t, g.Len(), rd.Genome().Len())

	results, err := rd.Query("^chr1$", 0, 30, 10, DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.InDelta(t, float64(i+1), res.Summary.Mean(), 1e-6)
	}

	results, err = rd.Query("^chr2$", 0, 10, 10, DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 9.0, results[0].Summary.Mean(), 1e-6)
}

func TestWriteReadBigWigWithZoomLevels(t *testing.T) {
	g := testGenome(t)
	mem := &ioutil.MemBuffer{}

	opts := DefaultWriterOptions()
	opts.ZoomLevels = 2
	opts.ZoomSchedule = []uint32{50, 200}
	w, err := Create(mem, g, 10, opts)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		start := uint32(i * 10)
		require.NoError(t, w.AddRecord(0, start, start+10, float32(i%5)))
	}
	require.NoError(t, w.Close())

	rd, err := newReader(ioutil.NewBytesTransport(mem.Bytes()))
	require.NoError(t, err)
	defer rd.Close()

	require.Len(t, rd.Header().ZoomHeaders, 2)

	results, err := rd.Query("^chr1$", 0, 1000, 200, DefaultQueryOptions())
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.False(t, math.IsNaN(res.Summary.Mean()))
	}
}

func TestWriterAbortLeavesFileUnpatched(t *testing.T) {
	g := testGenome(t)
	mem := &ioutil.MemBuffer{}
	w, err := Create(mem, g, 10, DefaultWriterOptions())
	require.NoError(t, err)
	require.NoError(t, w.AddRecord(0, 0, 10, 1))
	w.Abort()

	err = w.Close()
	assert.Error(t, err)

	// magic was never patched in, so the buffer does not start with it
	r := ioutil.NewReader(ioutil.NewBytesTransport(mem.Bytes()))
	magic, err := r.U32()
	require.NoError(t, err)
	assert.NotEqual(t, uint32(bbi.MagicBigWig), magic)
}

func TestAddRecordRejectsUnknownChromosome(t *testing.T) {
	g := testGenome(t)
	mem := &ioutil.MemBuffer{}
	w, err := Create(mem, g, 10, DefaultWriterOptions())
	require.NoError(t, err)
	err = w.AddRecord(5, 0, 10, 1)
	assert.Error(t, err)
}
