package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/genome"
)

func testGenome(t *testing.T) *genome.Genome {
	t.Helper()
	g, err := genome.New([]string{"chr1", "chr2"}, []uint32{1000, 500})
	require.NoError(t, err)
	return g
}

func TestNewStartsAllNaN(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	require.Len(t, tr.Data, 2)
	assert.Equal(t, 10, len(tr.Data[0]))
	assert.Equal(t, 5, len(tr.Data[1]))
	v, err := tr.At(0, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(v)))
}

func TestSetAndAt(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	require.NoError(t, tr.Set(0, 150, 3.5))
	v, err := tr.At(0, 199)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), v)
}

func TestAddTreatsNaNAsIdentity(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	require.NoError(t, tr.Add(0, 0, 2))
	require.NoError(t, tr.Add(0, 0, 3))
	v, err := tr.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(5), v)
}

func TestAddRangeFractionalOverlap(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	require.NoError(t, tr.AddRange(0, 50, 150, 2))
	v0, _ := tr.At(0, 0)
	v1, _ := tr.At(0, 100)
	assert.InDelta(t, 1.0, v0, 1e-6) // half of bin 0 covered: 2 * 0.5
	assert.InDelta(t, 1.0, v1, 1e-6) // half of bin 1 covered: 2 * 0.5
}

func TestAddRangeClipsToChromosomeLength(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	require.NoError(t, tr.AddRange(1, 450, 600, 4))
	v, err := tr.At(1, 499)
	require.NoError(t, err)
	assert.InDelta(t, float64(4)*0.5, float64(v), 1e-6)
}

func TestBinOpRejectsShapeMismatch(t *testing.T) {
	g1 := testGenome(t)
	g2, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	a := New("a", g1, 100)
	b := New("b", g2, 100)
	_, err = BinOp("c", a, b, func(x, y float32) float32 { return x })
	assert.Error(t, err)
}

func TestAddTracksNaNIdentity(t *testing.T) {
	g := testGenome(t)
	a := New("a", g, 100)
	b := New("b", g, 100)
	require.NoError(t, a.Set(0, 0, 1))
	require.NoError(t, b.Set(0, 0, 2))
	require.NoError(t, b.Set(0, 100, 5)) // a's bin 1 stays NaN

	sum, err := AddTracks("sum", a, b)
	require.NoError(t, err)
	v0, _ := sum.At(0, 0)
	v1, _ := sum.At(0, 100)
	assert.Equal(t, float32(3), v0)
	assert.Equal(t, float32(5), v1)
}

func TestSummarizeWindow(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	require.NoError(t, tr.Set(0, 0, 1))
	require.NoError(t, tr.Set(0, 100, 3))
	s, err := tr.SummarizeWindow(0, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), s.Valid)
	assert.InDelta(t, 2.0, s.Mean(), 1e-9)
}

func TestSummarizeWindowAllNaNReturnsNaNMean(t *testing.T) {
	g := testGenome(t)
	tr := New("x", g, 100)
	s, err := tr.SummarizeWindow(0, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), s.Valid)
	assert.True(t, math.IsNaN(s.Mean()))
}
