package track

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/genome"
)

func TestWriteBedGraphMergesEqualRuns(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	tr := New("x", g, 100)
	require.NoError(t, tr.Set(0, 0, 5))
	require.NoError(t, tr.Set(0, 100, 5))
	require.NoError(t, tr.Set(0, 200, 7))

	var buf strings.Builder
	require.NoError(t, tr.WriteBedGraph(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "chr1\t0\t200\t5", lines[0])
	assert.Equal(t, "chr1\t200\t300\t7", lines[1])
}

func TestReadBedGraphRoundTrip(t *testing.T) {
	g, err := genome.New([]string{"chr1", "chr2"}, []uint32{1000, 500})
	require.NoError(t, err)
	input := "chr1\t0\t200\t5\nchr2\t100\t200\t9\n"
	tr, err := ReadBedGraph(strings.NewReader(input), "x", g, 100)
	require.NoError(t, err)

	v, err := tr.At(0, 50)
	require.NoError(t, err)
	assert.Equal(t, float32(5), v)

	v, err = tr.At(1, 150)
	require.NoError(t, err)
	assert.Equal(t, float32(9), v)
}

func TestReadBedGraphUnknownChromosome(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	_, err = ReadBedGraph(strings.NewReader("chrX\t0\t100\t1\n"), "x", g, 100)
	assert.Error(t, err)
}

func TestReadBedGraphMalformedLine(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	_, err = ReadBedGraph(strings.NewReader("chr1\t0\t100\n"), "x", g, 100)
	assert.Error(t, err)
}
