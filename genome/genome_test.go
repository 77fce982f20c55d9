package genome

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New([]string{"chr1", "chr1"}, []uint32{100, 200})
	require.Error(t, err)
}

func TestNewRejectsMismatchedLengths(t *testing.T) {
	_, err := New([]string{"chr1", "chr2"}, []uint32{100})
	require.Error(t, err)
}

func TestIdOfAndNameOfRoundTrip(t *testing.T) {
	g, err := New([]string{"chr1", "chr2", "chrX"}, []uint32{100, 200, 300})
	require.NoError(t, err)

	id, ok := g.IdOf("chr2")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, "chr2", g.NameOf(id))
	assert.Equal(t, uint32(200), g.LengthOf(id))

	_, ok = g.IdOf("chrY")
	assert.False(t, ok)
}

func TestBasesTotal(t *testing.T) {
	g, err := New([]string{"chr1", "chr2"}, []uint32{100, 250})
	require.NoError(t, err)
	assert.Equal(t, uint64(350), g.BasesTotal())
}

func TestReadTwoColumn(t *testing.T) {
	input := "chr1\t100\n# a comment\n\nchr2\t200\n"
	g, err := ReadTwoColumn(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
	assert.Equal(t, "chr1", g.NameOf(0))
	assert.Equal(t, uint32(200), g.LengthOf(1))
}

func TestReadTwoColumnMalformedLine(t *testing.T) {
	_, err := ReadTwoColumn(strings.NewReader("chr1\n"))
	require.Error(t, err)
}
