package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/bigwig"
	"github.com/pbenner/rustynetics/genome"
)

func TestExportImportBigWigRoundTrip(t *testing.T) {
	g, err := genome.New([]string{"chr1", "chr2"}, []uint32{1000, 500})
	require.NoError(t, err)

	tr := New("signal", g, 100)
	require.NoError(t, tr.Set(0, 0, 1))
	require.NoError(t, tr.Set(0, 100, 2))
	require.NoError(t, tr.Set(0, 300, 3))
	require.NoError(t, tr.Set(1, 0, 9))

	path := filepath.Join(t.TempDir(), "signal.bw")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tr.ExportBigWig(f, bigwig.DefaultWriterOptions()))
	require.NoError(t, f.Close())

	imported, err := ImportBigWig(path, "signal", 100)
	require.NoError(t, err)

	for _, chrom := range []int{0, 1} {
		length := g.LengthOf(chrom)
		for pos := uint32(0); pos < length; pos += 100 {
			want, _ := tr.At(chrom, pos)
			got, _ := imported.At(chrom, pos)
			if isNaN32(want) {
				assert.True(t, isNaN32(got), "chrom %d pos %d expected NaN", chrom, pos)
				continue
			}
			assert.InDelta(t, float64(want), float64(got), 1e-5, "chrom %d pos %d", chrom, pos)
		}
	}
}

func TestImportBigWigMissingFile(t *testing.T) {
	_, err := ImportBigWig(filepath.Join(t.TempDir(), "does-not-exist.bw"), "signal", 100)
	assert.Error(t, err)
}
