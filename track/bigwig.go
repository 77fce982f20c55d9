package track

import (
	"io"
	"math"

	"github.com/pbenner/rustynetics/bigwig"
)

// ExportBigWig streams every valid (non-NaN) bin as a (chrom, start,
// end, value) record, in chromosome-table order, into a new BigWig
// file.
func (t *Track) ExportBigWig(w io.WriteSeeker, opts bigwig.WriterOptions) error {
	bw, err := bigwig.Create(w, t.Genome, t.Binsize, opts)
	if err != nil {
		return err
	}
	for chrom, data := range t.Data {
		length := t.Genome.LengthOf(chrom)
		for i, v := range data {
			if isNaN32(v) {
				continue
			}
			start := uint32(i * t.Binsize)
			end := start + uint32(t.Binsize)
			if end > length {
				end = length
			}
			if err := bw.AddRecord(chrom, start, end, v); err != nil {
				bw.Abort()
				return err
			}
		}
	}
	return bw.Close()
}

// ImportBigWig reads every chromosome of a BigWig file at the given
// binsize into a fresh Track, storing each bin's mean. Queries use the
// default zoom selection, so a zoom level whose reduction is <= binsize
// serves the data when the file has one; otherwise base-level data does.
func ImportBigWig(path string, name string, binsize int) (*Track, error) {
	rd, err := bigwig.Open(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	g := rd.Genome()
	t := New(name, g, binsize)
	for id := 0; id < g.Len(); id++ {
		chromName := g.NameOf(id)
		results, err := rd.Query("^"+chromName+"$", 0, g.LengthOf(id), uint32(binsize), bigwig.DefaultQueryOptions())
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			if res.Err != nil {
				continue
			}
			mean := res.Summary.Mean()
			if math.IsNaN(mean) {
				continue
			}
			if err := t.setRangeExact(id, res.Summary.Start, res.Summary.End, float32(mean)); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
