package track

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pbenner/rustynetics/genome"
)

// WriteBedGraph renders the track as tab-separated "chrom start end
// value" lines, skipping NaN bins, mirroring the bedGraph interop
// bedGraph text format.
func (t *Track) WriteBedGraph(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for c, v := range t.Data {
		name := t.Genome.NameOf(c)
		var i int
		for i < len(v) {
			if isNaN32(v[i]) {
				i++
				continue
			}
			j := i + 1
			for j < len(v) && !isNaN32(v[j]) && v[j] == v[i] {
				j++
			}
			start := i * t.Binsize
			end := j * t.Binsize
			if uint32(end) > t.Genome.LengthOf(c) {
				end = int(t.Genome.LengthOf(c))
			}
			if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%g\n", name, start, end, v[i]); err != nil {
				return errors.Wrap(err, "track: writing bedGraph line")
			}
			i = j
		}
	}
	return bw.Flush()
}

func isNaN32(v float32) bool { return v != v }

// ReadBedGraph parses tab-separated "chrom start end value" records
// into a fresh Track over g at the given binsize.
func ReadBedGraph(r io.Reader, name string, g *genome.Genome, binsize int) (*Track, error) {
	t := New(name, g, binsize)
	if err := ReadBedGraphInto(r, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadBedGraphInto streams bedGraph records into an existing Track
// whose genome and binsize are already fixed; ReadBedGraph is a thin
// wrapper that allocates the Track first.
func ReadBedGraphInto(r io.Reader, t *Track) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return errors.Errorf("track: malformed bedGraph line %q", line)
		}
		id, ok := t.Genome.IdOf(fields[0])
		if !ok {
			return errors.Errorf("track: unknown chromosome %q", fields[0])
		}
		start, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return errors.Wrapf(err, "track: parsing start in %q", line)
		}
		end, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return errors.Wrapf(err, "track: parsing end in %q", line)
		}
		value, err := strconv.ParseFloat(fields[3], 32)
		if err != nil {
			return errors.Wrapf(err, "track: parsing value in %q", line)
		}
		if err := t.setRangeExact(id, uint32(start), uint32(end), float32(value)); err != nil {
			return err
		}
	}
	return errors.Wrap(sc.Err(), "track: scanning bedGraph")
}

// setRangeExact overwrites (not accumulates) every bin touched by
// [from, to) with v; used for bedGraph import where each input record
// already represents a resolved value rather than a read to accumulate.
func (t *Track) setRangeExact(chrom int, from, to uint32, v float32) error {
	if from >= to {
		return nil
	}
	length := t.Genome.LengthOf(chrom)
	if to > length {
		to = length
	}
	startBin := int(from) / t.Binsize
	endBin := int(to-1) / t.Binsize
	data := t.Data[chrom]
	for b := startBin; b <= endBin && b < len(data); b++ {
		data[b] = v
	}
	return nil
}
