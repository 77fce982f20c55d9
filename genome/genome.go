// Package genome holds the ordered chromosome table that every other
// component resolves names to ids against exactly once.
package genome

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pbenner/rustynetics/bbierrors"
)

// Genome is an ordered list of chromosomes. The implicit id of a
// chromosome is its position in Names/Lengths. Names must be unique.
type Genome struct {
	Names   []string
	Lengths []uint32

	idx map[string]int
}

// New builds a Genome from parallel name/length slices, validating that
// names are unique.
func New(names []string, lengths []uint32) (*Genome, error) {
	if len(names) != len(lengths) {
		return nil, errors.New("genome: names and lengths length mismatch")
	}
	g := &Genome{
		Names:   append([]string(nil), names...),
		Lengths: append([]uint32(nil), lengths...),
		idx:     make(map[string]int, len(names)),
	}
	for i, n := range names {
		if _, dup := g.idx[n]; dup {
			return nil, bbierrors.New(bbierrors.KindIndexCorruption, "duplicate chromosome name "+n, nil)
		}
		g.idx[n] = i
	}
	return g, nil
}

// ReadTwoColumn parses the simple "{name}\t{length}" text format, an
// alternative to building a Genome from a programmatic chromosome list.
func ReadTwoColumn(r io.Reader) (*Genome, error) {
	var names []string
	var lengths []uint32
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.Errorf("genome: malformed line %q", line)
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "genome: parsing length in %q", line)
		}
		names = append(names, fields[0])
		lengths = append(lengths, uint32(n))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "genome: scanning chromosome table")
	}
	return New(names, lengths)
}

// Len returns the number of chromosomes.
func (g *Genome) Len() int { return len(g.Names) }

// IdOf resolves a chromosome name to its id, or (-1, false) if absent.
func (g *Genome) IdOf(name string) (int, bool) {
	id, ok := g.idx[name]
	if !ok {
		return -1, false
	}
	return id, true
}

// NameOf resolves an id back to its chromosome name. Panics if out of
// range, mirroring slice-index semantics elsewhere in this codebase.
func (g *Genome) NameOf(id int) string { return g.Names[id] }

// LengthOf returns the length in bases of chromosome id.
func (g *Genome) LengthOf(id int) uint32 { return g.Lengths[id] }

// BasesTotal returns the sum of all chromosome lengths.
func (g *Genome) BasesTotal() uint64 {
	var total uint64
	for _, l := range g.Lengths {
		total += uint64(l)
	}
	return total
}
