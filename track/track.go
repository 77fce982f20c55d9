// Package track implements the in-memory per-chromosome signal vector:
// a dense float32 array per chromosome at a fixed bin size, plus the
// arithmetic and windowed-summary primitives bigwig and coverage build
// on.
package track

import (
	"math"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/genome"
)

// Track is a named signal over a Genome at a fixed Binsize. Data[id]
// has exactly ceil(chromLength/Binsize) elements; NaN means "no data".
type Track struct {
	Name    string
	Binsize int
	Genome  *genome.Genome
	Data    [][]float32 // indexed by chromosome id
}

// New allocates a Track with every bin initialized to NaN.
func New(name string, g *genome.Genome, binsize int) *Track {
	t := &Track{Name: name, Binsize: binsize, Genome: g, Data: make([][]float32, g.Len())}
	for id := 0; id < g.Len(); id++ {
		n := nBins(g.LengthOf(id), binsize)
		v := make([]float32, n)
		for i := range v {
			v[i] = float32(math.NaN())
		}
		t.Data[id] = v
	}
	return t
}

func nBins(length uint32, binsize int) int {
	return int((int(length) + binsize - 1) / binsize)
}

func (t *Track) binOf(chrom int, pos uint32) (int, error) {
	if chrom < 0 || chrom >= len(t.Data) {
		return 0, bbierrors.New(bbierrors.KindUnknownChromosome, "chromosome id out of range", nil)
	}
	if pos >= t.Genome.LengthOf(chrom) {
		return 0, bbierrors.New(bbierrors.KindOutOfRange, "position beyond chromosome length", nil)
	}
	return int(pos) / t.Binsize, nil
}

// At returns the value of the bin containing pos on chrom.
func (t *Track) At(chrom int, pos uint32) (float32, error) {
	b, err := t.binOf(chrom, pos)
	if err != nil {
		return 0, err
	}
	return t.Data[chrom][b], nil
}

// Set overwrites the bin containing pos with v.
func (t *Track) Set(chrom int, pos uint32, v float32) error {
	b, err := t.binOf(chrom, pos)
	if err != nil {
		return err
	}
	t.Data[chrom][b] = v
	return nil
}

// Add increments the bin containing pos by v, treating a prior NaN as
// the additive identity: sums treat NaN as identity.
func (t *Track) Add(chrom int, pos uint32, v float32) error {
	b, err := t.binOf(chrom, pos)
	if err != nil {
		return err
	}
	cur := t.Data[chrom][b]
	if math.IsNaN(float64(cur)) {
		t.Data[chrom][b] = v
	} else {
		t.Data[chrom][b] = cur + v
	}
	return nil
}

// AddRange increments every bin overlapping the half-open [from, to)
// interval by v times the fraction of that bin the interval covers,
// clipping to the chromosome's bounds. This is the primitive the
// coverage engine uses per read.
func (t *Track) AddRange(chrom int, from, to uint32, v float32) error {
	if chrom < 0 || chrom >= len(t.Data) {
		return bbierrors.New(bbierrors.KindUnknownChromosome, "chromosome id out of range", nil)
	}
	length := t.Genome.LengthOf(chrom)
	if to > length {
		to = length
	}
	if from >= to {
		return nil
	}
	startBin := int(from) / t.Binsize
	endBin := int(to-1) / t.Binsize
	data := t.Data[chrom]
	for b := startBin; b <= endBin && b < len(data); b++ {
		binStart := uint32(b * t.Binsize)
		binEnd := binStart + uint32(t.Binsize)
		if binEnd > length {
			binEnd = length
		}
		overlapStart := maxu32(binStart, from)
		overlapEnd := minu32(binEnd, to)
		if overlapEnd <= overlapStart {
			continue
		}
		frac := float32(overlapEnd-overlapStart) / float32(binEnd-binStart)
		cur := data[b]
		if math.IsNaN(float64(cur)) {
			data[b] = v * frac
		} else {
			data[b] = cur + v*frac
		}
	}
	return nil
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minu32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// sameShape reports whether two tracks share a genome and bin size, the
// precondition for elementwise arithmetic.
func sameShape(a, b *Track) bool {
	if a.Binsize != b.Binsize || a.Genome.Len() != b.Genome.Len() {
		return false
	}
	for i := 0; i < a.Genome.Len(); i++ {
		if a.Genome.NameOf(i) != b.Genome.NameOf(i) || a.Genome.LengthOf(i) != b.Genome.LengthOf(i) {
			return false
		}
	}
	return true
}

// BinOp combines two equal-shaped tracks bin-by-bin using f, treating
// NaN as the identity of the combination (mirrored by the caller's f).
func BinOp(name string, a, b *Track, f func(x, y float32) float32) (*Track, error) {
	if !sameShape(a, b) {
		return nil, bbierrors.New(bbierrors.KindOutOfRange, "tracks have different genome or binsize", nil)
	}
	out := New(name, a.Genome, a.Binsize)
	for c := range a.Data {
		for i := range a.Data[c] {
			out.Data[c][i] = f(a.Data[c][i], b.Data[c][i])
		}
	}
	return out, nil
}

// AddTracks combines two tracks with NaN-as-identity addition.
func AddTracks(name string, a, b *Track) (*Track, error) {
	return BinOp(name, a, b, func(x, y float32) float32 {
		xn, yn := math.IsNaN(float64(x)), math.IsNaN(float64(y))
		switch {
		case xn && yn:
			return float32(math.NaN())
		case xn:
			return y
		case yn:
			return x
		default:
			return x + y
		}
	})
}

// WindowSummary is the (valid, min, max, sum, sumSquares) tuple the BBI
// format and this package both use to describe a window of bins.
type WindowSummary struct {
	Valid      uint32
	Min, Max   float32
	Sum, SumSq float64
}

// Mean returns Sum/Valid, or NaN if Valid is 0.
func (s WindowSummary) Mean() float64 {
	if s.Valid == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.Valid)
}

// Variance returns SumSq/Valid - Mean^2, or NaN if Valid is 0.
func (s WindowSummary) Variance() float64 {
	if s.Valid == 0 {
		return math.NaN()
	}
	mean := s.Mean()
	return s.SumSq/float64(s.Valid) - mean*mean
}

// SummarizeWindow reduces the bins of chrom covering [from, to) into a
// single WindowSummary, skipping NaN bins.
func (t *Track) SummarizeWindow(chrom int, from, to uint32) (WindowSummary, error) {
	if chrom < 0 || chrom >= len(t.Data) {
		return WindowSummary{}, bbierrors.New(bbierrors.KindUnknownChromosome, "chromosome id out of range", nil)
	}
	s := WindowSummary{Min: float32(math.Inf(1)), Max: float32(math.Inf(-1))}
	startBin := int(from) / t.Binsize
	endBin := int(to-1) / t.Binsize
	data := t.Data[chrom]
	for b := startBin; b <= endBin && b >= 0 && b < len(data); b++ {
		v := data[b]
		if math.IsNaN(float64(v)) {
			continue
		}
		s.Valid++
		s.Sum += float64(v)
		s.SumSq += float64(v) * float64(v)
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	if s.Valid == 0 {
		s.Min, s.Max = float32(math.NaN()), float32(math.NaN())
	}
	return s, nil
}
