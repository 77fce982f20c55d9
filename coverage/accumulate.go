package coverage

import (
	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/track"
)

// OverlapMode picks how a fragment's coverage is spread across the
// bins it touches. It is fixed for the lifetime of a single track; the
// two idioms are not mixed within one accumulation pass.
type OverlapMode int

const (
	// OverlapFractional increments each touched bin by the fraction of
	// the bin the fragment covers. The default.
	OverlapFractional OverlapMode = iota
	// OverlapAny increments every touched bin by exactly 1, pileup-style,
	// regardless of how much of the bin the fragment covers.
	OverlapAny
)

// FragmentSpanMode selects how a paired-end fragment's span is derived.
type FragmentSpanMode int

const (
	// SpanFromTLEN uses the record's TLEN/TempLen field directly.
	SpanFromTLEN FragmentSpanMode = iota
	// SpanInferred ignores TLEN: paired reads contribute only their own
	// mapped span. No span is inferred from the mate's CIGAR or position;
	// callers that resolve the span upstream can pass it as
	// TemplateLength and use SpanFromTLEN instead.
	SpanInferred
)

// AccumulateOptions configures one call to Accumulate.
type AccumulateOptions struct {
	Binsize int
	// FragmentLength extends single-end reads 3'-ward to this many
	// bases. 0 means no extension (use the read's own mapped span).
	FragmentLength int
	Overlap        OverlapMode
	SpanMode       FragmentSpanMode
}

// fragmentInterval computes the half-open [start, end) genomic interval
// a read contributes to the coverage track: the mate-pair span for
// paired reads with a usable TLEN, otherwise a 3'-ward extension to
// FragmentLength for single-end reads, otherwise the read's own mapped
// span.
func fragmentInterval(r ReadRecord, chromLen uint32, opts AccumulateOptions) (uint32, uint32) {
	start := r.Pos0
	end := start + r.CigarRefLen

	switch {
	case r.Paired && opts.SpanMode == SpanFromTLEN && r.TemplateLength != 0:
		span := r.TemplateLength
		if span < 0 {
			span = -span
		}
		if r.Reverse {
			end = start + r.CigarRefLen
			if uint32(span) > end {
				start = 0
			} else {
				start = end - uint32(span)
			}
		} else {
			end = start + uint32(span)
		}
	case !r.Paired && opts.FragmentLength > 0:
		if r.Reverse {
			end = start + r.CigarRefLen
			if uint32(opts.FragmentLength) > end {
				start = 0
			} else {
				start = end - uint32(opts.FragmentLength)
			}
		} else {
			end = start + uint32(opts.FragmentLength)
		}
	}

	if end > chromLen {
		end = chromLen
	}
	if start > end {
		start = end
	}
	return start, end
}

// Accumulate streams reads into t, extending each to its fragment span
// and incrementing the bins it overlaps under opts.Overlap. Reads
// referencing a chromosome outside t's genome are a fatal error for
// the whole call; callers wanting to skip a broken BAM file entirely
// should do so at the Pipeline level instead.
func Accumulate(t *track.Track, reads []ReadRecord, opts AccumulateOptions) error {
	for _, r := range reads {
		if r.ChromID < 0 || r.ChromID >= t.Genome.Len() {
			return bbierrors.New(bbierrors.KindUnknownChromosome, "read references a chromosome outside the target genome", nil)
		}
		chromLen := t.Genome.LengthOf(r.ChromID)
		start, end := fragmentInterval(r, chromLen, opts)
		if start >= end {
			continue
		}
		switch opts.Overlap {
		case OverlapAny:
			if err := addAnyOverlap(t, r.ChromID, start, end); err != nil {
				return err
			}
		default:
			if err := t.AddRange(r.ChromID, start, end, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// addAnyOverlap increments every bin touched by [from, to) by exactly
// 1, regardless of overlap fraction.
func addAnyOverlap(t *track.Track, chrom int, from, to uint32) error {
	length := t.Genome.LengthOf(chrom)
	startBin := int(from) / t.Binsize
	endBin := int(to-1) / t.Binsize
	for b := startBin; b <= endBin; b++ {
		pos := uint32(b * t.Binsize)
		if pos >= length {
			break
		}
		if err := t.Add(chrom, pos, 1); err != nil {
			return err
		}
	}
	return nil
}
