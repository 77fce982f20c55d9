// Package coverage implements the BAM-to-track pipeline: fragment-length
// estimation by strand cross-correlation, per-read coverage
// accumulation, and treatment/control normalization, built on top of
// track.Track and emitted through the bigwig writer.
package coverage

import (
	"github.com/biogo/hts/sam"

	"github.com/pbenner/rustynetics/genome"
)

// ReadRecord is the decoded-record shape this package consumes: a
// chromosome id already resolved against a genome.Genome, the 0-based
// leftmost mapped position, strand, paired-end bookkeeping, and the
// number of reference bases the alignment actually consumes (from its
// CIGAR). BAM parsing itself is delegated to the caller.
type ReadRecord struct {
	ChromID        int
	Pos0           uint32
	Reverse        bool
	Paired         bool
	CigarRefLen    uint32
	TemplateLength int
}

// FromSAM adapts a decoded *sam.Record into a ReadRecord, resolving its
// reference name against g. It reports ok=false for records this
// engine does not accumulate: unmapped, secondary, supplementary,
// duplicate, QC-failed, or referencing a chromosome absent from g.
func FromSAM(rec *sam.Record, g *genome.Genome) (ReadRecord, bool) {
	if rec.Flags&sam.Unmapped != 0 ||
		rec.Flags&sam.Secondary != 0 ||
		rec.Flags&sam.Supplementary != 0 ||
		rec.Flags&sam.Duplicate != 0 ||
		rec.Flags&sam.QCFail != 0 {
		return ReadRecord{}, false
	}
	if rec.Ref == nil {
		return ReadRecord{}, false
	}
	id, ok := g.IdOf(rec.Ref.Name())
	if !ok {
		return ReadRecord{}, false
	}
	ref, _ := rec.Cigar.Lengths()
	return ReadRecord{
		ChromID:        id,
		Pos0:           uint32(rec.Pos),
		Reverse:        rec.Flags&sam.Reverse != 0,
		Paired:         rec.Flags&sam.Paired != 0,
		CigarRefLen:    uint32(ref),
		TemplateLength: rec.TempLen,
	}, true
}
