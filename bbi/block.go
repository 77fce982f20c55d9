package bbi

import (
	"math"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/ioutil"
)

// Block types, matching the on-disk discriminant byte.
const (
	BlockTypeBedGraph     uint8 = 1
	BlockTypeVariableStep uint8 = 2
	BlockTypeFixedStep    uint8 = 3
)

// Record is one base-level data point, in the same shape for all three
// block encodings; the packer decides which wire form fits.
type Record struct {
	ChromIdx   uint32
	Start, End uint32
	Value      float32
}

// BlockStats accumulates the running per-block (and, summed across
// blocks, file-level) statistics that feed the total-summary block.
type BlockStats struct {
	ValidCount uint64
	Min, Max   float64
	Sum        float64
	SumSquares float64
}

// NewBlockStats returns a BlockStats ready to accumulate, with Min/Max
// seeded at +/-Inf so the first Add always takes.
func NewBlockStats() BlockStats {
	return BlockStats{Min: math.Inf(1), Max: math.Inf(-1)}
}

func (s *BlockStats) add(v float32, span uint32) {
	fv := float64(v)
	n := float64(span)
	s.ValidCount += uint64(span)
	if fv < s.Min {
		s.Min = fv
	}
	if fv > s.Max {
		s.Max = fv
	}
	s.Sum += fv * n
	s.SumSquares += fv * fv * n
}

// Merge folds other into s, for rolling per-block stats up to the
// file-level total summary.
func (s *BlockStats) Merge(other BlockStats) {
	if other.ValidCount == 0 {
		return
	}
	if s.ValidCount == 0 {
		*s = other
		return
	}
	if other.Min < s.Min {
		s.Min = other.Min
	}
	if other.Max > s.Max {
		s.Max = other.Max
	}
	s.ValidCount += other.ValidCount
	s.Sum += other.Sum
	s.SumSquares += other.SumSquares
}

// PackBlock chooses a wire encoding for a run of same-chromosome
// records already sorted by Start: fixed-step if the records are
// contiguous (each record starts where the previous one ends) and
// equal-span; variable-step if spans agree otherwise; bedGraph
// otherwise. It
// returns the serialized (uncompressed) block bytes and the stats
// accumulated over the run.
func PackBlock(records []Record) ([]byte, BlockStats, error) {
	if len(records) == 0 {
		return nil, BlockStats{}, bbierrors.New(bbierrors.KindIndexCorruption, "cannot pack an empty block", nil)
	}
	stats := NewBlockStats()
	chrom := records[0].ChromIdx
	span := records[0].End - records[0].Start

	sameSpan := true
	for _, rec := range records {
		if rec.ChromIdx != chrom {
			return nil, BlockStats{}, bbierrors.New(bbierrors.KindIndexCorruption, "a block cannot span chromosomes", nil)
		}
		if rec.End-rec.Start != span {
			sameSpan = false
		}
		stats.add(rec.Value, rec.End-rec.Start)
	}

	fixed := sameSpan && len(records) > 0
	var step uint32
	if fixed && len(records) > 1 {
		step = records[1].Start - records[0].Start
		if step == 0 || step != span {
			fixed = false
		}
		for i := 1; i < len(records); i++ {
			if records[i].Start-records[i-1].Start != step {
				fixed = false
				break
			}
		}
	}

	var (
		buf []byte
		err error
	)
	switch {
	case fixed:
		buf, err = encodeFixedStep(records, chrom, step, span)
	case sameSpan:
		buf, err = encodeVariableStep(records, chrom, span)
	default:
		buf, err = encodeBedGraph(records, chrom)
	}
	return buf, stats, err
}

func dataHeader(w *ioutil.Writer, chrom, start, end, step, span uint32, blockType uint8, itemCount uint16) error {
	if err := w.U32(chrom); err != nil {
		return err
	}
	if err := w.U32(start); err != nil {
		return err
	}
	if err := w.U32(end); err != nil {
		return err
	}
	if err := w.U32(step); err != nil {
		return err
	}
	if err := w.U32(span); err != nil {
		return err
	}
	if err := w.U8(blockType); err != nil {
		return err
	}
	if err := w.U8(0); err != nil { // reserved
		return err
	}
	return w.U16(itemCount)
}

func encodeFixedStep(records []Record, chrom, step, span uint32) ([]byte, error) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	if err := dataHeader(w, chrom, records[0].Start, records[len(records)-1].End, step, span, BlockTypeFixedStep, uint16(len(records))); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.F32(rec.Value); err != nil {
			return nil, err
		}
	}
	return mem.Bytes(), nil
}

func encodeVariableStep(records []Record, chrom, span uint32) ([]byte, error) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	if err := dataHeader(w, chrom, records[0].Start, records[len(records)-1].End, 0, span, BlockTypeVariableStep, uint16(len(records))); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.U32(rec.Start); err != nil {
			return nil, err
		}
		if err := w.F32(rec.Value); err != nil {
			return nil, err
		}
	}
	return mem.Bytes(), nil
}

func encodeBedGraph(records []Record, chrom uint32) ([]byte, error) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	if err := dataHeader(w, chrom, records[0].Start, records[len(records)-1].End, 0, 0, BlockTypeBedGraph, uint16(len(records))); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.U32(rec.Start); err != nil {
			return nil, err
		}
		if err := w.U32(rec.End); err != nil {
			return nil, err
		}
		if err := w.F32(rec.Value); err != nil {
			return nil, err
		}
	}
	return mem.Bytes(), nil
}

// UnpackBlock decodes a raw (already decompressed) data block into its
// constituent records.
func UnpackBlock(buf []byte) ([]Record, error) {
	r := ioutil.NewReader(ioutil.NewBytesTransport(buf))
	chrom, err := r.U32()
	if err != nil {
		return nil, err
	}
	headerStart, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil { // end, redundant with per-record data
		return nil, err
	}
	step, err := r.U32()
	if err != nil {
		return nil, err
	}
	span, err := r.U32()
	if err != nil {
		return nil, err
	}
	blockType, err := r.U8()
	if err != nil {
		return nil, err
	}
	if _, err := r.U8(); err != nil { // reserved
		return nil, err
	}
	itemCount, err := r.U16()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, itemCount)
	switch blockType {
	case BlockTypeFixedStep:
		for i := 0; i < int(itemCount); i++ {
			value, err := r.F32()
			if err != nil {
				return nil, err
			}
			pos := headerStart + uint32(i)*step
			records = append(records, Record{ChromIdx: chrom, Start: pos, End: pos + span, Value: value})
		}
	case BlockTypeVariableStep:
		for i := 0; i < int(itemCount); i++ {
			pos, err := r.U32()
			if err != nil {
				return nil, err
			}
			value, err := r.F32()
			if err != nil {
				return nil, err
			}
			records = append(records, Record{ChromIdx: chrom, Start: pos, End: pos + span, Value: value})
		}
	case BlockTypeBedGraph:
		for i := 0; i < int(itemCount); i++ {
			start, err := r.U32()
			if err != nil {
				return nil, err
			}
			end, err := r.U32()
			if err != nil {
				return nil, err
			}
			value, err := r.F32()
			if err != nil {
				return nil, err
			}
			records = append(records, Record{ChromIdx: chrom, Start: start, End: end, Value: value})
		}
	default:
		return nil, bbierrors.New(bbierrors.KindIndexCorruption, "unknown data block type", nil)
	}
	return records, nil
}
