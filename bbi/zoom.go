package bbi

import (
	"math"

	"github.com/pbenner/rustynetics/ioutil"
)

// zoomRecordSize is the fixed on-disk size of one zoom record: four
// uint32s, two float32s, two more float32s.
const zoomRecordSize = 32

// PackZoomBlock serializes records back-to-back with no block header
// (unlike data blocks, zoom blocks are a flat run of fixed-size
// records; their extent comes from the R-tree leaf, not a header).
func PackZoomBlock(records []ZoomRecord) ([]byte, error) {
	mem := &ioutil.MemBuffer{}
	w := ioutil.NewWriter(mem)
	for _, rec := range records {
		if err := w.U32(rec.ChromIdx); err != nil {
			return nil, err
		}
		if err := w.U32(rec.Start); err != nil {
			return nil, err
		}
		if err := w.U32(rec.End); err != nil {
			return nil, err
		}
		if err := w.U32(rec.ValidCount); err != nil {
			return nil, err
		}
		if err := w.F32(rec.MinVal); err != nil {
			return nil, err
		}
		if err := w.F32(rec.MaxVal); err != nil {
			return nil, err
		}
		if err := w.F32(rec.SumData); err != nil {
			return nil, err
		}
		if err := w.F32(rec.SumSquares); err != nil {
			return nil, err
		}
	}
	return mem.Bytes(), nil
}

// UnpackZoomBlock decodes a raw (already decompressed) zoom data block
// into its constituent fixed-size records.
func UnpackZoomBlock(buf []byte) ([]ZoomRecord, error) {
	n := len(buf) / zoomRecordSize
	r := ioutil.NewReader(ioutil.NewBytesTransport(buf))
	out := make([]ZoomRecord, 0, n)
	for i := 0; i < n; i++ {
		var rec ZoomRecord
		var err error
		if rec.ChromIdx, err = r.U32(); err != nil {
			return nil, err
		}
		if rec.Start, err = r.U32(); err != nil {
			return nil, err
		}
		if rec.End, err = r.U32(); err != nil {
			return nil, err
		}
		if rec.ValidCount, err = r.U32(); err != nil {
			return nil, err
		}
		if rec.MinVal, err = r.F32(); err != nil {
			return nil, err
		}
		if rec.MaxVal, err = r.F32(); err != nil {
			return nil, err
		}
		if rec.SumData, err = r.F32(); err != nil {
			return nil, err
		}
		if rec.SumSquares, err = r.F32(); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ZoomRecord is one pre-aggregated window in a zoom level's data
// section: a reduction-level-sized bin summarizing every base-level
// record that falls inside it.
type ZoomRecord struct {
	ChromIdx   uint32
	Start, End uint32
	ValidCount uint32
	MinVal     float32
	MaxVal     float32
	SumData    float32
	SumSquares float32
}

// ZoomSchedule computes the reduction levels a writer records, given
// the base binsize and the mean item span observed while streaming
// records: r0 = roundToBinsize(max(binsize, 16*meanItemSpan)),
// r_{k+1} = 4*r_k.
func ZoomSchedule(levels int, binsize uint32, meanItemSpan float64) []uint32 {
	if levels <= 0 {
		return nil
	}
	base := float64(binsize)
	if v := 16 * meanItemSpan; v > base {
		base = v
	}
	r0 := roundToBinsize(uint32(base), binsize)
	schedule := make([]uint32, levels)
	schedule[0] = r0
	for k := 1; k < levels; k++ {
		schedule[k] = schedule[k-1] * 4
	}
	return schedule
}

func roundToBinsize(v, binsize uint32) uint32 {
	if binsize == 0 {
		return v
	}
	n := (v + binsize/2) / binsize
	if n == 0 {
		n = 1
	}
	return n * binsize
}

// BuildZoomLevel partitions records (sorted by (ChromIdx, Start), all
// on the genome the caller is aggregating) into non-overlapping
// windows of width reduction and emits one ZoomRecord per window with
// validCount > 0.
func BuildZoomLevel(records []Record, reduction uint32) []ZoomRecord {
	if reduction == 0 {
		return nil
	}
	var out []ZoomRecord
	var cur *ZoomRecord
	windowOf := func(chrom, pos uint32) (uint32, uint32) {
		start := (pos / reduction) * reduction
		return start, start + reduction
	}
	flush := func() {
		if cur != nil && cur.ValidCount > 0 {
			out = append(out, *cur)
		}
		cur = nil
	}
	for _, rec := range records {
		pos := rec.Start
		for pos < rec.End {
			wStart, wEnd := windowOf(rec.ChromIdx, pos)
			segEnd := rec.End
			if wEnd < segEnd {
				segEnd = wEnd
			}
			span := segEnd - pos
			if cur == nil || cur.ChromIdx != rec.ChromIdx || cur.Start != wStart {
				flush()
				cur = &ZoomRecord{ChromIdx: rec.ChromIdx, Start: wStart, End: wEnd, MinVal: rec.Value, MaxVal: rec.Value}
			}
			v := rec.Value
			n := float32(span)
			cur.ValidCount += span
			if v < cur.MinVal {
				cur.MinVal = v
			}
			if v > cur.MaxVal {
				cur.MaxVal = v
			}
			cur.SumData += v * n
			cur.SumSquares += v * v * n
			pos = segEnd
		}
	}
	flush()
	return out
}

// SelectZoomLevel implements the coarsest-qualifying-level rule: among
// zoom headers with reductionLevel <= requestedBinsize, pick the one
// with the largest reductionLevel (the coarsest zoom that still meets
// the caller's resolution requirement). Returns ok=false if no zoom
// level qualifies and the caller should fall back to base data.
func SelectZoomLevel(headers []ZoomHeader, requestedBinsize uint32) (ZoomHeader, bool) {
	var (
		best ZoomHeader
		ok   bool
	)
	for _, h := range headers {
		if h.ReductionLevel > requestedBinsize {
			continue
		}
		if !ok || h.ReductionLevel > best.ReductionLevel {
			best = h
			ok = true
		}
	}
	return best, ok
}

// SelectClosestZoomLevel is the supplemented alternate selection mode:
// the zoom level whose reductionLevel is nearest requestedBinsize,
// regardless of over- or under-shooting it.
func SelectClosestZoomLevel(headers []ZoomHeader, requestedBinsize uint32) (ZoomHeader, bool) {
	var (
		best     ZoomHeader
		bestDist uint64
		ok       bool
	)
	for _, h := range headers {
		var dist uint64
		if h.ReductionLevel > requestedBinsize {
			dist = uint64(h.ReductionLevel - requestedBinsize)
		} else {
			dist = uint64(requestedBinsize - h.ReductionLevel)
		}
		if !ok || dist < bestDist {
			best = h
			bestDist = dist
			ok = true
		}
	}
	return best, ok
}

// MergedBin is the result of folding overlapping zoom records into one
// query bin.
type MergedBin struct {
	Valid float64
	Sum   float64
	SumSq float64
	Min   float64
	Max   float64
}

// Mean returns sum/valid, or NaN if the bin has no valid bases.
func (m MergedBin) Mean() float64 {
	if m.Valid == 0 {
		return math.NaN()
	}
	return m.Sum / m.Valid
}

// Variance returns sumSq/valid - mean^2, or NaN if the bin has no
// valid bases.
func (m MergedBin) Variance() float64 {
	if m.Valid == 0 {
		return math.NaN()
	}
	mean := m.Sum / m.Valid
	return m.SumSq/m.Valid - mean*mean
}

// MergeZoomRecords folds every zoom record overlapping [binStart,
// binEnd) into a single weighted summary, prorating each record's
// statistics by the fraction of it covered by the query bin.
func MergeZoomRecords(records []ZoomRecord, binStart, binEnd uint32) MergedBin {
	var out MergedBin
	out.Min = math.Inf(1)
	out.Max = math.Inf(-1)
	anyOverlap := false
	for _, rec := range records {
		start := rec.Start
		if binStart > start {
			start = binStart
		}
		end := rec.End
		if binEnd < end {
			end = binEnd
		}
		if start >= end {
			continue
		}
		span := rec.End - rec.Start
		if span == 0 {
			continue
		}
		overlap := float64(end - start)
		frac := overlap / float64(span)
		out.Valid += float64(rec.ValidCount) * frac
		out.Sum += float64(rec.SumData) * frac
		out.SumSq += float64(rec.SumSquares) * frac
		if float64(rec.MinVal) < out.Min {
			out.Min = float64(rec.MinVal)
		}
		if float64(rec.MaxVal) > out.Max {
			out.Max = float64(rec.MaxVal)
		}
		anyOverlap = true
	}
	if !anyOverlap {
		out.Min = math.NaN()
		out.Max = math.NaN()
	}
	return out
}
