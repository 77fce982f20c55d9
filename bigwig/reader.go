// Package bigwig is the public surface for opening, querying and
// writing BigWig files, built on the wire-format primitives in
// package bbi.
package bigwig

import (
	"regexp"

	"github.com/pbenner/rustynetics/bbi"
	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/ioutil"
)

// ZoomSelectionMode picks between the coarsest-qualifying zoom rule and
// the closest-reduction alternate carried over from the reference reader.
type ZoomSelectionMode int

const (
	// ZoomCoarsestQualifying selects the largest reductionLevel that is
	// still <= the requested binsize, falling back to base data if none
	// qualifies. This is the default.
	ZoomCoarsestQualifying ZoomSelectionMode = iota
	// ZoomClosest selects whichever zoom level's reductionLevel is
	// numerically closest to the requested binsize, over- or
	// undershooting it.
	ZoomClosest
)

// QueryOptions configures a single Query call.
type QueryOptions struct {
	ZoomSelection ZoomSelectionMode
}

// DefaultQueryOptions returns the coarsest-qualifying zoom selection rule.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{ZoomSelection: ZoomCoarsestQualifying}
}

// Reader opens a BigWig file for querying. It holds its Transport open
// for its entire lifetime; callers must call Close when done.
type Reader struct {
	transport ioutil.Transport
	r         *ioutil.Reader
	header    *bbi.Header
	chromTree *bbi.ChromTree
	baseIndex *bbi.RTree
	zoomIndex []*bbi.RTree // one per h.ZoomHeaders entry, lazily loaded
}

// Open opens a local BigWig file.
func Open(path string) (*Reader, error) {
	t, err := ioutil.OpenLocal(path)
	if err != nil {
		return nil, err
	}
	return newReader(t)
}

// OpenURL opens a BigWig file served over HTTP(S) via byte-range
// requests.
func OpenURL(url string, opts ioutil.HTTPRangeOptions) (*Reader, error) {
	t, err := ioutil.OpenHTTPRange(url, opts)
	if err != nil {
		return nil, err
	}
	return newReader(t)
}

func newReader(t ioutil.Transport) (*Reader, error) {
	r := ioutil.NewReader(t)
	h, err := bbi.ReadHeader(r)
	if err != nil {
		t.Close()
		return nil, err
	}
	ct, err := bbi.ReadChromTree(r, h.ChromTreeOffset)
	if err != nil {
		t.Close()
		return nil, err
	}
	base, err := bbi.ReadRTreeHeader(r, h.FullIndexOffset)
	if err != nil {
		t.Close()
		return nil, err
	}
	return &Reader{
		transport: t,
		r:         r,
		header:    h,
		chromTree: ct,
		baseIndex: base,
		zoomIndex: make([]*bbi.RTree, len(h.ZoomHeaders)),
	}, nil
}

// Close releases the underlying transport.
func (rd *Reader) Close() error { return rd.transport.Close() }

// Genome returns the chromosome table resolved from the file.
func (rd *Reader) Genome() *genome.Genome { return rd.chromTree.Genome }

// Header exposes the decoded file header, including total-summary
// statistics.
func (rd *Reader) Header() *bbi.Header { return rd.header }

func (rd *Reader) zoomTree(level int) (*bbi.RTree, error) {
	if rd.zoomIndex[level] != nil {
		return rd.zoomIndex[level], nil
	}
	t, err := bbi.ReadRTreeHeader(rd.r, rd.header.ZoomHeaders[level].IndexOffset)
	if err != nil {
		return nil, err
	}
	rd.zoomIndex[level] = t
	return t, nil
}

func (rd *Reader) selectZoom(binsize uint32, opts QueryOptions) (int, bool) {
	if len(rd.header.ZoomHeaders) == 0 {
		return 0, false
	}
	var (
		zh bbi.ZoomHeader
		ok bool
	)
	switch opts.ZoomSelection {
	case ZoomClosest:
		zh, ok = bbi.SelectClosestZoomLevel(rd.header.ZoomHeaders, binsize)
	default:
		zh, ok = bbi.SelectZoomLevel(rd.header.ZoomHeaders, binsize)
	}
	if !ok {
		return 0, false
	}
	for i, h := range rd.header.ZoomHeaders {
		if h == zh {
			return i, true
		}
	}
	return 0, false
}

// Summary is one reduced output bin from a Query, carrying its genomic
// coordinates alongside the statistics.
type Summary struct {
	Chrom      string
	Start, End uint32
	bbi.MergedBin
}

// Err is non-nil when this element represents a recoverable failure
// (e.g. a corrupt block) rather than data; the sequence continues past
// it so the caller can choose to skip.
type Result struct {
	Summary Summary
	Err     error
}

// Query resolves seqnameRegex against the chromosome table and, for
// each match in chromosome-table order, emits binsize-wide Summary
// bins covering [from, to) reduced from either a zoom level or base
// data per opts.ZoomSelection. Errors surface as elements of the
// returned slice rather than aborting the whole query, matching the
// "errors as sequence elements" contract.
func (rd *Reader) Query(seqnameRegex string, from, to uint32, binsize uint32, opts QueryOptions) ([]Result, error) {
	re, err := regexp.Compile(seqnameRegex)
	if err != nil {
		return nil, bbierrors.New(bbierrors.KindOutOfRange, "invalid seqname regex", err)
	}
	g := rd.Genome()
	var out []Result
	for id := 0; id < g.Len(); id++ {
		name := g.NameOf(id)
		if !re.MatchString(name) {
			continue
		}
		chromTo := to
		if chromTo == 0 || chromTo > g.LengthOf(id) {
			chromTo = g.LengthOf(id)
		}
		results, err := rd.queryChrom(id, name, from, chromTo, binsize, opts)
		if err != nil {
			out = append(out, Result{Err: err})
			continue
		}
		out = append(out, results...)
	}
	return out, nil
}

func (rd *Reader) queryChrom(chromID int, name string, from, to, binsize uint32, opts QueryOptions) ([]Result, error) {
	zoomLevel, useZoom := rd.selectZoom(binsize, opts)

	var (
		tree      *bbi.RTree
		zoomRead  bool
		decompLim uint32
	)
	decompLim = rd.header.UncompressBufSize
	if useZoom {
		t, err := rd.zoomTree(zoomLevel)
		if err != nil {
			return nil, err
		}
		tree = t
		zoomRead = true
	} else {
		tree = rd.baseIndex
	}

	pointers, err := tree.Overlapping(rd.r, chromID, from, to)
	if err != nil {
		return nil, err
	}

	var results []Result
	for b := from; b < to; b += binsize {
		binEnd := b + binsize
		if binEnd > to {
			binEnd = to
		}
		if zoomRead {
			recs, err := rd.readZoomRecords(pointers, decompLim, chromID, b, binEnd)
			if err != nil {
				results = append(results, Result{Err: err})
				continue
			}
			merged := bbi.MergeZoomRecords(recs, b, binEnd)
			results = append(results, Result{Summary: Summary{Chrom: name, Start: b, End: binEnd, MergedBin: merged}})
		} else {
			recs, err := rd.readDataRecords(pointers, decompLim, chromID, b, binEnd)
			if err != nil {
				results = append(results, Result{Err: err})
				continue
			}
			results = append(results, Result{Summary: Summary{Chrom: name, Start: b, End: binEnd, MergedBin: mergeRecords(recs, b, binEnd)}})
		}
	}
	return results, nil
}

func (rd *Reader) readDataRecords(pointers []bbi.BlockPointer, decompLim uint32, chromID int, from, to uint32) ([]bbi.Record, error) {
	var out []bbi.Record
	for _, p := range pointers {
		raw, err := rd.readBlock(p, decompLim)
		if err != nil {
			return nil, err
		}
		recs, err := bbi.UnpackBlock(raw)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if int(rec.ChromIdx) != chromID || rec.End <= from || rec.Start >= to {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (rd *Reader) readZoomRecords(pointers []bbi.BlockPointer, decompLim uint32, chromID int, from, to uint32) ([]bbi.ZoomRecord, error) {
	var out []bbi.ZoomRecord
	for _, p := range pointers {
		raw, err := rd.readBlock(p, decompLim)
		if err != nil {
			return nil, err
		}
		recs, err := bbi.UnpackZoomBlock(raw)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if int(rec.ChromIdx) != chromID || rec.End <= from || rec.Start >= to {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (rd *Reader) readBlock(p bbi.BlockPointer, decompLim uint32) ([]byte, error) {
	raw, err := rd.r.BytesAt(int64(p.Offset), int(p.Size))
	if err != nil {
		return nil, err
	}
	if rd.header.Compressed() {
		return ioutil.DecompressBlock(raw, decompLim)
	}
	return raw, nil
}

// mergeRecords folds base-level records overlapping [from, to) into a
// MergedBin the same way a zoom level would, so callers see one shape
// regardless of which data source served the query.
func mergeRecords(recs []bbi.Record, from, to uint32) bbi.MergedBin {
	zoomRecs := make([]bbi.ZoomRecord, 0, len(recs))
	for _, rec := range recs {
		span := rec.End - rec.Start
		if span == 0 {
			continue
		}
		v := rec.Value
		zoomRecs = append(zoomRecs, bbi.ZoomRecord{
			ChromIdx:   rec.ChromIdx,
			Start:      rec.Start,
			End:        rec.End,
			ValidCount: span,
			MinVal:     v,
			MaxVal:     v,
			SumData:    v * float32(span),
			SumSquares: v * v * float32(span),
		})
	}
	return bbi.MergeZoomRecords(zoomRecs, from, to)
}
