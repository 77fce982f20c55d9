package bigwig

import (
	"io"

	"github.com/pbenner/rustynetics/bbi"
	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/ioutil"
)

// WriterState tracks the writer's one-way lifecycle: Open -> Streaming
// -> Finalizing -> Closed, with Poisoned reached from any write failure
// and Aborted reached if the caller abandons the file explicitly.
type WriterState int

const (
	StateOpen WriterState = iota
	StateStreaming
	StateFinalizing
	StateClosed
	StatePoisoned
	StateAborted
)

// WriterOptions configures block packing, compression and the zoom
// schedule a Writer builds during finalization.
type WriterOptions struct {
	BlockSize        uint32
	ItemsPerSlotData uint32
	ItemsPerSlotZoom uint32
	ZoomLevels       int
	Compress         bool
	// ZoomSchedule overrides the computed reduction levels; nil means
	// derive it from bbi.ZoomSchedule at finalization time.
	ZoomSchedule []uint32
}

// DefaultWriterOptions mirrors the package-level defaults in bbi.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		BlockSize:        bbi.DefaultRTreeBlockSize,
		ItemsPerSlotData: bbi.DefaultItemsPerSlotData,
		ItemsPerSlotZoom: bbi.DefaultItemsPerSlotZoom,
		ZoomLevels:       bbi.DefaultZoomLevels,
	}
}

// Writer streams (chrom, start, end, value) records into a new BigWig
// file. Records must arrive sorted by (chromId, start); a block never
// spans chromosomes. Create writes the chromosome tree up front; Close
// writes the R-tree and zoom sections and patches the header in a
// single pass over what was streamed.
type Writer struct {
	ws      io.WriteSeeker
	w       *ioutil.Writer
	genome  *genome.Genome
	binsize int
	opts    WriterOptions
	state   WriterState

	chromTreeOffset int64
	dataCountOffset int64
	blockCount      uint64

	pending    []bbi.Record
	allRecords []bbi.Record
	leaves     []bbi.Leaf
	totalStats bbi.BlockStats
	spanSum    uint64
	spanCount  uint64

	maxRawBlockBytes uint32
}

// Create opens a new BigWig file for writing: it writes the header
// placeholder and the chromosome tree (known upfront from g) and
// leaves the writer ready to stream records.
func Create(ws io.WriteSeeker, g *genome.Genome, binsize int, opts WriterOptions) (*Writer, error) {
	if opts.BlockSize == 0 {
		opts = DefaultWriterOptions()
	}
	w := ioutil.NewWriter(ws)
	if err := bbi.WriteHeaderPlaceholder(w, opts.ZoomLevels); err != nil {
		return nil, bbierrors.New(bbierrors.KindWriteFinalization, "writing header placeholder", err)
	}
	chromTreeOffset, err := w.Tell()
	if err != nil {
		return nil, err
	}
	if err := bbi.WriteChromTree(w, g, bbi.DefaultBTreeBlockSize); err != nil {
		return nil, err
	}
	dataCountOffset, err := w.Tell()
	if err != nil {
		return nil, err
	}
	if err := w.U32(0); err != nil { // dataCount placeholder, patched at Close
		return nil, err
	}

	return &Writer{
		ws:              ws,
		w:               w,
		genome:          g,
		binsize:         binsize,
		opts:            opts,
		state:           StateOpen,
		chromTreeOffset: chromTreeOffset,
		dataCountOffset: dataCountOffset,
		totalStats:      bbi.NewBlockStats(),
	}, nil
}

// AddRecord appends one (chrom, start, end, value) observation. The
// caller must present records sorted by (chromId, start).
func (w *Writer) AddRecord(chromID int, start, end uint32, value float32) error {
	switch w.state {
	case StateOpen:
		w.state = StateStreaming
	case StateStreaming:
	default:
		return bbierrors.New(bbierrors.KindWriteFinalization, "AddRecord called outside the Streaming state", nil)
	}
	if chromID < 0 || chromID >= w.genome.Len() {
		return bbierrors.New(bbierrors.KindUnknownChromosome, "chromosome id out of range", nil)
	}
	rec := bbi.Record{ChromIdx: uint32(chromID), Start: start, End: end, Value: value}

	if len(w.pending) > 0 && w.pending[0].ChromIdx != rec.ChromIdx {
		if err := w.flushPending(); err != nil {
			w.state = StatePoisoned
			return err
		}
	}
	w.pending = append(w.pending, rec)
	w.allRecords = append(w.allRecords, rec)
	w.spanSum += uint64(end - start)
	w.spanCount++

	if uint32(len(w.pending)) >= w.opts.ItemsPerSlotData {
		if err := w.flushPending(); err != nil {
			w.state = StatePoisoned
			return err
		}
	}
	return nil
}

func (w *Writer) flushPending() error {
	if len(w.pending) == 0 {
		return nil
	}
	buf, stats, err := bbi.PackBlock(w.pending)
	if err != nil {
		return err
	}
	if uint32(len(buf)) > w.maxRawBlockBytes {
		w.maxRawBlockBytes = uint32(len(buf))
	}
	onDisk := buf
	if w.opts.Compress {
		onDisk, err = ioutil.CompressBlock(buf, 0)
		if err != nil {
			return err
		}
	}
	offset, err := w.w.Tell()
	if err != nil {
		return err
	}
	if err := w.w.Raw(onDisk); err != nil {
		return err
	}
	chrom := w.pending[0].ChromIdx
	w.leaves = append(w.leaves, bbi.Leaf{
		ChromIdxStart: chrom,
		ChromIdxEnd:   chrom,
		BaseStart:     w.pending[0].Start,
		BaseEnd:       w.pending[len(w.pending)-1].End,
		DataOffset:    uint64(offset),
		Size:          uint64(len(onDisk)),
	})
	w.totalStats.Merge(stats)
	w.blockCount++
	w.pending = w.pending[:0]
	return nil
}

// Abort marks the writer Aborted; the partially-written file is left
// on disk but the header's magic is never patched, so readers will
// reject it.
func (w *Writer) Abort() {
	w.state = StateAborted
}

// Close finalizes the file: flushes any pending block, writes the base
// R-tree, aggregates and writes every zoom level, then patches the
// header with the real offsets and total-summary statistics.
func (w *Writer) Close() error {
	if w.state == StateAborted || w.state == StatePoisoned {
		return bbierrors.New(bbierrors.KindWriteFinalization, "cannot close a writer in its current state", nil)
	}
	if w.state == StateClosed {
		return nil
	}
	w.state = StateFinalizing

	if err := w.flushPending(); err != nil {
		w.state = StatePoisoned
		return err
	}
	dataEndOffset, err := w.w.Tell()
	if err != nil {
		w.state = StatePoisoned
		return err
	}

	if err := w.w.Seek(w.dataCountOffset); err != nil {
		w.state = StatePoisoned
		return err
	}
	if err := w.w.U32(uint32(w.blockCount)); err != nil {
		w.state = StatePoisoned
		return err
	}
	if err := w.w.Seek(dataEndOffset); err != nil {
		w.state = StatePoisoned
		return err
	}

	fullIndexOffset, err := w.w.Tell()
	if err != nil {
		w.state = StatePoisoned
		return err
	}
	if _, err := bbi.WriteRTree(w.w, w.leaves, w.opts.BlockSize, w.opts.ItemsPerSlotData); err != nil {
		w.state = StatePoisoned
		return err
	}

	zoomHeaders, err := w.writeZoomLevels()
	if err != nil {
		w.state = StatePoisoned
		return err
	}

	summaryOffset, err := w.w.Tell()
	if err != nil {
		w.state = StatePoisoned
		return err
	}

	h := &bbi.Header{
		Version:            bbi.MaxSupportedVersion,
		ZoomLevels:         uint16(len(zoomHeaders)),
		ChromTreeOffset:    uint64(w.chromTreeOffset),
		FullDataOffset:     uint64(w.dataCountOffset),
		FullIndexOffset:    fullIndexOffset,
		TotalSummaryOffset: uint64(summaryOffset),
		ZoomHeaders:        zoomHeaders,
		BasesCovered:       w.totalStats.ValidCount,
		MinVal:             w.totalStats.Min,
		MaxVal:             w.totalStats.Max,
		SumData:            w.totalStats.Sum,
		SumSquares:         w.totalStats.SumSquares,
	}
	if w.opts.Compress {
		h.UncompressBufSize = w.maxRawBlockBytes
	}

	if err := bbi.PatchHeader(w.w, h); err != nil {
		w.state = StatePoisoned
		return err
	}
	w.state = StateClosed
	return nil
}

func (w *Writer) writeZoomLevels() ([]bbi.ZoomHeader, error) {
	if w.opts.ZoomLevels == 0 || len(w.allRecords) == 0 {
		return nil, nil
	}
	schedule := w.opts.ZoomSchedule
	if schedule == nil {
		meanSpan := float64(w.spanSum) / float64(maxu64(w.spanCount, 1))
		schedule = bbi.ZoomSchedule(w.opts.ZoomLevels, uint32(w.binsize), meanSpan)
	}

	headers := make([]bbi.ZoomHeader, 0, len(schedule))
	for _, reduction := range schedule {
		zoomRecs := bbi.BuildZoomLevel(w.allRecords, reduction)
		if len(zoomRecs) == 0 {
			continue
		}
		dataOffset, err := w.w.Tell()
		if err != nil {
			return nil, err
		}
		var leaves []bbi.Leaf
		for i := 0; i < len(zoomRecs); i += int(w.opts.ItemsPerSlotZoom) {
			end := i + int(w.opts.ItemsPerSlotZoom)
			if end > len(zoomRecs) {
				end = len(zoomRecs)
			}
			chunk := zoomRecs[i:end]
			buf, err := bbi.PackZoomBlock(chunk)
			if err != nil {
				return nil, err
			}
			if uint32(len(buf)) > w.maxRawBlockBytes {
				w.maxRawBlockBytes = uint32(len(buf))
			}
			onDisk := buf
			if w.opts.Compress {
				onDisk, err = ioutil.CompressBlock(buf, 0)
				if err != nil {
					return nil, err
				}
			}
			offset, err := w.w.Tell()
			if err != nil {
				return nil, err
			}
			if err := w.w.Raw(onDisk); err != nil {
				return nil, err
			}
			leaves = append(leaves, bbi.Leaf{
				ChromIdxStart: chunk[0].ChromIdx,
				ChromIdxEnd:   chunk[len(chunk)-1].ChromIdx,
				BaseStart:     chunk[0].Start,
				BaseEnd:       chunk[len(chunk)-1].End,
				DataOffset:    uint64(offset),
				Size:          uint64(len(onDisk)),
			})
		}
		indexOffset, err := w.w.Tell()
		if err != nil {
			return nil, err
		}
		if _, err := bbi.WriteRTree(w.w, leaves, w.opts.BlockSize, w.opts.ItemsPerSlotZoom); err != nil {
			return nil, err
		}
		headers = append(headers, bbi.ZoomHeader{ReductionLevel: reduction, DataOffset: uint64(dataOffset), IndexOffset: uint64(indexOffset)})
	}
	return headers, nil
}

func maxu64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

