package bbi

import (
	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/ioutil"
)

// ReadHeader parses the 64-byte file header, the zoom-level table that
// follows it, and (if present) the total-summary block.
func ReadHeader(r *ioutil.Reader) (*Header, error) {
	r.Seek(0)
	magic, err := r.U32()
	if err != nil {
		return nil, err
	}
	if magic != MagicBigWig {
		return nil, bbierrors.New(bbierrors.KindBadMagic, "file does not start with the BigWig magic", nil)
	}

	h := &Header{}
	var readErr error
	must := func(v interface{}) {
		if readErr != nil {
			return
		}
		switch p := v.(type) {
		case *uint16:
			*p, readErr = r.U16()
		case *uint32:
			*p, readErr = r.U32()
		case *uint64:
			*p, readErr = r.U64()
		}
	}
	must(&h.Version)
	must(&h.ZoomLevels)
	must(&h.ChromTreeOffset)
	must(&h.FullDataOffset)
	must(&h.FullIndexOffset)
	must(&h.FieldCount)
	must(&h.DefinedFieldCount)
	must(&h.AutoSqlOffset)
	must(&h.TotalSummaryOffset)
	must(&h.UncompressBufSize)
	must(&h.ExtensionOffset)
	if readErr != nil {
		return nil, readErr
	}

	if h.Version < MinSupportedVersion || h.Version > MaxSupportedVersion {
		return nil, bbierrors.New(bbierrors.KindUnsupportedVersion, "unsupported BBI version", nil)
	}

	h.ZoomHeaders = make([]ZoomHeader, h.ZoomLevels)
	for i := range h.ZoomHeaders {
		level, err := r.U32()
		if err != nil {
			return nil, err
		}
		if _, err := r.U32(); err != nil { // padding
			return nil, err
		}
		dataOff, err := r.U64()
		if err != nil {
			return nil, err
		}
		idxOff, err := r.U64()
		if err != nil {
			return nil, err
		}
		h.ZoomHeaders[i] = ZoomHeader{ReductionLevel: level, DataOffset: dataOff, IndexOffset: idxOff}
	}

	if h.TotalSummaryOffset > 0 {
		r.Seek(int64(h.TotalSummaryOffset))
		if h.BasesCovered, err = r.U64(); err != nil {
			return nil, err
		}
		if h.MinVal, err = r.F64(); err != nil {
			return nil, err
		}
		if h.MaxVal, err = r.F64(); err != nil {
			return nil, err
		}
		if h.SumData, err = r.F64(); err != nil {
			return nil, err
		}
		if h.SumSquares, err = r.F64(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// WriteHeaderPlaceholder writes HeaderSize zero bytes followed by
// ZoomLevels zoom-header slots (also zeroed), leaving the cursor
// positioned right after them. The writer patches these fields during
// finalization once the true offsets are known.
func WriteHeaderPlaceholder(w *ioutil.Writer, zoomLevels int) error {
	if err := w.Raw(make([]byte, HeaderSize)); err != nil {
		return err
	}
	return w.Raw(make([]byte, 24*zoomLevels))
}

// PatchHeader seeks back to offset 0 and writes the final header, zoom
// table and total-summary block. It is the last step of finalization;
// any error here leaves the file's magic unset and the file invalid.
func PatchHeader(w *ioutil.Writer, h *Header) error {
	if err := w.Seek(0); err != nil {
		return bbierrors.New(bbierrors.KindWriteFinalization, "seeking to header", err)
	}
	fields := []struct {
		write func() error
	}{
		{func() error { return w.U32(MagicBigWig) }},
		{func() error { return w.U16(h.Version) }},
		{func() error { return w.U16(h.ZoomLevels) }},
		{func() error { return w.U64(h.ChromTreeOffset) }},
		{func() error { return w.U64(h.FullDataOffset) }},
		{func() error { return w.U64(h.FullIndexOffset) }},
		{func() error { return w.U16(h.FieldCount) }},
		{func() error { return w.U16(h.DefinedFieldCount) }},
		{func() error { return w.U64(h.AutoSqlOffset) }},
		{func() error { return w.U64(h.TotalSummaryOffset) }},
		{func() error { return w.U32(h.UncompressBufSize) }},
		{func() error { return w.U64(h.ExtensionOffset) }},
	}
	for _, f := range fields {
		if err := f.write(); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing header field", err)
		}
	}
	for _, zh := range h.ZoomHeaders {
		if err := w.U32(zh.ReductionLevel); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing zoom header", err)
		}
		if err := w.U32(0); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing zoom header padding", err)
		}
		if err := w.U64(zh.DataOffset); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing zoom header", err)
		}
		if err := w.U64(zh.IndexOffset); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing zoom header", err)
		}
	}
	if h.TotalSummaryOffset > 0 {
		if err := w.Seek(int64(h.TotalSummaryOffset)); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "seeking to summary", err)
		}
		if err := w.U64(h.BasesCovered); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing summary", err)
		}
		if err := w.F64(h.MinVal); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing summary", err)
		}
		if err := w.F64(h.MaxVal); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing summary", err)
		}
		if err := w.F64(h.SumData); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing summary", err)
		}
		if err := w.F64(h.SumSquares); err != nil {
			return bbierrors.New(bbierrors.KindWriteFinalization, "writing summary", err)
		}
	}
	return nil
}
