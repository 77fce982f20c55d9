package ioutil

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/pbenner/rustynetics/bbierrors"
)

// DecompressBlock inflates a zlib-compressed buffer, enforcing the
// invariant that every data block fits in at most
// uncompressBufSize bytes once decompressed.
func DecompressBlock(compressed []byte, uncompressBufSize uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, bbierrors.New(bbierrors.KindDecompress, "zlib header", err)
	}
	defer zr.Close()

	limit := int64(uncompressBufSize)
	if limit <= 0 {
		limit = int64(len(compressed)) * 32
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, zr, limit+1); err != nil && err != io.EOF {
		return nil, bbierrors.New(bbierrors.KindDecompress, "zlib inflate", err)
	}
	if int64(buf.Len()) > limit {
		return nil, bbierrors.New(bbierrors.KindDecompress, "block exceeds uncompressBufSize", nil)
	}
	return buf.Bytes(), nil
}

// CompressBlock deflates data with zlib at the given level (or
// zlib.DefaultCompression if level is 0), the inverse of
// DecompressBlock, used by the writer when WriterOptions.Compress is
// set.
func CompressBlock(data []byte, level int) ([]byte, error) {
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, bbierrors.New(bbierrors.KindIO, "zlib writer init", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, bbierrors.New(bbierrors.KindIO, "zlib write", err)
	}
	if err := zw.Close(); err != nil {
		return nil, bbierrors.New(bbierrors.KindIO, "zlib close", err)
	}
	return buf.Bytes(), nil
}
