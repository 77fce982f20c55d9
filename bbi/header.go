// Package bbi implements the on-disk BigWig/BigBed Binary Indexed file
// pieces shared by bigwig's reader and writer: the file header, the
// chromosome B+ tree, the R-tree spatial index, the data-block codec,
// and the zoom aggregator. None of this package is exported outside
// module boundaries that need the wire format directly;
// bigwig.Reader/Writer are the public surface.
package bbi

const (
	// MagicBigWig is the file-level magic for the BigWig variant of BBI.
	MagicBigWig = 0x888FFC26
	// MagicChromTree is the chromosome B+ tree's magic.
	MagicChromTree = 0x78CA8C91
	// MagicRTree is the R-tree index's magic.
	MagicRTree = 0x2468ACE0

	// HeaderSize is the fixed 64-byte size of the file header.
	HeaderSize = 64
	// TotalSummarySize is the fixed 40-byte size of the total-summary
	// block.
	TotalSummarySize = 40

	// DefaultBTreeBlockSize is the chromosome B+ tree's default fan-out.
	DefaultBTreeBlockSize = 256
	// DefaultRTreeBlockSize is the R-tree's default fan-out (children per
	// node).
	DefaultRTreeBlockSize = 256
	// DefaultItemsPerSlotData is the default number of data records per
	// R-tree leaf slot for base-level data.
	DefaultItemsPerSlotData = 1024
	// DefaultItemsPerSlotZoom is the default number of records per R-tree
	// leaf slot for zoom data.
	DefaultItemsPerSlotZoom = 512
	// DefaultZoomLevels is the default number of zoom levels a writer
	// emits.
	DefaultZoomLevels = 10
	// MaxSupportedVersion is the newest BBI version this package reads.
	MaxSupportedVersion = 4
	// MinSupportedVersion is the oldest BBI version this package reads.
	MinSupportedVersion = 3
)

// ZoomHeader describes one zoom level's on-disk location.
type ZoomHeader struct {
	ReductionLevel uint32
	DataOffset     uint64
	IndexOffset    uint64
}

// Header is the bit-exact 64-byte file header plus the zoom headers and
// total-summary block that follow it.
type Header struct {
	Version           uint16
	ZoomLevels        uint16
	ChromTreeOffset   uint64
	FullDataOffset    uint64
	FullIndexOffset   uint64
	FieldCount        uint16
	DefinedFieldCount uint16
	AutoSqlOffset     uint64
	TotalSummaryOffset uint64
	UncompressBufSize uint32
	ExtensionOffset   uint64

	ZoomHeaders []ZoomHeader

	// Summary fields, read from TotalSummaryOffset when non-zero.
	BasesCovered uint64
	MinVal       float64
	MaxVal       float64
	SumData      float64
	SumSquares   float64
}

// Compressed reports whether data blocks in this file are zlib
// compressed.
func (h *Header) Compressed() bool { return h.UncompressBufSize > 0 }
