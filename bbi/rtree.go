package bbi

import (
	"sort"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/ioutil"
)

// Leaf is one bulk-load input entry: a data block's bounding rectangle
// plus its (offset, size) on disk.
type Leaf struct {
	ChromIdxStart, ChromIdxEnd uint32
	BaseStart, BaseEnd         uint32
	DataOffset, Size           uint64
}

// BlockPointer identifies a data block a query overlaps.
type BlockPointer struct {
	Offset, Size uint64
}

// RTree is the decoded index header; Root is loaded lazily on first
// query.
type RTree struct {
	BlockSize     uint32
	ItemsPerSlot  uint32
	NItems        uint64
	ChromIdxStart uint32
	BaseStart     uint32
	ChromIdxEnd   uint32
	BaseEnd       uint32

	rootOffset int64
	root       *rnode
}

type rnode struct {
	isLeaf      bool
	chrIdxStart []uint32
	baseStart   []uint32
	chrIdxEnd   []uint32
	baseEnd     []uint32
	dataOffset  []uint64
	size        []uint64 // leaf only
	child       []*rnode // internal only, lazily populated
}

// ReadRTreeHeader reads the 48-byte R-tree header at offset and
// positions the tree to lazily load its root on first query.
func ReadRTreeHeader(r *ioutil.Reader, offset uint64) (*RTree, error) {
	r.Seek(int64(offset))
	magic, err := r.U32()
	if err != nil {
		return nil, err
	}
	if magic != MagicRTree {
		return nil, bbierrors.New(bbierrors.KindBadMagic, "R-tree magic mismatch", nil)
	}
	t := &RTree{}
	if t.BlockSize, err = r.U32(); err != nil {
		return nil, err
	}
	if t.NItems, err = r.U64(); err != nil {
		return nil, err
	}
	if t.ChromIdxStart, err = r.U32(); err != nil {
		return nil, err
	}
	if t.BaseStart, err = r.U32(); err != nil {
		return nil, err
	}
	if t.ChromIdxEnd, err = r.U32(); err != nil {
		return nil, err
	}
	if t.BaseEnd, err = r.U32(); err != nil {
		return nil, err
	}
	if _, err = r.U64(); err != nil { // idxSize (on-disk index size, informational)
		return nil, err
	}
	if t.ItemsPerSlot, err = r.U32(); err != nil {
		return nil, err
	}
	if _, err = r.U32(); err != nil { // reserved
		return nil, err
	}
	t.rootOffset = r.Tell()
	return t, nil
}

func readNode(r *ioutil.Reader, offset int64) (*rnode, error) {
	r.Seek(offset)
	isLeaf, err := r.U8()
	if err != nil {
		return nil, err
	}
	if _, err := r.U8(); err != nil { // padding
		return nil, err
	}
	nChildren, err := r.U16()
	if err != nil {
		return nil, err
	}
	n := int(nChildren)
	nd := &rnode{isLeaf: isLeaf != 0}
	nd.chrIdxStart = make([]uint32, n)
	nd.baseStart = make([]uint32, n)
	nd.chrIdxEnd = make([]uint32, n)
	nd.baseEnd = make([]uint32, n)
	nd.dataOffset = make([]uint64, n)
	if nd.isLeaf {
		nd.size = make([]uint64, n)
	} else {
		nd.child = make([]*rnode, n)
	}
	for i := 0; i < n; i++ {
		if nd.chrIdxStart[i], err = r.U32(); err != nil {
			return nil, err
		}
		if nd.baseStart[i], err = r.U32(); err != nil {
			return nil, err
		}
		if nd.chrIdxEnd[i], err = r.U32(); err != nil {
			return nil, err
		}
		if nd.baseEnd[i], err = r.U32(); err != nil {
			return nil, err
		}
		if nd.dataOffset[i], err = r.U64(); err != nil {
			return nil, err
		}
		if nd.isLeaf {
			if nd.size[i], err = r.U64(); err != nil {
				return nil, err
			}
		}
	}
	return nd, nil
}

func lexLess(chromA, baseA, chromB, baseB uint32) bool {
	if chromA != chromB {
		return chromA < chromB
	}
	return baseA < baseB
}

// childOverlaps reports whether child i's bounding box intersects the
// query rectangle, using the lexicographic overlap rule:
// (endChromIx, endBase) > (qChrom, qFrom) and
// (startChromIx, startBase) < (qChrom, qTo).
func childOverlaps(nd *rnode, i int, qChrom int, qFrom, qTo uint32) bool {
	chrom := uint32(qChrom)
	endGreater := lexLess(chrom, qFrom, nd.chrIdxEnd[i], nd.baseEnd[i])
	startLess := lexLess(nd.chrIdxStart[i], nd.baseStart[i], chrom, qTo)
	return endGreater && startLess
}

// Overlapping walks the tree from the root, returning every block
// pointer whose bounding box intersects [qFrom, qTo) on qChrom, sorted
// by ascending offset.
func (t *RTree) Overlapping(r *ioutil.Reader, qChrom int, qFrom, qTo uint32) ([]BlockPointer, error) {
	if t.root == nil {
		root, err := readNode(r, t.rootOffset)
		if err != nil {
			return nil, err
		}
		t.root = root
	}
	var out []BlockPointer
	if err := walk(r, t.root, qChrom, qFrom, qTo, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

func walk(r *ioutil.Reader, nd *rnode, qChrom int, qFrom, qTo uint32, out *[]BlockPointer) error {
	for i := range nd.dataOffset {
		if !childOverlaps(nd, i, qChrom, qFrom, qTo) {
			continue
		}
		if nd.isLeaf {
			*out = append(*out, BlockPointer{Offset: nd.dataOffset[i], Size: nd.size[i]})
			continue
		}
		if nd.child[i] == nil {
			child, err := readNode(r, int64(nd.dataOffset[i]))
			if err != nil {
				return err
			}
			nd.child[i] = child
		}
		if err := walk(r, nd.child[i], qChrom, qFrom, qTo, out); err != nil {
			return err
		}
	}
	return nil
}
