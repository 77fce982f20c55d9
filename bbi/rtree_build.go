package bbi

import (
	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/ioutil"
)

type nodeBuild struct {
	isLeaf      bool
	chrIdxStart []uint32
	baseStart   []uint32
	chrIdxEnd   []uint32
	baseEnd     []uint32
	dataOffset  []uint64 // leaf: block offset; internal: filled with child offsets during layout
	size        []uint64 // leaf only
	child       []*nodeBuild
	offset      uint64
}

// WriteRTree bulk-loads leaves (already sorted by (chromId, start,
// end), one entry per data block) into an R-tree and writes it at the
// writer's current position. It returns the offset the header was
// written at (== the index's FullIndexOffset / zoom-level IndexOffset).
func WriteRTree(w *ioutil.Writer, leaves []Leaf, blockSize, itemsPerSlot uint32) (uint64, error) {
	if len(leaves) == 0 {
		return 0, bbierrors.New(bbierrors.KindIndexCorruption, "cannot build an R-tree with zero leaves", nil)
	}
	for i := 1; i < len(leaves); i++ {
		a, b := leaves[i-1], leaves[i]
		if a.ChromIdxEnd > b.ChromIdxStart || (a.ChromIdxEnd == b.ChromIdxStart && a.BaseEnd > b.BaseStart) {
			return 0, bbierrors.New(bbierrors.KindIndexCorruption, "R-tree leaves overlap or are out of order", nil)
		}
	}

	root := buildLevels(leaves, itemsPerSlot, blockSize)

	headerOffset, err := w.Tell()
	if err != nil {
		return 0, err
	}
	bodyOffset := headerOffset + 48

	order := bfsOrder(root)
	cursor := uint64(bodyOffset)
	for _, nd := range order {
		nd.offset = cursor
		cursor += nodeByteSize(nd)
	}

	if err := w.U32(MagicRTree); err != nil {
		return 0, err
	}
	if err := w.U32(blockSize); err != nil {
		return 0, err
	}
	if err := w.U64(uint64(len(leaves))); err != nil {
		return 0, err
	}
	if err := w.U32(leaves[0].ChromIdxStart); err != nil {
		return 0, err
	}
	if err := w.U32(leaves[0].BaseStart); err != nil {
		return 0, err
	}
	if err := w.U32(leaves[len(leaves)-1].ChromIdxEnd); err != nil {
		return 0, err
	}
	if err := w.U32(leaves[len(leaves)-1].BaseEnd); err != nil {
		return 0, err
	}
	if err := w.U64(cursor - uint64(headerOffset)); err != nil { // idxSize
		return 0, err
	}
	if err := w.U32(itemsPerSlot); err != nil {
		return 0, err
	}
	if err := w.U32(0); err != nil { // reserved
		return 0, err
	}

	for _, nd := range order {
		if err := writeNode(w, nd); err != nil {
			return 0, err
		}
	}
	return uint64(headerOffset), nil
}

func nodeByteSize(nd *nodeBuild) uint64 {
	n := uint64(len(nd.dataOffset))
	if nd.isLeaf {
		return 4 + n*32
	}
	return 4 + n*24
}

func bfsOrder(root *nodeBuild) []*nodeBuild {
	order := []*nodeBuild{root}
	for i := 0; i < len(order); i++ {
		nd := order[i]
		if !nd.isLeaf {
			order = append(order, nd.child...)
		}
	}
	return order
}

func writeNode(w *ioutil.Writer, nd *nodeBuild) error {
	var isLeaf uint8
	if nd.isLeaf {
		isLeaf = 1
	}
	if err := w.U8(isLeaf); err != nil {
		return err
	}
	if err := w.U8(0); err != nil {
		return err
	}
	if err := w.U16(uint16(len(nd.dataOffset))); err != nil {
		return err
	}
	for i := range nd.dataOffset {
		if err := w.U32(nd.chrIdxStart[i]); err != nil {
			return err
		}
		if err := w.U32(nd.baseStart[i]); err != nil {
			return err
		}
		if err := w.U32(nd.chrIdxEnd[i]); err != nil {
			return err
		}
		if err := w.U32(nd.baseEnd[i]); err != nil {
			return err
		}
		if nd.isLeaf {
			if err := w.U64(nd.dataOffset[i]); err != nil {
				return err
			}
			if err := w.U64(nd.size[i]); err != nil {
				return err
			}
		} else {
			if err := w.U64(nd.child[i].offset); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildLevels partitions leaves into itemsPerSlot-sized leaf nodes,
// then repeatedly groups the previous level's nodes into blockSize-sized
// parents until a single root remains.
func buildLevels(leaves []Leaf, itemsPerSlot, blockSize uint32) *nodeBuild {
	level := make([]*nodeBuild, 0, (len(leaves)+int(itemsPerSlot)-1)/int(itemsPerSlot))
	for i := 0; i < len(leaves); i += int(itemsPerSlot) {
		end := i + int(itemsPerSlot)
		if end > len(leaves) {
			end = len(leaves)
		}
		level = append(level, leafNode(leaves[i:end]))
	}
	for len(level) > 1 {
		next := make([]*nodeBuild, 0, (len(level)+int(blockSize)-1)/int(blockSize))
		for i := 0; i < len(level); i += int(blockSize) {
			end := i + int(blockSize)
			if end > len(level) {
				end = len(level)
			}
			next = append(next, parentNode(level[i:end]))
		}
		level = next
	}
	return level[0]
}

func leafNode(leaves []Leaf) *nodeBuild {
	nd := &nodeBuild{isLeaf: true}
	for _, l := range leaves {
		nd.chrIdxStart = append(nd.chrIdxStart, l.ChromIdxStart)
		nd.baseStart = append(nd.baseStart, l.BaseStart)
		nd.chrIdxEnd = append(nd.chrIdxEnd, l.ChromIdxEnd)
		nd.baseEnd = append(nd.baseEnd, l.BaseEnd)
		nd.dataOffset = append(nd.dataOffset, l.DataOffset)
		nd.size = append(nd.size, l.Size)
	}
	return nd
}

func parentNode(children []*nodeBuild) *nodeBuild {
	nd := &nodeBuild{isLeaf: false}
	for _, c := range children {
		start, end := bboxOf(c)
		nd.chrIdxStart = append(nd.chrIdxStart, start.chrom)
		nd.baseStart = append(nd.baseStart, start.base)
		nd.chrIdxEnd = append(nd.chrIdxEnd, end.chrom)
		nd.baseEnd = append(nd.baseEnd, end.base)
		nd.dataOffset = append(nd.dataOffset, 0) // patched to c.offset at write time
		nd.child = append(nd.child, c)
	}
	return nd
}

type coord struct {
	chrom, base uint32
}

func bboxOf(nd *nodeBuild) (start, end coord) {
	start = coord{nd.chrIdxStart[0], nd.baseStart[0]}
	end = coord{nd.chrIdxEnd[0], nd.baseEnd[0]}
	for i := 1; i < len(nd.chrIdxStart); i++ {
		if lexLess(nd.chrIdxStart[i], nd.baseStart[i], start.chrom, start.base) {
			start = coord{nd.chrIdxStart[i], nd.baseStart[i]}
		}
		if lexLess(end.chrom, end.base, nd.chrIdxEnd[i], nd.baseEnd[i]) {
			end = coord{nd.chrIdxEnd[i], nd.baseEnd[i]}
		}
	}
	return
}
