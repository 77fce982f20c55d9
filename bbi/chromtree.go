package bbi

import (
	"sort"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/ioutil"
)

// ChromTree is the decoded form of the on-disk chromosome B+ tree: a
// name -> (id, length) map plus the reverse id -> name/length lookup,
// generalizing the on-disk layout into something export-ready.
type ChromTree struct {
	Genome *genome.Genome
}

// ReadChromTree walks the B+ tree at the genome's recorded offset and
// rebuilds the full chromosome table.
func ReadChromTree(r *ioutil.Reader, offset uint64) (*ChromTree, error) {
	r.Seek(int64(offset))
	magic, err := r.U32()
	if err != nil {
		return nil, err
	}
	if magic != MagicChromTree {
		return nil, bbierrors.New(bbierrors.KindBadMagic, "chromosome tree magic mismatch", nil)
	}
	if _, err := r.U32(); err != nil { // blockSize, unused on read
		return nil, err
	}
	keySize, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil { // valSize, always 8
		return nil, err
	}
	itemCount, err := r.U64()
	if err != nil {
		return nil, err
	}
	if _, err := r.U64(); err != nil { // reserved
		return nil, err
	}

	names := make([]string, itemCount)
	lengths := make([]uint32, itemCount)
	n, err := readChromBlock(r, names, lengths, keySize)
	if err != nil {
		return nil, err
	}
	if uint64(n) != itemCount {
		return nil, bbierrors.New(bbierrors.KindIndexCorruption, "chromosome count mismatch", nil)
	}
	g, err := genome.New(names, lengths)
	if err != nil {
		return nil, err
	}
	return &ChromTree{Genome: g}, nil
}

func readChromBlock(r *ioutil.Reader, names []string, lengths []uint32, keySize uint32) (uint64, error) {
	isLeaf, err := r.U8()
	if err != nil {
		return 0, err
	}
	if _, err := r.U8(); err != nil { // padding
		return 0, err
	}
	if isLeaf != 0 {
		return readChromLeaf(r, names, lengths, keySize)
	}
	return readChromNonLeaf(r, names, lengths, keySize)
}

func readChromLeaf(r *ioutil.Reader, names []string, lengths []uint32, keySize uint32) (uint64, error) {
	nVals, err := r.U16()
	if err != nil {
		return 0, err
	}
	for i := 0; i < int(nVals); i++ {
		name, err := r.FixedString(int(keySize))
		if err != nil {
			return 0, err
		}
		id, err := r.U32()
		if err != nil {
			return 0, err
		}
		length, err := r.U32()
		if err != nil {
			return 0, err
		}
		if int(id) >= len(names) {
			return 0, bbierrors.New(bbierrors.KindIndexCorruption, "chromosome id out of range", nil)
		}
		names[id] = name
		lengths[id] = length
	}
	return uint64(nVals), nil
}

func readChromNonLeaf(r *ioutil.Reader, names []string, lengths []uint32, keySize uint32) (uint64, error) {
	nVals, err := r.U16()
	if err != nil {
		return 0, err
	}
	var total uint64
	previous := r.Tell() + int64(keySize)
	for i := 0; i < int(nVals); i++ {
		r.Seek(previous)
		offset, err := r.U64()
		if err != nil {
			return 0, err
		}
		r.Seek(int64(offset))
		n, err := readChromBlock(r, names, lengths, keySize)
		if err != nil {
			return 0, err
		}
		total += n
		previous += int64(8 + keySize)
	}
	return total, nil
}

// WriteChromTree writes a single-level leaf B+ tree (sufficient for any
// genome whose chromosome count fits in one block; blockSize is
// recorded but this writer always emits one leaf, matching how small
// reference genomes are laid out by the BigWig tools this format
// originates from). Chromosomes are laid out alphabetically by name;
// duplicate names are rejected by genome.New before this is ever
// called.
func WriteChromTree(w *ioutil.Writer, g *genome.Genome, blockSize uint32) error {
	keySize := uint32(0)
	type entry struct {
		name string
		id   uint32
		len  uint32
	}
	entries := make([]entry, g.Len())
	for i := 0; i < g.Len(); i++ {
		name := g.NameOf(i)
		if uint32(len(name)) > keySize {
			keySize = uint32(len(name))
		}
		entries[i] = entry{name: name, id: uint32(i), len: g.LengthOf(i)}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	if err := w.U32(MagicChromTree); err != nil {
		return err
	}
	if err := w.U32(blockSize); err != nil {
		return err
	}
	if err := w.U32(keySize); err != nil {
		return err
	}
	if err := w.U32(8); err != nil { // valSize
		return err
	}
	if err := w.U64(uint64(len(entries))); err != nil {
		return err
	}
	if err := w.U64(0); err != nil { // reserved
		return err
	}
	// single leaf node
	if err := w.U8(1); err != nil { // isLeaf
		return err
	}
	if err := w.U8(0); err != nil { // padding
		return err
	}
	if err := w.U16(uint16(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.FixedString(e.name, int(keySize)); err != nil {
			return err
		}
		if err := w.U32(e.id); err != nil {
			return err
		}
		if err := w.U32(e.len); err != nil {
			return err
		}
	}
	return nil
}
