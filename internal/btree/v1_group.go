package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/heap"
)

var (
	treeSignature = []byte("TREE")
	snodSignature = []byte("SNOD")
)

// ErrTooDeep is returned for a group tree deeper than any real file needs,
// which is how a cycle in a corrupt file shows up.
var ErrTooDeep = errors.New("group B-tree too deep")

const maxTreeDepth = 64

// EntryKind is the cache type of a symbol table entry that matters for
// links: a soft link keeps its target in the local heap.
type EntryKind uint32

const (
	EntryHard EntryKind = 0
	EntrySoft EntryKind = 2
)

// GroupEntry is one member of an old style group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64 // zero for soft links
	Kind          EntryKind
	SoftLinkValue string
}

// ReadGroupEntries returns the members of the group whose B-tree is at
// btreeAddr, in name order. Names are looked up in localHeap.
func ReadGroupEntries(r *binary.Reader, btreeAddr uint64, localHeap *heap.LocalHeap) ([]GroupEntry, error) {
	var entries []GroupEntry
	err := walkGroupTree(r, btreeAddr, 0, func(snod uint64) error {
		nr, n, err := openSymbolNode(r, snod)
		if err != nil {
			return err
		}
		for i := range int(n) {
			e, err := readEntry(nr, localHeap)
			if err != nil {
				return fmt.Errorf("symbol table node at %d, entry %d: %w", snod, i, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// CountGroupEntries returns the number of members without reading names.
func CountGroupEntries(r *binary.Reader, btreeAddr uint64) (uint64, error) {
	var total uint64
	err := walkGroupTree(r, btreeAddr, 0, func(snod uint64) error {
		_, n, err := openSymbolNode(r, snod)
		total += uint64(n)
		return err
	})
	return total, err
}

// walkGroupTree calls visit with every symbol table node under the tree
// node at addr, left to right.
func walkGroupTree(r *binary.Reader, addr uint64, depth int, visit func(snod uint64) error) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: node at %d", ErrTooDeep, addr)
	}
	level, children, err := readGroupNode(r, addr)
	if err != nil {
		return fmt.Errorf("group B-tree node at %d: %w", addr, err)
	}
	for _, child := range children {
		if level == 0 {
			err = visit(child)
		} else {
			err = walkGroupTree(r, child, depth+1, visit)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readGroupNode decodes a version 1 B-tree node of type 0: signature, type,
// level, entries used, two sibling addresses, then keys and children
// interleaved. Group keys are heap offsets and are not needed here.
func readGroupNode(r *binary.Reader, addr uint64) (uint8, []uint64, error) {
	nr := r.At(int64(addr))
	sig, err := nr.ReadBytes(len(treeSignature))
	if err != nil {
		return 0, nil, err
	}
	if string(sig) != string(treeSignature) {
		return 0, nil, fmt.Errorf("signature %q", sig)
	}
	var head [2]uint8
	for i := range head {
		if head[i], err = nr.ReadUint8(); err != nil {
			return 0, nil, err
		}
	}
	if head[0] != 0 {
		return 0, nil, fmt.Errorf("node type %d is not a group node", head[0])
	}
	used, err := nr.ReadUint16()
	if err != nil {
		return 0, nil, err
	}
	nr.Skip(int64(2 * nr.OffsetSize()))

	children := make([]uint64, used)
	for i := range children {
		nr.Skip(int64(nr.LengthSize()))
		if children[i], err = nr.ReadOffset(); err != nil {
			return 0, nil, err
		}
	}
	return head[1], children, nil
}

// openSymbolNode checks the symbol table node at addr and returns a reader
// positioned at its first entry together with the entry count.
func openSymbolNode(r *binary.Reader, addr uint64) (*binary.Reader, uint16, error) {
	nr := r.At(int64(addr))
	sig, err := nr.ReadBytes(len(snodSignature))
	if err != nil {
		return nil, 0, err
	}
	if string(sig) != string(snodSignature) {
		return nil, 0, fmt.Errorf("symbol table node at %d: signature %q", addr, sig)
	}
	version, err := nr.ReadUint8()
	if err != nil {
		return nil, 0, err
	}
	if version != 1 {
		return nil, 0, fmt.Errorf("symbol table node at %d: version %d", addr, version)
	}
	nr.Skip(1)
	n, err := nr.ReadUint16()
	if err != nil {
		return nil, 0, err
	}
	return nr, n, nil
}

// readEntry decodes a symbol table entry: name offset, object header
// address, cache type, 4 reserved bytes and a 16 byte scratch pad. A nil
// heap leaves names empty.
func readEntry(r *binary.Reader, localHeap *heap.LocalHeap) (GroupEntry, error) {
	var e GroupEntry
	nameOffset, err := r.ReadOffset()
	if err != nil {
		return e, err
	}
	if e.ObjectAddress, err = r.ReadOffset(); err != nil {
		return e, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return e, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return e, err
	}
	if localHeap == nil {
		return e, nil
	}

	if e.Name, err = localHeap.Name(nameOffset); err != nil {
		return e, err
	}
	if EntryKind(cache) == EntrySoft {
		e.Kind = EntrySoft
		e.ObjectAddress = 0
		e.SoftLinkValue, err = localHeap.Name(uint64(r.ByteOrder().Uint32(scratch)))
	}
	return e, err
}
