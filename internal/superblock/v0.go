package superblock

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Version 0 and 1 layout after the signature and version byte:
//
//	free-space version, root entry version, reserved, shared header version,
//	offset size, length size, reserved         7 bytes
//	group leaf K, group internal K             2 + 2
//	file consistency flags                     4
//	indexed storage K, reserved (v1 only)      2 + 2
//	base, free-space, EOF, driver info         4 addresses
//	root group symbol table entry
//
// The root entry is a link name offset, an object header address, a cache
// type, 4 reserved bytes and a 16 byte scratch pad.
const v0FixedSize = 24

// cacheTypeSymbolTable marks a scratch pad holding the group's B-tree and
// local heap addresses.
const cacheTypeSymbolTable = 1

func readV0V1(src io.ReaderAt, offset int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, v0FixedSize)
	if _, err := src.ReadAt(fixed, offset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	le := binary.LittleEndian

	sb := &Superblock{
		Version:                   version,
		FreeSpaceManagerVersion:   fixed[9],
		OffsetSize:                fixed[13],
		LengthSize:                fixed[14],
		GroupLeafNodeK:            le.Uint16(fixed[16:]),
		GroupInternalNodeK:        le.Uint16(fixed[18:]),
		RootGroupBTreeAddress:     UndefinedAddress,
		RootGroupLocalHeapAddress: UndefinedAddress,
	}
	fr, err := fileReader(src, sb.OffsetSize, sb.LengthSize)
	if err != nil {
		return nil, err
	}
	r := fr.At(offset + v0FixedSize)

	if version == 1 {
		if sb.IndexedStorageK, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		r.Skip(2)
	}

	var addrs [4]uint64
	for i := range addrs {
		if addrs[i], err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	sb.BaseAddress = addrs[0]
	sb.EOFAddress = addrs[2]

	sb.RootGroupSymbolTableAddress = uint64(r.Pos())
	r.Skip(int64(r.OffsetSize()))
	if sb.RootGroupAddress, err = r.ReadOffset(); err != nil {
		return nil, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Skip(4)
	if cache == cacheTypeSymbolTable {
		btree, err := r.ReadOffset()
		if err != nil {
			return nil, err
		}
		heap, err := r.ReadOffset()
		if err != nil {
			return nil, err
		}
		sb.RootGroupBTreeAddress, sb.RootGroupLocalHeapAddress = btree, heap
	}
	return sb, nil
}
