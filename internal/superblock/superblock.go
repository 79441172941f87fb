package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// UndefinedAddress is the all-ones address used for absent structures.
const UndefinedAddress = ^uint64(0)

// Signature opens every superblock: 0x89 H D F \r \n 0x1a \n.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// searchOffsets are the places a superblock may start, in search order.
var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the file wide settings and the root group location.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress                uint64
	SuperblockExtensionAddress uint64 // v2 and later
	EOFAddress                 uint64
	RootGroupAddress           uint64

	// Version 0 and 1 only.
	GroupLeafNodeK              uint16
	GroupInternalNodeK          uint16
	IndexedStorageK             uint16 // version 1
	FreeSpaceManagerVersion     uint8
	RootGroupSymbolTableAddress uint64 // where the root entry itself is stored
	RootGroupBTreeAddress       uint64 // cached in the root entry scratch pad
	RootGroupLocalHeapAddress   uint64

	ByteOrder  binary.ByteOrder
	FileOffset int64 // where the signature was found
}

// Read finds the superblock of src and parses it.
func Read(src io.ReaderAt) (*Superblock, error) {
	r := binpkg.NewReader(src, binpkg.DefaultConfig())
	for _, offset := range searchOffsets {
		head, err := r.At(offset).ReadBytes(len(Signature) + 1)
		if errors.Is(err, io.EOF) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(head[:len(Signature)], Signature) {
			continue
		}

		var sb *Superblock
		switch version := head[len(Signature)]; version {
		case 0, 1:
			sb, err = readV0V1(src, offset, version)
		case 2, 3:
			sb, err = readV2V3(src, offset)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		if err != nil {
			return nil, err
		}
		sb.FileOffset = offset
		sb.ByteOrder = binary.LittleEndian
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig is the binary configuration for the rest of the file.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  sb.ByteOrder,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// HasRootScratchPad reports whether the root symbol table entry cached the
// root group's B-tree and local heap addresses.
func (sb *Superblock) HasRootScratchPad() bool {
	return sb.Version < 2 &&
		sb.RootGroupBTreeAddress != UndefinedAddress &&
		sb.RootGroupLocalHeapAddress != UndefinedAddress
}

func validSize(n uint8) bool {
	return n == 2 || n == 4 || n == 8
}

// fileReader returns a reader over src with the widths read from a
// superblock.
func fileReader(src io.ReaderAt, offsetSize, lengthSize uint8) (*binpkg.Reader, error) {
	if !validSize(offsetSize) || !validSize(lengthSize) {
		return nil, fmt.Errorf("%w: offset size %d, length size %d", ErrInvalidSuperblock, offsetSize, lengthSize)
	}
	return binpkg.NewReader(src, binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(offsetSize),
		LengthSize: int(lengthSize),
	}), nil
}
