package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
)

// V2 B-tree record types used by group link indexes.
const (
	V2TypeLinkName   uint8 = 5 // Dense link storage indexed by name hash
	V2TypeLinkCorder uint8 = 6 // Dense link storage indexed by creation order
)

var v2HeaderSignature = []byte{'B', 'T', 'H', 'D'}

// ErrBadV2Header is returned for a BTHD block with a wrong signature or
// checksum.
var ErrBadV2Header = errors.New("bad B-tree v2 header")

// V2Header is the header block (BTHD) of a version 2 B-tree.
type V2Header struct {
	Version        uint8
	Type           uint8
	NodeSize       uint32
	RecordSize     uint16
	Depth          uint16
	SplitPercent   uint8
	MergePercent   uint8
	RootAddr       uint64
	NumRootRecords uint16
	TotalRecords   uint64
}

// IsLinkIndex reports whether the tree indexes the links of a dense group.
func (h *V2Header) IsLinkIndex() bool {
	return h.Type == V2TypeLinkName || h.Type == V2TypeLinkCorder
}

// V2HeaderSize returns the encoded size of a BTHD block, checksum included.
func V2HeaderSize(offsetSize, lengthSize int) int {
	return 4 + 1 + 1 + 4 + 2 + 2 + 1 + 1 + offsetSize + 2 + lengthSize + 4
}

// ReadV2Header reads and checksums the BTHD block at address.
func ReadV2Header(r *binary.Reader, address uint64) (*V2Header, error) {
	size := V2HeaderSize(r.OffsetSize(), r.LengthSize())
	raw, err := r.At(int64(address)).ReadBytes(size)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree v2 header: %w", err)
	}

	if string(raw[:4]) != string(v2HeaderSignature) {
		return nil, fmt.Errorf("%w: invalid B-tree v2 signature: %q (expected BTHD)", ErrBadV2Header, string(raw[:4]))
	}

	stored := r.ByteOrder().Uint32(raw[size-4:])
	if !binary.VerifyLookup3(raw[:size-4], stored) {
		return nil, fmt.Errorf("%w: checksum mismatch at %#x", ErrBadV2Header, address)
	}

	nr := r.At(int64(address) + 4)
	h := &V2Header{}

	if h.Version, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if h.Version != 0 {
		return nil, fmt.Errorf("unsupported B-tree v2 version: %d", h.Version)
	}
	if h.Type, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if h.NodeSize, err = nr.ReadUint32(); err != nil {
		return nil, err
	}
	if h.RecordSize, err = nr.ReadUint16(); err != nil {
		return nil, err
	}
	if h.Depth, err = nr.ReadUint16(); err != nil {
		return nil, err
	}
	if h.SplitPercent, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if h.MergePercent, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if h.RootAddr, err = nr.ReadOffset(); err != nil {
		return nil, err
	}
	if h.NumRootRecords, err = nr.ReadUint16(); err != nil {
		return nil, err
	}
	if h.TotalRecords, err = nr.ReadLength(); err != nil {
		return nil, err
	}

	return h, nil
}
