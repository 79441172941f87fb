package message

import (
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
)

// UndefinedAddress is the HDF5 undefined address value.
const UndefinedAddress = ^uint64(0)

// Link info flag bits.
const (
	LinkInfoTrackCorder uint8 = 0x01 // maximum creation index present
	LinkInfoIndexCorder uint8 = 0x02 // creation order B-tree address present
)

// LinkInfo represents a link info message (type 0x0002).
// It is present in every group that stores its links as link messages or in
// dense (fractal heap) storage.
type LinkInfo struct {
	Version                uint8
	Flags                  uint8
	MaxCreationIndex       uint64 // Present if LinkInfoTrackCorder is set
	FractalHeapAddr        uint64 // Undefined for compact storage
	NameIndexBTreeAddr     uint64 // Undefined for compact storage
	CreationOrderBTreeAddr uint64 // Present if LinkInfoIndexCorder is set
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// IsDense reports whether the group's links live in a fractal heap indexed by
// a v2 B-tree rather than in the object header.
func (m *LinkInfo) IsDense() bool {
	return m.FractalHeapAddr != UndefinedAddress && m.FractalHeapAddr != 0
}

// TracksCreationOrder reports whether MaxCreationIndex is meaningful.
func (m *LinkInfo) TracksCreationOrder() bool {
	return m.Flags&LinkInfoTrackCorder != 0
}

func parseLinkInfo(data []byte, r *binary.Reader) (*LinkInfo, error) {
	f := newFields("link info", data, r)
	li := &LinkInfo{Version: f.u8(), Flags: f.u8()}
	if f.err == nil && li.Version != 0 {
		return nil, fmt.Errorf("link info message: unsupported version %d", li.Version)
	}

	if li.TracksCreationOrder() {
		li.MaxCreationIndex = f.uint(8)
	}
	li.FractalHeapAddr = f.address()
	li.NameIndexBTreeAddr = f.address()
	li.CreationOrderBTreeAddr = UndefinedAddress
	if li.Flags&LinkInfoIndexCorder != 0 {
		li.CreationOrderBTreeAddr = f.address()
	}

	if f.err != nil {
		return nil, f.err
	}
	return li, nil
}

// Serialize writes the LinkInfo to the writer.
// The fractal heap and name index addresses are always written, undefined for
// compact groups.
func (m *LinkInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}

	if m.Flags&LinkInfoTrackCorder != 0 {
		if err := w.WriteUint64(m.MaxCreationIndex); err != nil {
			return err
		}
	}

	if err := w.WriteOffset(m.FractalHeapAddr); err != nil {
		return err
	}
	if err := w.WriteOffset(m.NameIndexBTreeAddr); err != nil {
		return err
	}

	if m.Flags&LinkInfoIndexCorder != 0 {
		if err := w.WriteOffset(m.CreationOrderBTreeAddr); err != nil {
			return err
		}
	}

	return nil
}

// SerializedSize returns the size in bytes when serialized.
func (m *LinkInfo) SerializedSize(w *binary.Writer) int {
	size := 2
	if m.Flags&LinkInfoTrackCorder != 0 {
		size += 8
	}
	size += 2 * w.OffsetSize()
	if m.Flags&LinkInfoIndexCorder != 0 {
		size += w.OffsetSize()
	}
	return size
}

// NewLinkInfo creates a link info message for a compact group.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{
		FractalHeapAddr:        UndefinedAddress,
		NameIndexBTreeAddr:     UndefinedAddress,
		CreationOrderBTreeAddr: UndefinedAddress,
	}
}

// NewTrackedLinkInfo creates a compact-group link info message that records
// the highest creation order index handed out so far.
func NewTrackedLinkInfo(maxCreationIndex uint64) *LinkInfo {
	li := NewLinkInfo()
	li.Flags = LinkInfoTrackCorder
	li.MaxCreationIndex = maxCreationIndex
	return li
}
