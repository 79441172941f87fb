package message

import binpkg "github.com/robert-malhotra/h5flat/internal/binary"

// LayoutClass is the storage class of a data layout message.
type LayoutClass uint8

const (
	LayoutCompact LayoutClass = iota
	LayoutContiguous
	LayoutChunked
	LayoutVirtual
)

// DataLayout is a version 3 contiguous data layout message (0x0008). It is
// only ever written: layouts read from a file stay Unknown because raw data
// is never read.
type DataLayout struct {
	Class   LayoutClass
	Address uint64 // UndefinedAddress until storage is allocated
	Size    uint64
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// IsAllocated reports whether the data has a place in the file.
func (m *DataLayout) IsAllocated() bool { return m.Address != UndefinedAddress }

func (m *DataLayout) Serialize(w *binpkg.Writer) error {
	if err := w.WriteUint8(3); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.Class)); err != nil {
		return err
	}
	if err := w.WriteOffset(m.Address); err != nil {
		return err
	}
	return w.WriteLength(m.Size)
}

func (m *DataLayout) SerializedSize(w *binpkg.Writer) int {
	return 2 + w.OffsetSize() + w.LengthSize()
}

// NewLateContiguousLayout returns a contiguous layout of size bytes whose
// storage is allocated on first write.
func NewLateContiguousLayout(size uint64) *DataLayout {
	return &DataLayout{Class: LayoutContiguous, Address: UndefinedAddress, Size: size}
}
