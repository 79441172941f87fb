package message

import (
	"bytes"
	"encoding/binary"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// DatatypeClass is the class nibble of a datatype message.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = iota
	ClassFloatPoint
	ClassTime
	ClassString
	ClassBitfield
	ClassOpaque
	ClassCompound
	ClassReference
	ClassEnum
	ClassVarLen
	ClassArray
)

// ByteOrder is the byte order of an atomic type.
type ByteOrder uint8

const (
	OrderLE   ByteOrder = 0
	OrderBE   ByteOrder = 1
	OrderVAX  ByteOrder = 2
	OrderNone ByteOrder = 3
)

// Datatype is the datatype message (0x0003). Integer and float layouts are
// decoded into fields. Every other class keeps its property bytes verbatim
// so the message can be copied into another object header unchanged.
type Datatype struct {
	Version   uint8
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32
	ByteOrder ByteOrder

	// Fixed point.
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	Properties []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) IsInteger() bool { return m.Class == ClassFixedPoint }
func (m *Datatype) IsFloat() bool   { return m.Class == ClassFloatPoint }

// Class bit fields.
const (
	classBitBigEndian = 0x01
	classBitSigned    = 0x08
	classBitImplied   = 0x20 // float: mantissa MSB is implied
)

// fixedProps is the property size of the classes whose layout does not
// depend on the class bits. Unlisted classes run to the end of the message.
var fixedProps = map[DatatypeClass]int{
	ClassFixedPoint: 4,
	ClassBitfield:   4,
	ClassFloatPoint: 12,
	ClassTime:       2,
	ClassString:     0,
	ClassReference:  0,
}

func parseDatatype(data []byte, r *binpkg.Reader) (*Datatype, error) {
	f := newFields("datatype", data, r)
	head := f.u8()
	dt := &Datatype{
		Version:   head >> 4,
		Class:     DatatypeClass(head & 0x0f),
		ClassBits: uint32(f.uint(3)),
		Size:      uint32(f.uint(4)),
	}
	if f.err != nil {
		return nil, f.err
	}

	n, ok := fixedProps[dt.Class]
	switch {
	case dt.Class == ClassOpaque:
		n = int(dt.ClassBits & 0xff)
	case !ok:
		n = f.left()
	}
	dt.Properties = f.bytes(n)
	if f.err != nil {
		return nil, f.err
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.BitOffset = binary.LittleEndian.Uint16(dt.Properties)
		dt.BitPrecision = binary.LittleEndian.Uint16(dt.Properties[2:])
		dt.Signed = dt.Class == ClassFixedPoint && dt.ClassBits&classBitSigned != 0
		dt.ByteOrder = ByteOrder(dt.ClassBits & classBitBigEndian)
	case ClassFloatPoint:
		// Bit 6 pairs with bit 0 to mark VAX order.
		dt.ByteOrder = ByteOrder(dt.ClassBits&classBitBigEndian | dt.ClassBits>>5&0x02)
	default:
		dt.ByteOrder = OrderNone
	}
	return dt, nil
}

// Clone returns a deep copy of m.
func (m *Datatype) Clone() *Datatype {
	c := *m
	c.Properties = bytes.Clone(m.Properties)
	return &c
}

// Precision is the number of significant bits of an atomic numeric type.
func (m *Datatype) Precision() int {
	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		if m.BitPrecision != 0 {
			return int(m.BitPrecision)
		}
	case ClassFloatPoint:
		if len(m.Properties) >= 4 {
			return int(binary.LittleEndian.Uint16(m.Properties[2:]))
		}
	}
	return int(m.Size) * 8
}

// Equal reports whether m and o describe the same stored representation.
func (m *Datatype) Equal(o *Datatype) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Class == o.Class &&
		m.Size == o.Size &&
		m.ClassBits == o.ClassBits &&
		bytes.Equal(m.properties(), o.properties())
}

// properties returns the encoded property block.
func (m *Datatype) properties() []byte {
	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		p := binary.LittleEndian.AppendUint16(nil, m.BitOffset)
		return binary.LittleEndian.AppendUint16(p, m.BitPrecision)
	case ClassFloatPoint:
		if len(m.Properties) >= 12 {
			return m.Properties[:12]
		}
		if p, ok := ieeeProps[m.Size]; ok {
			return p
		}
		return make([]byte, 12)
	}
	return m.Properties
}

// Serialize writes the message. Version 1 is used for every class that
// has a version 1 encoding.
func (m *Datatype) Serialize(w *binpkg.Writer) error {
	version := m.Version
	if version == 0 {
		version = 1
	}
	if err := w.WriteUint8(version<<4 | uint8(m.Class)); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(m.ClassBits), 3); err != nil {
		return err
	}
	if err := w.WriteUint32(m.Size); err != nil {
		return err
	}
	return w.WriteBytes(m.properties())
}

func (m *Datatype) SerializedSize(w *binpkg.Writer) int {
	return 8 + len(m.properties())
}

// IEEE 754 property blocks: bit offset, precision, exponent location and
// size, mantissa location and size, exponent bias.
var ieeeProps = map[uint32][]byte{
	4: {0, 0, 32, 0, 23, 8, 0, 23, 127, 0, 0, 0},
	8: {0, 0, 64, 0, 52, 11, 0, 52, 255, 3, 0, 0},
}

// NewFixedPointDatatype returns a two's complement or unsigned integer type
// using every bit of size bytes.
func NewFixedPointDatatype(size uint32, signed bool, order ByteOrder) *Datatype {
	bits := uint32(order)
	if signed {
		bits |= classBitSigned
	}
	return &Datatype{
		Version:      1,
		Class:        ClassFixedPoint,
		ClassBits:    bits,
		Size:         size,
		ByteOrder:    order,
		BitPrecision: uint16(size * 8),
		Signed:       signed,
	}
}

// NewFloatDatatype returns an IEEE single or double precision type.
func NewFloatDatatype(size uint32, order ByteOrder) *Datatype {
	signBit := size*8 - 1
	return &Datatype{
		Version:    1,
		Class:      ClassFloatPoint,
		ClassBits:  uint32(order) | classBitImplied | signBit<<8,
		Size:       size,
		ByteOrder:  order,
		Properties: bytes.Clone(ieeeProps[size]),
	}
}

// NewOpaqueDatatype returns an opaque type of size bytes described by tag.
// The tag is null terminated and padded to a multiple of eight bytes.
func NewOpaqueDatatype(size uint32, tag string) *Datatype {
	n := (len(tag)/8 + 1) * 8
	props := make([]byte, n)
	copy(props, tag)
	return &Datatype{
		Version:    1,
		Class:      ClassOpaque,
		ClassBits:  uint32(n),
		Size:       size,
		ByteOrder:  OrderNone,
		Properties: props,
	}
}
