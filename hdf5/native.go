package hdf5

import (
	"github.com/dropbox/godropbox/errors"
	"golang.org/x/sys/cpu"

	"github.com/robert-malhotra/h5flat/internal/cmodel"
	"github.com/robert-malhotra/h5flat/internal/message"
)

// Predefined native datatypes. Their sizes follow the C data model of the
// build target and their byte order is the host's.
const (
	NativeSChar ID = ID(KindDatatype)<<kindShift | (iota + 1)
	NativeUChar
	NativeShort
	NativeUShort
	NativeInt
	NativeUInt
	NativeLong
	NativeULong
	NativeLLong
	NativeULLong
	NativeFloat
	NativeDouble
)

// Predefined standard datatypes with a fixed size and byte order.
const (
	StdI8LE ID = ID(KindDatatype)<<kindShift | (iota + 32)
	StdI8BE
	StdU8LE
	StdU8BE
	StdI16LE
	StdI16BE
	StdU16LE
	StdU16BE
	StdI32LE
	StdI32BE
	StdU32LE
	StdU32BE
	StdI64LE
	StdI64BE
	StdU64LE
	StdU64BE
	IEEEF32LE
	IEEEF32BE
	IEEEF64LE
	IEEEF64BE
)

// Direction selects how TypeGetNativeType searches the native types.
type Direction int

const (
	DirDefault Direction = iota // Same as DirAscend
	DirAscend                   // Narrowest native type first
	DirDescend                  // Widest native type first
)

func (d Direction) String() string {
	switch d {
	case DirDefault:
		return "default"
	case DirAscend:
		return "ascend"
	case DirDescend:
		return "descend"
	}
	return "unknown"
}

// nativeInt is a C integer type in its signed and unsigned flavours.
type nativeInt struct {
	signed, unsigned ID
	size             int
}

// nativeInts is ordered from the narrowest to the widest C type.
var nativeInts = []nativeInt{
	{NativeSChar, NativeUChar, cmodel.Char},
	{NativeShort, NativeUShort, cmodel.Short},
	{NativeInt, NativeUInt, cmodel.Int},
	{NativeLong, NativeULong, cmodel.Long},
	{NativeLLong, NativeULLong, cmodel.LongLong},
}

var nativeFloats = []struct {
	id   ID
	size int
}{
	{NativeFloat, cmodel.Float},
	{NativeDouble, cmodel.Double},
}

func hostOrder() message.ByteOrder {
	if cpu.IsBigEndian {
		return message.OrderBE
	}
	return message.OrderLE
}

func init() {
	host := hostOrder()
	names := map[ID]string{
		NativeSChar: "H5T_NATIVE_SCHAR", NativeUChar: "H5T_NATIVE_UCHAR",
		NativeShort: "H5T_NATIVE_SHORT", NativeUShort: "H5T_NATIVE_USHORT",
		NativeInt: "H5T_NATIVE_INT", NativeUInt: "H5T_NATIVE_UINT",
		NativeLong: "H5T_NATIVE_LONG", NativeULong: "H5T_NATIVE_ULONG",
		NativeLLong: "H5T_NATIVE_LLONG", NativeULLong: "H5T_NATIVE_ULLONG",
	}
	for _, n := range nativeInts {
		lib.addFixedLocked(n.signed, &datatype{
			msg:  message.NewFixedPointDatatype(uint32(n.size), true, host),
			name: names[n.signed],
		})
		lib.addFixedLocked(n.unsigned, &datatype{
			msg:  message.NewFixedPointDatatype(uint32(n.size), false, host),
			name: names[n.unsigned],
		})
	}
	lib.addFixedLocked(NativeFloat, &datatype{msg: message.NewFloatDatatype(cmodel.Float, host), name: "H5T_NATIVE_FLOAT"})
	lib.addFixedLocked(NativeDouble, &datatype{msg: message.NewFloatDatatype(cmodel.Double, host), name: "H5T_NATIVE_DOUBLE"})

	id := StdI8LE
	for _, size := range []uint32{1, 2, 4, 8} {
		for _, signed := range []bool{true, false} {
			for _, order := range []message.ByteOrder{message.OrderLE, message.OrderBE} {
				lib.addFixedLocked(id, &datatype{
					msg:  message.NewFixedPointDatatype(size, signed, order),
					name: stdName(size, signed, order),
				})
				id++
			}
		}
	}
	lib.addFixedLocked(IEEEF32LE, &datatype{msg: message.NewFloatDatatype(4, message.OrderLE), name: "H5T_IEEE_F32LE"})
	lib.addFixedLocked(IEEEF32BE, &datatype{msg: message.NewFloatDatatype(4, message.OrderBE), name: "H5T_IEEE_F32BE"})
	lib.addFixedLocked(IEEEF64LE, &datatype{msg: message.NewFloatDatatype(8, message.OrderLE), name: "H5T_IEEE_F64LE"})
	lib.addFixedLocked(IEEEF64BE, &datatype{msg: message.NewFloatDatatype(8, message.OrderBE), name: "H5T_IEEE_F64BE"})
}

func stdName(size uint32, signed bool, order message.ByteOrder) string {
	prefix := "H5T_STD_U"
	if signed {
		prefix = "H5T_STD_I"
	}
	suffix := "LE"
	if order == message.OrderBE {
		suffix = "BE"
	}
	return prefix + map[uint32]string{1: "8", 2: "16", 4: "32", 8: "64"}[size] + suffix
}

// TypeGetNativeType returns the predefined native type able to hold values
// of an integer or floating-point datatype, in host byte order. Integers are
// matched by precision and floats by size. DirDefault and DirAscend take the
// first native type, narrowest first, that is wide enough; DirDescend starts
// from the widest and keeps the narrowest type that still fits. The result
// is predefined and need not be closed.
func TypeGetNativeType(id ID, dir Direction) (ID, error) {
	if dir < DirDefault || dir > DirDescend {
		return Invalid, errors.Wrapf(ErrInvalidArgument, "direction %d: ", int(dir))
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return Invalid, err
	}
	return nativeFor(dt.msg, dir)
}

func nativeFor(m *message.Datatype, dir Direction) (ID, error) {
	switch {
	case m.IsInteger():
		bits := make([]int, len(nativeInts))
		for i, n := range nativeInts {
			bits[i] = n.size * 8
		}
		i, ok := pick(bits, m.Precision(), dir)
		if !ok {
			return Invalid, errors.Wrapf(ErrUnsupported, "no native integer holds %d bits: ", m.Precision())
		}
		if m.Signed {
			return nativeInts[i].signed, nil
		}
		return nativeInts[i].unsigned, nil

	case m.IsFloat():
		sizes := make([]int, len(nativeFloats))
		for i, n := range nativeFloats {
			sizes[i] = n.size
		}
		i, ok := pick(sizes, int(m.Size), dir)
		if !ok {
			return Invalid, errors.Wrapf(ErrUnsupported, "no native float holds %d bytes: ", m.Size)
		}
		return nativeFloats[i].id, nil
	}

	return Invalid, errors.Wrapf(ErrUnsupported, "native type for %s datatype: ", Class(m.Class))
}

// pick returns the index of the native width chosen for need. widths is
// ordered from narrowest to widest.
func pick(widths []int, need int, dir Direction) (int, bool) {
	if dir == DirDescend {
		chosen := -1
		for i := len(widths) - 1; i >= 0 && widths[i] >= need; i-- {
			chosen = i
		}
		return chosen, chosen >= 0
	}
	for i, w := range widths {
		if w >= need {
			return i, true
		}
	}
	return -1, false
}
