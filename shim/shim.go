package shim

import (
	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/internal/cmodel"
)

// Status and identifier codes.
const (
	Succeed int32 = 0
	Fail    int32 = -1
)

// Type classes understood by ResolveNativeType.
const (
	ClassInteger int32 = 0
	ClassFloat   int32 = 1
)

// GroupMemberCount writes the number of links in group to *nlinks. The
// group may also be a file identifier, standing for its root group. On
// failure Fail is returned and *nlinks is left as it was.
func GroupMemberCount(group int64, nlinks *uint64) int32 {
	if nlinks == nil {
		return Fail
	}
	info, err := hdf5.GroupGetInfo(hdf5.ID(group))
	if err != nil {
		return Fail
	}
	*nlinks = info.NLinks
	return Succeed
}

type nativeInt struct {
	size             int
	signed, unsigned hdf5.ID
}

// nativeInts is checked in order, so when two C types share a width the
// earlier one wins.
var nativeInts = []nativeInt{
	{cmodel.Char, hdf5.NativeSChar, hdf5.NativeUChar},
	{cmodel.Short, hdf5.NativeShort, hdf5.NativeUShort},
	{cmodel.Int, hdf5.NativeInt, hdf5.NativeUInt},
	{cmodel.Long, hdf5.NativeLong, hdf5.NativeULong},
	{cmodel.LongLong, hdf5.NativeLLong, hdf5.NativeULLong},
}

// ResolveNativeType returns the predefined native type of the given class,
// byte size and signedness, or -1 when there is none. Any nonzero signed
// means signed. The result is predefined and must not be closed.
func ResolveNativeType(class, size, signed int32) int64 {
	switch class {
	case ClassInteger:
		for _, n := range nativeInts {
			if int(size) != n.size {
				continue
			}
			if signed != 0 {
				return int64(n.signed)
			}
			return int64(n.unsigned)
		}
	case ClassFloat:
		switch int(size) {
		case cmodel.Float:
			return int64(hdf5.NativeFloat)
		case cmodel.Double:
			return int64(hdf5.NativeDouble)
		}
	}
	return int64(Fail)
}

// DatasetSpace returns a new dataspace identifier for dataset, or -1. The
// caller owns the result.
func DatasetSpace(dataset int64) int64 {
	id, err := hdf5.DatasetGetSpace(hdf5.ID(dataset))
	if err != nil {
		return int64(Fail)
	}
	return int64(id)
}

// NativeTypeOf returns the native type able to hold the stored values of
// obj, a dataset or datatype identifier, searched in the given direction
// (0 default, 1 ascending, 2 descending). It returns -1 on failure.
func NativeTypeOf(obj int64, direction int32) int64 {
	id := hdf5.ID(obj)
	kind, err := hdf5.IDKind(id)
	if err != nil {
		return int64(Fail)
	}

	switch kind {
	case hdf5.KindDataset:
		stored, err := hdf5.DatasetGetType(id)
		if err != nil {
			return int64(Fail)
		}
		defer hdf5.TypeClose(stored)
		id = stored
	case hdf5.KindDatatype:
	default:
		return int64(Fail)
	}

	native, err := hdf5.TypeGetNativeType(id, hdf5.Direction(direction))
	if err != nil {
		return int64(Fail)
	}
	return int64(native)
}
