package hdf5

import (
	"testing"

	"github.com/dropbox/godropbox/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5flat/internal/cmodel"
	"github.com/robert-malhotra/h5flat/internal/message"
)

// nativeFor64 is the native type of a signed 8-byte integer, which is long
// wherever long is 8 bytes wide and long long otherwise.
func nativeFor64(signed bool) ID {
	if cmodel.Long == 8 {
		if signed {
			return NativeLong
		}
		return NativeULong
	}
	if signed {
		return NativeLLong
	}
	return NativeULLong
}

func TestNativeTypeOfIntegers(t *testing.T) {
	tests := []struct {
		in   ID
		want ID
	}{
		{StdI8LE, NativeSChar},
		{StdI8BE, NativeSChar},
		{StdU8BE, NativeUChar},
		{StdI16BE, NativeShort},
		{StdU16LE, NativeUShort},
		{StdI32LE, NativeInt},
		{StdI32BE, NativeInt},
		{StdU32BE, NativeUInt},
		{StdI64BE, nativeFor64(true)},
		{StdU64LE, nativeFor64(false)},
	}
	for _, tt := range tests {
		name, _ := TypeName(tt.in)
		t.Run(name, func(t *testing.T) {
			got, err := TypeGetNativeType(tt.in, DirDefault)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNativeTypeOfFloats(t *testing.T) {
	for _, dir := range []Direction{DirDefault, DirAscend, DirDescend} {
		got, err := TypeGetNativeType(IEEEF32BE, dir)
		require.NoError(t, err)
		assert.Equal(t, NativeFloat, got, dir.String())

		got, err = TypeGetNativeType(IEEEF64BE, dir)
		require.NoError(t, err)
		assert.Equal(t, NativeDouble, got, dir.String())
	}
}

func TestNativeTypeIsHostOrder(t *testing.T) {
	got, err := TypeGetNativeType(StdI32BE, DirDefault)
	require.NoError(t, err)

	order, err := TypeGetOrder(got)
	require.NoError(t, err)
	if hostOrder() == message.OrderBE {
		assert.Equal(t, OrderBE, order)
	} else {
		assert.Equal(t, OrderLE, order)
	}

	sign, err := TypeGetSign(got)
	require.NoError(t, err)
	assert.Equal(t, Sign2, sign)
}

func TestNativeTypeOfOddSizes(t *testing.T) {
	three, err := TypeCreateInteger(3, Sign2, OrderBE)
	require.NoError(t, err)
	defer TypeClose(three)

	got, err := TypeGetNativeType(three, DirAscend)
	require.NoError(t, err)
	assert.Equal(t, NativeInt, got)

	got, err = TypeGetNativeType(three, DirDescend)
	require.NoError(t, err)
	assert.Equal(t, NativeInt, got)

	wide, err := TypeCreateInteger(16, SignNone, OrderLE)
	require.NoError(t, err)
	defer TypeClose(wide)

	_, err = TypeGetNativeType(wide, DirDefault)
	assert.True(t, errors.IsError(err, ErrUnsupported), "got %v", err)
}

func TestNativeTypeDescendSkipsEqualWidths(t *testing.T) {
	// Where long and long long share a width, descending stops at long.
	got, err := TypeGetNativeType(StdI64LE, DirDescend)
	require.NoError(t, err)
	assert.Equal(t, nativeFor64(true), got)
}

func TestNativeTypeUnsupportedClasses(t *testing.T) {
	opaque, err := TypeCreateOpaque(16, "uuid")
	require.NoError(t, err)
	defer TypeClose(opaque)

	_, err = TypeGetNativeType(opaque, DirDefault)
	assert.True(t, errors.IsError(err, ErrUnsupported), "got %v", err)

	_, err = TypeGetNativeType(NativeInt, Direction(7))
	assert.True(t, errors.IsError(err, ErrInvalidArgument), "got %v", err)

	space, err := SpaceCreateScalar()
	require.NoError(t, err)
	defer SpaceClose(space)
	_, err = TypeGetNativeType(space, DirDefault)
	assert.True(t, errors.IsError(err, ErrWrongKind), "got %v", err)
}

func TestNativeTypeOfNativeIsItself(t *testing.T) {
	for _, n := range nativeInts {
		for _, id := range []ID{n.signed, n.unsigned} {
			got, err := TypeGetNativeType(id, DirAscend)
			require.NoError(t, err)
			// long and long long collapse onto the narrower one when they
			// share a width.
			size, err := TypeGetSize(got)
			require.NoError(t, err)
			assert.Equal(t, n.size, size)
		}
	}
}

func TestPick(t *testing.T) {
	widths := []int{8, 16, 32, 64, 64}
	tests := []struct {
		need int
		dir  Direction
		want int
		ok   bool
	}{
		{1, DirAscend, 0, true},
		{9, DirAscend, 1, true},
		{64, DirAscend, 3, true},
		{64, DirDescend, 3, true},
		{24, DirDescend, 2, true},
		{65, DirAscend, -1, false},
		{65, DirDescend, -1, false},
	}
	for _, tt := range tests {
		got, ok := pick(widths, tt.need, tt.dir)
		assert.Equal(t, tt.ok, ok, "need %d %s", tt.need, tt.dir)
		assert.Equal(t, tt.want, got, "need %d %s", tt.need, tt.dir)
	}
}

func TestPredefinedNames(t *testing.T) {
	tests := map[ID]string{
		NativeInt:    "H5T_NATIVE_INT",
		NativeULLong: "H5T_NATIVE_ULLONG",
		StdI8LE:      "H5T_STD_I8LE",
		StdU64BE:     "H5T_STD_U64BE",
		StdI32BE:     "H5T_STD_I32BE",
		IEEEF64LE:    "H5T_IEEE_F64LE",
	}
	for id, want := range tests {
		got, err := TypeName(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	size, err := TypeGetSize(StdU16BE)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	order, err := TypeGetOrder(StdU16BE)
	require.NoError(t, err)
	assert.Equal(t, OrderBE, order)
}

func TestDatatypeConstructors(t *testing.T) {
	i, err := TypeCreateInteger(2, SignNone, OrderBE)
	require.NoError(t, err)
	defer TypeClose(i)

	eq, err := TypeEqual(i, StdU16BE)
	require.NoError(t, err)
	assert.True(t, eq)

	name, err := TypeName(i)
	require.NoError(t, err)
	assert.Equal(t, "2-byte unsigned integer, big-endian", name)

	_, err = TypeCreateInteger(0, Sign2, OrderLE)
	assert.True(t, errors.IsError(err, ErrInvalidArgument), "got %v", err)
	_, err = TypeCreateFloat(2, OrderLE)
	assert.True(t, errors.IsError(err, ErrInvalidArgument), "got %v", err)
	_, err = TypeCreateInteger(4, Sign2, OrderVAX)
	assert.True(t, errors.IsError(err, ErrInvalidArgument), "got %v", err)

	op, err := TypeCreateOpaque(6, "raw bytes")
	require.NoError(t, err)
	defer TypeClose(op)

	class, err := TypeGetClass(op)
	require.NoError(t, err)
	assert.Equal(t, ClassOpaque, class)

	order, err := TypeGetOrder(op)
	require.NoError(t, err)
	assert.Equal(t, OrderNone, order)

	_, err = TypeGetSign(op)
	assert.True(t, errors.IsError(err, ErrUnsupported), "got %v", err)
}

func TestTypeCopyIsClosable(t *testing.T) {
	c, err := TypeCopy(NativeShort)
	require.NoError(t, err)

	eq, err := TypeEqual(c, NativeShort)
	require.NoError(t, err)
	assert.True(t, eq)

	// The copy carries no predefined name.
	name, err := TypeName(c)
	require.NoError(t, err)
	assert.NotEqual(t, "H5T_NATIVE_SHORT", name)

	require.NoError(t, TypeClose(c))
}
