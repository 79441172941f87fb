package shim

import (
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5flat/hdf5"
)

// longIs8 reports whether C long is 8 bytes wide on this target.
func longIs8() bool {
	return runtime.GOOS != "windows" && strconv.IntSize == 64
}

func TestResolveNativeTypeIntegers(t *testing.T) {
	wide := [2]hdf5.ID{hdf5.NativeLLong, hdf5.NativeULLong}
	if longIs8() {
		wide = [2]hdf5.ID{hdf5.NativeLong, hdf5.NativeULong}
	}

	tests := []struct {
		size   int32
		signed int32
		want   hdf5.ID
	}{
		{1, 1, hdf5.NativeSChar},
		{1, 0, hdf5.NativeUChar},
		{2, 1, hdf5.NativeShort},
		{2, 0, hdf5.NativeUShort},
		{4, 1, hdf5.NativeInt},
		{4, 0, hdf5.NativeUInt},
		{8, 1, wide[0]},
		{8, 0, wide[1]},
		{8, -3, wide[0]},
	}
	for _, tt := range tests {
		got := ResolveNativeType(ClassInteger, tt.size, tt.signed)
		assert.Equal(t, int64(tt.want), got, "size %d signed %d", tt.size, tt.signed)
	}
}

func TestResolveNativeTypeFloats(t *testing.T) {
	for _, signed := range []int32{0, 1} {
		assert.Equal(t, int64(hdf5.NativeFloat), ResolveNativeType(ClassFloat, 4, signed))
		assert.Equal(t, int64(hdf5.NativeDouble), ResolveNativeType(ClassFloat, 8, signed))
	}
}

func TestResolveNativeTypeNoMatch(t *testing.T) {
	tests := []struct {
		name                string
		class, size, signed int32
	}{
		{"unknown class", 2, 4, 1},
		{"negative class", -1, 4, 1},
		{"string class", 3, 1, 0},
		{"three byte integer", ClassInteger, 3, 1},
		{"sixteen byte integer", ClassInteger, 16, 0},
		{"zero size integer", ClassInteger, 0, 0},
		{"negative size", ClassInteger, -4, 1},
		{"half float", ClassFloat, 2, 1},
		{"quad float", ClassFloat, 16, 1},
		{"one byte float", ClassFloat, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, int64(Fail), ResolveNativeType(tt.class, tt.size, tt.signed))
		})
	}
}

func TestResolvedTypesAreUsable(t *testing.T) {
	for _, class := range []int32{ClassInteger, ClassFloat} {
		for _, size := range []int32{1, 2, 4, 8} {
			id := ResolveNativeType(class, size, 1)
			if id == int64(Fail) {
				continue
			}
			got, err := hdf5.TypeGetSize(hdf5.ID(id))
			require.NoError(t, err)
			assert.Equal(t, int(size), got)
		}
	}
}

func newFile(t *testing.T, dir, name string) hdf5.ID {
	t.Helper()
	f, err := hdf5.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	t.Cleanup(func() { hdf5.FileClose(f) })
	return f
}

func TestGroupMemberCount(t *testing.T) {
	dir := t.TempDir()
	f := newFile(t, dir, "count.h5")

	g, err := hdf5.GroupCreate(f, "g")
	require.NoError(t, err)
	defer hdf5.GroupClose(g)

	var n uint64 = 99
	require.Equal(t, Succeed, GroupMemberCount(int64(g), &n))
	assert.Zero(t, n)

	for _, name := range []string{"a", "b", "c"} {
		child, err := hdf5.GroupCreate(g, name)
		require.NoError(t, err)
		require.NoError(t, hdf5.GroupClose(child))
	}
	require.NoError(t, hdf5.LinkCreateSoft("/g/a", g, "soft"))
	require.NoError(t, hdf5.LinkCreateExternal("other.h5", "/", g, "ext"))

	require.Equal(t, Succeed, GroupMemberCount(int64(g), &n))
	assert.Equal(t, uint64(5), n)

	// A file identifier stands for its root group.
	require.Equal(t, Succeed, GroupMemberCount(int64(f), &n))
	assert.Equal(t, uint64(1), n)

	nested, err := hdf5.GroupOpen(f, "/g/b")
	require.NoError(t, err)
	defer hdf5.GroupClose(nested)
	require.Equal(t, Succeed, GroupMemberCount(int64(nested), &n))
	assert.Zero(t, n)
}

func TestGroupMemberCountAfterReopen(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "reopen.h5")
	f, err := hdf5.Create(p)
	require.NoError(t, err)
	for _, name := range []string{"x", "y"} {
		g, err := hdf5.GroupCreate(f, name)
		require.NoError(t, err)
		require.NoError(t, hdf5.GroupClose(g))
	}
	require.NoError(t, hdf5.FileClose(f))

	f, err = hdf5.Open(p, hdf5.ReadOnly)
	require.NoError(t, err)
	defer hdf5.FileClose(f)

	root, err := hdf5.GroupOpen(f, "/")
	require.NoError(t, err)
	defer hdf5.GroupClose(root)

	var n uint64
	require.Equal(t, Succeed, GroupMemberCount(int64(root), &n))
	assert.Equal(t, uint64(2), n)
}

func TestGroupMemberCountFailureLeavesSlot(t *testing.T) {
	dir := t.TempDir()
	f := newFile(t, dir, "fail.h5")
	g, err := hdf5.GroupCreate(f, "g")
	require.NoError(t, err)
	require.NoError(t, hdf5.GroupClose(g))

	space, err := hdf5.SpaceCreateScalar()
	require.NoError(t, err)
	defer hdf5.SpaceClose(space)

	for _, id := range []int64{-1, 0, 424242, int64(g), int64(space), int64(hdf5.NativeInt)} {
		n := uint64(7)
		assert.Equal(t, Fail, GroupMemberCount(id, &n), "id %d", id)
		assert.Equal(t, uint64(7), n, "id %d", id)
	}

	assert.Equal(t, Fail, GroupMemberCount(int64(f), nil))
}

func TestGroupMemberCountClosedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "closed.h5")
	f, err := hdf5.Create(p)
	require.NoError(t, err)
	g, err := hdf5.GroupCreate(f, "g")
	require.NoError(t, err)
	defer hdf5.GroupClose(g)
	require.NoError(t, hdf5.FileClose(f))

	n := uint64(3)
	assert.Equal(t, Fail, GroupMemberCount(int64(g), &n))
	assert.Equal(t, uint64(3), n)
}

func newDataset(t *testing.T, f hdf5.ID, name string, dtype hdf5.ID, dims ...uint64) hdf5.ID {
	t.Helper()
	space, err := hdf5.SpaceCreateSimple(dims, nil)
	require.NoError(t, err)
	defer hdf5.SpaceClose(space)

	ds, err := hdf5.DatasetCreate(f, name, dtype, space)
	require.NoError(t, err)
	t.Cleanup(func() { hdf5.DatasetClose(ds) })
	return ds
}

func TestDatasetSpaceMatchesLibrary(t *testing.T) {
	f := newFile(t, t.TempDir(), "space.h5")
	ds := newDataset(t, f, "d", hdf5.StdU16BE, 2, 3, 5)

	want, err := hdf5.DatasetGetSpace(ds)
	require.NoError(t, err)
	defer hdf5.SpaceClose(want)

	got := DatasetSpace(int64(ds))
	require.NotEqual(t, int64(Fail), got)
	defer hdf5.SpaceClose(hdf5.ID(got))

	wantDims, wantMax, err := hdf5.SpaceGetDims(want)
	require.NoError(t, err)
	gotDims, gotMax, err := hdf5.SpaceGetDims(hdf5.ID(got))
	require.NoError(t, err)
	assert.Equal(t, wantDims, gotDims)
	assert.Equal(t, wantMax, gotMax)
	assert.Equal(t, []uint64{2, 3, 5}, gotDims)
}

func TestDatasetSpaceFailure(t *testing.T) {
	f := newFile(t, t.TempDir(), "nospace.h5")
	g, err := hdf5.GroupCreate(f, "g")
	require.NoError(t, err)
	defer hdf5.GroupClose(g)

	assert.Equal(t, int64(Fail), DatasetSpace(-1))
	assert.Equal(t, int64(Fail), DatasetSpace(int64(g)))
	assert.Equal(t, int64(Fail), DatasetSpace(int64(f)))
}

func TestNativeTypeOfMatchesLibrary(t *testing.T) {
	f := newFile(t, t.TempDir(), "native.h5")

	stored := []hdf5.ID{
		hdf5.StdI8BE, hdf5.StdU16BE, hdf5.StdI32BE, hdf5.StdU32LE,
		hdf5.StdI64BE, hdf5.StdU64LE, hdf5.IEEEF32BE, hdf5.IEEEF64BE,
	}
	for i, dtype := range stored {
		ds := newDataset(t, f, "d"+strconv.Itoa(i), dtype, 4)

		for _, dir := range []hdf5.Direction{hdf5.DirDefault, hdf5.DirAscend, hdf5.DirDescend} {
			tid, err := hdf5.DatasetGetType(ds)
			require.NoError(t, err)
			want, err := hdf5.TypeGetNativeType(tid, dir)
			require.NoError(t, err)
			require.NoError(t, hdf5.TypeClose(tid))

			before := hdf5.OpenCount()
			got := NativeTypeOf(int64(ds), int32(dir))
			assert.Equal(t, int64(want), got, "type %d direction %s", dtype, dir)
			assert.Equal(t, before, hdf5.OpenCount(), "stored type should be released")
		}
	}
}

func TestNativeTypeOfDatatype(t *testing.T) {
	assert.Equal(t, int64(hdf5.NativeInt), NativeTypeOf(int64(hdf5.StdI32BE), 0))
	assert.Equal(t, int64(hdf5.NativeDouble), NativeTypeOf(int64(hdf5.IEEEF64LE), 2))
}

func TestNativeTypeOfFailure(t *testing.T) {
	f := newFile(t, t.TempDir(), "nonative.h5")
	ds := newDataset(t, f, "d", hdf5.StdI32LE, 1)

	opaque, err := hdf5.TypeCreateOpaque(4, "tag")
	require.NoError(t, err)
	defer hdf5.TypeClose(opaque)
	odd := newDataset(t, f, "odd", opaque, 1)

	assert.Equal(t, int64(Fail), NativeTypeOf(-1, 0))
	assert.Equal(t, int64(Fail), NativeTypeOf(int64(f), 0))
	assert.Equal(t, int64(Fail), NativeTypeOf(int64(ds), 9))
	assert.Equal(t, int64(Fail), NativeTypeOf(int64(odd), 0))
}
