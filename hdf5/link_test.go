package hdf5

import (
	"path/filepath"
	"testing"

	"github.com/dropbox/godropbox/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5flat/internal/message"
)

func TestHardLinkToDataset(t *testing.T) {
	f, _ := newFile(t, "hard.h5")
	ds := newInt32Dataset(t, f, "d", 8)
	defer DatasetClose(ds)

	g, err := GroupCreate(f, "g")
	require.NoError(t, err)
	defer GroupClose(g)

	require.NoError(t, LinkCreateHard(f, "d", g, "again"))

	other, err := DatasetOpen(f, "/g/again")
	require.NoError(t, err)
	defer DatasetClose(other)

	space, err := DatasetGetSpace(other)
	require.NoError(t, err)
	defer SpaceClose(space)
	n, err := SpaceGetNPoints(space)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), n)
}

func TestHardLinkRefusals(t *testing.T) {
	f, _ := newFile(t, "refuse.h5")
	g, err := GroupCreate(f, "g")
	require.NoError(t, err)
	defer GroupClose(g)

	err = LinkCreateHard(f, "g", f, "g2")
	assert.True(t, errors.IsError(err, ErrUnsupported), "got %v", err)

	other, _ := newFile(t, "other.h5")
	ds := newInt32Dataset(t, other, "d", 1)
	defer DatasetClose(ds)

	err = LinkCreateHard(other, "d", f, "foreign")
	assert.True(t, errors.IsError(err, ErrUnsupported), "got %v", err)

	err = LinkCreateHard(f, "missing", f, "x")
	assert.True(t, errors.IsError(err, ErrNotFound), "got %v", err)

	ok, err := LinkExists(f, "g2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSoftLinks(t *testing.T) {
	f, _ := newFile(t, "soft.h5")
	ds := newInt32Dataset(t, f, "d", 2)
	defer DatasetClose(ds)

	require.NoError(t, LinkCreateSoft("/d", f, "alias"))
	require.NoError(t, LinkCreateSoft("/nowhere", f, "dangling"))
	require.NoError(t, LinkCreateSoft("/loop", f, "loop"))

	kind, err := ObjectKind(f, "alias")
	require.NoError(t, err)
	assert.Equal(t, KindDataset, kind)

	_, err = DatasetOpen(f, "dangling")
	assert.True(t, errors.IsError(err, ErrNotFound), "got %v", err)

	_, err = DatasetOpen(f, "loop")
	assert.True(t, errors.IsError(err, ErrLinkDepth), "got %v", err)

	err = LinkCreateSoft("", f, "empty")
	assert.True(t, errors.IsError(err, ErrInvalidPath), "got %v", err)

	err = LinkCreateSoft("/d", f, "alias")
	assert.True(t, errors.IsError(err, ErrExists), "got %v", err)
}

func TestLinkExists(t *testing.T) {
	f, _ := newFile(t, "exists.h5")
	g, err := GroupCreate(f, "g")
	require.NoError(t, err)
	defer GroupClose(g)
	require.NoError(t, LinkCreateSoft("/nowhere", g, "dangling"))

	tests := []struct {
		name string
		want bool
	}{
		{"g", true},
		{"/g", true},
		{"g/dangling", true},
		{"/g/dangling", true},
		{"missing", false},
		{"missing/child", false},
		{"g/missing", false},
	}
	for _, tt := range tests {
		got, err := LinkExists(f, tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err = LinkExists(f, "")
	assert.True(t, errors.IsError(err, ErrInvalidPath), "got %v", err)
}

func TestExternalLinks(t *testing.T) {
	dir := t.TempDir()

	target, err := Create(filepath.Join(dir, "target.h5"))
	require.NoError(t, err)
	inner, err := GroupCreate(target, "inner")
	require.NoError(t, err)
	ds := newInt32Dataset(t, inner, "values", 6)
	require.NoError(t, DatasetClose(ds))
	require.NoError(t, GroupClose(inner))
	require.NoError(t, FileClose(target))

	f, err := Create(filepath.Join(dir, "main.h5"))
	require.NoError(t, err)
	defer FileClose(f)
	require.NoError(t, LinkCreateExternal("target.h5", "/inner", f, "ext"))
	require.NoError(t, LinkCreateExternal("absent.h5", "/x", f, "broken"))

	kind, err := ObjectKind(f, "ext")
	require.NoError(t, err)
	assert.Equal(t, KindGroup, kind)

	ds, err = DatasetOpen(f, "ext/values")
	require.NoError(t, err)
	defer DatasetClose(ds)

	space, err := DatasetGetSpace(ds)
	require.NoError(t, err)
	defer SpaceClose(space)
	n, err := SpaceGetNPoints(space)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), n)

	// External files are read-only.
	_, err = GroupCreate(f, "ext/new")
	assert.True(t, errors.IsError(err, ErrNotWritable), "got %v", err)

	_, err = ObjectKind(f, "broken")
	assert.Error(t, err)

	ok, err := LinkExists(f, "broken")
	require.NoError(t, err)
	assert.True(t, ok)

	err = LinkCreateExternal("", "/x", f, "bad")
	assert.True(t, errors.IsError(err, ErrInvalidPath), "got %v", err)
}

func TestAddLinkKeepsOtherMessages(t *testing.T) {
	p := writeAnnotatedFile(t)

	f, err := Open(p, ReadWrite)
	require.NoError(t, err)
	for _, name := range []string{"new", "other"} {
		g, err := GroupCreate(f, name)
		require.NoError(t, err)
		require.NoError(t, GroupClose(g))
	}
	require.NoError(t, LinkCreateSoft("/new", f, "alias"))
	require.NoError(t, FileClose(f))

	h := readRootHeader(t, p)
	links := h.Links()
	require.Len(t, links, 3)
	assert.Equal(t, "alias", links[2].Name)

	require.NotNil(t, h.GroupInfo())
	assert.Equal(t, uint16(16), h.GroupInfo().MaxCompactLinks)
	assert.Equal(t, uint16(12), h.GroupInfo().MinDenseLinks)

	attrs := h.GetMessages(typeAttribute)
	require.Len(t, attrs, 1)
	attr, ok := attrs[0].(*message.Unknown)
	require.True(t, ok)
	assert.Equal(t, []byte("attr\x00\x01\x02\x03"), encodeMessage(t, attr))
	assert.Equal(t, uint8(0x30), attr.Flags(), "modified object marks the attribute")
	assert.Len(t, h.GetMessages(typeComment), 1)
}
