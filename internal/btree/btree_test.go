package btree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/heap"
)

var le = binary.LittleEndian

// image is a sparse little-endian file image assembled by tests.
type image struct {
	buf []byte
}

func (im *image) put(addr int, b []byte) {
	if end := addr + len(b); end > len(im.buf) {
		grown := make([]byte, end)
		copy(grown, im.buf)
		im.buf = grown
	}
	copy(im.buf[addr:], b)
}

func (im *image) reader() *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(im.buf), binpkg.DefaultConfig())
}

// treeNode encodes a v1 group B-tree node with 8-byte offsets and lengths.
func treeNode(level uint8, children ...uint64) []byte {
	b := []byte("TREE")
	b = append(b, 0, level)
	b = le.AppendUint16(b, uint16(len(children)))
	b = le.AppendUint64(b, ^uint64(0))
	b = le.AppendUint64(b, ^uint64(0))
	for _, c := range children {
		b = le.AppendUint64(b, 0)
		b = le.AppendUint64(b, c)
	}
	// Trailing key
	return le.AppendUint64(b, 0)
}

type symbol struct {
	nameOff  uint64
	addr     uint64
	softLink bool
	valueOff uint32
}

func snode(symbols ...symbol) []byte {
	b := []byte("SNOD")
	b = append(b, 1, 0)
	b = le.AppendUint16(b, uint16(len(symbols)))
	for _, s := range symbols {
		b = le.AppendUint64(b, s.nameOff)
		b = le.AppendUint64(b, s.addr)
		cache := uint32(0)
		if s.softLink {
			cache = 2
		}
		b = le.AppendUint32(b, cache)
		b = le.AppendUint32(b, 0)
		scratch := make([]byte, 16)
		le.PutUint32(scratch, s.valueOff)
		b = append(b, scratch...)
	}
	return b
}

func localHeap(dataAddr uint64, data []byte) []byte {
	b := []byte("HEAP")
	b = append(b, 0, 0, 0, 0)
	b = le.AppendUint64(b, uint64(len(data)))
	b = le.AppendUint64(b, uint64(len(data)))
	return le.AppendUint64(b, dataAddr)
}

// buildGroup lays out a two-level group tree holding three symbols, one of
// them a soft link, and returns the image, root address and heap address.
func buildGroup() (*image, uint64, uint64) {
	im := &image{}
	names := []byte("\x00\x00\x00\x00\x00\x00\x00\x00a\x00b\x00c\x00/a\x00\x00")

	im.put(0x000, localHeap(0x040, names))
	im.put(0x040, names)
	im.put(0x100, treeNode(1, 0x200, 0x300))
	im.put(0x200, treeNode(0, 0x400))
	im.put(0x300, treeNode(0, 0x500))
	im.put(0x400, snode(
		symbol{nameOff: 8, addr: 0x1000},
		symbol{nameOff: 10, addr: 0x2000},
	))
	im.put(0x500, snode(
		symbol{nameOff: 12, softLink: true, valueOff: 14},
	))
	return im, 0x100, 0x000
}

func TestReadGroupEntries(t *testing.T) {
	im, root, heapAddr := buildGroup()
	r := im.reader()

	lh, err := heap.ReadLocalHeap(r, heapAddr)
	require.NoError(t, err)

	entries, err := ReadGroupEntries(r, root, lh)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, GroupEntry{Name: "a", ObjectAddress: 0x1000, Kind: EntryHard}, entries[0])
	assert.Equal(t, GroupEntry{Name: "b", ObjectAddress: 0x2000, Kind: EntryHard}, entries[1])
	assert.Equal(t, GroupEntry{Name: "c", Kind: EntrySoft, SoftLinkValue: "/a"}, entries[2])
}

func TestCountGroupEntries(t *testing.T) {
	im, root, _ := buildGroup()

	n, err := CountGroupEntries(im.reader(), root)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestCountGroupEntriesEmptyTree(t *testing.T) {
	im := &image{}
	im.put(0, treeNode(0))

	n, err := CountGroupEntries(im.reader(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadGroupEntriesInvalidSignature(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("XXXX") // Invalid signature

	r := binpkg.NewReader(bytes.NewReader(buf.Bytes()), binpkg.DefaultConfig())

	_, err := ReadGroupEntries(r, 0, nil)
	if err == nil {
		t.Error("expected error for invalid signature")
	}
}

func TestGroupTreeWrongNodeType(t *testing.T) {
	im := &image{}
	node := treeNode(0)
	node[4] = 1 // chunk node
	im.put(0, node)

	_, err := CountGroupEntries(im.reader(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a group node")
}

func TestSymbolNodeBadVersion(t *testing.T) {
	im := &image{}
	im.put(0, treeNode(0, 0x100))
	node := snode(symbol{nameOff: 0, addr: 1})
	node[4] = 2
	im.put(0x100, node)

	_, err := CountGroupEntries(im.reader(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 2")
}

func TestV2HeaderRoundTrip(t *testing.T) {
	want := &V2Header{
		Type:           V2TypeLinkName,
		NodeSize:       512,
		RecordSize:     11,
		Depth:          1,
		SplitPercent:   100,
		MergePercent:   40,
		RootAddr:       0x800,
		NumRootRecords: 2,
		TotalRecords:   42,
	}

	for _, sizes := range [][2]int{{8, 8}, {4, 4}} {
		cfg := binpkg.Config{ByteOrder: le, OffsetSize: sizes[0], LengthSize: sizes[1]}
		mem := &memBuffer{}
		w := binpkg.NewWriter(mem, cfg).At(16)
		require.NoError(t, writeV2Header(w, want))
		assert.Len(t, mem.data, 16+V2HeaderSize(sizes[0], sizes[1]))

		got, err := ReadV2Header(binpkg.NewReader(bytes.NewReader(mem.data), cfg), 16)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, got.IsLinkIndex())
	}
}

func TestV2HeaderChecksumMismatch(t *testing.T) {
	mem := &memBuffer{}
	w := binpkg.NewWriter(mem, binpkg.DefaultConfig())
	require.NoError(t, writeV2Header(w, &V2Header{Type: V2TypeLinkCorder, TotalRecords: 3}))

	mem.data[len(mem.data)-10] ^= 0xFF

	_, err := ReadV2Header(binpkg.NewReader(bytes.NewReader(mem.data), binpkg.DefaultConfig()), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestV2HeaderInvalidSignature(t *testing.T) {
	data := make([]byte, V2HeaderSize(8, 8))
	copy(data, "XXXX")

	_, err := ReadV2Header(binpkg.NewReader(bytes.NewReader(data), binpkg.DefaultConfig()), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid B-tree v2 signature")
}

func TestV2HeaderTruncated(t *testing.T) {
	_, err := ReadV2Header(binpkg.NewReader(bytes.NewReader([]byte("BTHD\x00")), binpkg.DefaultConfig()), 0)
	assert.Error(t, err)
}

func TestV2HeaderUnsupportedVersion(t *testing.T) {
	mem := &memBuffer{}
	w := binpkg.NewWriter(mem, binpkg.DefaultConfig())
	require.NoError(t, writeV2Header(w, &V2Header{Version: 1, Type: V2TypeLinkName}))

	_, err := ReadV2Header(binpkg.NewReader(bytes.NewReader(mem.data), binpkg.DefaultConfig()), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported B-tree v2 version")
}

func TestGroupTreeCycle(t *testing.T) {
	im := &image{}
	im.put(0x100, treeNode(1, 0x100))

	_, err := CountGroupEntries(im.reader(), 0x100)
	assert.ErrorIs(t, err, ErrTooDeep)
}

// writeV2Header encodes h as a BTHD block at the writer's position and
// appends its lookup3 checksum.
func writeV2Header(w *binpkg.Writer, h *V2Header) error {
	size := V2HeaderSize(w.OffsetSize(), w.LengthSize())
	buf := &memBuffer{}
	bw := binpkg.NewWriter(buf, binpkg.Config{
		ByteOrder:  w.ByteOrder(),
		OffsetSize: w.OffsetSize(),
		LengthSize: w.LengthSize(),
	})

	steps := []func() error{
		func() error { return bw.WriteBytes(v2HeaderSignature) },
		func() error { return bw.WriteUint8(h.Version) },
		func() error { return bw.WriteUint8(h.Type) },
		func() error { return bw.WriteUint32(h.NodeSize) },
		func() error { return bw.WriteUint16(h.RecordSize) },
		func() error { return bw.WriteUint16(h.Depth) },
		func() error { return bw.WriteUint8(h.SplitPercent) },
		func() error { return bw.WriteUint8(h.MergePercent) },
		func() error { return bw.WriteOffset(h.RootAddr) },
		func() error { return bw.WriteUint16(h.NumRootRecords) },
		func() error { return bw.WriteLength(h.TotalRecords) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	if err := bw.WriteUint32(binpkg.Lookup3Checksum(buf.data)); err != nil {
		return err
	}
	if len(buf.data) != size {
		return fmt.Errorf("B-tree v2 header encoded to %d bytes, want %d", len(buf.data), size)
	}
	return w.WriteBytes(buf.data)
}

// memBuffer is an in-memory io.WriterAt.
type memBuffer struct {
	data []byte
}

func (b *memBuffer) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(b.data) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[off:], p)
	return len(p), nil
}
