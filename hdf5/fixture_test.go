package hdf5

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/btree"
	"github.com/robert-malhotra/h5flat/internal/message"
	"github.com/robert-malhotra/h5flat/internal/object"
	"github.com/robert-malhotra/h5flat/internal/superblock"
)

var le = binary.LittleEndian

// image is a sparse little-endian file image assembled by tests.
type image struct {
	buf []byte
}

func (im *image) WriteAt(p []byte, off int64) (int, error) {
	im.put(int(off), p)
	return len(p), nil
}

func (im *image) put(addr int, b []byte) {
	if end := addr + len(b); end > len(im.buf) {
		grown := make([]byte, end)
		copy(grown, im.buf)
		im.buf = grown
	}
	copy(im.buf[addr:], b)
}

func (im *image) save(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, im.buf, 0o644))
	return p
}

func encodeMessage(t *testing.T, m message.Message) []byte {
	t.Helper()
	im := &image{}
	require.NoError(t, message.Serialize(m, binpkg.NewWriter(im, binpkg.DefaultConfig())))
	return im.buf
}

type rawMessage struct {
	typ  message.Type
	data []byte
}

// v1Header encodes a version 1 object header.
func v1Header(msgs ...rawMessage) []byte {
	var body []byte
	for _, m := range msgs {
		body = le.AppendUint16(body, uint16(m.typ))
		body = le.AppendUint16(body, uint16(len(m.data)))
		body = append(body, 0, 0, 0, 0)
		body = append(body, m.data...)
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
	}

	b := []byte{1, 0}
	b = le.AppendUint16(b, uint16(len(msgs)))
	b = le.AppendUint32(b, 1)
	b = le.AppendUint32(b, uint32(len(body)))
	b = append(b, 0, 0, 0, 0)
	return append(b, body...)
}

func symbolTableMessage(btreeAddr, heapAddr uint64) rawMessage {
	data := le.AppendUint64(nil, btreeAddr)
	return rawMessage{typ: message.TypeSymbolTable, data: le.AppendUint64(data, heapAddr)}
}

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

// superblockV0 encodes a version 0 superblock with 8-byte addresses whose
// root entry caches the root symbol table.
func superblockV0(eof, rootAddr, btreeAddr, heapAddr uint64) []byte {
	b := append([]byte(nil), superblock.Signature...)
	b = append(b, 0, 0, 0, 0, 0, 8, 8, 0)
	b = le.AppendUint16(b, 4)
	b = le.AppendUint16(b, 16)
	b = le.AppendUint32(b, 0)
	b = le.AppendUint64(b, 0)
	b = le.AppendUint64(b, ^uint64(0))
	b = le.AppendUint64(b, eof)
	b = le.AppendUint64(b, ^uint64(0))
	// Root symbol table entry
	b = le.AppendUint64(b, 0)
	b = le.AppendUint64(b, rootAddr)
	b = le.AppendUint32(b, 1)
	b = le.AppendUint32(b, 0)
	b = le.AppendUint64(b, btreeAddr)
	return le.AppendUint64(b, heapAddr)
}

// writeSymbolTableFile writes a file in the old format whose root group is
// a symbol table holding a 3x4 big-endian int32 dataset "data", an empty
// group "sub" and a soft link "alias" to "/data". With scratchOnly the root
// object header carries no symbol table message, leaving the superblock's
// root entry as the only description of the group.
func writeSymbolTableFile(t *testing.T, scratchOnly bool) string {
	t.Helper()
	im := &image{}

	im.put(0x000, superblockV0(0x700, 0x100, 0x200, 0x180))

	if scratchOnly {
		im.put(0x100, v1Header(rawMessage{typ: 0, data: make([]byte, 8)}))
	} else {
		im.put(0x100, v1Header(symbolTableMessage(0x200, 0x180)))
	}

	names := []byte("\x00\x00\x00\x00\x00\x00\x00\x00data\x00sub\x00alias\x00/data\x00\x00\x00\x00")
	im.put(0x180, localHeap(0x1a0, names))
	im.put(0x1a0, names)
	im.put(0x200, treeNode(0, 0x300))
	im.put(0x300, snode(
		symbol{nameOff: 8, addr: 0x400},
		symbol{nameOff: 13, addr: 0x500},
		symbol{nameOff: 17, softLink: true, valueOff: 23},
	))

	im.put(0x400, v1Header(
		rawMessage{typ: message.TypeDataspace, data: encodeMessage(t, message.NewDataspace([]uint64{3, 4}, nil))},
		rawMessage{typ: message.TypeDatatype, data: encodeMessage(t, message.NewFixedPointDatatype(4, true, message.OrderBE))},
		rawMessage{typ: message.TypeDataLayout, data: encodeMessage(t, message.NewLateContiguousLayout(48))},
	))

	im.put(0x500, v1Header(symbolTableMessage(0x600, 0x680)))
	im.put(0x600, treeNode(0))
	empty := make([]byte, 8)
	im.put(0x680, localHeap(0x6a0, empty))
	im.put(0x6a0, empty)
	im.put(0x6ff, []byte{0})

	return im.save(t, "symtab.h5")
}

// writeDenseFile writes a file whose root group stores its links densely,
// with a link name index counting total links.
func writeDenseFile(t *testing.T, total uint64) string {
	t.Helper()
	im := &image{}
	cfg := binpkg.DefaultConfig()
	w := binpkg.NewWriter(im, cfg)

	sb := superblock.NewSuperblock()
	sb.RootGroupAddress = 0x100
	sb.EOFAddress = 0x1000
	_, err := sb.Write(w.At(0))
	require.NoError(t, err)

	info := message.NewLinkInfo()
	info.FractalHeapAddr = 0x900
	info.NameIndexBTreeAddr = 0x800
	root, err := object.Encode(cfg, object.GroupMessages(info, nil), object.MinGroupChunkSize)
	require.NoError(t, err)
	require.Less(t, len(root), 0x700)
	im.put(0x100, root)

	im.put(0x800, v2BTreeHeader(btree.V2TypeLinkName, 0xa00, total))
	im.put(0xfff, []byte{0})

	return im.save(t, "dense.h5")
}

// Raw message types carried through header rewrites.
const (
	typeAttribute message.Type = 0x0c
	typeComment   message.Type = 0x0d
)

// writeAnnotatedFile writes a writable file whose root group carries an
// attribute, a comment and non-default group info next to its links.
func writeAnnotatedFile(t *testing.T) string {
	t.Helper()
	im := &image{}
	cfg := binpkg.DefaultConfig()
	w := binpkg.NewWriter(im, cfg)

	sb := superblock.NewSuperblock()
	sb.RootGroupAddress = 0x100
	sb.EOFAddress = 0x400
	_, err := sb.Write(w.At(0))
	require.NoError(t, err)

	msgs := object.GroupMessages(nil, nil)
	msgs[1] = &message.GroupInfo{Flags: 0x01, MaxCompactLinks: 16, MinDenseLinks: 12}
	msgs = append(msgs,
		message.NewUnknown(typeAttribute, []byte("attr\x00\x01\x02\x03"), 0x10),
		message.NewUnknown(typeComment, []byte("note\x00"), 0),
	)
	root, err := object.Encode(cfg, msgs, object.MinGroupChunkSize)
	require.NoError(t, err)
	require.Less(t, len(root), 0x300)
	im.put(0x100, root)
	im.put(0x3ff, []byte{0})

	return im.save(t, "annotated.h5")
}

// readRootHeader decodes the root group header of the file at p.
func readRootHeader(t *testing.T, p string) *object.Header {
	t.Helper()
	osFile, err := os.Open(p)
	require.NoError(t, err)
	defer osFile.Close()

	sb, err := superblock.Read(osFile)
	require.NoError(t, err)
	h, err := object.Read(binpkg.NewReader(osFile, sb.ReaderConfig()), sb.RootGroupAddress)
	require.NoError(t, err)
	return h
}

// v2BTreeHeader encodes a checksummed BTHD block with 8-byte addresses and
// lengths.
func v2BTreeHeader(typ uint8, root, total uint64) []byte {
	b := append([]byte("BTHD"), 0, typ)
	b = le.AppendUint32(b, 512)
	b = le.AppendUint16(b, 11)
	b = le.AppendUint16(b, 0)
	b = append(b, 100, 40)
	b = le.AppendUint64(b, root)
	b = le.AppendUint16(b, 0)
	b = le.AppendUint64(b, total)
	return le.AppendUint32(b, binpkg.Lookup3Checksum(b))
}

// newFile creates an empty writable file in a temporary directory and
// closes it when the test ends.
func newFile(t *testing.T, name string) (ID, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := Create(p)
	require.NoError(t, err)
	t.Cleanup(func() { FileClose(f) })
	return f, p
}

// newInt32Dataset creates a dataset of little-endian int32 values.
func newInt32Dataset(t *testing.T, loc ID, name string, dims ...uint64) ID {
	t.Helper()
	space, err := SpaceCreateSimple(dims, nil)
	require.NoError(t, err)
	defer SpaceClose(space)

	ds, err := DatasetCreate(loc, name, StdI32LE, space)
	require.NoError(t, err)
	return ds
}
