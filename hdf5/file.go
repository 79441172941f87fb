package hdf5

import (
	stdbinary "encoding/binary"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/alloc"
	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/message"
	"github.com/robert-malhotra/h5flat/internal/object"
	"github.com/robert-malhotra/h5flat/internal/superblock"
)

// file is an open HDF5 file.
type file struct {
	path       string
	osFile     *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *group
	closed     bool
	external   map[string]*file // Cache of opened external files

	// Set only for files opened for writing.
	writable bool
	writer   *binary.Writer
	space    *alloc.Allocator
	groups   map[string]*group // Canonical groups by path
}

// Create creates a new HDF5 file at the given path, truncating any existing
// file. The file gets a version 3 superblock and an empty root group.
func Create(name string, opts ...FileOption) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := createFile(name, opts...)
	if err != nil {
		return Invalid, err
	}
	return lib.addLocked(KindFile, f), nil
}

func createFile(name string, opts ...FileOption) (*file, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s: ", name)
	}

	cfg := binary.Config{
		ByteOrder:  stdbinary.LittleEndian,
		OffsetSize: options.offsetSize,
		LengthSize: options.lengthSize,
	}

	sb := superblock.NewSuperblock()
	sb.OffsetSize = uint8(options.offsetSize)
	sb.LengthSize = uint8(options.lengthSize)

	f := &file{
		path:       name,
		osFile:     osFile,
		reader:     binary.NewReader(osFile, cfg),
		superblock: sb,
		writable:   true,
		writer:     binary.NewWriter(osFile, cfg),
		space:      alloc.New(uint64(sb.Size())),
		groups:     make(map[string]*group),
	}

	fail := func(err error) (*file, error) {
		osFile.Close()
		os.Remove(name)
		return nil, err
	}

	addr, err := f.writeHeader(object.GroupMessages(nil, nil), object.MinGroupChunkSize, "group /")
	if err != nil {
		return fail(errors.Wrap(err, "writing root group: "))
	}
	sb.RootGroupAddress = addr

	header, err := object.Read(f.reader, addr)
	if err != nil {
		return fail(wrapFormat(err, "reading back root group: "))
	}
	f.root = &group{node: node{file: f, path: "/", header: header}}
	f.groups["/"] = f.root

	if err := f.flush(); err != nil {
		return fail(err)
	}
	return f, nil
}

// Open opens an existing HDF5 file. Files opened ReadWrite must carry a
// version 2 or 3 superblock at offset zero.
func Open(name string, mode Mode) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := openFile(name, mode)
	if err != nil {
		return Invalid, err
	}
	return lib.addLocked(KindFile, f), nil
}

func openFile(name string, mode Mode) (*file, error) {
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}
	osFile, err := os.OpenFile(name, flag, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s: ", name)
	}

	sb, err := superblock.Read(osFile)
	if err != nil {
		osFile.Close()
		if stderrors.Is(err, superblock.ErrNotHDF5) {
			return nil, errors.Wrapf(ErrNotHDF5, "%s: ", name)
		}
		return nil, wrapFormat(err, "reading superblock of %s: ", name)
	}

	cfg := sb.ReaderConfig()
	f := &file{
		path:       name,
		osFile:     osFile,
		reader:     binary.NewReader(osFile, cfg),
		superblock: sb,
	}

	if mode == ReadWrite {
		if sb.Version < 2 || sb.FileOffset != 0 || sb.BaseAddress != 0 {
			osFile.Close()
			return nil, errors.Wrapf(ErrUnsupported,
				"writing to %s (superblock version %d at offset %d): ", name, sb.Version, sb.FileOffset)
		}
		f.writable = true
		f.writer = binary.NewWriter(osFile, cfg)
		f.space = alloc.New(uint64(sb.Size()))
		f.space.SetEOF(sb.EOFAddress)
		f.groups = make(map[string]*group)
	}

	header, err := object.Read(f.reader, sb.RootGroupAddress)
	if err != nil {
		osFile.Close()
		return nil, wrapFormat(err, "opening root group of %s: ", name)
	}
	f.root = &group{node: node{file: f, path: "/", header: header}}
	if f.writable {
		f.groups["/"] = f.root
	}

	return f, nil
}

// Flush writes the superblock of a writable file and syncs it to disk.
func Flush(id ID) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := fileLocked(id)
	if err != nil {
		return err
	}
	return f.flush()
}

// FileClose closes a file and every external file it opened. Groups and
// datasets opened from the file stay valid identifiers, but any use of them
// fails with ErrClosed.
func FileClose(id ID) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	obj, err := lib.removeLocked(id, KindFile)
	if err != nil {
		return err
	}
	return obj.(*file).close()
}

// FileName returns the path a file was opened or created with.
func FileName(id ID) (string, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := fileLocked(id)
	if err != nil {
		return "", err
	}
	return f.path, nil
}

// FileIntent reports whether a file was opened for writing.
func FileIntent(id ID) (Mode, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := fileLocked(id)
	if err != nil {
		return ReadOnly, err
	}
	if f.writable {
		return ReadWrite, nil
	}
	return ReadOnly, nil
}

// FileVersion returns the superblock version of a file.
func FileVersion(id ID) (int, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := fileLocked(id)
	if err != nil {
		return 0, err
	}
	return int(f.superblock.Version), nil
}

// AllocStats returns space allocation statistics of a writable file.
func AllocStats(id ID) (alloc.Stats, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	f, err := fileLocked(id)
	if err != nil {
		return alloc.Stats{}, err
	}
	if !f.writable {
		return alloc.Stats{}, errors.Wrapf(ErrNotWritable, "%s: ", f.path)
	}
	return f.space.Stats(), nil
}

func fileLocked(id ID) (*file, error) {
	obj, err := lib.getLocked(id, KindFile)
	if err != nil {
		return nil, err
	}
	f := obj.(*file)
	if f.closed {
		return nil, errors.Wrapf(ErrClosed, "%s: ", f.path)
	}
	return f, nil
}

func (f *file) checkOpen() error {
	if f.closed {
		return errors.Wrapf(ErrClosed, "%s: ", f.path)
	}
	return nil
}

func (f *file) config() binary.Config {
	return binary.Config{
		ByteOrder:  f.writer.ByteOrder(),
		OffsetSize: f.writer.OffsetSize(),
		LengthSize: f.writer.LengthSize(),
	}
}

// writeHeader encodes an object header into newly allocated space and
// returns its address.
func (f *file) writeHeader(msgs []message.Message, minChunk int, tag string) (uint64, error) {
	data, err := object.Encode(f.config(), msgs, minChunk)
	if err != nil {
		return 0, err
	}
	addr := f.space.Alloc(uint64(len(data)), tag)
	if err := f.writer.At(int64(addr)).WriteBytes(data); err != nil {
		return 0, err
	}
	return addr, nil
}

func (f *file) flush() error {
	if !f.writable {
		return nil
	}

	// The allocator owns the end of file.
	f.superblock.EOFAddress = f.space.EOF()

	if _, err := f.superblock.Write(f.writer.At(0)); err != nil {
		return errors.Wrapf(err, "writing superblock of %s: ", f.path)
	}
	// Space freed at the end of the file is given back.
	if err := f.osFile.Truncate(int64(f.superblock.EOFAddress)); err != nil {
		return errors.Wrapf(err, "truncating %s: ", f.path)
	}
	return f.osFile.Sync()
}

func (f *file) close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	if err := f.flush(); err != nil {
		firstErr = err
	}

	// External link targets are ours to close.
	for _, ext := range f.external {
		ext.close()
	}
	f.external = nil
	f.groups = nil

	if err := f.osFile.Close(); err != nil && firstErr == nil {
		firstErr = errors.Wrapf(err, "closing %s: ", f.path)
	}
	return firstErr
}

// openExternal opens an external file by name, relative to the directory of
// f. External files are opened read-only and cached until f is closed.
func (f *file) openExternal(name string) (*file, error) {
	if ext, ok := f.external[name]; ok {
		return ext, nil
	}

	extPath := name
	if !filepath.IsAbs(name) {
		extPath = filepath.Join(filepath.Dir(f.path), name)
	}

	ext, err := openFile(extPath, ReadOnly)
	if err != nil {
		return nil, errors.Wrapf(err, "opening external file %q: ", name)
	}

	if f.external == nil {
		f.external = make(map[string]*file)
	}
	f.external[name] = ext
	return ext, nil
}
