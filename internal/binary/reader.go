package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// ErrOutOfBounds is returned for a read that starts before the source or
// runs past its end.
var ErrOutOfBounds = errors.New("read out of bounds")

const (
	// largeRead is the request size above which Peek checks the source size
	// before allocating.
	largeRead = 1 << 16
	// maxUnsizedRead caps reads from sources that cannot report a size.
	maxUnsizedRead = 1 << 26
)

// Reader is a cursor over an io.ReaderAt.
type Reader struct {
	src io.ReaderAt
	cfg Config
	pos int64
}

// NewReader returns a Reader positioned at offset 0.
func NewReader(src io.ReaderAt, cfg Config) *Reader {
	return &Reader{src: src, cfg: cfg}
}

// At returns an independent cursor over the same source.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{src: r.src, cfg: r.cfg, pos: offset}
}

// Slice returns a Reader over b with the same field widths as r.
func (r *Reader) Slice(b []byte) *Reader {
	return &Reader{src: bytes.NewReader(b), cfg: r.cfg}
}

func (r *Reader) Pos() int64                  { return r.pos }
func (r *Reader) OffsetSize() int             { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int             { return r.cfg.LengthSize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }

// Skip moves the cursor n bytes forward.
func (r *Reader) Skip(n int64) { r.pos += n }

// Align moves the cursor to the next multiple of n.
func (r *Reader) Align(n int64) {
	if n > 1 && r.pos%n != 0 {
		r.pos += n - r.pos%n
	}
}

// Peek reads n bytes without moving the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if r.pos < 0 {
		return nil, fmt.Errorf("%w: offset %d", ErrOutOfBounds, r.pos)
	}
	if n > largeRead {
		limit, ok := sourceSize(r.src)
		if !ok {
			limit = r.pos + maxUnsizedRead
		}
		if int64(n) > limit-r.pos {
			return nil, fmt.Errorf("%w: %d bytes at %#x", ErrOutOfBounds, n, r.pos)
		}
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, r.pos); err != nil {
		return nil, fmt.Errorf("reading %d bytes at %#x: %w", n, r.pos, err)
	}
	return buf, nil
}

// sourceSize reports the current size of src. Files are asked on every
// call since a writable file grows.
func sourceSize(src io.ReaderAt) (int64, bool) {
	switch s := src.(type) {
	case interface{ Size() int64 }:
		return s.Size(), true
	case interface{ Stat() (fs.FileInfo, error) }:
		fi, err := s.Stat()
		if err != nil {
			return 0, false
		}
		return fi.Size(), true
	}
	return 0, false
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := r.Peek(n)
	if err == nil {
		r.pos += int64(n)
	}
	return buf, err
}

// ReadUintN reads an n byte unsigned integer.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return getUint(r.cfg.ByteOrder, buf), nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) { return r.ReadUintN(r.cfg.OffsetSize) }

// ReadLength reads a length field.
func (r *Reader) ReadLength() (uint64, error) { return r.ReadUintN(r.cfg.LengthSize) }

// IsUndefinedOffset reports whether v is the all-ones address.
func (r *Reader) IsUndefinedOffset(v uint64) bool {
	return v == allOnes(r.cfg.OffsetSize)
}
