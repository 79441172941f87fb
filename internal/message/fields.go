package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// fields decodes a message body field by field. The first failure sticks,
// so a parser can read every field and check err once at the end.
type fields struct {
	what string
	r    *binpkg.Reader
	size int
	err  error
}

func newFields(what string, data []byte, r *binpkg.Reader) *fields {
	return &fields{what: what, r: r.Slice(data), size: len(data)}
}

func (f *fields) left() int { return f.size - int(f.r.Pos()) }

func (f *fields) fail(err error) {
	if f.err == nil {
		f.err = fmt.Errorf("%s message: %w", f.what, err)
	}
}

func (f *fields) bytes(n int) []byte {
	if f.err != nil {
		return nil
	}
	if n > f.left() {
		f.fail(fmt.Errorf("need %d bytes at %d, have %d", n, f.r.Pos(), f.left()))
		return nil
	}
	b, err := f.r.ReadBytes(n)
	if err != nil {
		f.fail(err)
	}
	return b
}

func (f *fields) uint(n int) uint64 {
	if f.err != nil {
		return 0
	}
	if n > f.left() {
		f.fail(fmt.Errorf("need %d bytes at %d, have %d", n, f.r.Pos(), f.left()))
		return 0
	}
	v, err := f.r.ReadUintN(n)
	if err != nil {
		f.fail(err)
	}
	return v
}

func (f *fields) u8() uint8   { return uint8(f.uint(1)) }
func (f *fields) u16() uint16 { return uint16(f.uint(2)) }

func (f *fields) length() uint64 { return f.uint(f.r.LengthSize()) }

// address reads a file address, mapping the all-ones value of any width to
// UndefinedAddress.
func (f *fields) address() uint64 {
	v := f.uint(f.r.OffsetSize())
	if f.err == nil && f.r.IsUndefinedOffset(v) {
		return UndefinedAddress
	}
	return v
}

// skip discards n bytes.
func (f *fields) skip(n int) { f.bytes(n) }
