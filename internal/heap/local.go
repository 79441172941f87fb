package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
)

// ErrBadName is returned for a name offset that does not point at a null
// terminated string inside the data segment.
var ErrBadName = errors.New("bad local heap name offset")

const localHeapSignature = "HEAP"

// LocalHeap is a version 0 local heap with its data segment loaded.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64 // head of the free list, or the undefined length
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the heap header at address and then its data segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))

	sig, err := hr.ReadBytes(len(localHeapSignature))
	if err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", address, err)
	}
	if string(sig) != localHeapSignature {
		return nil, fmt.Errorf("local heap at %d: invalid local heap signature %q", address, sig)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", address, err)
	}
	if version != 0 {
		return nil, fmt.Errorf("local heap at %d: unsupported local heap version %d", address, version)
	}
	hr.Skip(3)

	var h LocalHeap
	for _, field := range []struct {
		dst  *uint64
		read func() (uint64, error)
	}{
		{&h.DataSize, hr.ReadLength},
		{&h.FreeOffset, hr.ReadLength},
		{&h.DataAddress, hr.ReadOffset},
	} {
		if *field.dst, err = field.read(); err != nil {
			return nil, fmt.Errorf("local heap at %d: %w", address, err)
		}
	}

	if h.data, err = r.At(int64(h.DataAddress)).ReadBytes(int(h.DataSize)); err != nil {
		return nil, fmt.Errorf("local heap data at %d: %w", h.DataAddress, err)
	}
	return &h, nil
}

// Name returns the null terminated string at offset in the data segment.
func (h *LocalHeap) Name(offset uint64) (string, error) {
	if offset >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: %d is past the %d byte data segment", ErrBadName, offset, len(h.data))
	}
	rest := h.data[offset:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: string at %d is not terminated", ErrBadName, offset)
	}
	return string(rest[:end]), nil
}
