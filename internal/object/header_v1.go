package object

import (
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/message"
)

// A version 1 header is a 16 byte prefix (version, reserved, message count,
// reference count, chunk size, 4 bytes of padding) followed by one chunk of
// messages. Every message has an 8 byte prefix (type, size, flags, 3 reserved
// bytes) and its data is padded to a multiple of 8. Continuation messages
// point at further chunks laid out the same way.
const v1MessagePrefix = 8

// maxChunks bounds the continuation chain of a corrupt header of either
// version.
const maxChunks = 1024

type v1Chunk struct {
	start, end int64
}

func readV1(r *binary.Reader, address uint64) (*Header, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: expected version 1, got %d", ErrUnsupportedVersion, version)
	}
	r.Skip(1)
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	refCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Align(8)

	hdr := &Header{
		Version:  1,
		Address:  address,
		RefCount: refCount,
		Messages: make([]message.Message, 0, count),
	}

	queue := []v1Chunk{{start: r.Pos(), end: r.Pos() + int64(size)}}
	seen := map[int64]bool{}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c.start] {
			continue
		}
		seen[c.start] = true
		if len(seen) > maxChunks {
			return nil, fmt.Errorf("%w: more than %d continuation chunks", ErrInvalidHeader, maxChunks)
		}

		more, err := hdr.readV1Chunk(r.At(c.start), c.end)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk at %d: %v", ErrInvalidHeader, c.start, err)
		}
		queue = append(queue, more...)
	}
	return hdr, nil
}

// readV1Chunk appends the messages of one chunk to h and returns the
// continuation chunks it names. Messages that fail to parse are kept raw.
func (h *Header) readV1Chunk(r *binary.Reader, end int64) ([]v1Chunk, error) {
	var more []v1Chunk
	for r.Pos()+v1MessagePrefix <= end {
		typ, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		r.Skip(3)
		data, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		r.Align(8)

		switch message.Type(typ) {
		case message.TypeNIL:
		case message.TypeObjectHeaderContinuation:
			if c, err := message.ParseContinuation(data, r); err == nil {
				more = append(more, v1Chunk{start: int64(c.Offset), end: int64(c.Offset + c.Length)})
			}
		default:
			msg, err := message.Parse(message.Type(typ), data, flags, r)
			if err != nil {
				msg = message.NewUnknown(message.Type(typ), data, flags)
			}
			h.Messages = append(h.Messages, msg)
		}
	}
	return more, nil
}
