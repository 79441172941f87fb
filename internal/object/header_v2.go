package object

import (
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/message"
)

// Version 2 header flag bits. The low two bits give the width of the
// chunk #0 size field.
const (
	v2ChunkSizeWidth = 0x03
	v2TrackOrder     = 0x04
	v2PhaseChange    = 0x10
	v2Times          = 0x20
)

// signatureCont opens a version 2 continuation block.
var signatureCont = []byte("OCHK")

const v2Checksum = 4

// v2Chunk is a run of messages and the checksummed block holding it.
type v2Chunk struct {
	block, start, end int64
}

// readV2 decodes a version 2 header. Chunk #0 follows a variable prefix
// and every chunk ends with a lookup3 checksum of the block before it.
// Continuation blocks carry their own signature.
func readV2(r *binary.Reader, address uint64) (*Header, error) {
	r.Skip(int64(len(SignatureV2)))
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: expected version 2, got %d", ErrUnsupportedVersion, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if flags&v2Times != 0 {
		r.Skip(16) // access, modification, change and birth times
	}
	if flags&v2PhaseChange != 0 {
		r.Skip(4) // attribute phase change thresholds
	}
	size, err := r.ReadUintN(1 << (flags & v2ChunkSizeWidth))
	if err != nil {
		return nil, err
	}

	chunk0 := v2Chunk{block: int64(address), start: r.Pos(), end: r.Pos() + int64(size)}
	hdr := &Header{
		Version: 2,
		Address: address,
		Size:    uint64(chunk0.end + v2Checksum - chunk0.block),
	}
	if err := verifyV2Block(r, chunk0); err != nil {
		return nil, fmt.Errorf("%w at address %#x", err, address)
	}

	track := flags&v2TrackOrder != 0
	queue := []v2Chunk{chunk0}
	seen := map[int64]bool{}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c.block] {
			continue
		}
		seen[c.block] = true
		if len(seen) > maxChunks {
			return nil, fmt.Errorf("%w: more than %d continuation chunks", ErrInvalidHeader, maxChunks)
		}

		more, err := hdr.readV2Chunk(r.At(c.start), c.end, track)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk at %d: %v", ErrInvalidHeader, c.block, err)
		}
		for _, next := range more {
			if err := verifyV2Block(r, next); err != nil {
				return nil, fmt.Errorf("%w: continuation at %d", err, next.block)
			}
		}
		queue = append(queue, more...)
	}
	return hdr, nil
}

// verifyV2Block checks the checksum stored at c.end against the bytes of
// the block before it.
func verifyV2Block(r *binary.Reader, c v2Chunk) error {
	if c.block < 0 || c.end < c.start {
		return fmt.Errorf("%w: chunk at %d has a bad size", ErrInvalidHeader, c.block)
	}
	body, err := r.At(c.block).ReadBytes(int(c.end - c.block))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	stored, err := r.At(c.end).ReadUint32()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if !binary.VerifyLookup3(body, stored) {
		return ErrChecksumMismatch
	}
	return nil
}

// readV2Chunk appends the messages of one chunk to h and returns the
// continuation blocks it names. A gap too small for a message prefix ends
// the chunk. Messages that fail to parse are kept raw.
func (h *Header) readV2Chunk(r *binary.Reader, end int64, track bool) ([]v2Chunk, error) {
	var more []v2Chunk
	for end-r.Pos() >= v2MessagePrefix {
		typ, flags, data, err := readV2Message(r, track)
		if err != nil {
			return nil, err
		}

		switch typ {
		case message.TypeNIL:
		case message.TypeObjectHeaderContinuation:
			c, err := message.ParseContinuation(data, r)
			if err != nil {
				continue
			}
			sig, err := r.At(int64(c.Offset)).ReadBytes(len(signatureCont))
			if err != nil || string(sig) != string(signatureCont) {
				return nil, fmt.Errorf("continuation at %d has no %s signature", c.Offset, signatureCont)
			}
			block := int64(c.Offset)
			more = append(more, v2Chunk{
				block: block,
				start: block + int64(len(signatureCont)),
				end:   block + int64(c.Length) - v2Checksum,
			})
		default:
			msg, err := message.Parse(typ, data, flags, r)
			if err != nil {
				msg = message.NewUnknown(typ, data, flags)
			}
			h.Messages = append(h.Messages, msg)
		}
	}
	return more, nil
}

// readV2Message reads one message prefix and its data: type, size, flags
// and, when the header tracks it, a creation order.
func readV2Message(r *binary.Reader, track bool) (message.Type, uint8, []byte, error) {
	typ, err := r.ReadUint8()
	if err != nil {
		return 0, 0, nil, err
	}
	size, err := r.ReadUint16()
	if err != nil {
		return 0, 0, nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return 0, 0, nil, err
	}
	if track {
		r.Skip(2)
	}
	data, err := r.ReadBytes(int(size))
	if err != nil {
		return 0, 0, nil, err
	}
	return message.Type(typ), flags, data, nil
}
