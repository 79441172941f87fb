package object

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/message"
)

// MinGroupChunkSize is the smallest chunk #0 of a new group header. The
// slack is a NIL message that later links can replace without moving the
// header.
const MinGroupChunkSize = 120

// v2MessagePrefix is type, size and flags of a version 2 message.
const (
	v2MessagePrefix = 4
	maxV2Message    = 0xffff
)

// Encode renders a version 2 object header holding messages, padded with a
// NIL message to at least minChunkSize bytes of chunk #0. Every message must
// be message.Serializable and fit a 16-bit size.
func Encode(cfg binary.Config, messages []message.Message, minChunkSize int) ([]byte, error) {
	sizer := binary.NewWriter(nil, cfg)
	chunk := 0
	for _, msg := range messages {
		s, ok := msg.(message.Serializable)
		if !ok {
			return nil, fmt.Errorf("%w: message type %#x is not writable", ErrInvalidHeader, uint16(msg.Type()))
		}
		n := s.SerializedSize(sizer)
		if n > maxV2Message {
			return nil, fmt.Errorf("%w: message type %#x needs %d bytes", ErrInvalidHeader, uint16(msg.Type()), n)
		}
		chunk += v2MessagePrefix + n
	}
	pad := 0
	if chunk < minChunkSize {
		pad = max(minChunkSize-chunk, v2MessagePrefix)
		chunk += pad
	}

	width := sizeFieldWidth(int64(chunk))
	var buf buffer
	w := binary.NewWriter(&buf, cfg)
	if err := w.WriteBytes(SignatureV2); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(2); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(uint8(bits.TrailingZeros(uint(width)))); err != nil {
		return nil, err
	}
	if err := w.WriteUintN(uint64(chunk), width); err != nil {
		return nil, err
	}

	for _, msg := range messages {
		if err := writeV2Message(w, msg.(message.Serializable)); err != nil {
			return nil, err
		}
	}
	if pad > 0 {
		if err := writeNilMessage(w, pad-v2MessagePrefix); err != nil {
			return nil, err
		}
	}
	if err := w.WriteUint32(binary.Lookup3Checksum(buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Write encodes a header at w's position with w's field widths and returns
// the number of bytes written.
func Write(w *binary.Writer, messages []message.Message, minChunkSize int) (int64, error) {
	cfg := binary.Config{ByteOrder: w.ByteOrder(), OffsetSize: w.OffsetSize(), LengthSize: w.LengthSize()}
	data, err := Encode(cfg, messages, minChunkSize)
	if err != nil {
		return 0, err
	}
	if err := w.WriteBytes(data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// EncodeInPlace encodes messages into exactly size bytes so an existing
// header can be overwritten where it lies. ok is false when the messages
// need more room.
func EncodeInPlace(cfg binary.Config, messages []message.Message, size int) ([]byte, bool, error) {
	for _, width := range []int{1, 2, 4, 8} {
		chunk := size - len(SignatureV2) - 2 - width - v2Checksum
		if chunk <= 0 || sizeFieldWidth(int64(chunk)) != width {
			continue
		}
		data, err := Encode(cfg, messages, chunk)
		if err != nil {
			return nil, false, err
		}
		return data, len(data) == size, nil
	}
	return nil, false, nil
}

// Size is the length Encode would return.
func Size(cfg binary.Config, messages []message.Message, minChunkSize int) (int, error) {
	data, err := Encode(cfg, messages, minChunkSize)
	return len(data), err
}

func writeV2Message(w *binary.Writer, s message.Serializable) error {
	n := s.SerializedSize(w)
	if err := w.WriteUint8(uint8(s.Type())); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(n)); err != nil {
		return err
	}
	var flags uint8
	if f, ok := s.(interface{ Flags() uint8 }); ok {
		flags = f.Flags()
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}

	start := w.Pos()
	if err := s.Serialize(w); err != nil {
		return err
	}
	if got := int(w.Pos() - start); got != n {
		return fmt.Errorf("message type %#x wrote %d bytes, declared %d", uint16(s.Type()), got, n)
	}
	return nil
}

func writeNilMessage(w *binary.Writer, n int) error {
	if err := w.WriteUint8(uint8(message.TypeNIL)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(n)); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	return w.WriteZeros(n)
}

// sizeFieldWidth is the narrowest of 1, 2, 4 or 8 bytes holding size.
func sizeFieldWidth(size int64) int {
	width := 1
	for width < 8 && uint64(size)>>(8*width) != 0 {
		width *= 2
	}
	return width
}

// buffer is an io.WriterAt over a growing byte slice.
type buffer []byte

func (b *buffer) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(*b) {
		*b = append(*b, make([]byte, end-len(*b))...)
	}
	return copy((*b)[off:], p), nil
}

// GroupMessages returns the header messages of a group whose links live in
// the header. A nil linkInfo means untracked creation order.
func GroupMessages(linkInfo *message.LinkInfo, links []*message.Link) []message.Message {
	if linkInfo == nil {
		linkInfo = message.NewLinkInfo()
	}
	msgs := []message.Message{linkInfo, message.NewGroupInfo()}
	for _, link := range links {
		msgs = append(msgs, link)
	}
	return msgs
}

// ReplaceLinks returns the messages of the group header h with its link
// info and links replaced. The stored group info is kept, or a default one
// added, and every other message follows the links in its original order.
func (h *Header) ReplaceLinks(info *message.LinkInfo, links []*message.Link) []message.Message {
	groupInfo := h.GroupInfo()
	if groupInfo == nil {
		groupInfo = message.NewGroupInfo()
	}
	msgs := GroupMessages(info, links)
	msgs[1] = groupInfo
	for _, msg := range h.Messages {
		switch msg.(type) {
		case *message.LinkInfo, *message.GroupInfo, *message.Link:
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// DatasetMessages returns the header messages of a dataset.
func DatasetMessages(space *message.Dataspace, dtype *message.Datatype, layout *message.DataLayout) []message.Message {
	return []message.Message{space, dtype, layout}
}
