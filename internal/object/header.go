package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/message"
)

// SignatureV2 opens a version 2 object header.
var SignatureV2 = []byte("OHDR")

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Header is a decoded object header: the messages describing one group,
// dataset or named datatype.
type Header struct {
	Version  uint8
	Address  uint64
	RefCount uint32 // version 1

	// Size spans the first chunk from the signature through the checksum.
	// It is set for version 2 only and is what an in-place rewrite may use.
	Size uint64

	Messages []message.Message
}

// Read decodes the object header at address. The format is told apart by
// the first bytes: "OHDR" for version 2, a version byte of 1 otherwise.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	head, err := hr.Peek(len(SignatureV2))
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	switch {
	case string(head) == string(SignatureV2):
		return readV2(hr, address)
	case head[0] == 1:
		return readV1(hr, address)
	}
	return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
}

// GetMessage returns the first message of type typ, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns every message of type typ in header order.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var out []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			out = append(out, msg)
		}
	}
	return out
}

// first returns the first message of type typ as a T.
func first[T message.Message](h *Header, typ message.Type) T {
	msg, _ := h.GetMessage(typ).(T)
	return msg
}

func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

func (h *Header) LinkInfo() *message.LinkInfo {
	return first[*message.LinkInfo](h, message.TypeLinkInfo)
}

func (h *Header) GroupInfo() *message.GroupInfo {
	return first[*message.GroupInfo](h, message.TypeGroupInfo)
}

// SymbolTable returns the symbol table message of an old style group.
func (h *Header) SymbolTable() *message.SymbolTable {
	return first[*message.SymbolTable](h, message.TypeSymbolTable)
}

// Links returns the link messages of a compact group in header order.
func (h *Header) Links() []*message.Link {
	var links []*message.Link
	for _, msg := range h.Messages {
		if link, ok := msg.(*message.Link); ok {
			links = append(links, link)
		}
	}
	return links
}

// Kind is the class of object a header describes.
type Kind int

const (
	KindUnknown Kind = iota
	KindGroup
	KindDataset
	KindDatatype
)

var kindNames = [...]string{"unknown", "group", "dataset", "datatype"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Kind classifies the object. A dataset needs both a dataspace and a
// layout; a lone datatype message is a named datatype.
func (h *Header) Kind() Kind {
	switch {
	case h.LinkInfo() != nil || h.SymbolTable() != nil:
		return KindGroup
	case h.Dataspace() != nil && h.GetMessage(message.TypeDataLayout) != nil:
		return KindDataset
	case h.Datatype() != nil:
		return KindDatatype
	}
	return KindUnknown
}
