package message

import "github.com/robert-malhotra/h5flat/internal/binary"

// Type is a header message type.
type Type uint16

// Message types decoded or written here. Others are carried as Unknown.
const (
	TypeNIL                      Type = 0x00
	TypeDataspace                Type = 0x01
	TypeLinkInfo                 Type = 0x02
	TypeDatatype                 Type = 0x03
	TypeLink                     Type = 0x06
	TypeDataLayout               Type = 0x08
	TypeGroupInfo                Type = 0x0a
	TypeObjectHeaderContinuation Type = 0x10
	TypeSymbolTable              Type = 0x11
)

// Message is one decoded header message.
type Message interface {
	Type() Type
}

// Parse decodes the data of a message of type typ. r supplies the file's
// field widths; its position is not used.
func Parse(typ Type, data []byte, flags uint8, r *binary.Reader) (Message, error) {
	switch typ {
	case TypeDataspace:
		return parseDataspace(data, r)
	case TypeDatatype:
		return parseDatatype(data, r)
	case TypeLinkInfo:
		return parseLinkInfo(data, r)
	case TypeGroupInfo:
		return parseGroupInfo(data, r)
	case TypeLink:
		return parseLink(data, r)
	case TypeSymbolTable:
		return parseSymbolTable(data, r)
	case TypeObjectHeaderContinuation:
		return ParseContinuation(data, r)
	default:
		return NewUnknown(typ, data, flags), nil
	}
}

// Message flags consulted when an undecoded message is written back.
const (
	flagMarkIfUnknown = 0x10
	flagWasUnknown    = 0x20
)

// Unknown carries the raw bytes of a message this package does not decode,
// either because of its type or because its data failed to parse. It is
// written back unchanged so rewriting a header keeps it.
type Unknown struct {
	typ   Type
	flags uint8
	data  []byte
}

// NewUnknown returns an Unknown message holding data.
func NewUnknown(typ Type, data []byte, flags uint8) *Unknown {
	return &Unknown{typ: typ, flags: flags, data: data}
}

func (m *Unknown) Type() Type { return m.typ }

// Flags returns the stored message flags. A message asking to be marked
// once an object is modified by a library that did not understand it gets
// the was-unknown bit, since Flags is only read when writing.
func (m *Unknown) Flags() uint8 {
	if m.flags&flagMarkIfUnknown != 0 {
		return m.flags | flagWasUnknown
	}
	return m.flags
}

func (m *Unknown) Serialize(w *binary.Writer) error {
	return w.WriteBytes(m.data)
}

func (m *Unknown) SerializedSize(*binary.Writer) int { return len(m.data) }

// Continuation points at the next chunk of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

// ParseContinuation decodes a continuation message.
func ParseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	f := newFields("continuation", data, r)
	c := &Continuation{Offset: f.address(), Length: f.length()}
	if f.err != nil {
		return nil, f.err
	}
	return c, nil
}
