package message

import "github.com/robert-malhotra/h5flat/internal/binary"

// Serializable is a message this package can write. SerializedSize must
// match the number of bytes Serialize writes for the same Writer.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
	SerializedSize(w *binary.Writer) int
}

// Serialize writes msg if it is Serializable and does nothing otherwise.
func Serialize(msg Message, w *binary.Writer) error {
	if s, ok := msg.(Serializable); ok {
		return s.Serialize(w)
	}
	return nil
}

// SerializedSize is the encoded size of msg, or 0 if it cannot be written.
func SerializedSize(msg Message, w *binary.Writer) int {
	if s, ok := msg.(Serializable); ok {
		return s.SerializedSize(w)
	}
	return 0
}
