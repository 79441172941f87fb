package message

import binpkg "github.com/robert-malhotra/h5flat/internal/binary"

// GroupInfo represents a group info message (type 0x000A).
// It carries the thresholds that decide between compact and dense link storage.
type GroupInfo struct {
	Version         uint8
	Flags           uint8
	MaxCompactLinks uint16 // Present if flags bit 0 set
	MinDenseLinks   uint16 // Present if flags bit 0 set
	EstNumEntries   uint16 // Present if flags bit 1 set
	EstLinkNameLen  uint16 // Present if flags bit 1 set
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func parseGroupInfo(data []byte, r *binpkg.Reader) (*GroupInfo, error) {
	f := newFields("group info", data, r)
	gi := &GroupInfo{Version: f.u8(), Flags: f.u8()}
	if gi.Flags&0x01 != 0 {
		gi.MaxCompactLinks = f.u16()
		gi.MinDenseLinks = f.u16()
	}
	if gi.Flags&0x02 != 0 {
		gi.EstNumEntries = f.u16()
		gi.EstLinkNameLen = f.u16()
	}
	if f.err != nil {
		return nil, f.err
	}
	return gi, nil
}

// Serialize writes the GroupInfo to the writer.
func (m *GroupInfo) Serialize(w *binpkg.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}

	if m.Flags&0x01 != 0 {
		if err := w.WriteUint16(m.MaxCompactLinks); err != nil {
			return err
		}
		if err := w.WriteUint16(m.MinDenseLinks); err != nil {
			return err
		}
	}

	if m.Flags&0x02 != 0 {
		if err := w.WriteUint16(m.EstNumEntries); err != nil {
			return err
		}
		if err := w.WriteUint16(m.EstLinkNameLen); err != nil {
			return err
		}
	}

	return nil
}

// SerializedSize returns the size in bytes when serialized.
func (m *GroupInfo) SerializedSize(w *binpkg.Writer) int {
	size := 2
	if m.Flags&0x01 != 0 {
		size += 4
	}
	if m.Flags&0x02 != 0 {
		size += 4
	}
	return size
}

// NewGroupInfo creates a new minimal GroupInfo message.
func NewGroupInfo() *GroupInfo {
	return &GroupInfo{}
}
