package message

import (
	"bytes"
	"fmt"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// LinkType is the kind of a link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link is the link message (0x0006), one named member of a compact group.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string
	Charset       uint8

	ObjectAddress uint64 // hard
	SoftLinkValue string // soft
	ExternalFile  string // external
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

// Link message flag bits. The low two bits select the width of the name
// length field.
const (
	linkNameWidth     = 0x03
	linkHasOrder      = 0x04
	linkHasType       = 0x08
	linkHasCharset    = 0x10
	externalLinkFlags = 0x00
)

func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	f := newFields("link", data, r)
	link := &Link{Version: f.u8()}
	flags := f.u8()

	if flags&linkHasType != 0 {
		link.LinkType = LinkType(f.u8())
	}
	if flags&linkHasOrder != 0 {
		link.CreationOrder = f.uint(8)
	}
	if flags&linkHasCharset != 0 {
		link.Charset = f.u8()
	}
	nameLen := f.uint(1 << (flags & linkNameWidth))
	if nameLen > uint64(f.left()) {
		f.fail(fmt.Errorf("name of %d bytes overruns message", nameLen))
	}
	link.Name = string(f.bytes(int(nameLen)))

	switch link.LinkType {
	case LinkTypeHard:
		link.ObjectAddress = f.address()
	case LinkTypeSoft:
		link.SoftLinkValue = string(f.bytes(int(f.u16())))
	case LinkTypeExternal:
		// A flags byte, then the file name and the object path, each
		// null terminated.
		value := f.bytes(int(f.u16()))
		if f.err == nil && len(value) < 2 {
			f.fail(fmt.Errorf("external link value of %d bytes", len(value)))
		}
		if f.err == nil {
			parts := bytes.SplitN(value[1:], []byte{0}, 3)
			link.ExternalFile = string(parts[0])
			if len(parts) > 1 {
				link.ExternalPath = string(parts[1])
			}
		}
	}

	if f.err != nil {
		return nil, f.err
	}
	return link, nil
}

// nameWidth returns the flag bits and byte width for a name length field.
func nameWidth(n int) (uint8, int) {
	switch {
	case n <= 0xff:
		return 0, 1
	case n <= 0xffff:
		return 1, 2
	case uint64(n) <= 0xffffffff:
		return 2, 4
	}
	return 3, 8
}

// value is the type specific tail of a soft or external link.
func (m *Link) value() []byte {
	switch m.LinkType {
	case LinkTypeSoft:
		return []byte(m.SoftLinkValue)
	case LinkTypeExternal:
		v := []byte{externalLinkFlags}
		v = append(v, m.ExternalFile...)
		v = append(v, 0)
		v = append(v, m.ExternalPath...)
		return append(v, 0)
	}
	return nil
}

// Serialize writes the message in version 1 format. The link type field is
// omitted for hard links.
func (m *Link) Serialize(w *binpkg.Writer) error {
	bits, width := nameWidth(len(m.Name))
	flags := bits
	if !m.IsHard() {
		flags |= linkHasType
	}

	if err := w.WriteUint8(1); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if !m.IsHard() {
		if err := w.WriteUint8(uint8(m.LinkType)); err != nil {
			return err
		}
	}
	if err := w.WriteUintN(uint64(len(m.Name)), width); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(m.Name)); err != nil {
		return err
	}

	if m.IsHard() {
		return w.WriteOffset(m.ObjectAddress)
	}
	v := m.value()
	if err := w.WriteUint16(uint16(len(v))); err != nil {
		return err
	}
	return w.WriteBytes(v)
}

func (m *Link) SerializedSize(w *binpkg.Writer) int {
	_, width := nameWidth(len(m.Name))
	size := 2 + width + len(m.Name)
	if m.IsHard() {
		return size + w.OffsetSize()
	}
	return size + 1 + 2 + len(m.value())
}

func NewHardLink(name string, addr uint64) *Link {
	return &Link{Version: 1, LinkType: LinkTypeHard, Name: name, ObjectAddress: addr}
}

func NewSoftLink(name, target string) *Link {
	return &Link{Version: 1, LinkType: LinkTypeSoft, Name: name, SoftLinkValue: target}
}

func NewExternalLink(name, file, path string) *Link {
	return &Link{Version: 1, LinkType: LinkTypeExternal, Name: name, ExternalFile: file, ExternalPath: path}
}
