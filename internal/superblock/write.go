package superblock

import (
	"encoding/binary"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// NewSuperblock returns a version 3 superblock with 8-byte fields.
func NewSuperblock() *Superblock {
	return &Superblock{
		Version:                    3,
		OffsetSize:                 8,
		LengthSize:                 8,
		SuperblockExtensionAddress: UndefinedAddress,
		ByteOrder:                  binary.LittleEndian,
	}
}

// Size is the encoded size of a version 2 or 3 superblock.
func (sb *Superblock) Size() int {
	if sb.OffsetSize == 0 {
		return v2Size(8)
	}
	return v2Size(int(sb.OffsetSize))
}

// encode returns the version 2 or 3 encoding of sb with its checksum.
// Older versions are written as version 2.
func (sb *Superblock) encode(w *binpkg.Writer) []byte {
	version := sb.Version
	if version < 2 {
		version = 2
	}
	ext := sb.SuperblockExtensionAddress
	if ext == 0 || ext == UndefinedAddress {
		ext = w.UndefinedOffset()
	}

	osize := w.OffsetSize()
	b := append([]byte(nil), Signature...)
	b = append(b, version, uint8(osize), uint8(w.LengthSize()), sb.FileConsistencyFlags)
	for _, addr := range []uint64{sb.BaseAddress, ext, sb.EOFAddress, sb.RootGroupAddress} {
		field := make([]byte, 8)
		binary.LittleEndian.PutUint64(field, addr)
		b = append(b, field[:osize]...)
	}
	return binary.LittleEndian.AppendUint32(b, binpkg.Lookup3Checksum(b))
}

// Write encodes sb at the writer's position, using the writer's field
// widths, and returns the number of bytes written.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	b := sb.encode(w)
	if err := w.WriteBytes(b); err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}
