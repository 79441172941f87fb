package superblock

import (
	"encoding/binary"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// Versions 2 and 3 share one layout: signature, version, offset size,
// length size, consistency flags, four addresses (base, extension, EOF,
// root object header) and a lookup3 checksum of everything before it.
const v2PrefixSize = 12

func v2Size(offsetSize int) int { return v2PrefixSize + 4*offsetSize + 4 }

func readV2V3(src io.ReaderAt, offset int64) (*Superblock, error) {
	prefix := make([]byte, v2PrefixSize)
	if _, err := src.ReadAt(prefix, offset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	sb := &Superblock{
		Version:              prefix[8],
		OffsetSize:           prefix[9],
		LengthSize:           prefix[10],
		FileConsistencyFlags: prefix[11],
	}
	fr, err := fileReader(src, sb.OffsetSize, sb.LengthSize)
	if err != nil {
		return nil, err
	}

	raw, err := fr.At(offset).ReadBytes(v2Size(int(sb.OffsetSize)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	body := raw[:len(raw)-4]
	stored := binary.LittleEndian.Uint32(raw[len(body):])
	if !binpkg.VerifyLookup3(body, stored) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}

	r := fr.Slice(body[v2PrefixSize:])
	for _, dst := range []*uint64{
		&sb.BaseAddress,
		&sb.SuperblockExtensionAddress,
		&sb.EOFAddress,
		&sb.RootGroupAddress,
	} {
		if *dst, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}
