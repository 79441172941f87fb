package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5flat/internal/binary"
)

// DataspaceType is the class of a dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// MaxRank is the largest rank a dataspace message can hold.
const MaxRank = 32

// Dataspace is the dataspace message (0x0001): the rank and extent of a
// dataset.
type Dataspace struct {
	Version    uint8
	Rank       int
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when the maximum equals the current extent
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements is the number of points: 1 for scalar, 0 for null.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		if len(m.Dimensions) == 0 {
			return 0
		}
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }
func (m *Dataspace) IsNull() bool   { return m.SpaceType == DataspaceNull }

const dataspaceMaxDims = 0x01

func parseDataspace(data []byte, r *binpkg.Reader) (*Dataspace, error) {
	f := newFields("dataspace", data, r)
	ds := &Dataspace{Version: f.u8(), Rank: int(f.u8())}
	flags := f.u8()

	switch ds.Version {
	case 1:
		// Version 1 has no class field: rank 0 means scalar.
		f.skip(5)
		ds.SpaceType = DataspaceSimple
		if ds.Rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(f.u8())
	default:
		if f.err == nil {
			return nil, fmt.Errorf("dataspace message: unsupported version %d", ds.Version)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if ds.SpaceType != DataspaceSimple || ds.Rank == 0 {
		return ds, nil
	}

	ds.Dimensions = make([]uint64, ds.Rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = f.length()
	}
	if flags&dataspaceMaxDims != 0 {
		ds.MaxDims = make([]uint64, ds.Rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = f.length()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return ds, nil
}

// Serialize writes the message in version 2 format.
func (m *Dataspace) Serialize(w *binpkg.Writer) error {
	if m.Rank > MaxRank || m.Rank != len(m.Dimensions) {
		return fmt.Errorf("dataspace message: rank %d with %d dimensions", m.Rank, len(m.Dimensions))
	}
	var flags uint8
	if len(m.MaxDims) > 0 {
		flags = dataspaceMaxDims
	}
	for _, b := range []uint8{2, uint8(m.Rank), flags, uint8(m.SpaceType)} {
		if err := w.WriteUint8(b); err != nil {
			return err
		}
	}

	extents := m.Dimensions
	if flags != 0 {
		extents = append(append([]uint64(nil), m.Dimensions...), m.MaxDims...)
	}
	for _, d := range extents {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	return nil
}

func (m *Dataspace) SerializedSize(w *binpkg.Writer) int {
	n := len(m.Dimensions)
	if len(m.MaxDims) > 0 {
		n += len(m.MaxDims)
	}
	return 4 + n*w.LengthSize()
}

// NewDataspace returns a simple dataspace. maxDims may be nil.
func NewDataspace(dims, maxDims []uint64) *Dataspace {
	return &Dataspace{Version: 2, Rank: len(dims), SpaceType: DataspaceSimple, Dimensions: dims, MaxDims: maxDims}
}

func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}

func NewNullDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceNull}
}
