package hdf5

import (
	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/message"
)

// Unlimited marks a dimension that may grow without bound.
const Unlimited = ^uint64(0)

// MaxRank is the largest number of dimensions of a dataspace.
const MaxRank = message.MaxRank

// SpaceClass is the shape class of a dataspace.
type SpaceClass int

const (
	SpaceScalar SpaceClass = iota
	SpaceSimple
	SpaceNull
)

func (c SpaceClass) String() string {
	switch c {
	case SpaceScalar:
		return "scalar"
	case SpaceSimple:
		return "simple"
	case SpaceNull:
		return "null"
	}
	return "unknown"
}

type dataspace struct {
	msg *message.Dataspace
}

// SpaceCreateSimple creates an N-dimensional dataspace. maxDims may be nil,
// meaning the current dimensions are also the maximum; Unlimited marks a
// dimension without bound.
func SpaceCreateSimple(dims, maxDims []uint64) (ID, error) {
	if len(dims) == 0 {
		return Invalid, errors.Wrap(ErrInvalidArgument, "simple dataspace needs at least one dimension: ")
	}
	if len(dims) > MaxRank {
		return Invalid, errors.Wrapf(ErrInvalidArgument, "rank %d above the maximum of %d: ", len(dims), MaxRank)
	}
	if maxDims != nil {
		if len(maxDims) != len(dims) {
			return Invalid, errors.Wrapf(ErrInvalidArgument, "%d maximum dimensions for rank %d: ", len(maxDims), len(dims))
		}
		for i := range dims {
			if maxDims[i] != Unlimited && maxDims[i] < dims[i] {
				return Invalid, errors.Wrapf(ErrInvalidArgument,
					"dimension %d: maximum %d below current %d: ", i, maxDims[i], dims[i])
			}
		}
		maxDims = append([]uint64(nil), maxDims...)
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	msg := message.NewDataspace(append([]uint64(nil), dims...), maxDims)
	return lib.addLocked(KindDataspace, &dataspace{msg: msg}), nil
}

// SpaceCreateScalar creates a dataspace holding a single element.
func SpaceCreateScalar() (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	return lib.addLocked(KindDataspace, &dataspace{msg: message.NewScalarDataspace()}), nil
}

// SpaceCreateNull creates a dataspace holding no elements.
func SpaceCreateNull() (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	return lib.addLocked(KindDataspace, &dataspace{msg: message.NewNullDataspace()}), nil
}

// SpaceClose releases a dataspace identifier.
func SpaceClose(id ID) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	_, err := lib.removeLocked(id, KindDataspace)
	return err
}

// SpaceGetClass returns the shape class of a dataspace.
func SpaceGetClass(id ID) (SpaceClass, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	ds, err := dataspaceLocked(id)
	if err != nil {
		return SpaceNull, err
	}
	switch ds.msg.SpaceType {
	case message.DataspaceScalar:
		return SpaceScalar, nil
	case message.DataspaceNull:
		return SpaceNull, nil
	}
	return SpaceSimple, nil
}

// SpaceGetDims returns the current and maximum dimensions of a dataspace.
// Both are empty for scalar and null dataspaces.
func SpaceGetDims(id ID) (dims, maxDims []uint64, err error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	ds, err := dataspaceLocked(id)
	if err != nil {
		return nil, nil, err
	}
	dims = append([]uint64{}, ds.msg.Dimensions...)
	if len(ds.msg.MaxDims) > 0 {
		maxDims = append([]uint64{}, ds.msg.MaxDims...)
	} else {
		maxDims = append([]uint64{}, dims...)
	}
	return dims, maxDims, nil
}

// SpaceGetRank returns the number of dimensions of a dataspace.
func SpaceGetRank(id ID) (int, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	ds, err := dataspaceLocked(id)
	if err != nil {
		return 0, err
	}
	return ds.msg.Rank, nil
}

// SpaceGetNPoints returns the number of elements in a dataspace.
func SpaceGetNPoints(id ID) (uint64, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	ds, err := dataspaceLocked(id)
	if err != nil {
		return 0, err
	}
	return ds.msg.NumElements(), nil
}

func dataspaceLocked(id ID) (*dataspace, error) {
	obj, err := lib.getLocked(id, KindDataspace)
	if err != nil {
		return nil, err
	}
	return obj.(*dataspace), nil
}

func cloneSpace(m *message.Dataspace) *message.Dataspace {
	c := *m
	c.Dimensions = append([]uint64(nil), m.Dimensions...)
	if m.MaxDims != nil {
		c.MaxDims = append([]uint64(nil), m.MaxDims...)
	}
	return &c
}
