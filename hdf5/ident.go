package hdf5

import (
	"sync"

	"github.com/dropbox/godropbox/errors"
)

// ID identifies an open file, group, dataset, dataspace or datatype.
type ID int64

// Invalid is returned in place of an identifier when an operation fails.
const Invalid ID = -1

// Kind is the class of object an identifier refers to.
type Kind uint8

const (
	KindBad Kind = iota
	KindFile
	KindGroup
	KindDataset
	KindDataspace
	KindDatatype
)

var kindNames = [...]string{"bad", "file", "group", "dataset", "dataspace", "datatype"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "bad"
}

// The kind lives in the top byte of an identifier, so identifiers of
// different kinds never collide and the kind of a stale ID is still known.
const kindShift = 56

// firstSerial leaves room below it for predefined identifiers.
const firstSerial = 1 << 10

func makeID(k Kind, serial int64) ID {
	return ID(int64(k)<<kindShift | serial)
}

func (id ID) kind() Kind {
	if id <= 0 {
		return KindBad
	}
	return Kind(uint64(id) >> kindShift)
}

// registry maps live identifiers to the objects behind them. Its mutex
// also serializes every library call, so the objects themselves carry no
// locks of their own.
type registry struct {
	mu      sync.Mutex
	next    int64
	objects map[ID]interface{}
	fixed   map[ID]bool
}

var lib = &registry{
	next:    firstSerial,
	objects: make(map[ID]interface{}),
	fixed:   make(map[ID]bool),
}

func (r *registry) addLocked(k Kind, obj interface{}) ID {
	r.next++
	id := makeID(k, r.next)
	r.objects[id] = obj
	return id
}

func (r *registry) addFixedLocked(id ID, obj interface{}) {
	r.objects[id] = obj
	r.fixed[id] = true
}

func (r *registry) getLocked(id ID, want Kind) (interface{}, error) {
	obj, ok := r.objects[id]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidID, "identifier %d: ", id)
	}
	if got := id.kind(); got != want {
		return nil, errors.Wrapf(ErrWrongKind, "identifier %d is a %s, not a %s: ", id, got, want)
	}
	return obj, nil
}

func (r *registry) removeLocked(id ID, want Kind) (interface{}, error) {
	obj, err := r.getLocked(id, want)
	if err != nil {
		return nil, err
	}
	if r.fixed[id] {
		return nil, errors.Wrapf(ErrImmutable, "identifier %d: ", id)
	}
	delete(r.objects, id)
	return obj, nil
}

// IDKind returns the kind of a live identifier.
func IDKind(id ID) (Kind, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if _, ok := lib.objects[id]; !ok {
		return KindBad, errors.Wrapf(ErrInvalidID, "identifier %d: ", id)
	}
	return id.kind(), nil
}

// IsValid reports whether id refers to a live object.
func IsValid(id ID) bool {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	_, ok := lib.objects[id]
	return ok
}

// OpenCount returns the number of live identifiers, predefined ones excluded.
func OpenCount() int {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	return len(lib.objects) - len(lib.fixed)
}

// Close releases any identifier, dispatching on its kind.
func Close(id ID) error {
	switch id.kind() {
	case KindFile:
		return FileClose(id)
	case KindGroup:
		return GroupClose(id)
	case KindDataset:
		return DatasetClose(id)
	case KindDataspace:
		return SpaceClose(id)
	case KindDatatype:
		return TypeClose(id)
	}
	return errors.Wrapf(ErrInvalidID, "identifier %d: ", id)
}
