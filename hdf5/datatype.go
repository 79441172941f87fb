package hdf5

import (
	"fmt"

	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/message"
)

// Class is the class of a datatype.
type Class int

const (
	ClassInteger Class = iota
	ClassFloat
	ClassTime
	ClassString
	ClassBitfield
	ClassOpaque
	ClassCompound
	ClassReference
	ClassEnum
	ClassVlen
	ClassArray
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "vlen", "array",
}

func (c Class) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// Sign is the sign convention of an integer datatype.
type Sign int

const (
	SignNone Sign = iota // Unsigned
	Sign2                // Two's complement
)

// Order is the byte order of an atomic datatype.
type Order int

const (
	OrderLE   Order = 0
	OrderBE   Order = 1
	OrderVAX  Order = 2
	OrderNone Order = 4
)

func (o Order) String() string {
	switch o {
	case OrderLE:
		return "little-endian"
	case OrderBE:
		return "big-endian"
	case OrderVAX:
		return "vax"
	}
	return "none"
}

type datatype struct {
	msg  *message.Datatype
	name string // Set for predefined types
}

// TypeCreateInteger creates an integer datatype of size bytes.
func TypeCreateInteger(size int, sign Sign, order Order) (ID, error) {
	if size < 1 || size > 16 {
		return Invalid, errors.Wrapf(ErrInvalidArgument, "integer size %d: ", size)
	}
	bo, err := messageOrder(order)
	if err != nil {
		return Invalid, err
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	msg := message.NewFixedPointDatatype(uint32(size), sign == Sign2, bo)
	return lib.addLocked(KindDatatype, &datatype{msg: msg}), nil
}

// TypeCreateFloat creates an IEEE floating-point datatype of 4 or 8 bytes.
func TypeCreateFloat(size int, order Order) (ID, error) {
	if size != 4 && size != 8 {
		return Invalid, errors.Wrapf(ErrInvalidArgument, "float size %d: ", size)
	}
	bo, err := messageOrder(order)
	if err != nil {
		return Invalid, err
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	msg := message.NewFloatDatatype(uint32(size), bo)
	return lib.addLocked(KindDatatype, &datatype{msg: msg}), nil
}

// TypeCreateOpaque creates an opaque datatype of size bytes labelled tag.
func TypeCreateOpaque(size int, tag string) (ID, error) {
	if size < 1 {
		return Invalid, errors.Wrapf(ErrInvalidArgument, "opaque size %d: ", size)
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	msg := message.NewOpaqueDatatype(uint32(size), tag)
	return lib.addLocked(KindDatatype, &datatype{msg: msg}), nil
}

// TypeClose releases a datatype identifier. Predefined types cannot be
// closed.
func TypeClose(id ID) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	_, err := lib.removeLocked(id, KindDatatype)
	return err
}

// TypeCopy returns a new, closable copy of a datatype.
func TypeCopy(id ID) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return Invalid, err
	}
	return lib.addLocked(KindDatatype, &datatype{msg: dt.msg.Clone()}), nil
}

// TypeGetClass returns the class of a datatype.
func TypeGetClass(id ID) (Class, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return -1, err
	}
	return Class(dt.msg.Class), nil
}

// TypeGetSize returns the size in bytes of one element of a datatype.
func TypeGetSize(id ID) (int, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return 0, err
	}
	return int(dt.msg.Size), nil
}

// TypeGetSign returns the sign convention of an integer datatype.
func TypeGetSign(id ID) (Sign, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return SignNone, err
	}
	if !dt.msg.IsInteger() {
		return SignNone, errors.Wrapf(ErrUnsupported, "sign of %s datatype: ", Class(dt.msg.Class))
	}
	if dt.msg.Signed {
		return Sign2, nil
	}
	return SignNone, nil
}

// TypeGetOrder returns the byte order of a datatype, or OrderNone for
// classes without one.
func TypeGetOrder(id ID) (Order, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return OrderNone, err
	}
	return typeOrder(dt.msg), nil
}

// TypeEqual reports whether two datatypes describe the same stored
// representation.
func TypeEqual(a, b ID) (bool, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	da, err := datatypeLocked(a)
	if err != nil {
		return false, err
	}
	db, err := datatypeLocked(b)
	if err != nil {
		return false, err
	}
	return da.msg.Equal(db.msg), nil
}

// TypeName returns the name of a predefined datatype, or a short
// description of any other one.
func TypeName(id ID) (string, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(id)
	if err != nil {
		return "", err
	}
	if dt.name != "" {
		return dt.name, nil
	}
	return describe(dt.msg), nil
}

func datatypeLocked(id ID) (*datatype, error) {
	obj, err := lib.getLocked(id, KindDatatype)
	if err != nil {
		return nil, err
	}
	return obj.(*datatype), nil
}

func typeOrder(m *message.Datatype) Order {
	switch m.Class {
	case message.ClassFixedPoint, message.ClassFloatPoint, message.ClassBitfield:
		if m.ByteOrder == message.OrderBE {
			return OrderBE
		}
		return OrderLE
	}
	return OrderNone
}

func messageOrder(o Order) (message.ByteOrder, error) {
	switch o {
	case OrderLE:
		return message.OrderLE, nil
	case OrderBE:
		return message.OrderBE, nil
	}
	return 0, errors.Wrapf(ErrInvalidArgument, "byte order %s: ", o)
}

func describe(m *message.Datatype) string {
	switch {
	case m.IsInteger():
		sign := "unsigned"
		if m.Signed {
			sign = "signed"
		}
		return fmt.Sprintf("%d-byte %s integer, %s", m.Size, sign, typeOrder(m))
	case m.IsFloat():
		return fmt.Sprintf("%d-byte float, %s", m.Size, typeOrder(m))
	}
	return fmt.Sprintf("%d-byte %s", m.Size, Class(m.Class))
}
