// Package hdf5 is a pure Go HDF5 library with an identifier based API.
//
// Every open file, group, dataset, dataspace and datatype is represented by
// an ID. Identifiers are process wide, may be used from any goroutine and
// must be released with Close (or the kind specific close function) once
// they are no longer needed. Predefined datatypes such as NativeInt are
// always valid and are never closed.
package hdf5

import (
	stderrors "errors"

	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/binary"
	"github.com/robert-malhotra/h5flat/internal/btree"
	"github.com/robert-malhotra/h5flat/internal/heap"
	"github.com/robert-malhotra/h5flat/internal/object"
	"github.com/robert-malhotra/h5flat/internal/superblock"
)

// Common errors. Failures returned by this package wrap one of these and can
// be matched with errors.IsError from github.com/dropbox/godropbox/errors.
var (
	ErrNotHDF5         = errors.New("not an HDF5 file")
	ErrNotFound        = errors.New("object not found")
	ErrNotDataset      = errors.New("object is not a dataset")
	ErrNotGroup        = errors.New("object is not a group")
	ErrUnsupported     = errors.New("unsupported feature")
	ErrInvalidPath     = errors.New("invalid path")
	ErrClosed          = errors.New("file is closed")
	ErrLinkDepth       = errors.New("maximum link depth exceeded")
	ErrInvalidID       = errors.New("invalid identifier")
	ErrWrongKind       = errors.New("identifier has the wrong kind")
	ErrImmutable       = errors.New("predefined datatype cannot be modified or closed")
	ErrNotWritable     = errors.New("file is not writable")
	ErrExists          = errors.New("link already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCorrupt         = errors.New("corrupt file structure")
	ErrChecksum        = errors.New("checksum mismatch")
)

// formatErrors maps the decoding failures of the format packages onto the
// errors above.
var formatErrors = []struct{ from, to error }{
	{object.ErrChecksumMismatch, ErrChecksum},
	{object.ErrInvalidHeader, ErrCorrupt},
	{object.ErrUnsupportedVersion, ErrUnsupported},
	{superblock.ErrInvalidSuperblock, ErrCorrupt},
	{superblock.ErrUnsupportedVersion, ErrUnsupported},
	{btree.ErrTooDeep, ErrCorrupt},
	{btree.ErrBadV2Header, ErrCorrupt},
	{heap.ErrBadName, ErrCorrupt},
	{binary.ErrOutOfBounds, ErrCorrupt},
}

// wrapFormat wraps an error returned by a format package. A known decoding
// failure is replaced by its public counterpart with the original text kept
// in the message, so callers can match it with errors.IsError.
func wrapFormat(err error, format string, args ...interface{}) error {
	for _, m := range formatErrors {
		if stderrors.Is(err, m.from) {
			return errors.Wrapf(m.to, format+"%v: ", append(args, err)...)
		}
	}
	return errors.Wrapf(err, format, args...)
}

// MaxLinkDepth is the maximum number of soft/external links that can be followed
// in a single path resolution. This prevents endless loops through cyclic links.
const MaxLinkDepth = 100
