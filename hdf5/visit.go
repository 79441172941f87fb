package hdf5

import (
	"github.com/dropbox/godropbox/errors"
)

// VisitFunc is called for each object during traversal.
// path is the full path to the object and id an identifier of the open group
// or dataset, valid only for the duration of the call. err is any error
// encountered opening the object or listing its links, in which case id is
// Invalid. Return nil to continue walking, or an error to stop.
type VisitFunc func(path string, id ID, err error) error

// ErrStopVisit can be returned from a VisitFunc to stop walking without an error.
var ErrStopVisit = errors.New("visit stopped")

// Visit traverses all groups and datasets below loc, loc included, in
// storage order. Links are followed, so an external link is walked into the
// file it names. A link back to a group that is already being walked is
// reported but not descended into.
//
// Example:
//
//	hdf5.Visit(file, func(path string, id hdf5.ID, err error) error {
//	    if err != nil {
//	        return err // or skip: return nil
//	    }
//	    kind, _ := hdf5.IDKind(id)
//	    fmt.Println(kind, path)
//	    return nil
//	})
func Visit(loc ID, fn VisitFunc) error {
	start, err := GroupOpen(loc, ".")
	if err != nil {
		return err
	}
	p, err := ObjectPath(start)
	if err != nil {
		GroupClose(start)
		return err
	}

	err = visitGroup(start, p, fn, map[objectKey]bool{})
	GroupClose(start)
	if errors.IsError(err, ErrStopVisit) {
		return nil
	}
	return err
}

// objectKey identifies an object independently of the path it was reached by.
type objectKey struct {
	file *file
	addr uint64
}

func keyOf(id ID) (objectKey, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	n, err := nodeLocked(id)
	if err != nil {
		return objectKey{}, err
	}
	return objectKey{file: n.file, addr: n.header.Address}, nil
}

func visitGroup(g ID, p string, fn VisitFunc, ancestors map[objectKey]bool) error {
	if err := fn(p, g, nil); err != nil {
		return err
	}

	key, err := keyOf(g)
	if err != nil {
		return fn(p, Invalid, err)
	}
	if ancestors[key] {
		return nil
	}
	ancestors[key] = true
	defer delete(ancestors, key)

	members, err := GroupMembers(g)
	if err != nil {
		return fn(p, Invalid, err)
	}

	for _, name := range members {
		childPath := joinPath(p, name)

		kind, err := ObjectKind(g, name)
		if err != nil {
			if err := fn(childPath, Invalid, err); err != nil {
				return err
			}
			continue
		}

		switch kind {
		case KindGroup:
			child, err := GroupOpen(g, name)
			if err != nil {
				if err := fn(childPath, Invalid, err); err != nil {
					return err
				}
				continue
			}
			err = visitGroup(child, childPath, fn, ancestors)
			GroupClose(child)
			if err != nil {
				return err
			}

		case KindDataset:
			ds, err := DatasetOpen(g, name)
			if err != nil {
				if err := fn(childPath, Invalid, err); err != nil {
					return err
				}
				continue
			}
			err = fn(childPath, ds, nil)
			DatasetClose(ds)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
