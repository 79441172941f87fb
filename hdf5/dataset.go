package hdf5

import (
	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/message"
	"github.com/robert-malhotra/h5flat/internal/object"
)

// dataset is an open dataset. Dataset headers are never rewritten, so a
// snapshot of the header is enough.
type dataset struct {
	node
}

// DatasetCreate creates a dataset named name below loc with the given
// datatype and dataspace. Storage is contiguous and left unallocated until
// data is written.
func DatasetCreate(loc ID, name string, typeID, spaceID ID) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	dt, err := datatypeLocked(typeID)
	if err != nil {
		return Invalid, err
	}
	ds, err := dataspaceLocked(spaceID)
	if err != nil {
		return Invalid, err
	}
	parent, base, err := linkParentLocked(loc, name)
	if err != nil {
		return Invalid, err
	}
	f := parent.file

	space := cloneSpace(ds.msg)
	dtype := dt.msg.Clone()
	layout := message.NewLateContiguousLayout(space.NumElements() * uint64(dtype.Size))

	addr, err := f.writeHeader(object.DatasetMessages(space, dtype, layout), 0, "dataset "+joinPath(parent.path, base))
	if err != nil {
		return Invalid, errors.Wrapf(err, "writing dataset %q: ", base)
	}
	header, err := object.Read(f.reader, addr)
	if err != nil {
		return Invalid, wrapFormat(err, "reading back dataset %q: ", base)
	}
	if err := parent.addLink(message.NewHardLink(base, addr)); err != nil {
		return Invalid, err
	}

	d := &dataset{node: node{file: f, path: joinPath(parent.path, base), header: header}}
	return lib.addLocked(KindDataset, d), nil
}

// DatasetOpen opens the dataset at p, relative to loc unless p is absolute.
func DatasetOpen(loc ID, p string) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	start, err := locationLocked(loc)
	if err != nil {
		return Invalid, err
	}
	n, err := start.resolve(p)
	if err != nil {
		return Invalid, err
	}
	if n.header.Kind() != object.KindDataset {
		return Invalid, errors.Wrapf(ErrNotDataset, "%s: ", n.path)
	}
	if n.header.Dataspace() == nil || n.header.Datatype() == nil {
		return Invalid, errors.Newf("dataset %s is missing its dataspace or datatype", n.path)
	}
	return lib.addLocked(KindDataset, &dataset{node: n}), nil
}

// DatasetClose releases a dataset identifier.
func DatasetClose(id ID) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	_, err := lib.removeLocked(id, KindDataset)
	return err
}

// DatasetGetSpace returns a new dataspace identifier holding a copy of the
// dataset's dataspace. The caller must close it.
func DatasetGetSpace(id ID) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	d, err := datasetLocked(id)
	if err != nil {
		return Invalid, err
	}
	return lib.addLocked(KindDataspace, &dataspace{msg: cloneSpace(d.header.Dataspace())}), nil
}

// DatasetGetType returns a new datatype identifier holding a copy of the
// dataset's stored datatype. The caller must close it.
func DatasetGetType(id ID) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	d, err := datasetLocked(id)
	if err != nil {
		return Invalid, err
	}
	return lib.addLocked(KindDatatype, &datatype{msg: d.header.Datatype().Clone()}), nil
}

func datasetLocked(id ID) (*dataset, error) {
	obj, err := lib.getLocked(id, KindDataset)
	if err != nil {
		return nil, err
	}
	d := obj.(*dataset)
	if err := d.file.checkOpen(); err != nil {
		return nil, err
	}
	return d, nil
}
