package hdf5

import (
	"path"
	"strings"

	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/btree"
	"github.com/robert-malhotra/h5flat/internal/heap"
	"github.com/robert-malhotra/h5flat/internal/message"
	"github.com/robert-malhotra/h5flat/internal/object"
)

// StorageType is the way a group stores its links.
type StorageType int

const (
	StorageSymbolTable StorageType = iota // v1 B-tree and local heap
	StorageCompact                        // link messages in the object header
	StorageDense                          // fractal heap indexed by a v2 B-tree
)

func (s StorageType) String() string {
	switch s {
	case StorageSymbolTable:
		return "symbol-table"
	case StorageCompact:
		return "compact"
	case StorageDense:
		return "dense"
	}
	return "unknown"
}

// GroupInfo describes a group's link storage.
type GroupInfo struct {
	StorageType StorageType
	NLinks      uint64 // Number of links in the group
	MaxCorder   int64  // Current maximum creation order value
	Mounted     bool   // Whether a file is mounted on the group
}

// node is an object located in a file by path.
type node struct {
	file   *file
	path   string
	header *object.Header
}

// group is an open group. In writable files there is exactly one group per
// path, so header updates reach every identifier that refers to it.
type group struct {
	node
	parent *group // Writable files only
}

// GroupCreate creates a new group named name below loc, which may be a file
// or group identifier. Intermediate groups in name must already exist.
func GroupCreate(loc ID, name string) (ID, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	parent, base, err := linkParentLocked(loc, name)
	if err != nil {
		return Invalid, err
	}
	f := parent.file

	addr, err := f.writeHeader(object.GroupMessages(nil, nil), object.MinGroupChunkSize, "group "+joinPath(parent.path, base))
	if err != nil {
		return Invalid, errors.Wrapf(err, "writing group %q: ", base)
	}
	header, err := object.Read(f.reader, addr)
	if err != nil {
		return Invalid, wrapFormat(err, "reading back group %q: ", base)
	}
	if err := parent.addLink(message.NewHardLink(base, addr)); err != nil {
		return Invalid, err
	}

	g := &group{node: node{file: f, path: joinPath(parent.path, base), header: header}, parent: parent}
	f.groups[g.path] = g
	return lib.addLocked(KindGroup, g), nil
}

// GroupOpen opens the group at p, relative to loc unless p is absolute.
// Soft and external links along the way are followed.
func GroupOpen(loc ID, p string) (ID, error) {
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
	if !n.isGroup() {
		return Invalid, errors.Wrapf(ErrNotGroup, "%s: ", n.path)
	}
	g, err := n.file.groupFor(n)
	if err != nil {
		return Invalid, err
	}
	return lib.addLocked(KindGroup, g), nil
}

// GroupClose releases a group identifier.
func GroupClose(id ID) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	_, err := lib.removeLocked(id, KindGroup)
	return err
}

// GroupGetInfo returns the storage type and link count of a group. loc may
// also be a file identifier, which stands for its root group.
func GroupGetInfo(loc ID) (GroupInfo, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	g, err := locationLocked(loc)
	if err != nil {
		return GroupInfo{}, err
	}
	return g.info()
}

// GroupMembers returns the link names of a group in storage order.
func GroupMembers(loc ID) ([]string, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	g, err := locationLocked(loc)
	if err != nil {
		return nil, err
	}
	return g.members()
}

// ObjectPath returns the path of a group or dataset inside its file.
func ObjectPath(id ID) (string, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	n, err := nodeLocked(id)
	if err != nil {
		return "", err
	}
	return n.path, nil
}

// ObjectKind reports whether p names a group or a dataset, following links.
func ObjectKind(loc ID, p string) (Kind, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	start, err := locationLocked(loc)
	if err != nil {
		return KindBad, err
	}
	n, err := start.resolve(p)
	if err != nil {
		return KindBad, err
	}
	if n.isGroup() {
		return KindGroup, nil
	}
	switch n.header.Kind() {
	case object.KindDataset:
		return KindDataset, nil
	case object.KindDatatype:
		return KindDatatype, nil
	}
	return KindBad, errors.Wrapf(ErrUnsupported, "object kind of %s: ", n.path)
}

// locationLocked returns the group a location identifier stands for.
func locationLocked(loc ID) (*group, error) {
	var g *group
	switch loc.kind() {
	case KindFile:
		f, err := fileLocked(loc)
		if err != nil {
			return nil, err
		}
		g = f.root
	case KindGroup:
		obj, err := lib.getLocked(loc, KindGroup)
		if err != nil {
			return nil, err
		}
		g = obj.(*group)
	default:
		_, err := lib.getLocked(loc, KindGroup)
		return nil, err
	}
	if err := g.file.checkOpen(); err != nil {
		return nil, err
	}
	return g, nil
}

// nodeLocked returns the object behind a group or dataset identifier.
func nodeLocked(id ID) (node, error) {
	if id.kind() == KindDataset {
		d, err := datasetLocked(id)
		if err != nil {
			return node{}, err
		}
		return d.node, nil
	}
	g, err := locationLocked(id)
	if err != nil {
		return node{}, err
	}
	return g.node, nil
}

// linkParentLocked resolves the group that will hold a new link called
// name below loc, and checks that the link may be added there.
func linkParentLocked(loc ID, name string) (*group, string, error) {
	start, err := locationLocked(loc)
	if err != nil {
		return nil, "", err
	}
	dir, base, err := splitLinkPath(name)
	if err != nil {
		return nil, "", errors.Wrapf(err, "link name %q: ", name)
	}

	parent := start
	if dir != "" {
		n, err := start.resolve(dir)
		if err != nil {
			return nil, "", err
		}
		if !n.isGroup() {
			return nil, "", errors.Wrapf(ErrNotGroup, "%s: ", n.path)
		}
		if parent, err = n.file.groupFor(n); err != nil {
			return nil, "", err
		}
	}
	if !parent.file.writable {
		return nil, "", errors.Wrapf(ErrNotWritable, "%s: ", parent.file.path)
	}
	names, err := parent.members()
	if err != nil {
		return nil, "", err
	}
	for _, existing := range names {
		if existing == base {
			return nil, "", errors.Wrapf(ErrExists, "%q in %s: ", base, parent.path)
		}
	}
	return parent, base, nil
}

// groupFor returns the group object for a resolved node. Writable files
// hand out their canonical group so that every holder sees header updates.
func (f *file) groupFor(n node) (*group, error) {
	if !f.writable {
		return &group{node: n}, nil
	}
	if g, ok := f.groups[n.path]; ok {
		return g, nil
	}

	parentNode, err := f.root.resolve(path.Dir(n.path))
	if err != nil {
		return nil, errors.Wrapf(err, "locating parent of %s: ", n.path)
	}
	parent, err := f.groupFor(parentNode)
	if err != nil {
		return nil, err
	}

	g := &group{node: n, parent: parent}
	f.groups[n.path] = g
	return g, nil
}

func (n node) isGroup() bool {
	return n.header.Kind() == object.KindGroup || n.symbolTable() != nil
}

func (n node) symbolTable() *message.SymbolTable {
	if st := n.header.SymbolTable(); st != nil {
		return st
	}
	// The root group of older files may only be described by the
	// superblock's cached symbol table entry.
	if n.path == "/" && n.header.LinkInfo() == nil && n.file.superblock.HasRootScratchPad() {
		return &message.SymbolTable{
			BTreeAddress:     n.file.superblock.RootGroupBTreeAddress,
			LocalHeapAddress: n.file.superblock.RootGroupLocalHeapAddress,
		}
	}
	return nil
}

func (n node) info() (GroupInfo, error) {
	if err := n.file.checkOpen(); err != nil {
		return GroupInfo{}, err
	}
	r := n.file.reader

	if st := n.symbolTable(); st != nil {
		count, err := btree.CountGroupEntries(r, st.BTreeAddress)
		if err != nil {
			return GroupInfo{}, wrapFormat(err, "counting links of %s: ", n.path)
		}
		return GroupInfo{StorageType: StorageSymbolTable, NLinks: count}, nil
	}

	li := n.header.LinkInfo()
	if li == nil {
		return GroupInfo{}, errors.Wrapf(ErrNotGroup, "%s: ", n.path)
	}
	info := GroupInfo{StorageType: StorageCompact}
	if li.TracksCreationOrder() {
		info.MaxCorder = int64(li.MaxCreationIndex)
	}

	if li.IsDense() {
		hdr, err := btree.ReadV2Header(r, li.NameIndexBTreeAddr)
		if err != nil {
			return GroupInfo{}, wrapFormat(err, "reading link name index of %s: ", n.path)
		}
		if !hdr.IsLinkIndex() {
			return GroupInfo{}, errors.Newf("link name index of %s has B-tree type %d", n.path, hdr.Type)
		}
		info.StorageType = StorageDense
		info.NLinks = hdr.TotalRecords
		return info, nil
	}

	info.NLinks = uint64(len(n.header.Links()))
	return info, nil
}

// entry is a link as stored in either compact or symbol table groups.
type entry struct {
	name string
	link *message.Link
}

// entries lists the links of a group. Dense groups keep their link names in
// a fractal heap, which is not read.
func (n node) entries() ([]entry, error) {
	if err := n.file.checkOpen(); err != nil {
		return nil, err
	}

	if st := n.symbolTable(); st != nil {
		r := n.file.reader
		lh, err := heap.ReadLocalHeap(r, st.LocalHeapAddress)
		if err != nil {
			return nil, wrapFormat(err, "reading local heap of %s: ", n.path)
		}
		raw, err := btree.ReadGroupEntries(r, st.BTreeAddress, lh)
		if err != nil {
			return nil, wrapFormat(err, "reading symbol table of %s: ", n.path)
		}
		out := make([]entry, 0, len(raw))
		for _, e := range raw {
			l := message.NewHardLink(e.Name, e.ObjectAddress)
			if e.Kind == btree.EntrySoft {
				l = message.NewSoftLink(e.Name, e.SoftLinkValue)
			}
			out = append(out, entry{name: e.Name, link: l})
		}
		return out, nil
	}

	li := n.header.LinkInfo()
	if li == nil {
		return nil, errors.Wrapf(ErrNotGroup, "%s: ", n.path)
	}
	if li.IsDense() {
		return nil, errors.Wrapf(ErrUnsupported, "listing links of dense group %s: ", n.path)
	}

	links := n.header.Links()
	out := make([]entry, 0, len(links))
	for _, l := range links {
		out = append(out, entry{name: l.Name, link: l})
	}
	return out, nil
}

func (n node) members() ([]string, error) {
	entries, err := n.entries()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}

func (n node) findLink(name string) (*message.Link, error) {
	entries, err := n.entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.name == name {
			return e.link, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "%q in %s: ", name, n.path)
}

// resolve walks p from n, or from the root of n's file when p is absolute.
func (n node) resolve(p string) (node, error) {
	hops := 0
	return n.walk(p, &hops)
}

func (n node) walk(p string, hops *int) (node, error) {
	if err := n.file.checkOpen(); err != nil {
		return node{}, err
	}
	if p == "" {
		return node{}, errors.Wrap(ErrInvalidPath, "empty path: ")
	}

	cur := n
	if strings.HasPrefix(p, "/") {
		cur = n.file.root.node
	}
	for _, name := range SplitPath(p) {
		if name == "." {
			continue
		}
		if !cur.isGroup() {
			return node{}, errors.Wrapf(ErrNotGroup, "%s: ", cur.path)
		}
		next, err := cur.child(name, hops)
		if err != nil {
			return node{}, err
		}
		cur = next
	}
	return cur, nil
}

// child resolves the link called name in group n.
func (n node) child(name string, hops *int) (node, error) {
	link, err := n.findLink(name)
	if err != nil {
		return node{}, err
	}

	switch {
	case link.IsHard():
		header, err := object.Read(n.file.reader, link.ObjectAddress)
		if err != nil {
			return node{}, wrapFormat(err, "reading object header of %s: ", joinPath(n.path, name))
		}
		return node{file: n.file, path: joinPath(n.path, name), header: header}, nil

	case link.IsSoft():
		if *hops++; *hops > MaxLinkDepth {
			return node{}, errors.Wrapf(ErrLinkDepth, "following %s: ", joinPath(n.path, name))
		}
		return n.walk(link.SoftLinkValue, hops)

	case link.IsExternal():
		if *hops++; *hops > MaxLinkDepth {
			return node{}, errors.Wrapf(ErrLinkDepth, "following %s: ", joinPath(n.path, name))
		}
		ext, err := n.file.openExternal(link.ExternalFile)
		if err != nil {
			return node{}, err
		}
		return ext.root.walk(CleanPath(link.ExternalPath), hops)
	}

	return node{}, errors.Newf("unknown link type %d for %s", link.LinkType, joinPath(n.path, name))
}
