package hdf5

import (
	"path"

	"github.com/dropbox/godropbox/errors"

	"github.com/robert-malhotra/h5flat/internal/message"
	"github.com/robert-malhotra/h5flat/internal/object"
)

// LinkCreateHard creates a hard link dstName below dstLoc to the object at
// srcName below srcLoc. Both locations must be in the same file. Hard links
// to groups are refused because the linked group's header may move when
// links are added to it, which would leave the second link dangling.
func LinkCreateHard(srcLoc ID, srcName string, dstLoc ID, dstName string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	src, err := locationLocked(srcLoc)
	if err != nil {
		return err
	}
	target, err := src.resolve(srcName)
	if err != nil {
		return err
	}

	parent, base, err := linkParentLocked(dstLoc, dstName)
	if err != nil {
		return err
	}
	if target.file != parent.file {
		return errors.Wrapf(ErrUnsupported, "hard link from %s to %s in another file: ", parent.path, target.path)
	}
	if target.isGroup() {
		return errors.Wrapf(ErrUnsupported, "hard link to group %s: ", target.path)
	}
	return parent.addLink(message.NewHardLink(base, target.header.Address))
}

// LinkCreateSoft creates a soft link name below loc that points at target.
// The target is not required to exist.
func LinkCreateSoft(target string, loc ID, name string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if target == "" {
		return errors.Wrap(ErrInvalidPath, "empty soft link target: ")
	}
	parent, base, err := linkParentLocked(loc, name)
	if err != nil {
		return err
	}
	return parent.addLink(message.NewSoftLink(base, target))
}

// LinkCreateExternal creates a link name below loc to the object at objPath
// inside the file fileName. Relative file names are resolved against the
// directory of the file holding the link when the link is followed.
func LinkCreateExternal(fileName, objPath string, loc ID, name string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if fileName == "" || objPath == "" {
		return errors.Wrap(ErrInvalidPath, "external link needs a file and an object path: ")
	}
	parent, base, err := linkParentLocked(loc, name)
	if err != nil {
		return err
	}
	return parent.addLink(message.NewExternalLink(base, fileName, objPath))
}

// LinkExists reports whether the final link of name exists below loc. The
// link itself is not followed, so a dangling soft link still exists.
func LinkExists(loc ID, name string) (bool, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	start, err := locationLocked(loc)
	if err != nil {
		return false, err
	}
	dir, base, err := splitLinkPath(name)
	if err != nil {
		return false, errors.Wrapf(err, "link name %q: ", name)
	}

	n := start.node
	if dir != "" {
		if n, err = start.resolve(dir); err != nil {
			if errors.IsError(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
	}
	names, err := n.members()
	if err != nil {
		return false, err
	}
	for _, existing := range names {
		if existing == base {
			return true, nil
		}
	}
	return false, nil
}

// addLink appends a link to a writable compact group.
func (g *group) addLink(l *message.Link) error {
	if g.header.SymbolTable() != nil {
		return errors.Wrapf(ErrUnsupported, "adding links to symbol table group %s: ", g.path)
	}
	info := message.NewLinkInfo()
	if li := g.header.LinkInfo(); li != nil {
		if li.IsDense() {
			return errors.Wrapf(ErrUnsupported, "adding links to dense group %s: ", g.path)
		}
		c := *li
		info = &c
	}
	if info.TracksCreationOrder() {
		l.CreationOrder = info.MaxCreationIndex
		info.MaxCreationIndex++
	}

	links := append(g.header.Links(), l)
	if err := g.rewrite(g.header.ReplaceLinks(info, links)); err != nil {
		return errors.Wrapf(err, "adding link %q to %s: ", l.Name, g.path)
	}
	return nil
}

// relink points the hard link called name at a new address.
func (g *group) relink(name string, addr uint64) error {
	old := g.header.Links()
	links := make([]*message.Link, 0, len(old))
	found := false
	for _, l := range old {
		if l.Name == name && l.IsHard() {
			c := *l
			c.ObjectAddress = addr
			l = &c
			found = true
		}
		links = append(links, l)
	}
	if !found {
		return errors.Wrapf(ErrNotFound, "hard link %q in %s: ", name, g.path)
	}
	return g.rewrite(g.header.ReplaceLinks(g.header.LinkInfo(), links))
}

// rewrite replaces the group's object header. The header is overwritten in
// place when the new messages fit; otherwise it moves to new space, the
// parent link (or the superblock, for the root) is updated, and the old
// space is freed.
func (g *group) rewrite(msgs []message.Message) error {
	f := g.file
	cfg := f.config()

	if size := int(g.header.Size); size > 0 {
		data, fits, err := object.EncodeInPlace(cfg, msgs, size)
		if err != nil {
			return err
		}
		if fits {
			if err := f.writer.At(int64(g.header.Address)).WriteBytes(data); err != nil {
				return err
			}
			return g.reload(g.header.Address)
		}
	}

	addr, err := f.writeHeader(msgs, object.MinGroupChunkSize, "group "+g.path)
	if err != nil {
		return err
	}
	old := g.header
	if err := g.reload(addr); err != nil {
		return err
	}

	if g.parent == nil {
		f.superblock.RootGroupAddress = addr
	} else if err := g.parent.relink(path.Base(g.path), addr); err != nil {
		return err
	}

	if old.Size > 0 {
		f.space.Free(old.Address, old.Size)
	}
	return nil
}

func (g *group) reload(addr uint64) error {
	header, err := object.Read(g.file.reader, addr)
	if err != nil {
		return wrapFormat(err, "reading back header of %s: ", g.path)
	}
	g.header = header
	return nil
}
