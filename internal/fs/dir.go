package fs

import (
	"context"
	"os"
	"path"

	"facetfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var dirLogger = logging.Named("dir")

// Dir represents a directory in the virtual filesystem: a path whose
// accumulated filter still matches more than one record, or the root.
// The node carries only its path string; every operation re-resolves
// it against the snapshot current at that moment.
type Dir struct {
	fs   *FacetFS
	path string
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0o555
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	a.Nlink = 2
	return nil
}

// Lookup implements the NodeStringLookuper interface, finding a child
// node.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	dirLogger.Debugf("Looking up %q in directory %q", name, d.path)
	childPath := joinPath(d.path, name)

	if name == "." || name == ".." {
		return &Dir{fs: d.fs, path: d.path}, nil
	}

	r := d.fs.resolvePath(childPath)
	switch r.Kind(false) {
	case KindDirectory:
		dirLogger.Debugf("Found directory: %q", childPath)
		return &Dir{fs: d.fs, path: childPath}, nil
	case KindLink:
		dirLogger.Debugf("Found link: %q", childPath)
		return &Link{fs: d.fs, path: childPath}, nil
	default:
		dirLogger.Debugf("Path not found: %q", childPath)
		return nil, ToFuseError(NewFSError(OpLookup, childPath, ErrPathNotFound))
	}
}

// ReadDirAll implements the HandleReadDirAller interface, listing
// directory contents.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debugf("Reading directory contents: %q", d.path)

	// Always present!
	entries := []fuse.Dirent{
		{Name: ".", Type: fuse.DT_Dir},
		{Name: "..", Type: fuse.DT_Dir},
	}

	r := d.fs.resolvePath(d.path)
	for _, name := range r.Children(d.fs.kvSep) {
		// Type each entry the way a subsequent lookup would decide it,
		// against the same snapshot.
		child := resolve(r.ix, joinPath(d.path, name), d.fs.kvSep)
		entryType := fuse.DT_Dir
		if child.Kind(false) == KindLink {
			entryType = fuse.DT_Link
		}
		entries = append(entries, fuse.Dirent{Name: name, Type: entryType})
	}

	dirLogger.Debugf("Directory %q contains %d entries", d.path, len(entries))
	return entries, nil
}

// joinPath appends one entry name to a virtual directory path.
func joinPath(dir, name string) string {
	return path.Join(dir, name)
}
