package fs

import (
	"context"
	"os"

	"facetfs/internal/logging"

	"bazil.org/fuse"
)

var linkLogger = logging.Named("link")

// Link represents a symlink in the virtual filesystem: a path whose
// filter narrows the record set to exactly one record. It resolves to
// that record's source directory. Like Dir, the node carries only its
// path string and re-resolves on every operation.
type Link struct {
	fs   *FacetFS
	path string
}

// Attr implements the Node interface, returning symlink attributes.
func (l *Link) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeSymlink | 0o777
	a.Uid = l.fs.uid
	a.Gid = l.fs.gid
	a.Nlink = 1
	return nil
}

// Readlink implements the NodeReadlinker interface, returning the
// link target.
func (l *Link) Readlink(_ context.Context, _ *fuse.ReadlinkRequest) (string, error) {
	linkLogger.Debugf("Resolving link target for %q", l.path)

	r := l.fs.resolvePath(l.path)
	if r.parsed.Remainder != "" {
		linkLogger.Warnf("Readlink past unparsed remainder %q", r.parsed.Remainder)
		return "", ToFuseError(NewFSError(OpReadlink, l.path, ErrPathNotFound))
	}

	target, err := r.LinkTarget()
	if err != nil {
		// The path stopped matching exactly one record, most likely
		// because a refresh landed between lookup and readlink.
		linkLogger.Warnf("Link %q no longer resolves to a single record: %v", l.path, err)
		return "", ToFuseError(err)
	}

	linkLogger.Debugf("Link %q -> %q", l.path, target)
	return target, nil
}
