// internal/fs/interfaces.go

package fs

import (
	fusefs "bazil.org/fuse/fs"
)

// Compile-time checks that the node types implement the FUSE
// interfaces the dispatcher relies on.
var (
	_ fusefs.FS                 = (*FacetFS)(nil)
	_ fusefs.Node               = (*Dir)(nil)
	_ fusefs.NodeStringLookuper = (*Dir)(nil)
	_ fusefs.HandleReadDirAller = (*Dir)(nil)
	_ fusefs.Node               = (*Link)(nil)
	_ fusefs.NodeReadlinker     = (*Link)(nil)
)
