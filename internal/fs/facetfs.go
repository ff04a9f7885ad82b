package fs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"facetfs/internal/logging"
	"facetfs/internal/state"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var vfsLogger = logging.Named("vfs")

// segmentSep separates path segments in virtual paths. FUSE hands us
// slash-delimited paths, so this is fixed.
const segmentSep = '/'

// FacetFS is the core virtual filesystem: a read-only projection of
// the current record index into a facet directory hierarchy, where
// every path segment key<kvSep>value filters the record set and a
// unique match becomes a symlink to the record's source directory.
type FacetFS struct {
	state  *state.Manager // Provides the current index snapshot
	kvSep  byte           // Separates key from value in entry names
	conn   *fuse.Conn     // FUSE connection
	served chan struct{}  // Closed when the serve loop exits
	uid    uint32         // User ID reported on all nodes
	gid    uint32         // Group ID reported on all nodes
}

// NewFacetFS creates a new virtual filesystem over the given snapshot
// manager.
func NewFacetFS(stateManager *state.Manager, kvSep byte) *FacetFS {
	vfsLogger.Info("Creating new virtual filesystem")
	vfsLogger.Debugf("Source root: %s, marker: %s, separator: %q",
		stateManager.Root(), stateManager.MarkerName(), string(kvSep))

	// Get UID/GID from environment if set
	uid := safeIntToUint32(os.Getuid())
	gid := safeIntToUint32(os.Getgid())

	if puidStr := os.Getenv("PUID"); puidStr != "" {
		if puid, err := strconv.ParseUint(puidStr, 10, 32); err == nil {
			uid = uint32(puid)
			vfsLogger.Debugf("Using PUID from environment: %d", uid)
		}
	}
	if pgidStr := os.Getenv("PGID"); pgidStr != "" {
		if pgid, err := strconv.ParseUint(pgidStr, 10, 32); err == nil {
			gid = uint32(pgid)
			vfsLogger.Debugf("Using PGID from environment: %d", pgid)
		}
	}

	return &FacetFS{
		state: stateManager,
		kvSep: kvSep,
		uid:   uid,
		gid:   gid,
	}
}

// Root implements the fusefs.FS interface, returning the root
// directory node.
func (vfs *FacetFS) Root() (fusefs.Node, error) {
	return &Dir{fs: vfs, path: "/"}, nil
}

// resolvePath resolves a virtual path against the snapshot current at
// this moment. Each FUSE operation calls this exactly once so it
// observes a single snapshot from start to finish.
func (vfs *FacetFS) resolvePath(path string) *resolution {
	return resolve(vfs.state.Current(), path, vfs.kvSep)
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount implements filesystem mounting.
func (vfs *FacetFS) Mount(mountPoint string) error {
	vfsLogger.Info("Mounting virtual filesystem")
	vfsLogger.Debugf("Mount point: %s", mountPoint)

	// Check if source directory is readable
	if _, err := os.ReadDir(vfs.state.Root()); err != nil {
		vfsLogger.Errorf("Cannot read source directory: %v", err)
		return fmt.Errorf("source directory not readable: %w", err)
	}

	mountOpts := []fuse.MountOption{
		fuse.FSName("facetfs"),
		fuse.Subtype("facetfs"),
		fuse.ReadOnly(),
		fuse.DefaultPermissions(),
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	vfs.conn = c
	vfs.served = make(chan struct{})

	go func() {
		defer close(vfs.served)
		defer c.Close()
		vfsLogger.Info("Serving filesystem...")
		if err := fusefs.Serve(c, vfs); err != nil {
			vfsLogger.Errorf("FUSE server error: %v", err)
		}
		vfsLogger.Debug("FUSE server stopped")
	}()

	// Wait for mount to be ready
	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		vfsLogger.Errorf("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	vfsLogger.Info("Filesystem mounted successfully")
	return nil
}

// Done returns a channel closed when the serve loop has exited, after
// a successful Mount. Callers block on it to wait for unmount.
func (vfs *FacetFS) Done() <-chan struct{} {
	return vfs.served
}

// Unmount cleanly unmounts the filesystem.
func (vfs *FacetFS) Unmount(mountPoint string) error {
	vfsLogger.Infof("Unmounting filesystem from: %s", mountPoint)
	if vfs.conn != nil {
		err := fuse.Unmount(mountPoint)
		if err != nil {
			vfsLogger.Errorf("Unmount failed: %v", err)
		} else {
			vfsLogger.Info("Unmount completed successfully")
		}
		return err
	}
	return nil
}
