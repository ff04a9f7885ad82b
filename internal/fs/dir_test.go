package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"facetfs/internal/state"

	"bazil.org/fuse"
)

func writeTestMarker(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(full, "parameters.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write marker file: %v", err)
	}
}

func setupTestFS(t *testing.T) (*FacetFS, string, func()) {
	t.Helper()
	sourceDir, err := os.MkdirTemp("", "facetfs-source-*")
	if err != nil {
		t.Fatalf("Failed to create source dir: %v", err)
	}

	writeTestMarker(t, sourceDir, "a", "color: red\nsize: s\n")
	writeTestMarker(t, sourceDir, "b", "color: red\nsize: m\n")
	writeTestMarker(t, sourceDir, "c", "color: blue\n")

	stateManager, err := state.NewManager(sourceDir, "parameters.yaml")
	if err != nil {
		t.Fatalf("Failed to build initial index: %v", err)
	}

	vfs := NewFacetFS(stateManager, ':')

	cleanup := func() {
		os.RemoveAll(sourceDir)
	}
	return vfs, sourceDir, cleanup
}

func TestDirOperations(t *testing.T) {
	vfs, sourceDir, cleanup := setupTestFS(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("RootDirectory", func(t *testing.T) {
		root, rootErr := vfs.Root()
		if rootErr != nil {
			t.Fatalf("Failed to get root: %v", rootErr)
		}

		attr := &fuse.Attr{}
		if attrErr := root.Attr(ctx, attr); attrErr != nil {
			t.Errorf("Failed to get root attributes: %v", attrErr)
		}
		if attr.Mode&os.ModeDir == 0 {
			t.Error("Root should be a directory")
		}

		dir, ok := root.(*Dir)
		if !ok {
			t.Fatal("Root should be a Dir")
		}

		entries, readErr := dir.ReadDirAll(ctx)
		if readErr != nil {
			t.Fatalf("Failed to read root directory: %v", readErr)
		}

		names := map[string]fuse.DirentType{}
		for _, entry := range entries {
			names[entry.Name] = entry.Type
		}

		for _, want := range []string{".", "..", "color:red", "color:blue", "size:s", "size:m", "size:None"} {
			if _, ok := names[want]; !ok {
				t.Errorf("Root listing missing %q (got %v)", want, names)
			}
		}
		if names["color:red"] != fuse.DT_Dir {
			t.Errorf("color:red should list as a directory, got %v", names["color:red"])
		}
		// size:s uniquely identifies record a.
		if names["size:s"] != fuse.DT_Link {
			t.Errorf("size:s should list as a link, got %v", names["size:s"])
		}
	})

	t.Run("LookupDirectory", func(t *testing.T) {
		root, _ := vfs.Root()
		dir := root.(*Dir)

		node, err := dir.Lookup(ctx, "color:red")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if _, ok := node.(*Dir); !ok {
			t.Fatalf("color:red should be a Dir, got %T", node)
		}

		entries, err := node.(*Dir).ReadDirAll(ctx)
		if err != nil {
			t.Fatalf("ReadDirAll failed: %v", err)
		}
		var names []string
		for _, e := range entries {
			if e.Name != "." && e.Name != ".." {
				names = append(names, e.Name)
			}
		}
		if len(names) != 2 {
			t.Errorf("color:red listing = %v, want size:m and size:s", names)
		}
	})

	t.Run("LookupLink", func(t *testing.T) {
		root, _ := vfs.Root()
		dir := root.(*Dir)

		node, err := dir.Lookup(ctx, "color:red")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		child, err := node.(*Dir).Lookup(ctx, "size:s")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		link, ok := child.(*Link)
		if !ok {
			t.Fatalf("size:s should be a Link, got %T", child)
		}

		attr := &fuse.Attr{}
		if err := link.Attr(ctx, attr); err != nil {
			t.Errorf("Failed to get link attributes: %v", err)
		}
		if attr.Mode&os.ModeSymlink == 0 {
			t.Error("Node should be a symlink")
		}

		target, err := link.Readlink(ctx, &fuse.ReadlinkRequest{})
		if err != nil {
			t.Fatalf("Readlink failed: %v", err)
		}
		if target != filepath.Join(sourceDir, "a") {
			t.Errorf("Target = %q, want %q", target, filepath.Join(sourceDir, "a"))
		}
	})

	t.Run("LookupSentinelLink", func(t *testing.T) {
		root, _ := vfs.Root()
		dir := root.(*Dir)

		node, err := dir.Lookup(ctx, "color:blue")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		link, ok := node.(*Link)
		if !ok {
			t.Fatalf("color:blue should be a Link (single match), got %T", node)
		}

		target, err := link.Readlink(ctx, &fuse.ReadlinkRequest{})
		if err != nil {
			t.Fatalf("Readlink failed: %v", err)
		}
		if target != filepath.Join(sourceDir, "c") {
			t.Errorf("Target = %q, want %q", target, filepath.Join(sourceDir, "c"))
		}
	})

	t.Run("LookupNotFound", func(t *testing.T) {
		root, _ := vfs.Root()
		dir := root.(*Dir)

		for _, name := range []string{"color:green", "nonsense", "shape:round"} {
			_, err := dir.Lookup(ctx, name)
			if err == nil {
				t.Errorf("Lookup(%q) should fail", name)
				continue
			}
			if !errors.Is(err, syscall.ENOENT) {
				t.Errorf("Lookup(%q) = %v, want ENOENT", name, err)
			}
		}
	})

	t.Run("DotEntriesAreDirectories", func(t *testing.T) {
		root, _ := vfs.Root()
		dir := root.(*Dir)

		for _, name := range []string{".", ".."} {
			node, err := dir.Lookup(ctx, name)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", name, err)
			}
			if _, ok := node.(*Dir); !ok {
				t.Errorf("%q should be a Dir, got %T", name, node)
			}
		}
	})
}

func TestRefreshVisibleThroughNodes(t *testing.T) {
	vfs, sourceDir, cleanup := setupTestFS(t)
	defer cleanup()

	ctx := context.Background()
	root, _ := vfs.Root()
	dir := root.(*Dir)

	// A node held from before a refresh re-resolves against the new
	// snapshot on its next operation.
	writeTestMarker(t, sourceDir, "d", "color: green\n")
	if err := vfs.state.Rebuild(); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	node, err := dir.Lookup(ctx, "color:green")
	if err != nil {
		t.Fatalf("Lookup after refresh failed: %v", err)
	}
	if _, ok := node.(*Link); !ok {
		t.Errorf("color:green should be a Link after refresh, got %T", node)
	}
}
