package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"facetfs/internal/fs"
	"facetfs/internal/logging"
	"facetfs/internal/state"
	"facetfs/internal/watch"
)

var logger = logging.GetLogger()

func main() {
	// Parse command line flags
	mountPoint := flag.String("mount", "", "Mount point for virtual filesystem")
	sourceRoot := flag.String("root", "", "Source directory to scan for marker files")
	markerName := flag.String("marker", "parameters.yaml", "Marker filename holding a record's attributes")
	kvSep := flag.String("kvsep", ":", "Separator between key and value in entry names")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	// Configure logging based on flags
	if *verbose {
		logging.SetDebug()
	}
	defer logging.Sync()

	logger.Info("Starting facetfs...")
	logger.Debugf("Mount point: %s", *mountPoint)
	logger.Debugf("Source root: %s", *sourceRoot)
	logger.Debugf("Marker name: %s", *markerName)

	if *mountPoint == "" || *sourceRoot == "" || *markerName == "" {
		logger.Error("Mount point, source root, and marker filename are required")
		os.Exit(1)
	}
	if len(*kvSep) != 1 || *kvSep == "/" {
		logger.Errorf("Key/value separator must be a single non-slash character, got %q", *kvSep)
		os.Exit(1)
	}

	cleanMount := filepath.Clean(*mountPoint)
	cleanRoot := filepath.Clean(*sourceRoot)

	// The initial build runs before anything is mounted; without a
	// prior snapshot to fall back to, a failure here is fatal.
	logger.Info("Building initial index...")
	stateManager, err := state.NewManager(cleanRoot, *markerName)
	if err != nil {
		logger.Errorf("Failed to build initial index: %v", err)
		os.Exit(1)
	}

	logger.Info("Creating virtual filesystem...")
	vfs := fs.NewFacetFS(stateManager, (*kvSep)[0])

	logger.Debug("Starting source tree watcher...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := watch.NewWatcher(stateManager)
	if err != nil {
		logger.Errorf("Failed to create watcher: %v", err)
		os.Exit(1)
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Errorf("Failed to start watcher: %v", err)
		os.Exit(1)
	}
	defer watcher.Close()

	logger.Debug("Setting up signal handlers...")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Mounting filesystem...")
	if err := vfs.Mount(cleanMount); err != nil {
		logger.Errorf("Mount failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Filesystem mounted and ready")

	// Wait for signal
	go func() {
		sig := <-sigChan
		logger.Infof("Received signal %v", sig)
		cancel()
		if err := vfs.Unmount(cleanMount); err != nil {
			logger.Errorf("Unmount error: %v", err)
		}
	}()

	<-vfs.Done()
	logger.Info("Clean shutdown complete")
}
