// Package state owns the current index snapshot and its replacement
// protocol.
package state

import (
	"fmt"
	"sync/atomic"

	"facetfs/internal/index"
	"facetfs/internal/logging"
)

var logger = logging.Named("state")

// Manager maintains the current index snapshot. Lookups load the
// snapshot through Current; rebuilds publish a replacement with a
// single atomic swap. A snapshot already held by an in-flight lookup
// stays fully usable until its last holder drops it.
type Manager struct {
	root       string
	markerName string
	current    atomic.Pointer[index.Index]
}

// NewManager scans root and builds the initial snapshot. There is no
// prior snapshot to fall back to, so any failure here is returned and
// should abort startup.
func NewManager(root, markerName string) (*Manager, error) {
	logger.Debugf("Creating state manager for root %q, marker %q", root, markerName)

	m := &Manager{
		root:       root,
		markerName: markerName,
	}

	records, err := index.Scan(root, markerName)
	if err != nil {
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	ix, err := index.Build(records)
	if err != nil {
		return nil, fmt.Errorf("initial index build: %w", err)
	}

	m.current.Store(ix)
	m.logStats(ix)
	return m, nil
}

// Current returns the snapshot to serve lookups from. Callers load it
// once per operation and use it throughout; the returned Index is
// immutable.
func (m *Manager) Current() *index.Index {
	return m.current.Load()
}

// Root returns the watched source tree root.
func (m *Manager) Root() string {
	return m.root
}

// MarkerName returns the marker filename records are discovered by.
func (m *Manager) MarkerName() string {
	return m.markerName
}

// Rebuild rescans the source tree and publishes a fresh snapshot. On
// any failure the previous snapshot is left in place and keeps being
// served; the error is returned for operator-visible reporting only.
func (m *Manager) Rebuild() error {
	logger.Info("Rebuilding index")

	records, err := index.Scan(m.root, m.markerName)
	if err != nil {
		logger.Errorf("Rescan failed, keeping previous snapshot: %v", err)
		return fmt.Errorf("rescan: %w", err)
	}

	ix, err := index.Build(records)
	if err != nil {
		logger.Errorf("Index build failed, keeping previous snapshot: %v", err)
		return fmt.Errorf("rebuild index: %w", err)
	}

	m.current.Store(ix)
	m.logStats(ix)
	return nil
}

func (m *Manager) logStats(ix *index.Index) {
	logger.Infof("Index ready: %d records with parameters %v", ix.Len(), ix.Keys())
}
