package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"facetfs/internal/logging"

	"gopkg.in/yaml.v3"
)

var scanLogger = logging.Named("scan")

// Scan walks root recursively and returns one Record per marker file
// found. Unreadable or malformed marker files yield a record with no
// fields rather than failing the scan; only a broken walk itself is
// an error.
func Scan(root string, markerName string) ([]*Record, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	var records []*Record
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			scanLogger.Warnf("Skipping unreadable entry %q: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Name() != markerName {
			return nil
		}

		scanLogger.Debugf("Found marker file: %q", path)
		records = append(records, readRecord(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	scanLogger.Debugf("Scan of %q found %d marker files", absRoot, len(records))
	return records, nil
}

// readRecord parses one marker file into a Record. Parse faults are
// swallowed into an empty field set so a single malformed file cannot
// prevent indexing of the rest of the tree.
func readRecord(path string) *Record {
	rec := &Record{
		Fields:         map[string]string{},
		DescriptorPath: path,
		LinkTarget:     filepath.Dir(path),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		scanLogger.Warnf("Cannot read marker file %q: %v", path, err)
		return rec
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		scanLogger.Warnf("Malformed marker file %q: %v", path, err)
		return rec
	}

	for key, value := range raw {
		if isInternalKey(key) {
			scanLogger.Warnf("Dropping reserved key in %q", path)
			continue
		}
		// Non-string scalars are coerced to their string form.
		rec.Fields[key] = fmt.Sprintf("%v", value)
	}
	return rec
}
