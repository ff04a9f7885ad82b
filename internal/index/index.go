package index

import (
	"fmt"
	"sort"
	"strings"

	"facetfs/internal/logging"
)

var indexLogger = logging.Named("index")

// Index is one immutable snapshot of the record set together with the
// derived filterable key set. Snapshots are never mutated after Build;
// a refresh produces a new Index and swaps it in wholesale.
type Index struct {
	records []*Record
	keys    []string // sorted union of field keys across all records
}

// DuplicateKeyError reports records whose projection onto the full
// filterable key set is identical, which would make their virtual
// paths collide.
type DuplicateKeyError struct {
	// Groups holds, per colliding key tuple, the descriptor paths of
	// the records sharing it.
	Groups [][]string
}

func (e *DuplicateKeyError) Error() string {
	parts := make([]string, len(e.Groups))
	for i, group := range e.Groups {
		parts[i] = "[" + strings.Join(group, ", ") + "]"
	}
	return fmt.Sprintf("index is not unique: %d groups of records share identical attributes: %s",
		len(e.Groups), strings.Join(parts, " "))
}

// Build constructs a snapshot from the scanned records. The filterable
// key set is the union of all record field names; every record is
// treated as total over that set with MissingValue standing in for
// absent keys. Build fails with *DuplicateKeyError if two records
// collapse to the same key tuple.
func Build(records []*Record) (*Index, error) {
	keySet := map[string]bool{}
	for _, rec := range records {
		for key := range rec.Fields {
			keySet[key] = true
		}
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// No filterable keys (every marker parsed empty): uniqueness is
	// vacuous and the records are simply unreachable through facets.
	// The tree still gets served with an empty root listing.
	if len(keys) == 0 {
		indexLogger.Debugf("Built index: %d records, no filterable keys", len(records))
		return &Index{records: records, keys: keys}, nil
	}

	// Group records by their full key tuple to verify uniqueness.
	byTuple := map[string][]string{}
	tuples := []string{}
	for _, rec := range records {
		tuple := keyTuple(rec, keys)
		if _, seen := byTuple[tuple]; !seen {
			tuples = append(tuples, tuple)
		}
		byTuple[tuple] = append(byTuple[tuple], rec.DescriptorPath)
	}

	var groups [][]string
	for _, tuple := range tuples {
		if paths := byTuple[tuple]; len(paths) > 1 {
			sort.Strings(paths)
			groups = append(groups, paths)
		}
	}
	if len(groups) > 0 {
		return nil, &DuplicateKeyError{Groups: groups}
	}

	indexLogger.Debugf("Built index: %d records, %d filterable keys", len(records), len(keys))
	return &Index{records: records, keys: keys}, nil
}

// keyTuple renders a record's projection onto keys as a single string
// usable as a map key. The internal prefix byte separates values; it
// cannot appear in field names but a field value containing it could
// still alias another tuple, the same representational risk the
// sentinel itself carries.
func keyTuple(rec *Record, keys []string) string {
	values := make([]string, len(keys))
	for i, key := range keys {
		values[i] = rec.Value(key)
	}
	return strings.Join(values, internalPrefix)
}

// Len returns the number of records in the snapshot.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Keys returns the sorted filterable key set.
func (ix *Index) Keys() []string {
	return ix.keys
}

// KeySet returns the filterable keys as a lookup set.
func (ix *Index) KeySet() map[string]bool {
	set := make(map[string]bool, len(ix.keys))
	for _, key := range ix.keys {
		set[key] = true
	}
	return set
}

// Filter applies f as a conjunctive predicate over base and returns
// the matching subset. A nil base means the full record set. Matching
// is exact string equality, with MissingValue standing in for keys a
// record does not define. The receiver is never mutated.
func (ix *Index) Filter(base []*Record, f *Filter) []*Record {
	if base == nil {
		base = ix.records
	}
	if f == nil || f.Len() == 0 {
		return base
	}

	var subset []*Record
	for _, rec := range base {
		if f.Matches(rec) {
			subset = append(subset, rec)
		}
	}
	return subset
}

// DistinctValues returns the sorted set of distinct values for key
// within subset. Sorting keeps directory listings stable across
// repeated calls.
func (ix *Index) DistinctValues(subset []*Record, key string) []string {
	seen := map[string]bool{}
	var values []string
	for _, rec := range subset {
		v := rec.Value(key)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}
