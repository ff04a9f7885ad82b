package fs

import (
	"facetfs/internal/index"
	"facetfs/internal/logging"
)

var projLogger = logging.Named("projection")

// EntryKind is the externally visible node kind for a virtual path.
type EntryKind int

const (
	// KindNotFound means the path matches no record and is not a
	// valid intermediate directory.
	KindNotFound EntryKind = iota
	// KindDirectory means the path narrows the record set to more
	// than one record, or is the root.
	KindDirectory
	// KindLink means the path narrows the record set to exactly one
	// record and resolves to a symlink to its source directory.
	KindLink
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindLink:
		return "link"
	default:
		return "not found"
	}
}

// resolution carries one path resolved against one index snapshot.
// Every FUSE operation builds a fresh resolution from the path string
// and the snapshot current at its start, so no per-path state survives
// between calls.
type resolution struct {
	ix     *index.Index
	parsed index.ParseResult
	subset []*index.Record
}

// resolve parses path against the snapshot's key set and computes the
// matching record subset.
func resolve(ix *index.Index, path string, kvSep byte) *resolution {
	parsed := index.ParsePath(path, ix.KeySet(), segmentSep, kvSep)
	return &resolution{
		ix:     ix,
		parsed: parsed,
		subset: ix.Filter(nil, parsed.Filter),
	}
}

// Kind decides the node kind for the resolved path.
//
// The root always exists as a directory, even over an empty record
// set. A path with an unconsumed remainder failed to parse and is
// reported as missing outright; so is a fully parsed path matching
// nothing. One match is a link, several are a directory.
func (r *resolution) Kind(isRoot bool) EntryKind {
	switch {
	case isRoot:
		return KindDirectory
	case r.parsed.Remainder != "":
		return KindNotFound
	case len(r.subset) > 1:
		return KindDirectory
	case len(r.subset) == 1:
		return KindLink
	default:
		return KindNotFound
	}
}

// Children enumerates the synthetic child names of a directory path:
// one key<kvSep>value entry for every distinct value of every key not
// already constrained by the path's filter. Constrained keys are not
// re-listed, so no listing ever offers a redundant or contradictory
// sub-path. Returns nil when the path has an unconsumed remainder.
func (r *resolution) Children(kvSep byte) []string {
	if r.parsed.Remainder != "" {
		projLogger.Debugf("Refusing to list children past unparsed remainder %q", r.parsed.Remainder)
		return nil
	}

	var names []string
	for _, key := range r.ix.Keys() {
		if r.parsed.Filter.Has(key) {
			continue
		}
		for _, value := range r.ix.DistinctValues(r.subset, key) {
			names = append(names, key+string(kvSep)+value)
		}
	}
	return names
}

// LinkTarget returns the source directory of the single matching
// record. The caller must have established KindLink first; anything
// else is a contract violation surfaced as ErrNotSingleton.
func (r *resolution) LinkTarget() (string, error) {
	if len(r.subset) != 1 {
		return "", NewFSError(OpReadlink, r.parsed.Consumed, ErrNotSingleton)
	}
	return r.subset[0].LinkTarget, nil
}
