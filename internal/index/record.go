// Package index builds and queries immutable snapshots of the
// parameter records discovered under a source tree.
package index

import "strings"

// MissingValue is the placeholder substituted for an attribute a
// record does not define. It participates in uniqueness checks and is
// queryable like any other value, so a genuine field value equal to
// it is indistinguishable from an absent field.
const MissingValue = "None"

// internalPrefix marks reserved key names. Field keys carrying this
// prefix are stripped during parsing so the attribute namespace
// exposed to path filtering never contains them.
const internalPrefix = "\x00"

// Record is one discovered parameter set: the flat attributes parsed
// from a marker file plus the file's source location. Records are
// immutable once scanned.
type Record struct {
	// Fields maps attribute name to string value. Never contains a
	// key beginning with internalPrefix.
	Fields map[string]string

	// DescriptorPath is the absolute path to the marker file.
	DescriptorPath string

	// LinkTarget is the absolute path to the directory containing
	// the marker file.
	LinkTarget string
}

// Value returns the record's value for key, or MissingValue if the
// record does not define it.
func (r *Record) Value(key string) string {
	if v, ok := r.Fields[key]; ok {
		return v
	}
	return MissingValue
}

func isInternalKey(key string) bool {
	return strings.HasPrefix(key, internalPrefix)
}
