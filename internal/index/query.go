package index

import "strings"

// Filter is an ordered conjunctive set of key=value constraints built
// from a virtual path. It is scoped to a single resolution; it is not
// shared or persisted.
type Filter struct {
	keys   []string
	values map[string]string
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{values: map[string]string{}}
}

// Set adds or overwrites a constraint. A repeated key keeps its
// original position but takes the newest value.
func (f *Filter) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Has reports whether key is constrained.
func (f *Filter) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Get returns the constraint for key, if any.
func (f *Filter) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Len returns the number of constraints.
func (f *Filter) Len() int {
	return len(f.keys)
}

// Keys returns the constrained keys in insertion order.
func (f *Filter) Keys() []string {
	return f.keys
}

// Matches reports whether rec satisfies every constraint, with
// MissingValue standing in for fields rec does not define.
func (f *Filter) Matches(rec *Record) bool {
	for _, key := range f.keys {
		if rec.Value(key) != f.values[key] {
			return false
		}
	}
	return true
}

// ParseResult is the outcome of consuming a path into a filter.
// Consumed and Remainder partition the original path at the first
// segment that failed to parse as key<kvSep>value with a known key.
type ParseResult struct {
	Consumed  string
	Remainder string
	Filter    *Filter
}

// ParsePath consumes path left to right, splitting it on segSep into
// segments and each segment at the first kvSep into a constraint.
//
// The parse is greedy with no backtracking: the first segment with an
// unknown key, or with no kvSep at all, permanently ends filter
// accumulation and lands with everything after it in Remainder, even
// if a later segment would have parsed on its own. Empty segments
// from leading or doubled separators carry no constraint but are
// consumed, so Consumed reconstructs the seen prefix faithfully.
func ParsePath(path string, known map[string]bool, segSep, kvSep byte) ParseResult {
	sep := string(segSep)
	segments := strings.Split(path, sep)

	filter := NewFilter()
	consumed := 0
	for _, segment := range segments {
		if segment == "" {
			consumed++
			continue
		}

		i := strings.IndexByte(segment, kvSep)
		if i < 0 {
			break
		}
		key, value := segment[:i], segment[i+1:]
		if !known[key] {
			break
		}

		filter.Set(key, value)
		consumed++
	}

	return ParseResult{
		Consumed:  strings.Join(segments[:consumed], sep),
		Remainder: strings.Join(segments[consumed:], sep),
		Filter:    filter,
	}
}
