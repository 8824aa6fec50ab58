package lookup

import (
	"slices"

	"fieldlookup/internal/domain"
)

// HasPrefixMatch reports whether some index on s begins with ordered, in order.
func HasPrefixMatch(s *domain.Schema, ordered []string) bool {
	_, ok := PrefixIndex(s, ordered)
	return ok
}

// HasExactMatch reports whether some index on s has exactly the given field
// set. Order is ignored.
func HasExactMatch(s *domain.Schema, set []string) bool {
	_, ok := ExactIndex(s, set)
	return ok
}

// PrefixIndex returns the first index on s whose leading fields equal ordered.
func PrefixIndex(s *domain.Schema, ordered []string) (domain.Index, bool) {
	var found domain.Index
	if len(ordered) == 0 {
		return found, false
	}
	ok := false
	s.EachIndex(func(name string, fields []string) bool {
		if len(fields) >= len(ordered) && slices.Equal(fields[:len(ordered)], ordered) {
			found = domain.Index{Name: name, Fields: slices.Clone(fields)}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// ExactIndex returns the first index on s covering exactly the given set.
func ExactIndex(s *domain.Schema, set []string) (domain.Index, bool) {
	var found domain.Index
	if len(set) == 0 {
		return found, false
	}
	want := make(map[string]struct{}, len(set))
	for _, f := range set {
		want[f] = struct{}{}
	}
	// A set with repeated names cannot equal an index's field set.
	if len(want) != len(set) {
		return found, false
	}
	ok := false
	s.EachIndex(func(name string, fields []string) bool {
		if len(fields) != len(want) {
			return true
		}
		for _, f := range fields {
			if _, hit := want[f]; !hit {
				return true
			}
		}
		found = domain.Index{Name: name, Fields: slices.Clone(fields)}
		ok = true
		return false
	})
	return found, ok
}
