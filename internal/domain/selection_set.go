package domain

import "sort"

// SelectionSet is an immutable set of sector IDs. Every change produces a
// new value; the zero value is an empty set.
type SelectionSet struct {
	ids map[int64]struct{}
}

// NewSelectionSet builds a set from ids, dropping duplicates.
func NewSelectionSet(ids ...int64) SelectionSet {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return SelectionSet{ids: m}
}

// Has reports whether id is a member.
func (s SelectionSet) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of members.
func (s SelectionSet) Len() int {
	return len(s.ids)
}

// Toggle returns a new set with id removed if present, or added if absent.
// The receiver is left untouched. IDs are not checked against any tree.
func (s SelectionSet) Toggle(id int64) SelectionSet {
	next := make(map[int64]struct{}, len(s.ids)+1)
	for k := range s.ids {
		next[k] = struct{}{}
	}
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return SelectionSet{ids: next}
}

// IDs returns the members in ascending order. Order carries no meaning; it
// only keeps request payloads and output deterministic.
func (s SelectionSet) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether both sets have the same members.
func (s SelectionSet) Equal(other SelectionSet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if _, ok := other.ids[id]; !ok {
			return false
		}
	}
	return true
}
