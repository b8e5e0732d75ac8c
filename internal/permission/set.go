package permission

import "sort"

// Set is an effective permission set. Sets returned by the resolver may be
// shared through the cache and must not be mutated.
type Set map[Key]struct{}

func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// HasAny is false for an empty key list.
func (s Set) HasAny(keys ...Key) bool {
	for _, k := range keys {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// HasAll is true for an empty key list.
func (s Set) HasAll(keys ...Key) bool {
	for _, k := range keys {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

// Missing returns the keys not in s, in the order given.
func (s Set) Missing(keys ...Key) []Key {
	var missing []Key
	for _, k := range keys {
		if !s.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

func (s Set) Sorted() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
