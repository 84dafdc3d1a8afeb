// Package collections holds small generic containers used by the evaluator.
package collections

import (
	"fmt"
	"maps"
	"slices"
)

// Set is an unordered set backed by a map with zero-size values
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding vs
func NewSet[T comparable](vs ...T) Set[T] {
	s := make(Set[T], len(vs))
	s.Add(vs...)
	return s
}

// Add inserts vs
func (s Set[T]) Add(vs ...T) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

// Delete removes vs
func (s Set[T]) Delete(vs ...T) {
	for _, v := range vs {
		delete(s, v)
	}
}

// Has reports whether v is in the set
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// HasAll reports whether every one of vs is in the set
func (s Set[T]) HasAll(vs ...T) bool {
	for _, v := range vs {
		if !s.Has(v) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (s Set[T]) Clone() Set[T] {
	return maps.Clone(s)
}

// Members returns the values in no particular order
func (s Set[T]) Members() []T {
	return slices.Collect(maps.Keys(s))
}

func (s Set[T]) String() string {
	return fmt.Sprintf("%v", s.Members())
}
