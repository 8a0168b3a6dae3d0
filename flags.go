package tshader

import (
	"slices"
	"strings"
)

// FlagSet is a set of feature flag names selecting one shader variant.
// The zero value is an empty set ready to read; use [NewFlagSet] or
// [FlagSet.Add] to build populated sets.
type FlagSet map[string]struct{}

// NewFlagSet builds a set from the given flag names. Duplicates collapse.
func NewFlagSet(flags ...string) FlagSet {
	s := make(FlagSet, len(flags))
	s.Add(flags...)
	return s
}

// Add inserts flag names into the set.
func (s FlagSet) Add(flags ...string) {
	for _, f := range flags {
		s[f] = struct{}{}
	}
}

// Has reports whether the set contains name.
func (s FlagSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Clone returns an independent copy of the set.
func (s FlagSet) Clone() FlagSet {
	c := make(FlagSet, len(s))
	for f := range s {
		c[f] = struct{}{}
	}
	return c
}

// Names returns the flag names in sorted order.
func (s FlagSet) Names() []string {
	names := make([]string, 0, len(s))
	for f := range s {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// Key returns the canonical variant key: the sorted flag names joined
// with "+". Two sets with the same members produce the same key no
// matter how they were built, so the key identifies a variant in the
// cache and in technique names. The empty set's key is "".
func (s FlagSet) Key() string {
	return strings.Join(s.Names(), "+")
}

// String renders the set as its canonical key.
func (s FlagSet) String() string { return s.Key() }
