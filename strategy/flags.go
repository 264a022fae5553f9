package strategy

import (
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// FlagSet maps capabilities to the compiler flag string that enables them.
// An entry that is absent, or empty, means the compiler has no known flag for
// that capability. The zero value is an empty set. FlagSet values are never
// mutated; With returns a new set.
type FlagSet struct {
	flags map[variant.Capability]string
}

// NewFlagSet copies m into a FlagSet, dropping empty values.
func NewFlagSet(m map[variant.Capability]string) FlagSet {
	flags := make(map[variant.Capability]string, len(m))
	for c, f := range m {
		if f != "" {
			flags[c] = f
		}
	}
	return FlagSet{flags: flags}
}

// Get returns the flag string for c.
func (s FlagSet) Get(c variant.Capability) (string, bool) {
	f, ok := s.flags[c]
	return f, ok
}

// Has reports whether c has a flag.
func (s FlagSet) Has(c variant.Capability) bool {
	_, ok := s.flags[c]
	return ok
}

// HasAll reports whether every capability in caps has a flag.
func (s FlagSet) HasAll(caps ...variant.Capability) bool {
	return len(s.Missing(caps...)) == 0
}

// Missing returns the capabilities in caps that have no flag, in the order
// given.
func (s FlagSet) Missing(caps ...variant.Capability) []variant.Capability {
	var missing []variant.Capability
	for _, c := range caps {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Fields returns the flag for c split into individual arguments
// ("-mavx512f -mavx512vl" -> two arguments).
func (s FlagSet) Fields(c variant.Capability) []string {
	return strings.Fields(s.flags[c])
}

// Len returns the number of defined flags.
func (s FlagSet) Len() int {
	return len(s.flags)
}

// Map returns a copy of the defined flags.
func (s FlagSet) Map() map[variant.Capability]string {
	return maps.Clone(s.flags)
}

// Capabilities returns the defined capabilities in canonical order.
func (s FlagSet) Capabilities() []variant.Capability {
	var caps []variant.Capability
	for _, c := range variant.Capabilities() {
		if s.Has(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// With returns a copy of s with overrides applied. An override of "" removes
// the capability's flag.
func (s FlagSet) With(overrides map[variant.Capability]string) FlagSet {
	if len(overrides) == 0 {
		return s
	}
	flags := maps.Clone(s.flags)
	if flags == nil {
		flags = make(map[variant.Capability]string, len(overrides))
	}
	for c, f := range overrides {
		if f == "" {
			delete(flags, c)
			continue
		}
		flags[c] = f
	}
	return FlagSet{flags: flags}
}

// Equal reports whether two sets define the same flags.
func (s FlagSet) Equal(other FlagSet) bool {
	return maps.Equal(s.flags, other.flags)
}

// FlagRule contributes flags for compilers that match it.
type FlagRule struct {
	Frontend platform.Frontend
	// Arch restricts the rule to these classes. Empty matches any class.
	Arch []platform.ArchClass
	// PointerWidth restricts the rule to 32 or 64. Zero matches either.
	PointerWidth int
	Flags        map[variant.Capability]string
}

// Matches reports whether the rule applies to key.
func (r FlagRule) Matches(key platform.Key) bool {
	if r.Frontend != key.Frontend() {
		return false
	}
	if len(r.Arch) > 0 && !slices.Contains(r.Arch, key.Arch()) {
		return false
	}
	return r.PointerWidth == 0 || r.PointerWidth == key.PointerWidth()
}

// FlagTable is an ordered list of flag rules. Later matching rules replace
// flags set by earlier ones.
type FlagTable []FlagRule

// For evaluates the table for key.
func (t FlagTable) For(key platform.Key) FlagSet {
	flags := make(map[variant.Capability]string)
	for _, rule := range t {
		if !rule.Matches(key) {
			continue
		}
		for c, f := range rule.Flags {
			flags[c] = f
		}
	}
	return NewFlagSet(flags)
}
