// Package variant defines the closed enumerations shared by the platform
// normalizer, the strategy resolver, and the backend negotiator.
//
// A Tag names one implementation strategy of the accelerated library. A
// Capability names one instruction-set extension that a compiler flag can
// enable. Both round-trip through their cache spellings ("amd64-asm",
// "SSE4_1", ...) so they can be stored in configuration files and plan files.
package variant

import (
	"fmt"
	"strings"
)

// Tag is an implementation strategy of the accelerated library.
type Tag int

const (
	// None builds the portable implementation only. Always valid.
	None Tag = iota
	// AMD64ASM builds the hand-written x86-64 assembly kernels.
	AMD64ASM
	// X86Intrinsics builds the SSE2/SSE4.1/AVX2/AVX512 intrinsics kernels.
	X86Intrinsics
	// NEONIntrinsics builds the ARM NEON intrinsics kernel.
	NEONIntrinsics
)

var tagNames = map[Tag]string{
	None:           "none",
	AMD64ASM:       "amd64-asm",
	X86Intrinsics:  "x86-intrinsics",
	NEONIntrinsics: "neon-intrinsics",
}

// Tags returns every strategy in preference order: assembly, intrinsics,
// then the portable fallback.
func Tags() []Tag {
	return []Tag{AMD64ASM, X86Intrinsics, NEONIntrinsics, None}
}

// String returns the cache spelling of the tag.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Valid reports whether t is one of the closed set of strategies.
func (t Tag) Valid() bool {
	_, ok := tagNames[t]
	return ok
}

// Accelerated reports whether the strategy compiles any SIMD sources.
func (t Tag) Accelerated() bool {
	return t.Valid() && t != None
}

// ParseTag parses a cache spelling. Matching is exact: "AMD64-ASM" is not a
// tag.
func ParseTag(s string) (Tag, error) {
	for tag, name := range tagNames {
		if name == s {
			return tag, nil
		}
	}
	return None, &UnknownError{Kind: "strategy", Value: s, Known: TagNames()}
}

// TagNames returns the cache spellings of all strategies in preference order.
func TagNames() []string {
	tags := Tags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	return names
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid strategy %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnknownError reports a value outside one of the closed enumerations.
type UnknownError struct {
	Kind  string
	Value string
	Known []string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown %s %q (known: %s)", e.Kind, e.Value, strings.Join(e.Known, ", "))
}
