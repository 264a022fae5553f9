package variant

import (
	"fmt"
	"strings"
)

// Capability is an instruction-set extension enabled by a compiler flag.
type Capability int

const (
	// NoCapability marks a source file that needs no capability flag.
	NoCapability Capability = iota
	SSE2
	SSE41
	AVX2
	AVX512
	NEON
)

var capabilityNames = map[Capability]string{
	NoCapability: "",
	SSE2:         "SSE2",
	SSE41:        "SSE4_1",
	AVX2:         "AVX2",
	AVX512:       "AVX512",
	NEON:         "NEON",
}

// negativeNames are the suffixes of the explicit "not available" definitions
// emitted for the portable strategy.
var negativeNames = map[Capability]string{
	SSE2:   "NO_SSE2",
	SSE41:  "NO_SSE41",
	AVX2:   "NO_AVX2",
	AVX512: "NO_AVX512",
}

// X86Capabilities returns the four capabilities the x86 intrinsics strategy
// requires, lowest tier first.
func X86Capabilities() []Capability {
	return []Capability{SSE2, SSE41, AVX2, AVX512}
}

// Capabilities returns every capability, x86 tiers first.
func Capabilities() []Capability {
	return []Capability{SSE2, SSE41, AVX2, AVX512, NEON}
}

// String returns the logical capability name ("SSE4_1").
func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// NegativeDefinition returns the definition suffix that statically disables
// this capability ("NO_SSE41"), or "" when the capability has none.
func (c Capability) NegativeDefinition() string {
	return negativeNames[c]
}

// ParseCapability parses a logical capability name. Lower-case spellings used
// as Starlark attribute names ("sse4_1") are accepted alongside the canonical
// ones.
func ParseCapability(s string) (Capability, error) {
	for c, name := range capabilityNames {
		if c == NoCapability {
			continue
		}
		if name == s || attrName(name) == s {
			return c, nil
		}
	}
	return NoCapability, &UnknownError{Kind: "capability", Value: s, Known: capabilityList()}
}

// AttrName returns the lower-case spelling used as an attribute in tables
// files ("sse4_1").
func (c Capability) AttrName() string {
	return attrName(c.String())
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Capability) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = NoCapability
		return nil
	}
	parsed, err := ParseCapability(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func attrName(name string) string {
	return strings.ToLower(name)
}

func capabilityList() []string {
	caps := Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return names
}
