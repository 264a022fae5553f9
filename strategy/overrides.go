package strategy

import (
	"fmt"

	"github.com/albertocavalcante/go-simdplan/variant"
)

// Overrides are developer-set cache values threaded into a resolution. They
// are read-only input.
type Overrides struct {
	// Strategy replaces the computed strategy when set ("amd64-asm", ...).
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// UseNEONIntrinsics enables the NEON rule on non-ARMv8 targets.
	UseNEONIntrinsics bool `json:"use_neon_intrinsics,omitempty" yaml:"use_neon_intrinsics,omitempty"`

	// Flags overrides compiler flags per capability name ("AVX2" or "avx2").
	// An empty value removes the flag.
	Flags map[string]string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// CapabilityFlags parses the flag override keys.
func (o Overrides) CapabilityFlags() (map[variant.Capability]string, error) {
	if len(o.Flags) == 0 {
		return nil, nil
	}
	out := make(map[variant.Capability]string, len(o.Flags))
	for name, flag := range o.Flags {
		c, err := variant.ParseCapability(name)
		if err != nil {
			return nil, fmt.Errorf("flag override: %w", err)
		}
		out[c] = flag
	}
	return out, nil
}
