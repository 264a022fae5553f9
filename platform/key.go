package platform

import (
	"fmt"

	"github.com/albertocavalcante/go-simdplan/variant"
)

// Source identifies which signal supplied the architecture of a Key.
type Source int

const (
	// SourceNone means no architecture signal was present.
	SourceNone Source = iota
	// SourceTargetList means the first entry of a multi-architecture list.
	SourceTargetList
	// SourceCompiler means the compiler-reported architecture identity.
	SourceCompiler
	// SourceProcessor means the OS-reported processor.
	SourceProcessor
)

func (s Source) String() string {
	switch s {
	case SourceTargetList:
		return "target-list"
	case SourceCompiler:
		return "compiler"
	case SourceProcessor:
		return "processor"
	case SourceNone:
		return "none"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	for _, src := range []Source{SourceNone, SourceTargetList, SourceCompiler, SourceProcessor} {
		if src.String() == string(text) {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown architecture source %q", text)
}

// Key is the canonical platform description. It is built once by Normalize
// and never mutated. Keys are comparable with ==.
type Key struct {
	arch           ArchClass
	architecture   string
	source         Source
	pointerWidth   int
	frontend       Frontend
	os             OSFamily
	compilerArchID string
	override       variant.Tag
	hasOverride    bool
	neonABI        bool
}

// Arch returns the architecture class.
func (k Key) Arch() ArchClass { return k.arch }

// Architecture returns the raw identifier that determined the class.
func (k Key) Architecture() string { return k.architecture }

// Source returns the signal the architecture was taken from.
func (k Key) Source() Source { return k.source }

// PointerWidth returns 32 or 64.
func (k Key) PointerWidth() int { return k.pointerWidth }

// Frontend returns the compiler frontend.
func (k Key) Frontend() Frontend { return k.frontend }

// OS returns the operating system family.
func (k Key) OS() OSFamily { return k.os }

// CompilerArchitectureID returns the compiler-reported identity, if any.
func (k Key) CompilerArchitectureID() string { return k.compilerArchID }

// ExplicitOverride returns the strategy implied by a high-confidence
// compiler identity. It is set only for MSVC-style frontends that report an
// exact target architecture.
func (k Key) ExplicitOverride() (variant.Tag, bool) {
	return k.override, k.hasOverride
}

// NEONABI reports whether the target ABI guarantees NEON on a 32-bit core
// (Android armeabi-v7a).
func (k Key) NEONABI() bool { return k.neonABI }

// String renders the key for diagnostics.
func (k Key) String() string {
	s := fmt.Sprintf("%s/%d-bit %s %s", k.arch, k.pointerWidth, k.frontend, k.os)
	if k.architecture != "" {
		s += fmt.Sprintf(" (%s from %s)", k.architecture, k.source)
	}
	if k.hasOverride {
		s += fmt.Sprintf(" [compiler implies %s]", k.override)
	}
	return s
}

// Snapshot is a serializable view of a Key used by plan files and the CLI.
type Snapshot struct {
	Arch                   ArchClass `json:"arch" cbor:"arch"`
	Architecture           string    `json:"architecture,omitempty" cbor:"architecture,omitempty"`
	Source                 Source    `json:"source" cbor:"source"`
	PointerWidth           int       `json:"pointer_width" cbor:"pointer_width"`
	Frontend               Frontend  `json:"frontend" cbor:"frontend"`
	OS                     OSFamily  `json:"os" cbor:"os"`
	CompilerArchitectureID string    `json:"compiler_architecture_id,omitempty" cbor:"compiler_architecture_id,omitempty"`
	ExplicitOverride       string    `json:"explicit_override,omitempty" cbor:"explicit_override,omitempty"`
	NEONABI                bool      `json:"neon_abi,omitempty" cbor:"neon_abi,omitempty"`
}

// Snapshot returns a serializable view of the key. The view is
// informational; keys are only ever built by Normalize.
func (k Key) Snapshot() Snapshot {
	view := Snapshot{
		Arch:                   k.arch,
		Architecture:           k.architecture,
		Source:                 k.source,
		PointerWidth:           k.pointerWidth,
		Frontend:               k.frontend,
		OS:                     k.os,
		CompilerArchitectureID: k.compilerArchID,
		NEONABI:                k.neonABI,
	}
	if k.hasOverride {
		view.ExplicitOverride = k.override.String()
	}
	return view
}
