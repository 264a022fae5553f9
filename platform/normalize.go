package platform

import "github.com/albertocavalcante/go-simdplan/variant"

// Signals are the raw platform facts a configuration run has available. Any
// field may be empty.
type Signals struct {
	// TargetArchitectures lists every architecture of a multi-architecture
	// build (for example a universal macOS binary). Only the first is used.
	TargetArchitectures []string `json:"target_architectures,omitempty" yaml:"target_architectures,omitempty"`

	// CompilerArchitectureID is the target identity reported by the compiler
	// itself. It is set by toolchains that know their target independently of
	// the host, such as MSVC ("x64", "X86", "ARM64").
	CompilerArchitectureID string `json:"compiler_architecture_id,omitempty" yaml:"compiler_architecture_id,omitempty"`

	// SystemProcessor is the processor reported by the operating system.
	SystemProcessor string `json:"system_processor,omitempty" yaml:"system_processor,omitempty"`

	// SystemName is the target operating system ("Linux", "Windows", ...).
	SystemName string `json:"system_name,omitempty" yaml:"system_name,omitempty"`

	// CompilerID identifies the C compiler ("GNU", "Clang", "MSVC", ...).
	CompilerID string `json:"compiler_id,omitempty" yaml:"compiler_id,omitempty"`

	// CompilerFrontendVariant is "MSVC" for clang-cl and "GNU" for clang.
	CompilerFrontendVariant string `json:"compiler_frontend_variant,omitempty" yaml:"compiler_frontend_variant,omitempty"`

	// PointerWidth is the pointer size in bits. Values other than 32 and 64
	// are treated as unknown.
	PointerWidth int `json:"pointer_width,omitempty" yaml:"pointer_width,omitempty"`

	// AndroidABI is the Android NDK ABI name, if building for Android.
	AndroidABI string `json:"android_abi,omitempty" yaml:"android_abi,omitempty"`
}

// neonABIs are ABIs that mandate NEON on 32-bit ARM cores.
var neonABIs = []string{"armeabi-v7a"}

// Normalize collapses signals into a Key. It is a pure function and never
// fails: unrecognised architectures map to ArchOther.
func Normalize(s Signals) Key {
	arch, architecture, source := resolveArchitecture(s)
	frontend := ClassifyFrontend(s.CompilerID, s.CompilerFrontendVariant)

	k := Key{
		arch:           arch,
		architecture:   architecture,
		source:         source,
		pointerWidth:   pointerWidth(s.PointerWidth, arch),
		frontend:       frontend,
		os:             ClassifyOS(s.SystemName),
		compilerArchID: s.CompilerArchitectureID,
		neonABI:        contains(neonABIs, s.AndroidABI),
	}

	if frontend == FrontendMSVC && s.CompilerArchitectureID != "" {
		k.override = strategyForCompilerArch(s.CompilerArchitectureID)
		k.hasOverride = true
	}
	return k
}

// resolveArchitecture applies the precedence: first entry of a target
// list, then the compiler identity, then the OS processor.
func resolveArchitecture(s Signals) (ArchClass, string, Source) {
	if len(s.TargetArchitectures) > 0 && s.TargetArchitectures[0] != "" {
		first := s.TargetArchitectures[0]
		return ClassifyArch(first), first, SourceTargetList
	}
	if s.CompilerArchitectureID != "" {
		return classifyCompilerArch(s.CompilerArchitectureID), s.CompilerArchitectureID, SourceCompiler
	}
	if s.SystemProcessor != "" {
		return ClassifyArch(s.SystemProcessor), s.SystemProcessor, SourceProcessor
	}
	return ArchOther, "", SourceNone
}

func pointerWidth(bits int, arch ArchClass) int {
	if bits == 32 || bits == 64 {
		return bits
	}
	if arch == ArchX86 {
		return 32
	}
	return 64
}

// strategyForCompilerArch maps an MSVC architecture identity directly to a
// strategy. Identities outside the three known ones select the portable
// build.
func strategyForCompilerArch(id string) variant.Tag {
	switch {
	case contains(msvcX86Names, id):
		return variant.X86Intrinsics
	case contains(msvcAMD64Names, id):
		return variant.AMD64ASM
	case contains(msvcARM64Names, id):
		return variant.NEONIntrinsics
	default:
		return variant.None
	}
}

// MultiArchitecture reports whether s targets more than one architecture,
// in which case only the first one is planned.
func (s Signals) MultiArchitecture() bool {
	return len(s.TargetArchitectures) > 1
}
