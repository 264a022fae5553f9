package platform

import "fmt"

// ArchClass is the architecture family a build targets.
type ArchClass int

const (
	// ArchOther is any architecture without an accelerated strategy.
	ArchOther ArchClass = iota
	// ArchAMD64 is 64-bit x86.
	ArchAMD64
	// ArchX86 is 32-bit x86.
	ArchX86
	// ArchARMv8 is ARMv8 in either its 32-bit or 64-bit execution state.
	ArchARMv8
)

func (a ArchClass) String() string {
	switch a {
	case ArchAMD64:
		return "AMD64"
	case ArchX86:
		return "X86"
	case ArchARMv8:
		return "ARMv8"
	case ArchOther:
		return "Other"
	default:
		return fmt.Sprintf("ArchClass(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a ArchClass) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Alias sets per class. Membership is exact string equality.
var (
	amd64Names = []string{"amd64", "AMD64", "x86_64"}
	x86Names   = []string{"i686", "x86", "X86"}
	armv8Names = []string{"aarch64", "AArch64", "arm64", "ARM64", "armv8", "armv8a"}

	// MSVC reports its target as x64/X86/ARM64 rather than a processor name.
	msvcAMD64Names = []string{"x64", "X64"}
	msvcX86Names   = []string{"X86", "x86"}
	msvcARM64Names = []string{"ARM64", "arm64"}
)

// Aliases returns the identifiers that normalize to class. The returned
// slice is a copy.
func Aliases(class ArchClass) []string {
	var names []string
	switch class {
	case ArchAMD64:
		names = amd64Names
	case ArchX86:
		names = x86Names
	case ArchARMv8:
		names = armv8Names
	}
	return append([]string(nil), names...)
}

// ClassifyArch maps an architecture identifier to its class by exact alias
// match. Unknown identifiers are ArchOther.
func ClassifyArch(name string) ArchClass {
	switch {
	case contains(amd64Names, name):
		return ArchAMD64
	case contains(x86Names, name):
		return ArchX86
	case contains(armv8Names, name):
		return ArchARMv8
	default:
		return ArchOther
	}
}

// classifyCompilerArch maps a compiler-reported architecture identity. It
// accepts the processor aliases plus the identities MSVC reports.
func classifyCompilerArch(id string) ArchClass {
	switch {
	case contains(msvcAMD64Names, id):
		return ArchAMD64
	case contains(msvcX86Names, id):
		return ArchX86
	case contains(msvcARM64Names, id):
		return ArchARMv8
	default:
		return ClassifyArch(id)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ArchClass) UnmarshalText(text []byte) error {
	for _, class := range []ArchClass{ArchAMD64, ArchX86, ArchARMv8, ArchOther} {
		if class.String() == string(text) {
			*a = class
			return nil
		}
	}
	return fmt.Errorf("unknown architecture class %q", text)
}
