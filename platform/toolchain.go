package platform

import "fmt"

// Frontend is the command-line dialect of the C compiler.
type Frontend int

const (
	// FrontendOther is a compiler without known flag spellings.
	FrontendOther Frontend = iota
	// FrontendMSVC accepts cl.exe style flags (MSVC, clang-cl).
	FrontendMSVC
	// FrontendGNU accepts gcc style flags (GCC, Clang, AppleClang).
	FrontendGNU
)

func (f Frontend) String() string {
	switch f {
	case FrontendMSVC:
		return "msvc"
	case FrontendGNU:
		return "gnu"
	case FrontendOther:
		return "other"
	default:
		return fmt.Sprintf("Frontend(%d)", int(f))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Frontend) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFrontend parses the spelling used in tables files.
func ParseFrontend(s string) (Frontend, error) {
	switch s {
	case "msvc":
		return FrontendMSVC, nil
	case "gnu":
		return FrontendGNU, nil
	case "other":
		return FrontendOther, nil
	}
	return FrontendOther, fmt.Errorf("unknown compiler frontend %q (known: msvc, gnu, other)", s)
}

var gnuCompilerIDs = []string{"GNU", "Clang", "AppleClang"}

// ClassifyFrontend derives the frontend from the compiler identity and the
// frontend variant. clang-cl reports compiler ID "Clang" with variant "MSVC",
// so the variant is checked first.
func ClassifyFrontend(compilerID, frontendVariant string) Frontend {
	switch {
	case frontendVariant == "MSVC" || compilerID == "MSVC":
		return FrontendMSVC
	case frontendVariant == "GNU" || contains(gnuCompilerIDs, compilerID):
		return FrontendGNU
	default:
		return FrontendOther
	}
}

// OSFamily selects between assembly syntaxes and object formats.
type OSFamily int

const (
	// OSOther is an operating system without assembly sources.
	OSOther OSFamily = iota
	// OSWindows covers native Windows plus Cygwin and MSYS, which use the
	// Windows calling convention.
	OSWindows
	// OSUnix covers ELF and Mach-O systems.
	OSUnix
)

func (o OSFamily) String() string {
	switch o {
	case OSWindows:
		return "windows"
	case OSUnix:
		return "unix"
	case OSOther:
		return "other"
	default:
		return fmt.Sprintf("OSFamily(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o OSFamily) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ParseOSFamily parses the spelling used in tables files.
func ParseOSFamily(s string) (OSFamily, error) {
	switch s {
	case "windows":
		return OSWindows, nil
	case "unix":
		return OSUnix, nil
	case "other":
		return OSOther, nil
	}
	return OSOther, fmt.Errorf("unknown OS family %q (known: windows, unix, other)", s)
}

var (
	windowsSystems = []string{"Windows", "CYGWIN", "MSYS"}
	unixSystems    = []string{
		"Linux", "Darwin", "FreeBSD", "NetBSD", "OpenBSD", "DragonFly",
		"Android", "iOS", "tvOS", "watchOS", "SunOS", "Haiku",
	}
)

// ClassifyOS maps a system name to its family by exact match.
func ClassifyOS(systemName string) OSFamily {
	switch {
	case contains(windowsSystems, systemName):
		return OSWindows
	case contains(unixSystems, systemName):
		return OSUnix
	default:
		return OSOther
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frontend) UnmarshalText(text []byte) error {
	parsed, err := ParseFrontend(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OSFamily) UnmarshalText(text []byte) error {
	parsed, err := ParseOSFamily(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
