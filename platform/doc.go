// Package platform collapses raw, possibly absent or contradictory platform
// signals into one canonical Key.
//
// # Signals
//
// A configuration run knows some subset of:
//
//   - the list of architectures the build targets (multi-architecture builds)
//   - the compiler's own target architecture identity (MSVC reports this)
//   - the processor reported by the operating system
//   - the operating system name, the compiler identity, the pointer width
//
// # Precedence
//
// The architecture is taken from the first applicable signal:
//
//  1. the first entry of a multi-architecture target list
//  2. the compiler-reported architecture identity
//  3. the OS-reported processor
//
// Only the first architecture of a multi-architecture list is used. Plans
// for several architectures at once are not supported.
//
// # Aliases
//
// Architecture identifiers are matched exactly against a fixed alias set
// per class. There is no case folding and no substring matching: "amd64",
// "AMD64" and "x86_64" are AMD64, while "Amd64" or "x86_64h" are Other.
//
// Normalize never fails. Anything it does not recognise maps to Other.
package platform
