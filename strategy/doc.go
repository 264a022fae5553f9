// Package strategy selects the implementation strategy of the accelerated
// library for a platform and assembles the build plan for it.
//
// Resolution is an ordered rule list (see DefaultRules). The first rule that
// matches picks the strategy:
//
//	user-strategy      an explicit strategy cache value
//	compiler-identity  the strategy implied by an MSVC architecture ID
//	amd64-asm          AMD64 class, any pointer width
//	x86-intrinsics     X86 class with SSE2, SSE4_1, AVX2 and AVX512 flags
//	neon-intrinsics    ARMv8 class, NEON ABI or override, with a NEON flag
//	                   or a 64-bit target
//	portable           always
//
// The selected strategy is then validated against the catalog. A strategy
// the tables cannot serve is a *FatalError; it is never downgraded to the
// portable build.
package strategy
