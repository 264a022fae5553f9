package platform

import (
	"runtime"
	"strconv"

	"golang.org/x/sys/cpu"
)

// goarchProcessors maps GOARCH values to the processor names an operating
// system reports for them.
var goarchProcessors = map[string]string{
	"amd64": "x86_64",
	"386":   "i686",
	"arm64": "aarch64",
	"arm":   "armv7l",
}

var goosSystems = map[string]string{
	"linux":     "Linux",
	"darwin":    "Darwin",
	"windows":   "Windows",
	"freebsd":   "FreeBSD",
	"netbsd":    "NetBSD",
	"openbsd":   "OpenBSD",
	"dragonfly": "DragonFly",
	"android":   "Android",
	"ios":       "iOS",
	"solaris":   "SunOS",
	"illumos":   "SunOS",
}

// HostSignals describes the machine this process runs on, as a native build
// with a GNU-style compiler would see it. Compiler identity is left for the
// caller to fill in when it is known.
func HostSignals() Signals {
	processor, ok := goarchProcessors[runtime.GOARCH]
	if !ok {
		processor = runtime.GOARCH
	}
	system, ok := goosSystems[runtime.GOOS]
	if !ok {
		system = runtime.GOOS
	}
	return Signals{
		SystemProcessor: processor,
		SystemName:      system,
		CompilerID:      "GNU",
		PointerWidth:    strconv.IntSize,
	}
}

// Features lists instruction-set extensions detected on the host CPU.
type Features struct {
	SSE2   bool `json:"sse2"`
	SSE41  bool `json:"sse4_1"`
	AVX2   bool `json:"avx2"`
	AVX512 bool `json:"avx512"`
	NEON   bool `json:"neon"`
}

// HostFeatures probes the running CPU. The result is informational: build
// plans depend on what the compiler can target, not on the build machine.
func HostFeatures() Features {
	return Features{
		SSE2:   cpu.X86.HasSSE2,
		SSE41:  cpu.X86.HasSSE41,
		AVX2:   cpu.X86.HasAVX2,
		AVX512: cpu.X86.HasAVX512F && cpu.X86.HasAVX512VL,
		NEON:   cpu.ARM64.HasASIMD || cpu.ARM.HasNEON,
	}
}
