package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-simdplan/variant"
)

func TestClassifyArchAliases(t *testing.T) {
	tests := []struct {
		names []string
		want  ArchClass
	}{
		{names: []string{"amd64", "AMD64", "x86_64"}, want: ArchAMD64},
		{names: []string{"i686", "x86", "X86"}, want: ArchX86},
		{names: []string{"aarch64", "AArch64", "arm64", "ARM64", "armv8", "armv8a"}, want: ArchARMv8},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			for _, name := range tt.names {
				assert.Equal(t, tt.want, ClassifyArch(name), "ClassifyArch(%q)", name)
			}
			assert.Equal(t, tt.names, Aliases(tt.want))
		})
	}
}

func TestClassifyArchRejectsNearMisses(t *testing.T) {
	// Case variants, substrings and superstrings of known aliases must not
	// match.
	for _, name := range []string{
		"Amd64", "X86_64", "x86_64h", "x86-64", "amd", "i386", "i586",
		"arm", "armv7", "armv8l", "Arm64", "aarch64_be", " x86_64", "",
	} {
		assert.Equal(t, ArchOther, ClassifyArch(name), "ClassifyArch(%q)", name)
	}
	assert.Nil(t, Aliases(ArchOther))
}

func TestAliasEquivalenceThroughNormalize(t *testing.T) {
	var keys []Key
	for _, name := range []string{"amd64", "AMD64", "x86_64"} {
		keys = append(keys, Normalize(Signals{SystemProcessor: name, SystemName: "Linux", CompilerID: "GNU"}))
	}
	for _, k := range keys {
		assert.Equal(t, ArchAMD64, k.Arch())
		assert.Equal(t, 64, k.PointerWidth())
	}
}

func TestNormalizePrecedence(t *testing.T) {
	tests := []struct {
		name       string
		signals    Signals
		wantArch   ArchClass
		wantRaw    string
		wantSource Source
	}{
		{
			name: "target list wins over everything",
			signals: Signals{
				TargetArchitectures:    []string{"arm64", "x86_64"},
				CompilerArchitectureID: "x64",
				SystemProcessor:        "x86_64",
			},
			wantArch:   ArchARMv8,
			wantRaw:    "arm64",
			wantSource: SourceTargetList,
		},
		{
			name: "only first target architecture is used",
			signals: Signals{
				TargetArchitectures: []string{"x86_64", "arm64"},
				SystemProcessor:     "arm64",
			},
			wantArch:   ArchAMD64,
			wantRaw:    "x86_64",
			wantSource: SourceTargetList,
		},
		{
			name: "compiler identity wins over processor",
			signals: Signals{
				CompilerArchitectureID: "ARM64",
				SystemProcessor:        "AMD64",
			},
			wantArch:   ArchARMv8,
			wantRaw:    "ARM64",
			wantSource: SourceCompiler,
		},
		{
			name:       "msvc x64 identity",
			signals:    Signals{CompilerArchitectureID: "x64"},
			wantArch:   ArchAMD64,
			wantRaw:    "x64",
			wantSource: SourceCompiler,
		},
		{
			name:       "processor fallback",
			signals:    Signals{SystemProcessor: "i686"},
			wantArch:   ArchX86,
			wantRaw:    "i686",
			wantSource: SourceProcessor,
		},
		{
			name:       "empty first target falls through",
			signals:    Signals{TargetArchitectures: []string{""}, SystemProcessor: "aarch64"},
			wantArch:   ArchARMv8,
			wantRaw:    "aarch64",
			wantSource: SourceProcessor,
		},
		{
			name:       "no signals",
			signals:    Signals{},
			wantArch:   ArchOther,
			wantSource: SourceNone,
		},
		{
			name:       "unknown processor",
			signals:    Signals{SystemProcessor: "riscv64"},
			wantArch:   ArchOther,
			wantRaw:    "riscv64",
			wantSource: SourceProcessor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := Normalize(tt.signals)
			assert.Equal(t, tt.wantArch, k.Arch())
			assert.Equal(t, tt.wantRaw, k.Architecture())
			assert.Equal(t, tt.wantSource, k.Source())
		})
	}
}

func TestNormalizeExplicitOverride(t *testing.T) {
	tests := []struct {
		name      string
		signals   Signals
		want      variant.Tag
		wantIsSet bool
	}{
		{
			name:      "msvc x86",
			signals:   Signals{CompilerID: "MSVC", CompilerArchitectureID: "X86", SystemProcessor: "AMD64"},
			want:      variant.X86Intrinsics,
			wantIsSet: true,
		},
		{
			name:      "msvc x64",
			signals:   Signals{CompilerID: "MSVC", CompilerArchitectureID: "x64"},
			want:      variant.AMD64ASM,
			wantIsSet: true,
		},
		{
			name:      "msvc arm64",
			signals:   Signals{CompilerID: "MSVC", CompilerArchitectureID: "ARM64"},
			want:      variant.NEONIntrinsics,
			wantIsSet: true,
		},
		{
			name:      "clang-cl counts as msvc",
			signals:   Signals{CompilerID: "Clang", CompilerFrontendVariant: "MSVC", CompilerArchitectureID: "x64"},
			want:      variant.AMD64ASM,
			wantIsSet: true,
		},
		{
			name:      "msvc unknown identity selects none",
			signals:   Signals{CompilerID: "MSVC", CompilerArchitectureID: "ARMV7"},
			want:      variant.None,
			wantIsSet: true,
		},
		{
			name:    "gnu compiler identity is not a short circuit",
			signals: Signals{CompilerID: "GNU", CompilerArchitectureID: "x86_64"},
		},
		{
			name:    "msvc without identity",
			signals: Signals{CompilerID: "MSVC", SystemProcessor: "AMD64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.signals).ExplicitOverride()
			assert.Equal(t, tt.wantIsSet, ok)
			if tt.wantIsSet {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizePointerWidth(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    int
	}{
		{name: "explicit 32", signals: Signals{SystemProcessor: "aarch64", PointerWidth: 32}, want: 32},
		{name: "explicit 64", signals: Signals{SystemProcessor: "x86", PointerWidth: 64}, want: 64},
		{name: "unknown x86", signals: Signals{SystemProcessor: "i686"}, want: 32},
		{name: "unknown amd64", signals: Signals{SystemProcessor: "x86_64"}, want: 64},
		{name: "unknown arm", signals: Signals{SystemProcessor: "arm64"}, want: 64},
		{name: "bytes are not bits", signals: Signals{SystemProcessor: "i686", PointerWidth: 8}, want: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.signals).PointerWidth())
		})
	}
}

func TestNormalizeToolchain(t *testing.T) {
	tests := []struct {
		compilerID string
		variant    string
		want       Frontend
	}{
		{compilerID: "GNU", want: FrontendGNU},
		{compilerID: "Clang", want: FrontendGNU},
		{compilerID: "AppleClang", want: FrontendGNU},
		{compilerID: "Clang", variant: "GNU", want: FrontendGNU},
		{compilerID: "Clang", variant: "MSVC", want: FrontendMSVC},
		{compilerID: "MSVC", want: FrontendMSVC},
		{compilerID: "Intel", want: FrontendOther},
		{compilerID: "gnu", want: FrontendOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyFrontend(tt.compilerID, tt.variant), "%s/%s", tt.compilerID, tt.variant)
	}

	assert.Equal(t, OSWindows, ClassifyOS("Windows"))
	assert.Equal(t, OSWindows, ClassifyOS("CYGWIN"))
	assert.Equal(t, OSUnix, ClassifyOS("Linux"))
	assert.Equal(t, OSUnix, ClassifyOS("Darwin"))
	assert.Equal(t, OSOther, ClassifyOS("linux"))
	assert.Equal(t, OSOther, ClassifyOS("Generic"))
}

func TestNormalizeAndroidABI(t *testing.T) {
	k := Normalize(Signals{SystemProcessor: "armv7-a", AndroidABI: "armeabi-v7a", PointerWidth: 32})
	assert.Equal(t, ArchOther, k.Arch())
	assert.True(t, k.NEONABI())

	k = Normalize(Signals{SystemProcessor: "aarch64", AndroidABI: "arm64-v8a"})
	assert.False(t, k.NEONABI())
}

func TestNormalizeDeterministic(t *testing.T) {
	s := Signals{
		TargetArchitectures: []string{"x86_64", "arm64"},
		SystemName:          "Darwin",
		CompilerID:          "AppleClang",
		PointerWidth:        64,
	}
	assert.Equal(t, Normalize(s), Normalize(s))
	assert.True(t, s.MultiArchitecture())
}

func TestKeyStringAndSnapshot(t *testing.T) {
	k := Normalize(Signals{CompilerID: "MSVC", CompilerArchitectureID: "x64", SystemName: "Windows"})
	assert.Equal(t, "AMD64/64-bit msvc windows (x64 from compiler) [compiler implies amd64-asm]", k.String())

	snap := k.Snapshot()
	assert.Equal(t, ArchAMD64, snap.Arch)
	assert.Equal(t, "amd64-asm", snap.ExplicitOverride)
	assert.Equal(t, SourceCompiler, snap.Source)
}

func TestTextRoundTrip(t *testing.T) {
	for _, class := range []ArchClass{ArchAMD64, ArchX86, ArchARMv8, ArchOther} {
		text, err := class.MarshalText()
		require.NoError(t, err)
		var got ArchClass
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, class, got)
	}
	var f Frontend
	require.NoError(t, f.UnmarshalText([]byte("msvc")))
	assert.Equal(t, FrontendMSVC, f)
	var o OSFamily
	assert.Error(t, o.UnmarshalText([]byte("Windows")))
	var s Source
	require.NoError(t, s.UnmarshalText([]byte("processor")))
	assert.Equal(t, SourceProcessor, s)
}

func TestHostSignals(t *testing.T) {
	s := HostSignals()
	assert.NotEmpty(t, s.SystemProcessor)
	assert.NotEmpty(t, s.SystemName)

	k := Normalize(s)
	switch runtime.GOARCH {
	case "amd64":
		assert.Equal(t, ArchAMD64, k.Arch())
		assert.True(t, HostFeatures().SSE2, "every amd64 CPU has SSE2")
	case "arm64":
		assert.Equal(t, ArchARMv8, k.Arch())
	}
}
