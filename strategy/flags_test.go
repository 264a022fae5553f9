package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

func TestFlagSet(t *testing.T) {
	s := NewFlagSet(map[variant.Capability]string{
		variant.SSE2: "-msse2",
		variant.AVX2: "",
	})
	assert.True(t, s.Has(variant.SSE2))
	assert.False(t, s.Has(variant.AVX2), "empty flag is absent")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []variant.Capability{variant.SSE41, variant.AVX2}, s.Missing(variant.SSE2, variant.SSE41, variant.AVX2))

	with := s.With(map[variant.Capability]string{variant.SSE2: "", variant.NEON: "-mfpu=neon"})
	assert.False(t, with.Has(variant.SSE2))
	assert.Equal(t, []variant.Capability{variant.NEON}, with.Capabilities())
	assert.True(t, s.Has(variant.SSE2), "With does not modify the receiver")

	var zero FlagSet
	assert.False(t, zero.HasAll(variant.SSE2))
	assert.True(t, zero.HasAll())
	assert.True(t, zero.With(map[variant.Capability]string{variant.AVX2: "-mavx2"}).Has(variant.AVX2))
	assert.True(t, zero.Equal(NewFlagSet(nil)))
}

func TestFlagTableFor(t *testing.T) {
	table := FlagTable{
		{
			Frontend: platform.FrontendGNU,
			Flags: map[variant.Capability]string{
				variant.SSE2: "-msse2", variant.AVX512: "-mavx512f -mavx512vl",
			},
		},
		{
			Frontend:     platform.FrontendGNU,
			Arch:         []platform.ArchClass{platform.ArchARMv8},
			PointerWidth: 32,
			Flags:        map[variant.Capability]string{variant.NEON: "-mfpu=neon"},
		},
		{
			Frontend: platform.FrontendMSVC,
			Flags:    map[variant.Capability]string{variant.SSE2: "/arch:SSE2"},
		},
	}

	tests := []struct {
		name    string
		signals platform.Signals
		want    map[variant.Capability]string
	}{
		{
			name:    "gnu x86",
			signals: platform.Signals{SystemProcessor: "i686", CompilerID: "GNU"},
			want:    map[variant.Capability]string{variant.SSE2: "-msse2", variant.AVX512: "-mavx512f -mavx512vl"},
		},
		{
			name:    "gnu 32-bit arm gets neon",
			signals: platform.Signals{SystemProcessor: "armv8", CompilerID: "GNU", PointerWidth: 32},
			want: map[variant.Capability]string{
				variant.SSE2: "-msse2", variant.AVX512: "-mavx512f -mavx512vl", variant.NEON: "-mfpu=neon",
			},
		},
		{
			name:    "gnu 64-bit arm has no neon flag",
			signals: platform.Signals{SystemProcessor: "aarch64", CompilerID: "GNU", PointerWidth: 64},
			want:    map[variant.Capability]string{variant.SSE2: "-msse2", variant.AVX512: "-mavx512f -mavx512vl"},
		},
		{
			name:    "msvc",
			signals: platform.Signals{SystemProcessor: "AMD64", CompilerID: "MSVC"},
			want:    map[variant.Capability]string{variant.SSE2: "/arch:SSE2"},
		},
		{
			name:    "unknown compiler",
			signals: platform.Signals{SystemProcessor: "AMD64", CompilerID: "Intel"},
			want:    map[variant.Capability]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.For(platform.Normalize(tt.signals))
			assert.Equal(t, tt.want, got.Map())
		})
	}

	flags := table.For(platform.Normalize(platform.Signals{SystemProcessor: "i686", CompilerID: "Clang"}))
	assert.Equal(t, []string{"-mavx512f", "-mavx512vl"}, flags.Fields(variant.AVX512))
}

func TestSourceTableLookup(t *testing.T) {
	table := SourceTable{
		{Strategy: variant.NEONIntrinsics, Files: []SourceSpec{{File: "any.c"}}},
		{Strategy: variant.NEONIntrinsics, OS: []platform.OSFamily{platform.OSUnix}, Files: []SourceSpec{{File: "unix.c"}}},
		{Strategy: variant.NEONIntrinsics, Frontend: []platform.Frontend{platform.FrontendMSVC}, Files: []SourceSpec{{File: "msvc.c"}}},
		{
			Strategy: variant.NEONIntrinsics,
			OS:       []platform.OSFamily{platform.OSUnix},
			Frontend: []platform.Frontend{platform.FrontendMSVC},
			Files:    []SourceSpec{{File: "exact.c"}},
		},
	}

	tests := []struct {
		os       platform.OSFamily
		frontend platform.Frontend
		want     string
	}{
		{platform.OSUnix, platform.FrontendMSVC, "exact.c"},
		{platform.OSWindows, platform.FrontendMSVC, "msvc.c"},
		{platform.OSUnix, platform.FrontendGNU, "unix.c"},
		{platform.OSWindows, platform.FrontendGNU, "any.c"},
	}
	for _, tt := range tests {
		entry, ok := table.Lookup(variant.NEONIntrinsics, tt.os, tt.frontend)
		assert.True(t, ok)
		assert.Equal(t, tt.want, entry.Files[0].File, "%s/%s", tt.os, tt.frontend)
	}

	_, ok := table.Lookup(variant.AMD64ASM, platform.OSUnix, platform.FrontendGNU)
	assert.False(t, ok)
}

func TestParseAssembler(t *testing.T) {
	a, err := ParseAssembler("MASM")
	assert.NoError(t, err)
	assert.Equal(t, AssemblerMASM, a)
	_, err = ParseAssembler("masm")
	assert.Error(t, err)
}
