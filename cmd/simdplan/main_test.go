package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-simdplan/config"
)

var linuxArgs = []string{"--processor", "x86_64", "--system", "Linux", "--compiler", "GNU"}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestResolveText(t *testing.T) {
	code, stdout, stderr := runCLI(t, linuxArgs...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "amd64-asm (rule amd64-asm)")
	assert.Contains(t, stdout, "blake3_sse41_x86-64_unix.S")
	assert.Contains(t, stderr, "info: implementation strategy: amd64-asm")

	// The explicit subcommand name is equivalent.
	code2, stdout2, _ := runCLI(t, append([]string{"resolve"}, linuxArgs...)...)
	assert.Equal(t, code, code2)
	assert.Equal(t, stdout, stdout2)
}

func TestResolveFatal(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown simd type", args: append([]string{"--simd-type", "avx-max"}, linuxArgs...), want: "unknown strategy"},
		{name: "missing flag", args: append([]string{"--simd-type", "x86-intrinsics", "--flag", "AVX512="}, linuxArgs...), want: "missing capability flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitFatal, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "error: ")
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown command", args: []string{"explode"}},
		{name: "unknown flag", args: []string{"--no-such-flag"}},
		{name: "bad pointer width", args: append([]string{"--pointer-width", "16"}, linuxArgs...)},
		{name: "bad format", args: append([]string{"--format", "xml"}, linuxArgs...)},
		{name: "missing tables file", args: append([]string{"--tables", "/nonexistent.bzl"}, linuxArgs...)},
		{name: "diff arity", args: []string{"diff", "one.json"}},
		{name: "verify missing plan", args: []string{"verify", "/nonexistent/plan.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "verify")

	code, _, stderr := runCLI(t, "resolve", "--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "--simd-type")
}

func TestResolveVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "plan.json")

	code, stdout, stderr := runCLI(t, append([]string{"--format", "json", "--output", plan}, linuxArgs...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	code, stdout, stderr = runCLI(t, append([]string{"verify", plan}, linuxArgs...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "ok")

	// Forcing a strategy changes the plan.
	code, stdout, stderr = runCLI(t, "verify", plan, "--processor", "x86_64", "--system", "Linux", "--compiler", "GNU", "--simd-type", "none")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "plan fingerprint mismatch")
	assert.Contains(t, stdout, "strategy: amd64-asm (rule amd64-asm) -> none (rule user-strategy)")
}

func TestResolveCBORAndDiff(t *testing.T) {
	dir := t.TempDir()
	oldPlan := filepath.Join(dir, "old.cbor")
	newPlan := filepath.Join(dir, "new.json")

	code, _, stderr := runCLI(t, append([]string{"--format", "cbor", "-o", oldPlan}, linuxArgs...)...)
	require.Equal(t, exitOK, code, stderr)
	code, _, stderr = runCLI(t, "--format", "json", "-o", newPlan, "--processor", "i686", "--system", "Linux", "--compiler", "GNU")
	require.Equal(t, exitOK, code, stderr)

	code, stdout, stderr := runCLI(t, "diff", oldPlan, newPlan)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "strategy: amd64-asm (rule amd64-asm) -> x86-intrinsics (rule x86-intrinsics)")
	assert.Contains(t, stdout, "- source blake3_avx2_x86-64_unix.S")
	assert.Contains(t, stdout, "+ source blake3_avx2.c")

	code, _, _ = runCLI(t, "diff", "--exit-code", oldPlan, newPlan)
	assert.Equal(t, exitFatal, code)

	code, stdout, _ = runCLI(t, "diff", newPlan, newPlan)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "plans are identical")
}

func TestResolveWithBackendPrefix(t *testing.T) {
	prefix := t.TempDir()
	pcDir := filepath.Join(prefix, "lib", "pkgconfig")
	require.NoError(t, os.MkdirAll(pcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pcDir, "tbb.pc"), []byte(
		"prefix="+prefix+"\nlibdir=${prefix}/lib\n\nName: TBB\nVersion: 2022.1.0\nLibs: -L${libdir} -ltbb\n"), 0o644))

	code, stdout, stderr := runCLI(t, append([]string{"--use-tbb", "--tbb-prefix", prefix, "--stdlib", "libc++"}, linuxArgs...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "TBB 2022.1.0 linked as TBB::tbb")
	assert.Contains(t, stdout, "-fno-exceptions -fno-rtti")
}

func TestResolveFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simdplan.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
  // 32-bit MSVC build.
  "platform": {"compiler_id": "MSVC", "compiler_architecture_id": "X86", "system_name": "Windows"},
}`), 0o644))

	code, stdout, stderr := runCLI(t, "--config", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "x86-intrinsics (rule compiler-identity)")
	assert.Contains(t, stdout, "/arch:AVX512")

	// Flags override the file.
	code, stdout, stderr = runCLI(t, "--config", path, "--compiler-arch", "x64")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "amd64-asm (rule compiler-identity)")
	assert.Contains(t, stdout, "MASM")
}

func TestDebugDump(t *testing.T) {
	code, _, stderr := runCLI(t, append([]string{"--debug"}, linuxArgs...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "signals:")
	assert.Contains(t, stderr, "key:")
	assert.Contains(t, stderr, "x86_64")
}

func TestVerbose(t *testing.T) {
	code, _, stderr := runCLI(t, append([]string{"-v"}, linuxArgs...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "command=")
	assert.NotContains(t, stderr, "info: implementation strategy")
}

func TestProbe(t *testing.T) {
	code, stdout, _ := runCLI(t, "probe")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "processor:")

	code, stdout, _ = runCLI(t, "probe", "--format", "json")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, `"signals"`)
	assert.Contains(t, stdout, `"features"`)
}

func TestTables(t *testing.T) {
	code, stdout, _ := runCLI(t, "tables")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "library(")
	assert.Contains(t, stdout, `name = "TBB"`)

	// Printed tables load back.
	path := filepath.Join(t.TempDir(), "tables.bzl")
	require.NoError(t, os.WriteFile(path, []byte(stdout), 0o644))
	code, again, stderr := runCLI(t, "tables", "--tables", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, stdout, again)
}
