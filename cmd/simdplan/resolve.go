package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"

	gosimdplan "github.com/albertocavalcante/go-simdplan"
	"github.com/albertocavalcante/go-simdplan/config"
	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// resolveFlags are the inputs shared by resolve and verify.
type resolveFlags struct {
	configPath string
	tablesPath string

	host            bool
	arch            []string
	compilerArch    string
	processor       string
	system          string
	compiler        string
	frontendVariant string
	pointerWidth    int
	androidABI      string
	simdType        string
	useNEON         bool
	flagOverrides   map[string]string
	useTBB          bool
	fetchTBB        bool
	tbbPrefixes     []string
	stdlib          string
	verbose         bool
	debug           bool
	fs              *pflag.FlagSet
}

func (f *resolveFlags) register(fs *pflag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.configPath, "config", "", "project config file (default: $"+config.EnvVar+")")
	fs.StringVar(&f.tablesPath, "tables", "", "platform tables file (default: built-in)")
	fs.BoolVar(&f.host, "host", false, "start from the host platform signals")
	fs.StringSliceVar(&f.arch, "arch", nil, "target architectures of a multi-architecture build; first wins")
	fs.StringVar(&f.compilerArch, "compiler-arch", "", "compiler-reported target architecture (x64, X86, ARM64)")
	fs.StringVar(&f.processor, "processor", "", "OS-reported processor (x86_64, aarch64, ...)")
	fs.StringVar(&f.system, "system", "", "target system name (Linux, Windows, Darwin, ...)")
	fs.StringVar(&f.compiler, "compiler", "", "compiler ID (GNU, Clang, AppleClang, MSVC)")
	fs.StringVar(&f.frontendVariant, "frontend-variant", "", "compiler frontend variant (GNU, MSVC)")
	fs.IntVar(&f.pointerWidth, "pointer-width", 0, "pointer width in bits (32 or 64)")
	fs.StringVar(&f.androidABI, "android-abi", "", "Android NDK ABI (armeabi-v7a, arm64-v8a, ...)")
	fs.StringVar(&f.simdType, "simd-type", "", "force the strategy ("+joinTags()+")")
	fs.BoolVar(&f.useNEON, "use-neon", false, "use NEON intrinsics on non-ARMv8 targets")
	fs.StringToStringVar(&f.flagOverrides, "flag", nil, "override a capability flag, CAP=FLAGS; empty FLAGS removes it")
	fs.BoolVar(&f.useTBB, "use-tbb", false, "request the optional TBB backend")
	fs.BoolVar(&f.fetchTBB, "fetch-tbb", false, "request a TBB fetch when no installation is found")
	fs.StringSliceVar(&f.tbbPrefixes, "tbb-prefix", nil, "installation prefix searched for TBB (repeatable)")
	fs.StringVar(&f.stdlib, "stdlib", "", "C++ standard library (libc++, libstdc++)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug output to stderr")
	fs.BoolVar(&f.debug, "debug", false, "dump the normalized platform key to stderr")
}

func joinTags() string {
	return strings.Join(variant.TagNames(), ", ")
}

// loadConfig reads the project config and applies every changed flag.
func (f *resolveFlags) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	path := f.configPath
	if path == "" {
		path = os.Getenv(config.EnvVar)
	}
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	s := &cfg.Platform.Signals
	changed := f.fs.Changed
	if changed("host") {
		host := f.host
		cfg.Platform.Host = &host
	}
	if changed("arch") {
		s.TargetArchitectures = f.arch
	}
	setString(changed("compiler-arch"), &s.CompilerArchitectureID, f.compilerArch)
	setString(changed("processor"), &s.SystemProcessor, f.processor)
	setString(changed("system"), &s.SystemName, f.system)
	setString(changed("compiler"), &s.CompilerID, f.compiler)
	setString(changed("frontend-variant"), &s.CompilerFrontendVariant, f.frontendVariant)
	setString(changed("android-abi"), &s.AndroidABI, f.androidABI)
	if changed("pointer-width") {
		s.PointerWidth = f.pointerWidth
	}

	setString(changed("simd-type"), &cfg.Overrides.Strategy, f.simdType)
	if changed("use-neon") {
		cfg.Overrides.UseNEONIntrinsics = f.useNEON
	}
	if len(f.flagOverrides) > 0 {
		if cfg.Overrides.Flags == nil {
			cfg.Overrides.Flags = make(map[string]string, len(f.flagOverrides))
		}
		for name, value := range f.flagOverrides {
			cfg.Overrides.Flags[name] = value
		}
	}

	if changed("use-tbb") {
		cfg.Backend.Enabled = f.useTBB
	}
	if changed("fetch-tbb") {
		cfg.Backend.AllowFetch = f.fetchTBB
		if f.fetchTBB {
			cfg.Backend.Enabled = true
		}
	}
	cfg.Backend.Prefixes = append(cfg.Backend.Prefixes, f.tbbPrefixes...)
	setString(changed("stdlib"), &cfg.Backend.Stdlib, f.stdlib)
	setString(changed("tables"), &cfg.Tables.Path, f.tablesPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setString(changed bool, dst *string, value string) {
	if changed {
		*dst = value
	}
}

// configure runs a resolution from the flags.
func (f *resolveFlags) configure(ctx context.Context, env *environment) (*gosimdplan.Result, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, usageErrorf("%w", err)
	}

	var opts []gosimdplan.Option
	if f.verbose {
		logger := slog.New(slog.NewTextHandler(env.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, gosimdplan.WithLogger(logger.With("command", f.fs.Name())))
	}

	result, err := gosimdplan.ConfigureWith(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if !f.verbose {
		for _, line := range result.Diagnostics {
			env.style.line(line)
		}
	}
	if f.debug {
		dumpKey(env.stderr, result.Key, cfg.Signals())
	}
	return result, nil
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func dumpKey(w io.Writer, key platform.Key, signals platform.Signals) {
	fmt.Fprintln(w, "signals:")
	dumpConfig.Fdump(w, signals)
	fmt.Fprintln(w, "key:")
	dumpConfig.Fdump(w, key)
}

func runResolve(ctx context.Context, args []string, env *environment) error {
	fs := newFlagSet("resolve", env)
	var flags resolveFlags
	flags.register(fs)
	format := fs.String("format", "text", "output format: text, json or cbor")
	output := fs.StringP("output", "o", "", "write the plan to this file instead of stdout")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErrorf("unexpected argument: %s", fs.Arg(0))
	}
	if err := checkFormat(*format, "text", "json", "cbor"); err != nil {
		return err
	}

	result, err := flags.configure(ctx, env)
	if err != nil {
		return err
	}

	return writeOutput(*output, env.stdout, func(w io.Writer) error {
		switch *format {
		case "text":
			return result.WriteSummary(w)
		default:
			file, err := result.PlanFile()
			if err != nil {
				return err
			}
			if *format == "cbor" {
				data, err := file.EncodeCBOR()
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}
			_, err = file.WriteTo(w)
			return err
		}
	})
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return usageErrorf("unknown format %q", format)
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return usageErrorf("%w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return usageErrorf("%w", err)
	}
	return nil
}
