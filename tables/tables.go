// Package tables loads the known-good flag and source tables the resolver
// and negotiator work from.
//
// Tables are written in Starlark syntax and parsed with buildtools, the same
// way MODULE.bazel files are. The embedded defaults describe BLAKE3:
//
//	library(name = "blake3", define_prefix = "BLAKE3_", portable = [...])
//	flags(frontend = "gnu", sse2 = "-msse2", ...)
//	assembly(os = "unix", frontend = "gnu", assembler = "GAS", files = [...])
//	intrinsics(strategy = "x86-intrinsics", avx2 = "blake3_avx2.c", ...)
//	compile_options(frontend = "gnu", options = [...])
//	backend(name = "TBB", min_version = "2021.11.0", target = "TBB::tbb", ...)
//	backend_options(frontend = "gnu", options = ["-fno-exceptions", "-fno-rtti"])
//	stdlib(name = "libc++", link = "c++")
package tables

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/strategy"
)

//go:embed default_tables.bzl
var defaultSource []byte

// DefaultFilename is the name reported for positions in the embedded tables.
const DefaultFilename = "default_tables.bzl"

// Tables is a parsed tables file.
type Tables struct {
	// Path is the file the tables were read from.
	Path    string
	Library string
	Catalog strategy.Catalog
	Flags   strategy.FlagTable
	// Backend is nil when the file declares no backend.
	Backend *backend.Spec
}

// Resolver returns a strategy resolver over the catalog.
func (t *Tables) Resolver(rules ...strategy.Rule) (*strategy.Resolver, error) {
	return strategy.NewResolver(t.Catalog, rules...)
}

// Load reads and parses a tables file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Default returns the embedded BLAKE3 tables. Each call returns a fresh
// value that the caller may modify.
func Default() *Tables {
	t, err := Parse(DefaultFilename, defaultSource)
	if err != nil {
		panic(fmt.Sprintf("embedded tables: %v", err))
	}
	return t
}

// DefaultSource returns the embedded tables file.
func DefaultSource() []byte {
	return append([]byte(nil), defaultSource...)
}
