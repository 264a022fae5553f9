package strategy

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// Assembler is the assembler dialect required by assembly sources.
type Assembler string

const (
	// AssemblerNone means the plan compiles no assembly.
	AssemblerNone Assembler = ""
	// AssemblerMASM is the Microsoft macro assembler (.asm).
	AssemblerMASM Assembler = "MASM"
	// AssemblerGAS is the GNU assembler through the C driver (.S).
	AssemblerGAS Assembler = "GAS"
)

// ParseAssembler parses a dialect name, case-sensitively.
func ParseAssembler(s string) (Assembler, error) {
	switch Assembler(s) {
	case AssemblerNone, AssemblerMASM, AssemblerGAS:
		return Assembler(s), nil
	}
	return AssemblerNone, fmt.Errorf("unknown assembler %q (known: MASM, GAS)", s)
}

func assemblerFor(frontend platform.Frontend) Assembler {
	if frontend == platform.FrontendMSVC {
		return AssemblerMASM
	}
	return AssemblerGAS
}

// Plan is the outcome of a resolution: the strategy, the sources to compile
// with their per-file flags, and the library-wide definitions and options.
// Plans are produced once and never modified.
type Plan struct {
	Strategy variant.Tag `json:"strategy" cbor:"strategy"`
	// Rule is the name of the decision rule that selected Strategy.
	Rule    string   `json:"rule" cbor:"rule"`
	Sources Manifest `json:"sources" cbor:"sources"`
	// Definitions and CompileOptions are sorted and free of duplicates.
	Definitions    []string  `json:"definitions" cbor:"definitions"`
	CompileOptions []string  `json:"compile_options,omitempty" cbor:"compile_options,omitempty"`
	Assembler      Assembler `json:"assembler,omitempty" cbor:"assembler,omitempty"`
}

// Files returns the source file names in compile order.
func (p *Plan) Files() []string {
	return p.Sources.Files()
}

// HasDefinition reports whether def is one of the plan's definitions.
func (p *Plan) HasDefinition(def string) bool {
	_, found := slices.BinarySearch(p.Definitions, def)
	return found
}

// OptionRule adds library-wide compile options on matching compilers.
type OptionRule struct {
	// Frontend restricts the rule. Empty matches any frontend.
	Frontend []platform.Frontend
	// Strategy restricts the rule. Empty matches any strategy.
	Strategy []variant.Tag
	Options  []string
}

func (r OptionRule) matches(tag variant.Tag, frontend platform.Frontend) bool {
	if len(r.Frontend) > 0 && !slices.Contains(r.Frontend, frontend) {
		return false
	}
	return len(r.Strategy) == 0 || slices.Contains(r.Strategy, tag)
}

// sortedSet sorts and deduplicates values into a new slice.
func sortedSet(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}
