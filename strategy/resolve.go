package strategy

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// DefaultDefinePrefix prefixes every definition a plan emits.
const DefaultDefinePrefix = "BLAKE3_"

// Catalog holds the known-good source and option tables a Resolver assembles
// plans from.
type Catalog struct {
	// DefinePrefix is prepended to USE_NEON and NO_* definitions.
	DefinePrefix string
	// Portable sources are compiled by every plan, first.
	Portable       []string
	Sources        SourceTable
	CompileOptions []OptionRule
}

// ErrNoPortableSources is returned by NewResolver for a catalog that could
// produce a plan compiling nothing.
var ErrNoPortableSources = errors.New("catalog has no portable sources")

// Resolver selects a strategy and assembles its plan. A Resolver is
// immutable and safe for concurrent use.
type Resolver struct {
	catalog Catalog
	rules   []Rule
}

// NewResolver returns a resolver over catalog. With no rules, DefaultRules
// is used.
func NewResolver(catalog Catalog, rules ...Rule) (*Resolver, error) {
	if len(catalog.Portable) == 0 {
		return nil, ErrNoPortableSources
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	for i, r := range rules {
		if r.Name == "" || r.Match == nil {
			return nil, fmt.Errorf("rule %d: name and match function are required", i)
		}
	}
	return &Resolver{catalog: catalog, rules: rules}, nil
}

// Rules returns the rule names in evaluation order.
func (r *Resolver) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Resolve decides the strategy for key and assembles its plan. Flag
// overrides in overrides are applied to flags before any rule runs.
//
// Errors are *FatalError values (matching ErrNoAssemblySources,
// ErrNoSourceManifest, ErrMissingFlags or ErrUnknownStrategy) or a malformed
// override. No plan is returned with an error.
func (r *Resolver) Resolve(key platform.Key, flags FlagSet, overrides Overrides) (*Plan, error) {
	flagOverrides, err := overrides.CapabilityFlags()
	if err != nil {
		return nil, err
	}
	in := Input{Key: key, Flags: flags.With(flagOverrides), Overrides: overrides}

	tag, rule, err := r.decide(in)
	if err != nil {
		return nil, err
	}
	return r.assemble(in, tag, rule)
}

// Decide runs the rules only and reports the selected strategy and the name
// of the rule that chose it.
func (r *Resolver) Decide(key platform.Key, flags FlagSet, overrides Overrides) (variant.Tag, string, error) {
	flagOverrides, err := overrides.CapabilityFlags()
	if err != nil {
		return variant.None, "", err
	}
	return r.decide(Input{Key: key, Flags: flags.With(flagOverrides), Overrides: overrides})
}

func (r *Resolver) decide(in Input) (variant.Tag, string, error) {
	for _, rule := range r.rules {
		tag, ok, err := rule.Match(in)
		if err != nil {
			return variant.None, rule.Name, err
		}
		if ok {
			return tag, rule.Name, nil
		}
	}
	// A custom rule list without a catch-all still never fails for lack of
	// acceleration.
	return variant.None, RulePortable, nil
}

func (r *Resolver) assemble(in Input, tag variant.Tag, rule string) (*Plan, error) {
	key := in.Key
	fatal := func(err error) *FatalError {
		return &FatalError{Err: err, Strategy: tag, Rule: rule, OS: key.OS(), Frontend: key.Frontend()}
	}

	if !tag.Valid() {
		return nil, fatal(ErrUnknownStrategy)
	}

	plan := &Plan{Strategy: tag, Rule: rule}
	for _, f := range r.catalog.Portable {
		plan.Sources = append(plan.Sources, SourceFile{File: f})
	}

	switch tag {
	case variant.AMD64ASM:
		entry, ok := r.catalog.Sources.Lookup(tag, key.OS(), key.Frontend())
		if !ok || len(entry.Files) == 0 {
			return nil, fatal(ErrNoAssemblySources)
		}
		plan.Sources = append(plan.Sources, r.files(entry, in.Flags)...)
		plan.Assembler = entry.Assembler
		if plan.Assembler == AssemblerNone {
			plan.Assembler = assemblerFor(key.Frontend())
		}

	case variant.X86Intrinsics:
		if missing := in.Flags.Missing(variant.X86Capabilities()...); len(missing) > 0 {
			err := fatal(ErrMissingFlags)
			err.Missing = missing
			return nil, err
		}
		fallthrough

	case variant.NEONIntrinsics:
		entry, ok := r.catalog.Sources.Lookup(tag, key.OS(), key.Frontend())
		if !ok || len(entry.Files) == 0 {
			return nil, fatal(ErrNoSourceManifest)
		}
		plan.Sources = append(plan.Sources, r.files(entry, in.Flags)...)
	}

	plan.Definitions = sortedSet(r.definitions(tag))

	var options []string
	for _, rule := range r.catalog.CompileOptions {
		if rule.matches(tag, key.Frontend()) {
			options = append(options, rule.Options...)
		}
	}
	if len(options) > 0 {
		plan.CompileOptions = sortedSet(options)
	}
	return plan, nil
}

// files expands a table entry, giving each file only the flags of its own
// capability tier.
func (r *Resolver) files(entry SourceEntry, flags FlagSet) Manifest {
	out := make(Manifest, 0, len(entry.Files))
	for _, spec := range entry.Files {
		f := SourceFile{File: spec.File, Capability: spec.Capability}
		if spec.Capability != variant.NoCapability {
			f.Flags = flags.Fields(spec.Capability)
		}
		out = append(out, f)
	}
	return out
}

func (r *Resolver) definitions(tag variant.Tag) []string {
	prefix := r.catalog.DefinePrefix
	if tag == variant.NEONIntrinsics {
		return []string{prefix + "USE_NEON=1"}
	}
	defs := []string{prefix + "USE_NEON=0"}
	if tag == variant.None {
		for _, c := range variant.X86Capabilities() {
			defs = append(defs, prefix+c.NegativeDefinition())
		}
	}
	return defs
}
