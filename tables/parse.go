package tables

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/internal/buildutil"
	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/strategy"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// Position is a location in a tables file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return p.Filename
}

// ParseError is a problem in a tables file.
type ParseError struct {
	Pos     Position
	Message string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
	}
	if e.Pos.Filename != "" {
		return e.Pos.Filename + ": " + e.Message
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// attrs lists the keyword arguments each statement accepts.
var attrs = map[string][]string{
	"library":         {"name", "define_prefix", "portable"},
	"flags":           append([]string{"frontend", "arch", "pointer_width"}, capabilityAttrs()...),
	"assembly":        {"os", "frontend", "assembler", "files"},
	"intrinsics":      append([]string{"strategy", "os", "frontend"}, capabilityAttrs()...),
	"compile_options": {"frontend", "strategy", "options"},
	"backend":         {"name", "min_version", "target", "sources", "definitions", "cxx_standard", "pkg_config"},
	"backend_options": {"frontend", "options"},
	"stdlib":          {"name", "link", "default"},
}

func capabilityAttrs() []string {
	var names []string
	for _, c := range variant.Capabilities() {
		names = append(names, c.AttrName())
	}
	return names
}

type parser struct {
	filename string
	tables   *Tables
	errs     []error
	sawLib   bool
}

// Parse parses tables content. All problems are reported; the returned
// error joins one *ParseError per problem.
func Parse(filename string, content []byte) (*Tables, error) {
	f, err := build.ParseBzl(filename, content)
	if err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: filename},
			Message: fmt.Sprintf("syntax error: %v", err),
			Wrapped: err,
		}
	}

	p := &parser{filename: filename, tables: &Tables{Path: filename}}
	for _, stmt := range f.Stmt {
		p.statement(stmt)
	}
	p.finish()

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return p.tables, nil
}

func (p *parser) position(expr build.Expr) Position {
	start, _ := expr.Span()
	return Position{Filename: p.filename, Line: start.Line, Column: start.LineRune}
}

func (p *parser) errorf(expr build.Expr, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Pos: p.position(expr), Message: fmt.Sprintf(format, args...)})
}

// wrap records err (typically an attribute *TypeError) at expr.
func (p *parser) wrap(expr build.Expr, fn string, err error) {
	p.errs = append(p.errs, &ParseError{
		Pos:     p.position(expr),
		Message: fmt.Sprintf("%s: %v", fn, err),
		Wrapped: err,
	})
}

func (p *parser) statement(stmt build.Expr) {
	if _, ok := stmt.(*build.CommentBlock); ok {
		return
	}
	call, ok := stmt.(*build.CallExpr)
	if !ok {
		p.errorf(stmt, "only function calls are allowed at top level")
		return
	}
	fn := buildutil.FuncName(call)
	allowed, known := attrs[fn]
	if !known {
		p.errorf(call, "unknown statement %q", fn)
		return
	}
	if len(buildutil.Positional(call)) > 0 {
		p.errorf(call, "%s: positional arguments are not allowed", fn)
		return
	}
	seen := make(map[string]bool)
	for _, name := range buildutil.AttrNames(call) {
		if !slices.Contains(allowed, name) {
			p.errorf(call, "%s: unknown attribute %q", fn, name)
			return
		}
		if seen[name] {
			p.errorf(call, "%s: duplicate attribute %q", fn, name)
			return
		}
		seen[name] = true
	}

	switch fn {
	case "library":
		p.library(call)
	case "flags":
		p.flags(call)
	case "assembly":
		p.assembly(call)
	case "intrinsics":
		p.intrinsics(call)
	case "compile_options":
		p.compileOptions(call)
	case "backend":
		p.backend(call)
	case "backend_options":
		p.backendOptions(call)
	case "stdlib":
		p.stdlib(call)
	}
}

// Attribute readers record errors and return zero values, so a statement
// keeps parsing and every problem in it is reported.

func (p *parser) str(call *build.CallExpr, name string, required bool) string {
	v, ok, err := buildutil.String(call, name)
	switch {
	case err != nil:
		p.wrap(call, buildutil.FuncName(call), err)
	case !ok && required:
		p.errorf(call, "%s: missing required attribute %q", buildutil.FuncName(call), name)
	}
	return v
}

func (p *parser) list(call *build.CallExpr, name string, required bool) []string {
	v, ok, err := buildutil.StringList(call, name)
	switch {
	case err != nil:
		p.wrap(call, buildutil.FuncName(call), err)
	case !ok && required:
		p.errorf(call, "%s: missing required attribute %q", buildutil.FuncName(call), name)
	}
	return v
}

func (p *parser) oneOrMany(call *build.CallExpr, name string) []string {
	v, _, err := buildutil.Strings(call, name)
	if err != nil {
		p.wrap(call, buildutil.FuncName(call), err)
	}
	return v
}

func (p *parser) frontends(call *build.CallExpr, required bool) []platform.Frontend {
	names := p.oneOrMany(call, "frontend")
	if len(names) == 0 && required {
		p.errorf(call, "%s: missing required attribute %q", buildutil.FuncName(call), "frontend")
	}
	var out []platform.Frontend
	for _, n := range names {
		f, err := platform.ParseFrontend(n)
		if err != nil {
			p.wrap(call, buildutil.FuncName(call), err)
			continue
		}
		out = append(out, f)
	}
	return out
}

func (p *parser) osFamilies(call *build.CallExpr) []platform.OSFamily {
	var out []platform.OSFamily
	for _, n := range p.oneOrMany(call, "os") {
		o, err := platform.ParseOSFamily(n)
		if err != nil {
			p.wrap(call, buildutil.FuncName(call), err)
			continue
		}
		out = append(out, o)
	}
	return out
}

func (p *parser) strategies(call *build.CallExpr) []variant.Tag {
	var out []variant.Tag
	for _, n := range p.oneOrMany(call, "strategy") {
		tag, err := variant.ParseTag(n)
		if err != nil {
			p.wrap(call, buildutil.FuncName(call), err)
			continue
		}
		out = append(out, tag)
	}
	return out
}

func (p *parser) library(call *build.CallExpr) {
	if p.sawLib {
		p.errorf(call, "library: declared more than once")
		return
	}
	p.sawLib = true
	p.tables.Library = p.str(call, "name", true)
	p.tables.Catalog.DefinePrefix = p.str(call, "define_prefix", false)
	p.tables.Catalog.Portable = p.list(call, "portable", true)
	if _, ok, _ := buildutil.StringList(call, "portable"); ok && len(p.tables.Catalog.Portable) == 0 {
		p.errorf(call, "library: portable sources must not be empty")
	}
}

func (p *parser) flags(call *build.CallExpr) {
	frontends := p.frontends(call, true)
	if len(frontends) > 1 {
		p.errorf(call, "flags: exactly one frontend per rule")
		return
	}

	rule := strategy.FlagRule{Flags: make(map[variant.Capability]string)}
	if len(frontends) == 1 {
		rule.Frontend = frontends[0]
	}
	for _, n := range p.oneOrMany(call, "arch") {
		var class platform.ArchClass
		if err := class.UnmarshalText([]byte(n)); err != nil {
			p.wrap(call, "flags", err)
			continue
		}
		rule.Arch = append(rule.Arch, class)
	}
	if width, ok, err := buildutil.Int(call, "pointer_width"); err != nil {
		p.wrap(call, "flags", err)
	} else if ok {
		if width != 32 && width != 64 {
			p.errorf(call, "flags: pointer_width must be 32 or 64, got %d", width)
		}
		rule.PointerWidth = width
	}
	for _, c := range variant.Capabilities() {
		if flag, ok, err := buildutil.String(call, c.AttrName()); err != nil {
			p.wrap(call, "flags", err)
		} else if ok {
			rule.Flags[c] = flag
		}
	}
	p.tables.Flags = append(p.tables.Flags, rule)
}

func (p *parser) assembly(call *build.CallExpr) {
	entry := strategy.SourceEntry{
		Strategy: variant.AMD64ASM,
		OS:       p.osFamilies(call),
		Frontend: p.frontends(call, false),
	}
	if name := p.str(call, "assembler", false); name != "" {
		asm, err := strategy.ParseAssembler(name)
		if err != nil {
			p.wrap(call, "assembly", err)
		}
		entry.Assembler = asm
	}
	for _, f := range p.list(call, "files", true) {
		entry.Files = append(entry.Files, strategy.SourceSpec{File: f})
	}
	p.tables.Catalog.Sources = append(p.tables.Catalog.Sources, entry)
}

func (p *parser) intrinsics(call *build.CallExpr) {
	tags := p.strategies(call)
	if len(tags) != 1 {
		if len(tags) == 0 {
			p.errorf(call, "intrinsics: missing required attribute %q", "strategy")
		} else {
			p.errorf(call, "intrinsics: exactly one strategy per entry")
		}
		return
	}
	if tags[0] != variant.X86Intrinsics && tags[0] != variant.NEONIntrinsics {
		p.errorf(call, "intrinsics: %s is not an intrinsics strategy", tags[0])
		return
	}

	entry := strategy.SourceEntry{
		Strategy: tags[0],
		OS:       p.osFamilies(call),
		Frontend: p.frontends(call, false),
	}
	// Files keep the order they are written in.
	for _, name := range buildutil.AttrNames(call) {
		c, err := variant.ParseCapability(name)
		if err != nil {
			continue
		}
		for _, f := range p.oneOrMany(call, name) {
			entry.Files = append(entry.Files, strategy.SourceSpec{File: f, Capability: c})
		}
	}
	if len(entry.Files) == 0 {
		p.errorf(call, "intrinsics: no source files")
	}
	p.tables.Catalog.Sources = append(p.tables.Catalog.Sources, entry)
}

func (p *parser) compileOptions(call *build.CallExpr) {
	p.tables.Catalog.CompileOptions = append(p.tables.Catalog.CompileOptions, strategy.OptionRule{
		Frontend: p.frontends(call, false),
		Strategy: p.strategies(call),
		Options:  p.list(call, "options", true),
	})
}

func (p *parser) ensureBackend(call *build.CallExpr) *backend.Spec {
	if p.tables.Backend == nil {
		p.errorf(call, "%s: must follow a backend() declaration", buildutil.FuncName(call))
		return nil
	}
	return p.tables.Backend
}

func (p *parser) backend(call *build.CallExpr) {
	if p.tables.Backend != nil {
		p.errorf(call, "backend: declared more than once")
		return
	}
	spec := &backend.Spec{
		Name:          p.str(call, "name", true),
		MinVersion:    p.str(call, "min_version", false),
		Target:        p.str(call, "target", true),
		Sources:       p.list(call, "sources", false),
		Definitions:   p.list(call, "definitions", false),
		PkgConfigName: p.str(call, "pkg_config", false),
	}
	if std, _, err := buildutil.Int(call, "cxx_standard"); err != nil {
		p.wrap(call, "backend", err)
	} else {
		spec.CXXStandard = std
	}
	p.tables.Backend = spec
}

func (p *parser) backendOptions(call *build.CallExpr) {
	frontends := p.frontends(call, true)
	options := p.list(call, "options", true)
	spec := p.ensureBackend(call)
	if spec == nil {
		return
	}
	for _, f := range frontends {
		spec.PrivateOptions = append(spec.PrivateOptions, backend.OptionSet{Frontend: f, Options: options})
	}
}

func (p *parser) stdlib(call *build.CallExpr) {
	hint := backend.StdlibHint{
		Name: p.str(call, "name", true),
		Link: p.str(call, "link", true),
	}
	if def, _, err := buildutil.Bool(call, "default"); err != nil {
		p.wrap(call, "stdlib", err)
	} else {
		hint.Default = def
	}
	spec := p.ensureBackend(call)
	if spec == nil {
		return
	}
	spec.Stdlibs = append(spec.Stdlibs, hint)
}

// finish checks whole-file constraints.
func (p *parser) finish() {
	if !p.sawLib {
		p.errs = append(p.errs, &ParseError{
			Pos:     Position{Filename: p.filename},
			Message: "missing library() declaration",
		})
	}
	if b := p.tables.Backend; b != nil {
		if err := b.Validate(); err != nil && len(p.errs) == 0 {
			p.errs = append(p.errs, &ParseError{
				Pos:     Position{Filename: p.filename},
				Message: err.Error(),
				Wrapped: err,
			})
		}
	}
}
