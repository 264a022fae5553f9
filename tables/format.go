package tables

import (
	"slices"
	"strconv"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-simdplan/strategy"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// Format renders t as a tables file. Parsing the output yields equivalent
// tables; comments are not preserved.
func Format(t *Tables) []byte {
	f := &build.File{Path: t.Path, Type: build.TypeBzl}

	f.Stmt = append(f.Stmt, call("library",
		attr("name", str(t.Library)),
		optional(t.Catalog.DefinePrefix != "", "define_prefix", str(t.Catalog.DefinePrefix)),
		attr("portable", list(t.Catalog.Portable)),
	))

	for _, rule := range t.Flags {
		args := []build.Expr{attr("frontend", str(rule.Frontend.String()))}
		if len(rule.Arch) > 0 {
			args = append(args, attr("arch", oneOrList(names(rule.Arch))))
		}
		if rule.PointerWidth != 0 {
			args = append(args, attr("pointer_width", &build.LiteralExpr{Token: strconv.Itoa(rule.PointerWidth)}))
		}
		for _, c := range variant.Capabilities() {
			if flag, ok := rule.Flags[c]; ok {
				args = append(args, attr(c.AttrName(), str(flag)))
			}
		}
		f.Stmt = append(f.Stmt, call("flags", args...))
	}

	for _, entry := range t.Catalog.Sources {
		f.Stmt = append(f.Stmt, sourceEntry(entry))
	}

	for _, rule := range t.Catalog.CompileOptions {
		f.Stmt = append(f.Stmt, call("compile_options",
			optional(len(rule.Frontend) > 0, "frontend", oneOrList(names(rule.Frontend))),
			optional(len(rule.Strategy) > 0, "strategy", oneOrList(names(rule.Strategy))),
			attr("options", list(rule.Options)),
		))
	}

	if b := t.Backend; b != nil {
		f.Stmt = append(f.Stmt, call("backend",
			attr("name", str(b.Name)),
			optional(b.MinVersion != "", "min_version", str(b.MinVersion)),
			attr("target", str(b.Target)),
			optional(len(b.Sources) > 0, "sources", list(b.Sources)),
			optional(len(b.Definitions) > 0, "definitions", list(b.Definitions)),
			optional(b.CXXStandard != 0, "cxx_standard", &build.LiteralExpr{Token: strconv.Itoa(b.CXXStandard)}),
			optional(b.PkgConfigName != "", "pkg_config", str(b.PkgConfigName)),
		))
		for _, set := range b.PrivateOptions {
			f.Stmt = append(f.Stmt, call("backend_options",
				attr("frontend", str(set.Frontend.String())),
				attr("options", list(set.Options)),
			))
		}
		for _, h := range b.Stdlibs {
			f.Stmt = append(f.Stmt, call("stdlib",
				attr("name", str(h.Name)),
				attr("link", str(h.Link)),
				optional(h.Default, "default", &build.Ident{Name: "True"}),
			))
		}
	}

	return build.Format(f)
}

func sourceEntry(entry strategy.SourceEntry) build.Expr {
	var args []build.Expr
	if entry.Strategy != variant.AMD64ASM {
		args = append(args, attr("strategy", str(entry.Strategy.String())))
	}
	if len(entry.OS) > 0 {
		args = append(args, attr("os", oneOrList(names(entry.OS))))
	}
	if len(entry.Frontend) > 0 {
		args = append(args, attr("frontend", oneOrList(names(entry.Frontend))))
	}

	if entry.Strategy == variant.AMD64ASM {
		if entry.Assembler != strategy.AssemblerNone {
			args = append(args, attr("assembler", str(string(entry.Assembler))))
		}
		var files []string
		for _, spec := range entry.Files {
			files = append(files, spec.File)
		}
		args = append(args, attr("files", list(files)))
		return call("assembly", args...)
	}

	// Group files by capability, in order of first appearance.
	var order []variant.Capability
	byCap := make(map[variant.Capability][]string)
	for _, spec := range entry.Files {
		if _, ok := byCap[spec.Capability]; !ok {
			order = append(order, spec.Capability)
		}
		byCap[spec.Capability] = append(byCap[spec.Capability], spec.File)
	}
	for _, c := range order {
		args = append(args, attr(c.AttrName(), oneOrList(byCap[c])))
	}
	return call("intrinsics", args...)
}

func call(name string, args ...build.Expr) *build.CallExpr {
	return &build.CallExpr{
		X:              &build.Ident{Name: name},
		List:           slices.DeleteFunc(args, func(e build.Expr) bool { return e == nil }),
		ForceMultiLine: true,
	}
}

func attr(name string, value build.Expr) build.Expr {
	return &build.AssignExpr{LHS: &build.Ident{Name: name}, Op: "=", RHS: value}
}

// optional returns the attribute when cond holds and nil otherwise; call
// drops nil arguments.
func optional(cond bool, name string, value build.Expr) build.Expr {
	if !cond {
		return nil
	}
	return attr(name, value)
}

func str(s string) *build.StringExpr {
	return &build.StringExpr{Value: s}
}

func list(values []string) *build.ListExpr {
	l := &build.ListExpr{ForceMultiLine: len(values) > 1}
	for _, v := range values {
		l.List = append(l.List, str(v))
	}
	return l
}

func oneOrList(values []string) build.Expr {
	if len(values) == 1 {
		return str(values[0])
	}
	return list(values)
}

type named interface {
	~int
	String() string
}

func names[T named](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

