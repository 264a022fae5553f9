// Package buildutil provides typed attribute access for buildtools AST call
// expressions, as used by the tables file parser.
//
// Every accessor distinguishes three outcomes: the attribute is absent
// (ok == false), present with the expected type, or present with the wrong
// type (a *TypeError).
package buildutil

import (
	"fmt"
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// TypeError reports an attribute whose value has the wrong type.
type TypeError struct {
	Attr string
	Want string
	Got  build.Expr
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("attribute %q: want %s, got %s", e.Attr, e.Want, exprKind(e.Got))
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Lookup returns the value of the named keyword argument.
func Lookup(call *build.CallExpr, name string) (build.Expr, bool) {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS, true
		}
	}
	return nil, false
}

// AttrNames returns the keyword argument names in call order.
func AttrNames(call *build.CallExpr) []string {
	var names []string
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok {
			names = append(names, lhs.Name)
		}
	}
	return names
}

// Positional returns the arguments that are not keyword arguments.
func Positional(call *build.CallExpr) []build.Expr {
	var args []build.Expr
	for _, arg := range call.List {
		if _, ok := arg.(*build.AssignExpr); ok {
			continue
		}
		args = append(args, arg)
	}
	return args
}

// String returns a string attribute.
func String(call *build.CallExpr, name string) (string, bool, error) {
	expr, ok := Lookup(call, name)
	if !ok {
		return "", false, nil
	}
	str, ok := expr.(*build.StringExpr)
	if !ok {
		return "", true, &TypeError{Attr: name, Want: "string", Got: expr}
	}
	return str.Value, true, nil
}

// Int returns a non-negative integer attribute.
func Int(call *build.CallExpr, name string) (int, bool, error) {
	expr, ok := Lookup(call, name)
	if !ok {
		return 0, false, nil
	}
	lit, ok := expr.(*build.LiteralExpr)
	if !ok {
		return 0, true, &TypeError{Attr: name, Want: "integer", Got: expr}
	}
	val, err := strconv.Atoi(lit.Token)
	if err != nil {
		return 0, true, &TypeError{Attr: name, Want: "integer", Got: expr}
	}
	return val, true, nil
}

// Bool returns a True/False attribute.
func Bool(call *build.CallExpr, name string) (bool, bool, error) {
	expr, ok := Lookup(call, name)
	if !ok {
		return false, false, nil
	}
	if ident, ok := expr.(*build.Ident); ok {
		switch ident.Name {
		case "True":
			return true, true, nil
		case "False":
			return false, true, nil
		}
	}
	return false, true, &TypeError{Attr: name, Want: "True or False", Got: expr}
}

// StringList returns a list-of-strings attribute. Every element must be a
// string literal.
func StringList(call *build.CallExpr, name string) ([]string, bool, error) {
	expr, ok := Lookup(call, name)
	if !ok {
		return nil, false, nil
	}
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, true, &TypeError{Attr: name, Want: "list of strings", Got: expr}
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		str, ok := elem.(*build.StringExpr)
		if !ok {
			return nil, true, &TypeError{Attr: name, Want: "list of strings", Got: elem}
		}
		result = append(result, str.Value)
	}
	return result, true, nil
}

// Strings returns an attribute written either as one string or as a list of
// strings. A single string yields a one-element slice.
func Strings(call *build.CallExpr, name string) ([]string, bool, error) {
	expr, ok := Lookup(call, name)
	if !ok {
		return nil, false, nil
	}
	if str, ok := expr.(*build.StringExpr); ok {
		return []string{str.Value}, true, nil
	}
	list, ok, err := StringList(call, name)
	if err != nil {
		err.(*TypeError).Want = "string or list of strings"
	}
	return list, ok, err
}

func exprKind(expr build.Expr) string {
	switch e := expr.(type) {
	case *build.StringExpr:
		return "string"
	case *build.LiteralExpr:
		return "literal " + e.Token
	case *build.Ident:
		return "identifier " + e.Name
	case *build.ListExpr:
		return "list"
	case *build.DictExpr:
		return "dict"
	case *build.UnaryExpr:
		return "expression " + e.Op
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("%T", expr)
	}
}
