package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-simdplan/internal/version"
)

// ErrNotFound is returned by a Lookup when the package is absent or older
// than the requested minimum.
var ErrNotFound = errors.New("package not found")

// NotFoundError describes a failed lookup. It matches ErrNotFound.
type NotFoundError struct {
	Name       string
	MinVersion string
	// Found is the version that was located but rejected as too old.
	Found string
	// Where names the searched location, if any.
	Where string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString(e.Name)
	if e.MinVersion != "" {
		b.WriteString(" >= " + e.MinVersion)
	}
	if e.Found != "" {
		fmt.Fprintf(&b, ": found version %s is too old", e.Found)
	} else {
		b.WriteString(": not found")
	}
	if e.Where != "" {
		b.WriteString(" in " + e.Where)
	}
	return b.String()
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Package is a located dependency.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Target is the link target the package provides ("TBB::tbb"). Empty
	// means the negotiator uses the default target from its Spec.
	Target string `json:"target,omitempty"`
	// Prefix is the installation prefix the package was found under.
	Prefix string `json:"prefix,omitempty"`
	// Libs are the linker arguments from the package description.
	Libs []string `json:"libs,omitempty"`
}

// Lookup locates system dependencies. Find returns ErrNotFound (possibly
// wrapped) when no package satisfying minVersion exists.
type Lookup interface {
	Find(ctx context.Context, name, minVersion string) (Package, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, name, minVersion string) (Package, error)

// Find calls f.
func (f LookupFunc) Find(ctx context.Context, name, minVersion string) (Package, error) {
	return f(ctx, name, minVersion)
}

// IsNotFound reports whether err means the package is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StaticLookup serves packages from memory, keyed by name.
type StaticLookup map[string]Package

// Find returns the package registered under name if its version satisfies
// minVersion.
func (s StaticLookup) Find(ctx context.Context, name, minVersion string) (Package, error) {
	if err := ctx.Err(); err != nil {
		return Package{}, err
	}
	pkg, ok := s[name]
	if !ok {
		return Package{}, &NotFoundError{Name: name, MinVersion: minVersion}
	}
	if !version.AtLeast(pkg.Version, minVersion) {
		return Package{}, &NotFoundError{Name: name, MinVersion: minVersion, Found: pkg.Version}
	}
	if pkg.Name == "" {
		pkg.Name = name
	}
	return pkg, nil
}

// ChainLookup tries lookups in order. The first hit wins. Any error other
// than context cancellation falls through to the next lookup.
type ChainLookup []Lookup

// Find queries each lookup in turn.
func (c ChainLookup) Find(ctx context.Context, name, minVersion string) (Package, error) {
	var failures []error
	for _, l := range c {
		pkg, err := l.Find(ctx, name, minVersion)
		if err == nil {
			return pkg, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Package{}, ctxErr
		}
		failures = append(failures, err)
	}

	if len(failures) == 0 {
		return Package{}, &NotFoundError{Name: name, MinVersion: minVersion}
	}
	// Prefer reporting a real failure over a plain miss.
	for _, err := range failures {
		if !IsNotFound(err) {
			return Package{}, fmt.Errorf("lookup %s: %w", name, errors.Join(failures...))
		}
	}
	if len(failures) == 1 {
		return Package{}, failures[0]
	}
	return Package{}, fmt.Errorf("%s not found in any of %d locations: %w", name, len(failures), errors.Join(failures...))
}

var (
	_ Lookup = StaticLookup(nil)
	_ Lookup = ChainLookup(nil)
	_ Lookup = LookupFunc(nil)
)
