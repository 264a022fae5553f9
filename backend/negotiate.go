// Package backend negotiates the optional parallel-execution backend of the
// accelerated library (oneTBB in the default tables).
//
// Negotiation never fails for an unavailable backend: a missing or too-old
// package degrades to a disabled decision with one warning, or to a fetch
// request when fetching is allowed. Only context cancellation is returned as
// an error.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-simdplan/internal/diag"
	"github.com/albertocavalcante/go-simdplan/internal/version"
	"github.com/albertocavalcante/go-simdplan/platform"
)

// Status is the outcome of a negotiation.
type Status int

const (
	// Disabled means the backend is not linked.
	Disabled Status = iota
	// Linked means the backend was located and is linked.
	Linked
	// FetchRequested defers resolution to an external fetch step whose
	// result re-enters through AfterFetch.
	FetchRequested
)

func (s Status) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Linked:
		return "linked"
	case FetchRequested:
		return "fetch-requested"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{Disabled, Linked, FetchRequested} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown backend status %q", text)
}

// StdlibHint maps a C++ standard library implementation to the library name
// linked by consumers of the package description.
type StdlibHint struct {
	// Name is the implementation ("libc++", "libstdc++").
	Name string
	// Link is the link-library name ("c++", "stdc++").
	Link string
	// Default marks the hint used when the implementation is not known.
	Default bool
}

// OptionSet is a list of compile options for one frontend.
type OptionSet struct {
	Frontend platform.Frontend
	Options  []string
}

// Spec describes the backend dependency and what linking it adds.
type Spec struct {
	// Name is the package name passed to the lookup ("TBB").
	Name string
	// MinVersion is the pinned minimum version.
	MinVersion string
	// Target is the default link target ("TBB::tbb").
	Target string
	// Sources are the backend's private translation units.
	Sources []string
	// Definitions are added to the library when the backend is linked.
	Definitions []string
	// CXXStandard is the C++ standard the backend sources require.
	CXXStandard int
	// PrivateOptions restrict the language features of Sources per
	// frontend. They never apply to the library's public sources.
	PrivateOptions []OptionSet
	Stdlibs        []StdlibHint
	// PkgConfigName is the name written to the package description's
	// Requires field ("tbb").
	PkgConfigName string
}

// Validate checks that the spec can produce a linked decision.
func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("backend name is required")
	}
	if s.Target == "" {
		return fmt.Errorf("backend %s: link target is required", s.Name)
	}
	defaults := 0
	for _, h := range s.Stdlibs {
		if h.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("backend %s: %d default stdlib hints, want at most one", s.Name, defaults)
	}
	return nil
}

// Request is the caller's backend request.
type Request struct {
	Requested  bool `json:"requested"`
	AllowFetch bool `json:"allow_fetch,omitempty"`
}

// Env describes the consuming toolchain.
type Env struct {
	Frontend platform.Frontend
	// Stdlib is the active C++ standard library implementation, if known.
	Stdlib string
}

// ExtraSource is a backend source with its private compile options.
type ExtraSource struct {
	File    string   `json:"file" cbor:"file"`
	Options []string `json:"options,omitempty" cbor:"options,omitempty"`
}

// Decision is the outcome of a negotiation.
type Decision struct {
	Status  Status `json:"status" cbor:"status"`
	Enabled bool   `json:"enabled" cbor:"enabled"`
	// Package is the backend name as requested.
	Package         string        `json:"package,omitempty" cbor:"package,omitempty"`
	LinkTarget      string        `json:"link_target,omitempty" cbor:"link_target,omitempty"`
	ResolvedVersion string        `json:"resolved_version,omitempty" cbor:"resolved_version,omitempty"`
	ExtraSources    []ExtraSource `json:"extra_sources,omitempty" cbor:"extra_sources,omitempty"`
	// ExtraDefinitions are sorted.
	ExtraDefinitions []string `json:"extra_definitions,omitempty" cbor:"extra_definitions,omitempty"`
	StdlibLinkHint   string   `json:"stdlib_link_hint,omitempty" cbor:"stdlib_link_hint,omitempty"`
	CXXStandard      int      `json:"cxx_standard,omitempty" cbor:"cxx_standard,omitempty"`
	Libs             []string `json:"libs,omitempty" cbor:"libs,omitempty"`
	Warnings         []string `json:"warnings,omitempty" cbor:"warnings,omitempty"`
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithDiagnostics sends diagnostic lines to sink.
func WithDiagnostics(sink diag.Sink) Option {
	return func(n *Negotiator) {
		if sink != nil {
			n.sink = sink
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(n *Negotiator) {
		if l != nil {
			n.logger = l
		}
	}
}

// Negotiator decides whether the backend is linked.
type Negotiator struct {
	spec   Spec
	lookup Lookup
	sink   diag.Sink
	logger *slog.Logger
}

// NewNegotiator returns a negotiator for spec that queries lookup.
func NewNegotiator(spec Spec, lookup Lookup, opts ...Option) (*Negotiator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if lookup == nil {
		return nil, errors.New("backend lookup is required")
	}
	n := &Negotiator{
		spec:   spec,
		lookup: lookup,
		sink:   diag.Discard,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Spec returns the backend description.
func (n *Negotiator) Spec() Spec {
	return n.spec
}

// Negotiate resolves req. When req.Requested is false the lookup is not
// consulted and nothing is emitted.
func (n *Negotiator) Negotiate(ctx context.Context, req Request, env Env) (Decision, error) {
	if !req.Requested {
		return Decision{Status: Disabled}, nil
	}

	n.logger.DebugContext(ctx, "looking up backend", "name", n.spec.Name, "min_version", n.spec.MinVersion)
	pkg, err := n.lookup.Find(ctx, n.spec.Name, n.spec.MinVersion)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Decision{}, ctxErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Decision{}, err
		}
		return n.unavailable(req, err), nil
	}
	return n.linked(pkg, env), nil
}

// AfterFetch completes a FetchRequested decision: the fetched package is
// treated as a lookup hit. A fetched package that reports a version below
// the minimum is rejected.
func (n *Negotiator) AfterFetch(pkg Package, env Env) (Decision, error) {
	if pkg.Version != "" && !version.AtLeast(pkg.Version, n.spec.MinVersion) {
		return Decision{}, fmt.Errorf("fetched backend: %w", &NotFoundError{
			Name:       n.spec.Name,
			MinVersion: n.spec.MinVersion,
			Found:      pkg.Version,
		})
	}
	n.logger.Debug("using fetched backend", "name", n.spec.Name, "version", pkg.Version)
	return n.linked(pkg, env), nil
}

func (n *Negotiator) unavailable(req Request, cause error) Decision {
	if req.AllowFetch {
		n.sink.Emit(diag.Infof("%s not available (%v); requesting fetch", n.describe(), cause))
		return Decision{Status: FetchRequested, Package: n.spec.Name}
	}
	warning := fmt.Sprintf("%s not available, building without it: %v", n.describe(), cause)
	n.sink.Emit(diag.Line{Level: diag.Warn, Text: warning})
	return Decision{Status: Disabled, Package: n.spec.Name, Warnings: []string{warning}}
}

func (n *Negotiator) describe() string {
	if n.spec.MinVersion == "" {
		return n.spec.Name
	}
	return n.spec.Name + " >= " + n.spec.MinVersion
}

func (n *Negotiator) linked(pkg Package, env Env) Decision {
	target := pkg.Target
	if target == "" {
		target = n.spec.Target
	}

	options := n.privateOptions(env.Frontend)
	sources := make([]ExtraSource, len(n.spec.Sources))
	for i, f := range n.spec.Sources {
		sources[i] = ExtraSource{File: f, Options: slices.Clone(options)}
	}

	defs := slices.Clone(n.spec.Definitions)
	slices.Sort(defs)
	defs = slices.Compact(defs)

	return Decision{
		Status:           Linked,
		Enabled:          true,
		Package:          n.spec.Name,
		LinkTarget:       target,
		ResolvedVersion:  pkg.Version,
		ExtraSources:     sources,
		ExtraDefinitions: defs,
		StdlibLinkHint:   n.stdlibHint(env),
		CXXStandard:      n.spec.CXXStandard,
		Libs:             slices.Clone(pkg.Libs),
	}
}

func (n *Negotiator) privateOptions(frontend platform.Frontend) []string {
	for _, set := range n.spec.PrivateOptions {
		if set.Frontend == frontend {
			return set.Options
		}
	}
	return nil
}

// stdlibHint picks the link-library name for the active C++ standard
// library. MSVC links its runtime implicitly and gets no hint.
func (n *Negotiator) stdlibHint(env Env) string {
	if env.Frontend == platform.FrontendMSVC {
		return ""
	}
	fallback := ""
	for _, h := range n.spec.Stdlibs {
		if h.Name == env.Stdlib {
			return h.Link
		}
		if h.Default {
			fallback = h.Link
		}
	}
	return fallback
}
