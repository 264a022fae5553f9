package gosimdplan

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/internal/diag"
	"github.com/albertocavalcante/go-simdplan/planfile"
	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/strategy"
)

// Input is everything a configuration run reads.
type Input struct {
	// Signals are the raw platform facts.
	Signals platform.Signals `json:"signals"`

	// Overrides are developer cache values: a forced strategy, NEON
	// intrinsics on non-ARMv8 targets, per-capability flags.
	Overrides strategy.Overrides `json:"overrides"`

	// Backend requests the optional parallel backend.
	Backend backend.Request `json:"backend"`

	// Stdlib names the active C++ standard library ("libc++",
	// "libstdc++"). Empty means unknown.
	Stdlib string `json:"stdlib,omitempty"`
}

// Result is the outcome of a successful configuration run.
type Result struct {
	// Key is the normalized platform.
	Key platform.Key

	// Plan is the strategy, sources and definitions to build.
	Plan *strategy.Plan

	// Backend is the optional backend decision.
	Backend backend.Decision

	// Diagnostics are the info and warning lines emitted, in order.
	Diagnostics []diag.Line

	negotiator *backend.Negotiator
	env        backend.Env
}

// ErrNoFetchPending is returned by CompleteFetch when the backend decision
// does not request a fetch.
var ErrNoFetchPending = errors.New("backend fetch was not requested")

// CompleteFetch records a fetched backend package, turning a FetchRequested
// decision into a Linked one.
func (r *Result) CompleteFetch(pkg backend.Package) error {
	if r.Backend.Status != backend.FetchRequested || r.negotiator == nil {
		return ErrNoFetchPending
	}
	decision, err := r.negotiator.AfterFetch(pkg, r.env)
	if err != nil {
		return err
	}
	r.Backend = decision
	return nil
}

// Packages returns the package-description data for the backend decision.
func (r *Result) Packages() backend.PackageInfo {
	if r.negotiator == nil {
		return backend.PackageInfo{}
	}
	return r.negotiator.Packages(r.Backend)
}

// Warnings returns the text of every warning diagnostic.
func (r *Result) Warnings() []string {
	var out []string
	for _, line := range r.Diagnostics {
		if line.Level == diag.Warn {
			out = append(out, line.Text)
		}
	}
	return out
}

// PlanFile returns the result as a fingerprinted plan file.
func (r *Result) PlanFile() (*planfile.File, error) {
	return planfile.New(r.Key, r.Plan, r.Backend)
}

// Fingerprint returns the BLAKE3 fingerprint of the result.
func (r *Result) Fingerprint() (planfile.Hash, error) {
	return planfile.Fingerprint(r.Key, r.Plan, r.Backend)
}

// WriteSummary writes a human-readable description of the result.
func (r *Result) WriteSummary(w io.Writer) error {
	return WriteSummary(w, r.Key.Snapshot(), r.Plan, r.Backend)
}

// WriteSummary writes a human-readable description of a resolution.
func WriteSummary(w io.Writer, key platform.Snapshot, plan *strategy.Plan, d backend.Decision) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "platform:\t%s/%d-bit %s %s\n", key.Arch, key.PointerWidth, key.Frontend, key.OS)
	fmt.Fprintf(tw, "strategy:\t%s (rule %s)\n", plan.Strategy, plan.Rule)
	if plan.Assembler != strategy.AssemblerNone {
		fmt.Fprintf(tw, "assembler:\t%s\n", plan.Assembler)
	}
	fmt.Fprintf(tw, "sources:\n")
	for _, f := range plan.Sources {
		if len(f.Flags) == 0 {
			fmt.Fprintf(tw, "  %s\n", f.File)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", f.File, strings.Join(f.Flags, " "))
	}
	fmt.Fprintf(tw, "definitions:\t%s\n", strings.Join(plan.Definitions, " "))
	if len(plan.CompileOptions) > 0 {
		fmt.Fprintf(tw, "options:\t%s\n", strings.Join(plan.CompileOptions, " "))
	}

	switch d.Status {
	case backend.Linked:
		fmt.Fprintf(tw, "backend:\t%s %s linked as %s\n", d.Package, d.ResolvedVersion, d.LinkTarget)
		for _, src := range d.ExtraSources {
			fmt.Fprintf(tw, "  %s\t%s\n", src.File, strings.Join(src.Options, " "))
		}
		if len(d.ExtraDefinitions) > 0 {
			fmt.Fprintf(tw, "  definitions\t%s\n", strings.Join(d.ExtraDefinitions, " "))
		}
		if d.CXXStandard != 0 {
			fmt.Fprintf(tw, "  c++ standard\t%d\n", d.CXXStandard)
		}
		if d.StdlibLinkHint != "" {
			fmt.Fprintf(tw, "  stdlib\t%s\n", d.StdlibLinkHint)
		}
	case backend.FetchRequested:
		fmt.Fprintf(tw, "backend:\t%s fetch requested\n", d.Package)
	default:
		fmt.Fprintf(tw, "backend:\t%s\n", d.Status)
	}

	return tw.Flush()
}
