// Package gosimdplan decides how a multi-variant native library is built
// for a target platform.
//
// Given raw platform facts (processor, compiler identity, pointer width,
// developer overrides), Configure picks one implementation strategy of the
// library, assembles the source files with their per-file compiler flags,
// and negotiates an optional parallel backend with graceful degradation.
// The built-in tables describe BLAKE3 with an optional oneTBB backend.
//
// # Overview
//
// A run has three stages, each in its own package:
//
//   - platform: normalizes Signals into an immutable Key
//   - strategy: runs the ordered decision rules and assembles the Plan
//   - backend: locates the optional backend and produces a Decision
//
// # Quick Start
//
//	result, err := gosimdplan.Configure(ctx, gosimdplan.Input{
//	    Signals: platform.Signals{SystemProcessor: "x86_64", SystemName: "Linux", CompilerID: "GNU"},
//	})
//	if err != nil {
//	    return err // a *strategy.FatalError names the gap in the tables
//	}
//	fmt.Println(result.Plan.Files())
//
// # Determinism
//
// Identical inputs give identical plans. Result.PlanFile records the run with
// a BLAKE3 fingerprint; Verify checks a stored plan against a fresh run.
//
// # Thread Safety
//
// Configure keeps no shared state and may be called concurrently.
package gosimdplan

import (
	"context"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/config"
	"github.com/albertocavalcante/go-simdplan/internal/diag"
	"github.com/albertocavalcante/go-simdplan/planfile"
	"github.com/albertocavalcante/go-simdplan/platform"
)

// Configure normalizes the platform, resolves the build plan and, when
// requested, negotiates the backend.
//
// A fatal resolution error is returned as a *strategy.FatalError and no
// partial result is produced. An unavailable backend is not an error: the
// result carries a Disabled decision and a warning.
func Configure(ctx context.Context, in Input, opts ...Option) (*Result, error) {
	cfg, err := newConfigureConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := cfg.log()
	recorder := &diag.Recorder{}
	sink := diag.Multi(recorder, diag.Logger(logger), cfg.diagnostics)

	if in.Signals.MultiArchitecture() {
		sink.Emit(diag.Infof("multiple target architectures (%s); configuring for %s only",
			strings.Join(in.Signals.TargetArchitectures, ", "), in.Signals.TargetArchitectures[0]))
	}

	key := platform.Normalize(in.Signals)
	sink.Emit(diag.Infof("target architecture: %s", describeArch(key)))
	logger.DebugContext(ctx, "normalized platform", "key", key.String())

	flags := cfg.tables.Flags.For(key)
	plan, err := cfg.resolver.Resolve(key, flags, in.Overrides)
	if err != nil {
		logger.DebugContext(ctx, "resolution failed", "error", err)
		return nil, err
	}
	sink.Emit(diag.Infof("implementation strategy: %s (rule %s)", plan.Strategy, plan.Rule))

	result := &Result{Key: key, Plan: plan, Backend: backend.Decision{Status: backend.Disabled}}
	env := backend.Env{Frontend: key.Frontend(), Stdlib: in.Stdlib}

	switch {
	case cfg.tables.Backend != nil:
		negotiator, err := backend.NewNegotiator(*cfg.tables.Backend, cfg.lookup,
			backend.WithDiagnostics(sink), backend.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		decision, err := negotiator.Negotiate(ctx, in.Backend, env)
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		result.Backend = decision
		result.negotiator = negotiator
		result.env = env
	case in.Backend.Requested:
		warning := fmt.Sprintf("backend requested but tables %s declare none", cfg.tables.Path)
		sink.Emit(diag.Line{Level: diag.Warn, Text: warning})
		result.Backend.Warnings = []string{warning}
	}

	result.Diagnostics = recorder.Lines()
	return result, nil
}

// ConfigureWith runs Configure with the inputs and options described by a
// project configuration. Extra options are applied after those derived from
// the configuration.
func ConfigureWith(ctx context.Context, c *config.Config, opts ...Option) (*Result, error) {
	in, derived := FromConfig(c)
	return Configure(ctx, in, append(derived, opts...)...)
}

// FromConfig translates a project configuration into an Input and options.
func FromConfig(c *config.Config) (Input, []Option) {
	in := Input{
		Signals:   c.Signals(),
		Overrides: c.Overrides,
		Backend:   c.Request(),
		Stdlib:    c.Backend.Stdlib,
	}
	var opts []Option
	if c.Tables.Path != "" {
		opts = append(opts, WithTablesFile(c.Tables.Path))
	}
	if len(c.Backend.Prefixes) > 0 {
		opts = append(opts, WithLookup(backend.ChainLookup{
			backend.NewPrefixLookup(c.Backend.Prefixes...),
			backend.NewPrefixLookup(DefaultPrefixes...),
		}))
	}
	return in, opts
}

// Verify checks that a stored plan file matches r.
func Verify(stored *planfile.File, r *Result) error {
	fresh, err := r.PlanFile()
	if err != nil {
		return err
	}
	return planfile.Verify(stored, fresh)
}

func describeArch(key platform.Key) string {
	desc := fmt.Sprintf("%s, %d-bit", key.Arch(), key.PointerWidth())
	if raw := key.Architecture(); raw != "" {
		desc += fmt.Sprintf(" (%s from %s)", raw, key.Source())
	}
	return desc
}
