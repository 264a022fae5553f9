package gosimdplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/internal/diag"
	"github.com/albertocavalcante/go-simdplan/strategy"
	"github.com/albertocavalcante/go-simdplan/tables"
)

// DefaultPrefixes are the installation prefixes searched for the backend
// when no lookup is configured.
var DefaultPrefixes = []string{"/usr/local", "/usr", "/opt/intel/oneapi/tbb/latest"}

// Option configures a Configure run.
type Option func(*configureConfig) error

// configureConfig holds all run configuration.
type configureConfig struct {
	tables      *tables.Tables
	lookup      backend.Lookup
	diagnostics diag.Sink
	rules       []strategy.Rule
	resolver    *strategy.Resolver

	// logger is the structured logger for debug output and diagnostics.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithTables sets the platform tables. The built-in tables are used when
// this option is not given.
func WithTables(t *tables.Tables) Option {
	return func(c *configureConfig) error {
		if t == nil {
			return errors.New("tables must not be nil")
		}
		c.tables = t
		return nil
	}
}

// WithTablesFile loads the platform tables from a file.
func WithTablesFile(path string) Option {
	return func(c *configureConfig) error {
		t, err := tables.Load(path)
		if err != nil {
			return err
		}
		c.tables = t
		return nil
	}
}

// WithLookup sets how the optional backend is located.
func WithLookup(l backend.Lookup) Option {
	return func(c *configureConfig) error {
		if l == nil {
			return errors.New("lookup must not be nil")
		}
		c.lookup = l
		return nil
	}
}

// WithDiagnostics receives every diagnostic line as it is emitted, in
// addition to Result.Diagnostics.
func WithDiagnostics(sink diag.Sink) Option {
	return func(c *configureConfig) error {
		c.diagnostics = sink
		return nil
	}
}

// WithRules replaces the decision rules. Rules are evaluated in order and
// the first match wins; the portable strategy applies when none matches.
func WithRules(rules ...strategy.Rule) Option {
	return func(c *configureConfig) error {
		if len(rules) == 0 {
			return errors.New("at least one rule is required")
		}
		c.rules = rules
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Diagnostic lines are logged at Info and Warn; lookup details at Debug.
//
// Example:
//
//	// Use default logger
//	Configure(ctx, in, WithLogger(slog.Default()))
//
//	// Use custom logger with attributes
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "simdplan")
//	Configure(ctx, in, WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *configureConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the rules against the tables and builds the resolver.
func (c *configureConfig) validate() error {
	resolver, err := c.tables.Resolver(c.rules...)
	if err != nil {
		return fmt.Errorf("tables %s: %w", c.tables.Path, err)
	}
	c.resolver = resolver
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *configureConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newConfigureConfig applies the options and validates the result. Every
// failure matches ErrInvalidOption.
func newConfigureConfig(opts ...Option) (*configureConfig, error) {
	c := &configureConfig{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
	}

	if c.tables == nil {
		c.tables = tables.Default()
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	if c.lookup == nil {
		c.lookup = backend.NewPrefixLookup(DefaultPrefixes...)
	}

	return c, nil
}
