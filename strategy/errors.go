package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// Sentinel errors for fatal configuration outcomes. Each indicates a gap in
// the known-good tables, not an unsupported target.
var (
	// ErrNoAssemblySources is returned when the assembly strategy is chosen
	// but no assembly manifest exists for the OS and compiler frontend.
	ErrNoAssemblySources = errors.New("no assembly sources")

	// ErrNoSourceManifest is returned when an intrinsics strategy is chosen
	// but no source manifest exists for the OS and compiler frontend.
	ErrNoSourceManifest = errors.New("no source manifest")

	// ErrMissingFlags is returned when a strategy is chosen whose required
	// capability flags are not defined for the compiler.
	ErrMissingFlags = errors.New("missing capability flags")

	// ErrUnknownStrategy is returned for a strategy value outside the closed
	// enumeration, whether computed or supplied as an override.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// FatalError is a configuration error that must abort the run. It names the
// strategy and the OS/frontend combination that failed so the tables can be
// extended.
type FatalError struct {
	// Err is one of the sentinel errors above.
	Err error
	// Strategy is the selected strategy. For ErrUnknownStrategy it may be
	// outside the enumeration.
	Strategy variant.Tag
	// Value is the unparsed spelling for an unknown override.
	Value    string
	Rule     string
	OS       platform.OSFamily
	Frontend platform.Frontend
	// Missing lists undefined capabilities for ErrMissingFlags.
	Missing []variant.Capability
}

func (e *FatalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	b.WriteString(": strategy ")
	if e.Value != "" {
		fmt.Fprintf(&b, "%q", e.Value)
	} else {
		b.WriteString(e.Strategy.String())
	}
	fmt.Fprintf(&b, " on %s/%s", e.OS, e.Frontend)
	if e.Rule != "" {
		fmt.Fprintf(&b, " (rule %s)", e.Rule)
	}
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, c := range e.Missing {
			names[i] = c.String()
		}
		fmt.Fprintf(&b, ": undefined %s", strings.Join(names, ", "))
	}
	if errors.Is(e.Err, ErrUnknownStrategy) {
		fmt.Fprintf(&b, " (known: %s)", strings.Join(variant.TagNames(), ", "))
	}
	return b.String()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
