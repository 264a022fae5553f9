package gosimdplan

import (
	"errors"

	"github.com/albertocavalcante/go-simdplan/planfile"
	"github.com/albertocavalcante/go-simdplan/strategy"
)

// Sentinel errors returned by Configure and Verify.
var (
	// ErrInvalidOption indicates an option could not be applied.
	ErrInvalidOption = errors.New("invalid option")

	// ErrFingerprintMismatch indicates a stored plan no longer matches.
	ErrFingerprintMismatch = planfile.ErrFingerprintMismatch

	// ErrNoAssemblySources, ErrNoSourceManifest, ErrMissingFlags and
	// ErrUnknownStrategy are the fatal resolution errors. They are always
	// wrapped in a *strategy.FatalError.
	ErrNoAssemblySources = strategy.ErrNoAssemblySources
	ErrNoSourceManifest  = strategy.ErrNoSourceManifest
	ErrMissingFlags      = strategy.ErrMissingFlags
	ErrUnknownStrategy   = strategy.ErrUnknownStrategy
)

// IsFatal reports whether err is a fatal configuration error: a gap in the
// tables or an invalid strategy, as opposed to an I/O or usage error.
func IsFatal(err error) bool {
	var fatal *strategy.FatalError
	return errors.As(err, &fatal)
}
