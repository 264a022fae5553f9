// simdplan resolves the SIMD build plan of a multi-variant native library
// for a target platform.
//
// Usage:
//
//	simdplan [resolve] [flags]      resolve and print the build plan
//	simdplan probe                  print host signals and CPU features
//	simdplan tables [--tables FILE] print the effective platform tables
//	simdplan diff OLD NEW           compare two plan files
//	simdplan verify PLAN [flags]    check a plan file against a fresh resolution
//
// Exit status is 0 on success, 1 on a fatal configuration error or a plan
// mismatch, and 2 on usage or I/O errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	gosimdplan "github.com/albertocavalcante/go-simdplan"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// command is one subcommand.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, env *environment) error
}

var commands = []command{
	{name: "resolve", summary: "resolve and print the build plan (default)", run: runResolve},
	{name: "probe", summary: "print host signals and CPU features", run: runProbe},
	{name: "tables", summary: "print the effective platform tables", run: runTables},
	{name: "diff", summary: "compare two plan files", run: runDiff},
	{name: "verify", summary: "check a plan file against a fresh resolution", run: runVerify},
}

// environment carries the process streams into commands.
type environment struct {
	stdout io.Writer
	stderr io.Writer
	style  *styles
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	env := &environment{stdout: stdout, stderr: stderr, style: newStyles(stderr)}

	name := "resolve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	if name == "help" {
		printUsage(stdout)
		return exitOK
	}

	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(ctx, args, env)
		return env.report(err)
	}

	env.style.error(fmt.Sprintf("unknown command %q", name))
	printUsage(stderr)
	return exitUsage
}

// report prints err and maps it to an exit code.
func (env *environment) report(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	env.style.error(err.Error())

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if gosimdplan.IsFatal(err) {
		return exitFatal
	}
	return exitUsage
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func fatal(err error) error {
	return &exitError{code: exitFatal, err: err}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: simdplan <command> [flags]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "\nRun 'simdplan <command> --help' for command flags.\n")
}

func newFlagSet(name string, env *environment) *pflag.FlagSet {
	fs := pflag.NewFlagSet("simdplan "+name, pflag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.SortFlags = false
	return fs
}

// parse parses args and wraps flag errors as usage errors.
func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageErrorf("%w", err)
	}
	return nil
}
