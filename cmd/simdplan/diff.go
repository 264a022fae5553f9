package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gosimdplan "github.com/albertocavalcante/go-simdplan"
	"github.com/albertocavalcante/go-simdplan/planfile"
)

func runDiff(_ context.Context, args []string, env *environment) error {
	fs := newFlagSet("diff", env)
	format := fs.String("format", "text", "output format: text or json")
	exitCode := fs.Bool("exit-code", false, "exit with status 1 when the plans differ")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usageErrorf("diff needs two plan files, got %d arguments", fs.NArg())
	}
	if err := checkFormat(*format, "text", "json"); err != nil {
		return err
	}

	old, err := readPlan(fs.Arg(0))
	if err != nil {
		return err
	}
	new, err := readPlan(fs.Arg(1))
	if err != nil {
		return err
	}

	diff := gosimdplan.DiffFiles(old, new)
	if *format == "json" {
		encoder := json.NewEncoder(env.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(diff); err != nil {
			return err
		}
	} else {
		writeDiff(env.stdout, diff)
	}

	if *exitCode && !diff.IsEmpty() {
		return &exitError{code: exitFatal, err: fmt.Errorf("plans differ: %d changes", diff.TotalChanges())}
	}
	return nil
}

// readPlan reads a JSON or, for .cbor files, a CBOR plan file.
func readPlan(path string) (*planfile.File, error) {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		f, err := planfile.DecodeCBOR(data)
		if err != nil {
			return nil, usageErrorf("%s: %w", path, err)
		}
		return f, nil
	}
	f, err := planfile.ReadFile(path)
	if err != nil {
		return nil, usageErrorf("%s: %w", path, err)
	}
	return f, nil
}

func writeDiff(w io.Writer, d *gosimdplan.PlanDiff) {
	if d.IsEmpty() {
		fmt.Fprintln(w, "plans are identical")
		return
	}
	if s := d.Strategy; s != nil {
		fmt.Fprintf(w, "strategy: %s (rule %s) -> %s (rule %s)\n", s.Old, s.OldRule, s.New, s.NewRule)
	}
	for _, f := range d.RemovedSources {
		fmt.Fprintf(w, "- source %s\n", f)
	}
	for _, f := range d.AddedSources {
		fmt.Fprintf(w, "+ source %s\n", f)
	}
	for _, c := range d.FlagChanges {
		fmt.Fprintf(w, "~ flags %s: %q -> %q\n", c.File, strings.Join(c.OldFlags, " "), strings.Join(c.NewFlags, " "))
	}
	for _, def := range d.RemovedDefinitions {
		fmt.Fprintf(w, "- definition %s\n", def)
	}
	for _, def := range d.AddedDefinitions {
		fmt.Fprintf(w, "+ definition %s\n", def)
	}
	for _, opt := range d.RemovedOptions {
		fmt.Fprintf(w, "- option %s\n", opt)
	}
	for _, opt := range d.AddedOptions {
		fmt.Fprintf(w, "+ option %s\n", opt)
	}
	if b := d.Backend; b != nil {
		fmt.Fprintf(w, "backend: %s %s -> %s %s\n", b.OldStatus, b.OldVersion, b.NewStatus, b.NewVersion)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageErrorf("%w", err)
	}
	return data, nil
}
