package main

import (
	"context"

	"github.com/albertocavalcante/go-simdplan/tables"
)

func runTables(_ context.Context, args []string, env *environment) error {
	fs := newFlagSet("tables", env)
	path := fs.String("tables", "", "tables file to check and print (default: built-in)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErrorf("unexpected argument: %s", fs.Arg(0))
	}

	t := tables.Default()
	if *path != "" {
		loaded, err := tables.Load(*path)
		if err != nil {
			return usageErrorf("%w", err)
		}
		t = loaded
	}
	_, err := env.stdout.Write(tables.Format(t))
	return err
}
