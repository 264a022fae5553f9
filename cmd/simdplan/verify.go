package main

import (
	"context"
	"errors"
	"fmt"

	gosimdplan "github.com/albertocavalcante/go-simdplan"
)

func runVerify(ctx context.Context, args []string, env *environment) error {
	fs := newFlagSet("verify", env)
	var flags resolveFlags
	flags.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErrorf("verify needs one plan file, got %d arguments", fs.NArg())
	}

	stored, err := readPlan(fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := flags.configure(ctx, env)
	if err != nil {
		return err
	}

	if err := gosimdplan.Verify(stored, result); err != nil {
		if errors.Is(err, gosimdplan.ErrFingerprintMismatch) {
			if fresh, ferr := result.PlanFile(); ferr == nil {
				writeDiff(env.stdout, gosimdplan.DiffFiles(stored, fresh))
			}
			return fatal(err)
		}
		return usageErrorf("%w", err)
	}
	fmt.Fprintf(env.stdout, "%s: ok (%s)\n", fs.Arg(0), stored.Fingerprint)
	return nil
}
