package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-simdplan/platform"
)

type probeReport struct {
	Signals  platform.Signals  `json:"signals"`
	Key      platform.Snapshot `json:"key"`
	Features platform.Features `json:"features"`
}

func runProbe(_ context.Context, args []string, env *environment) error {
	fs := newFlagSet("probe", env)
	format := fs.String("format", "text", "output format: text or json")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := checkFormat(*format, "text", "json"); err != nil {
		return err
	}

	signals := platform.HostSignals()
	report := probeReport{
		Signals:  signals,
		Key:      platform.Normalize(signals).Snapshot(),
		Features: platform.HostFeatures(),
	}

	if *format == "json" {
		encoder := json.NewEncoder(env.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Fprintf(env.stdout, "processor:     %s\n", signals.SystemProcessor)
	fmt.Fprintf(env.stdout, "system:        %s\n", signals.SystemName)
	fmt.Fprintf(env.stdout, "pointer width: %d\n", signals.PointerWidth)
	fmt.Fprintf(env.stdout, "arch class:    %s\n", report.Key.Arch)
	fmt.Fprintf(env.stdout, "cpu features:  %s\n", featureList(report.Features))
	return nil
}

func featureList(f platform.Features) string {
	var names []string
	for _, feature := range []struct {
		name string
		ok   bool
	}{
		{"SSE2", f.SSE2}, {"SSE4_1", f.SSE41}, {"AVX2", f.AVX2}, {"AVX512", f.AVX512}, {"NEON", f.NEON},
	} {
		if feature.ok {
			names = append(names, feature.name)
		}
	}
	if len(names) == 0 {
		return "none detected"
	}
	return strings.Join(names, " ")
}
