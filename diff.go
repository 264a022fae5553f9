package gosimdplan

import (
	"slices"
	"sort"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/planfile"
	"github.com/albertocavalcante/go-simdplan/strategy"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// StrategyChange records a different strategy between two plans.
type StrategyChange struct {
	Old     variant.Tag `json:"old"`
	New     variant.Tag `json:"new"`
	OldRule string      `json:"old_rule"`
	NewRule string      `json:"new_rule"`
}

// FlagChange records a source file compiled with different flags.
type FlagChange struct {
	// File is the source file name.
	File string `json:"file"`

	// OldFlags are the flags in the old plan.
	OldFlags []string `json:"old_flags"`

	// NewFlags are the flags in the new plan.
	NewFlags []string `json:"new_flags"`
}

// BackendChange records a different backend outcome.
type BackendChange struct {
	OldStatus  backend.Status `json:"old_status"`
	NewStatus  backend.Status `json:"new_status"`
	OldVersion string         `json:"old_version,omitempty"`
	NewVersion string         `json:"new_version,omitempty"`
}

// PlanDiff describes the differences between two build plans.
//
// This is useful for:
//   - Reviewing what a compiler or table change does to a build
//   - CI checks that a stored plan still matches the toolchain
//
// Example usage:
//
//	diff := DiffPlans(stored.Plan, fresh.Plan)
//	if !diff.IsEmpty() {
//	    fmt.Printf("%d sources added, %d removed\n", len(diff.AddedSources), len(diff.RemovedSources))
//	}
type PlanDiff struct {
	// Strategy is set when the strategy or its rule changed.
	Strategy *StrategyChange `json:"strategy,omitempty"`

	// AddedSources are files present in new but not in old.
	AddedSources []string `json:"added_sources,omitempty"`

	// RemovedSources are files present in old but not in new.
	RemovedSources []string `json:"removed_sources,omitempty"`

	// FlagChanges are files present in both with different flags.
	FlagChanges []FlagChange `json:"flag_changes,omitempty"`

	// AddedDefinitions and RemovedDefinitions cover preprocessor definitions.
	AddedDefinitions   []string `json:"added_definitions,omitempty"`
	RemovedDefinitions []string `json:"removed_definitions,omitempty"`

	// AddedOptions and RemovedOptions cover library-wide compile options.
	AddedOptions   []string `json:"added_options,omitempty"`
	RemovedOptions []string `json:"removed_options,omitempty"`

	// Backend is set by DiffFiles when the backend outcome changed.
	Backend *BackendChange `json:"backend,omitempty"`
}

// IsEmpty returns true if there are no differences between the plans.
func (d *PlanDiff) IsEmpty() bool {
	return d.TotalChanges() == 0
}

// TotalChanges returns the number of individual changes.
func (d *PlanDiff) TotalChanges() int {
	n := len(d.AddedSources) + len(d.RemovedSources) + len(d.FlagChanges) +
		len(d.AddedDefinitions) + len(d.RemovedDefinitions) +
		len(d.AddedOptions) + len(d.RemovedOptions)
	if d.Strategy != nil {
		n++
	}
	if d.Backend != nil {
		n++
	}
	return n
}

// DiffPlans computes the difference between two plans. A nil plan is
// treated as empty. Results are sorted by name for consistent output.
func DiffPlans(old, new *strategy.Plan) *PlanDiff {
	if old == nil {
		old = &strategy.Plan{}
	}
	if new == nil {
		new = &strategy.Plan{}
	}
	diff := &PlanDiff{}

	if old.Strategy != new.Strategy || old.Rule != new.Rule {
		diff.Strategy = &StrategyChange{Old: old.Strategy, New: new.Strategy, OldRule: old.Rule, NewRule: new.Rule}
	}

	oldFlags := make(map[string][]string, len(old.Sources))
	for _, f := range old.Sources {
		oldFlags[f.File] = f.Flags
	}
	newFlags := make(map[string][]string, len(new.Sources))
	for _, f := range new.Sources {
		newFlags[f.File] = f.Flags
	}

	for file, flags := range newFlags {
		before, existed := oldFlags[file]
		if !existed {
			diff.AddedSources = append(diff.AddedSources, file)
		} else if !slices.Equal(before, flags) {
			diff.FlagChanges = append(diff.FlagChanges, FlagChange{File: file, OldFlags: before, NewFlags: flags})
		}
	}
	for file := range oldFlags {
		if _, exists := newFlags[file]; !exists {
			diff.RemovedSources = append(diff.RemovedSources, file)
		}
	}

	diff.AddedDefinitions, diff.RemovedDefinitions = diffSets(old.Definitions, new.Definitions)
	diff.AddedOptions, diff.RemovedOptions = diffSets(old.CompileOptions, new.CompileOptions)

	sort.Strings(diff.AddedSources)
	sort.Strings(diff.RemovedSources)
	sort.Slice(diff.FlagChanges, func(i, j int) bool {
		return diff.FlagChanges[i].File < diff.FlagChanges[j].File
	})

	return diff
}

// DiffFiles computes the difference between two plan files, including the
// backend outcome.
func DiffFiles(old, new *planfile.File) *PlanDiff {
	var oldPlan, newPlan *strategy.Plan
	var oldBackend, newBackend backend.Decision
	if old != nil {
		oldPlan, oldBackend = &old.Plan, old.Backend
	}
	if new != nil {
		newPlan, newBackend = &new.Plan, new.Backend
	}

	diff := DiffPlans(oldPlan, newPlan)
	if oldBackend.Status != newBackend.Status || oldBackend.ResolvedVersion != newBackend.ResolvedVersion {
		diff.Backend = &BackendChange{
			OldStatus:  oldBackend.Status,
			NewStatus:  newBackend.Status,
			OldVersion: oldBackend.ResolvedVersion,
			NewVersion: newBackend.ResolvedVersion,
		}
	}
	return diff
}

// diffSets returns the sorted values only in b and only in a.
func diffSets(a, b []string) (added, removed []string) {
	for _, v := range b {
		if !slices.Contains(a, v) {
			added = append(added, v)
		}
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			removed = append(removed, v)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
