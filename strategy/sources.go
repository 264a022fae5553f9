package strategy

import (
	"slices"

	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// SourceFile is one entry of a source manifest.
type SourceFile struct {
	File string `json:"file" cbor:"file"`
	// Flags are the per-file compile flags. Only the flags of the file's own
	// capability tier are ever assigned.
	Flags []string `json:"flags,omitempty" cbor:"flags,omitempty"`
	// Capability is the instruction-set tier the file is compiled for.
	Capability variant.Capability `json:"capability,omitempty" cbor:"capability,omitempty"`
}

// Manifest is an ordered list of source files.
type Manifest []SourceFile

// Files returns the file names in order.
func (m Manifest) Files() []string {
	files := make([]string, len(m))
	for i, f := range m {
		files[i] = f.File
	}
	return files
}

// Find returns the entry for file.
func (m Manifest) Find(file string) (SourceFile, bool) {
	for _, f := range m {
		if f.File == file {
			return f, true
		}
	}
	return SourceFile{}, false
}

// SourceSpec is a table entry naming a file and the capability tier whose
// flag it is compiled with. Assembly files carry NoCapability.
type SourceSpec struct {
	File       string
	Capability variant.Capability
}

// SourceEntry lists the files a strategy compiles on matching platforms.
type SourceEntry struct {
	Strategy variant.Tag
	// OS restricts the entry to these families. Empty matches any family.
	OS []platform.OSFamily
	// Frontend restricts the entry to these frontends. Empty matches any.
	Frontend []platform.Frontend
	// Assembler names the assembler dialect of assembly entries. Empty
	// derives it from the frontend.
	Assembler Assembler
	Files     []SourceSpec
}

// specificity ranks entries: exact beats OS-wildcard beats
// frontend-wildcard beats any/any.
func (e SourceEntry) specificity() int {
	n := 0
	if len(e.Frontend) > 0 {
		n += 2
	}
	if len(e.OS) > 0 {
		n++
	}
	return n
}

func (e SourceEntry) matches(tag variant.Tag, os platform.OSFamily, frontend platform.Frontend) bool {
	if e.Strategy != tag {
		return false
	}
	if len(e.OS) > 0 && !slices.Contains(e.OS, os) {
		return false
	}
	return len(e.Frontend) == 0 || slices.Contains(e.Frontend, frontend)
}

// SourceTable maps (strategy, OS, frontend) to source lists. Absence of an
// entry is meaningful: the strategy has no sources on that combination.
type SourceTable []SourceEntry

// Lookup returns the most specific entry for the combination, preferring
// earlier entries on ties.
func (t SourceTable) Lookup(tag variant.Tag, os platform.OSFamily, frontend platform.Frontend) (SourceEntry, bool) {
	best, found := SourceEntry{}, false
	for _, e := range t {
		if !e.matches(tag, os, frontend) {
			continue
		}
		if !found || e.specificity() > best.specificity() {
			best, found = e, true
		}
	}
	return best, found
}
