package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/albertocavalcante/go-simdplan/internal/version"
)

// PrefixLookup finds packages by their pkg-config description files under
// installation prefixes:
//
//	{prefix}/lib/pkgconfig/{name}.pc
//	{prefix}/lib64/pkgconfig/{name}.pc
//	{prefix}/share/pkgconfig/{name}.pc
//
// The package name is lower-cased to form the file name ("TBB" -> tbb.pc).
// Parsed descriptions are cached per file.
type PrefixLookup struct {
	prefixes []string
	cache    sync.Map // map[string]*pcFile keyed by path
}

// NewPrefixLookup returns a lookup over the given prefixes, searched in
// order.
func NewPrefixLookup(prefixes ...string) *PrefixLookup {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			cleaned = append(cleaned, filepath.Clean(p))
		}
	}
	return &PrefixLookup{prefixes: cleaned}
}

// Prefixes returns the searched prefixes.
func (l *PrefixLookup) Prefixes() []string {
	return append([]string(nil), l.prefixes...)
}

var pcDirs = []string{
	filepath.Join("lib", "pkgconfig"),
	filepath.Join("lib64", "pkgconfig"),
	filepath.Join("share", "pkgconfig"),
}

// Find returns the first description whose version satisfies minVersion.
// A description that exists but is too old is skipped; if no prefix
// satisfies the request, the error reports the newest rejected version.
func (l *PrefixLookup) Find(ctx context.Context, name, minVersion string) (Package, error) {
	file := strings.ToLower(name) + ".pc"
	rejected := ""
	for _, prefix := range l.prefixes {
		for _, dir := range pcDirs {
			select {
			case <-ctx.Done():
				return Package{}, ctx.Err()
			default:
			}

			path := filepath.Join(prefix, dir, file)
			pc, err := l.load(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return Package{}, err
			}
			if !version.AtLeast(pc.Version, minVersion) {
				if rejected == "" || version.Compare(pc.Version, rejected) > 0 {
					rejected = pc.Version
				}
				continue
			}
			return Package{
				Name:    name,
				Version: pc.Version,
				Prefix:  prefix,
				Libs:    strings.Fields(pc.Libs),
			}, nil
		}
	}
	return Package{}, &NotFoundError{
		Name:       name,
		MinVersion: minVersion,
		Found:      rejected,
		Where:      strings.Join(l.prefixes, string(os.PathListSeparator)),
	}
}

func (l *PrefixLookup) load(path string) (*pcFile, error) {
	if cached, ok := l.cache.Load(path); ok {
		return cached.(*pcFile), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pc, err := parsePC(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	l.cache.Store(path, pc)
	return pc, nil
}

// pcFile holds the fields of a pkg-config description this package reads.
type pcFile struct {
	Name    string
	Version string
	Libs    string
}

var pcVariable = regexp.MustCompile(`\$\{([A-Za-z0-9_.]+)\}`)

// parsePC reads "key=value" variables and "Key: value" fields, expanding
// ${var} references in both.
func parsePC(r io.Reader) (*pcFile, error) {
	vars := make(map[string]string)
	expand := func(s string) string {
		return pcVariable.ReplaceAllStringFunc(s, func(ref string) string {
			return vars[ref[2:len(ref)-1]]
		})
	}

	pc := &pcFile{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		equals := strings.IndexByte(line, '=')
		switch {
		case equals > 0 && (colon < 0 || equals < colon):
			vars[strings.TrimSpace(line[:equals])] = expand(strings.TrimSpace(line[equals+1:]))
		case colon > 0:
			value := expand(strings.TrimSpace(line[colon+1:]))
			switch strings.TrimSpace(line[:colon]) {
			case "Name":
				pc.Name = value
			case "Version":
				pc.Version = value
			case "Libs":
				pc.Libs = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pc.Version == "" {
		return nil, fmt.Errorf("missing Version field")
	}
	return pc, nil
}

var _ Lookup = (*PrefixLookup)(nil)
