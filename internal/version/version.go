// Package version parses and compares dependency versions as reported by
// package lookups ("2021.11.0", "2022.0.0-rc1", "1.2.3+build").
//
// Format: RELEASE[-PRERELEASE][+BUILD]
//   - RELEASE: dot-separated identifiers
//   - PRERELEASE: dot-separated identifiers, hyphens allowed
//   - BUILD: ignored for comparison
package version

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var versionPattern = regexp.MustCompile(
	`^v?(?P<release>[a-zA-Z0-9.]+)(?:-(?P<prerelease>[a-zA-Z0-9.-]+))?(?:\+[a-zA-Z0-9.-]+)?$`,
)

// Identifier is one dot-separated segment of a version.
type Identifier struct {
	IsDigitsOnly bool
	AsNumber     uint64 // Only valid if IsDigitsOnly
	AsString     string
}

// ParseIdentifier creates an Identifier from a string segment.
func ParseIdentifier(s string) Identifier {
	if s == "" {
		return Identifier{AsString: s}
	}

	allDigits := true
	for _, r := range s {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}

	if allDigits {
		num, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return Identifier{IsDigitsOnly: true, AsNumber: num, AsString: s}
		}
	}

	return Identifier{IsDigitsOnly: false, AsString: s}
}

// CompareIdentifiers orders digits-only identifiers before alphanumeric
// ones, digits numerically, and alphanumerics lexicographically.
func CompareIdentifiers(a, b Identifier) int {
	if a.IsDigitsOnly != b.IsDigitsOnly {
		if a.IsDigitsOnly {
			return -1
		}
		return 1
	}

	if a.IsDigitsOnly {
		return cmp.Compare(a.AsNumber, b.AsNumber)
	}

	return strings.Compare(a.AsString, b.AsString)
}

// Parsed is a parsed version.
type Parsed struct {
	Release    []Identifier
	Prerelease []Identifier
	Normalized string
}

// ParseError reports a malformed version string.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + e.Version + ": " + e.Message
}

// Parse parses a version string into its components.
func Parse(s string) (Parsed, error) {
	if s == "" {
		return Parsed{}, &ParseError{Version: s, Message: "empty version"}
	}

	match := versionPattern.FindStringSubmatch(s)
	if match == nil {
		return Parsed{}, &ParseError{Version: s, Message: "does not match version pattern"}
	}

	releaseStr := match[1]
	prereleaseStr := match[2]

	var release []Identifier
	for _, part := range strings.Split(releaseStr, ".") {
		release = append(release, ParseIdentifier(part))
	}

	var prerelease []Identifier
	if prereleaseStr != "" {
		for _, part := range strings.Split(prereleaseStr, ".") {
			prerelease = append(prerelease, ParseIdentifier(part))
		}
	}

	normalized := releaseStr
	if prereleaseStr != "" {
		normalized = releaseStr + "-" + prereleaseStr
	}

	return Parsed{
		Release:    release,
		Prerelease: prerelease,
		Normalized: normalized,
	}, nil
}

// Compare returns -1 if a < b, 0 if a == b, 1 if a > b. Trailing zero
// release segments are insignificant ("2021.11" == "2021.11.0").
// Unparseable versions compare lexicographically.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	if c := compareIdentifierLists(trimZeros(va.Release), trimZeros(vb.Release)); c != 0 {
		return c
	}

	// Prerelease versions sort before the release itself.
	aIsPre := len(va.Prerelease) > 0
	bIsPre := len(vb.Prerelease) > 0
	if aIsPre != bIsPre {
		if aIsPre {
			return -1
		}
		return 1
	}

	return compareIdentifierLists(va.Prerelease, vb.Prerelease)
}

// AtLeast reports whether v satisfies the minimum version min. An empty
// minimum is satisfied by anything.
func AtLeast(v, min string) bool {
	if min == "" {
		return true
	}
	if _, err := Parse(v); err != nil {
		return false
	}
	return Compare(v, min) >= 0
}

func compareIdentifierLists(a, b []Identifier) int {
	for i := range min(len(a), len(b)) {
		if c := CompareIdentifiers(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func trimZeros(ids []Identifier) []Identifier {
	end := len(ids)
	for end > 1 && ids[end-1].IsDigitsOnly && ids[end-1].AsNumber == 0 {
		end--
	}
	return ids[:end]
}
