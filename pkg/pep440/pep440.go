// Package pep440 provides version ordering and specifier matching for
// Python package versions.
//
// It wraps the PEP 440 implementation from aquasecurity/go-pep440-version
// behind the two operations the resolver needs: sorting release lists and
// checking a version against a requirement's specifier set. Matching is
// prerelease-permissive; the resolver explores the full version space and
// filtering decisions belong to the caller.
package pep440

import (
	"sort"
	"strings"

	version "github.com/aquasecurity/go-pep440-version"
)

// Version is a parsed PEP 440 version.
type Version = version.Version

// Parse parses a PEP 440 version string.
func Parse(s string) (Version, error) {
	return version.Parse(s)
}

// Specifiers is a parsed specifier set such as ">=1.0,<2.0".
// The zero value matches nothing; use ParseSpecifiers.
type Specifiers struct {
	raw   string
	specs version.Specifiers
	any   bool
}

// ParseSpecifiers parses a comma-joined PEP 440 specifier set.
// An empty string (and pipdeptree's "Any") matches every version.
func ParseSpecifiers(s string) (Specifiers, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "any") {
		return Specifiers{raw: trimmed, any: true}, nil
	}

	specs, err := version.NewSpecifiers(trimmed, version.WithPreRelease(true))
	if err != nil {
		return Specifiers{}, err
	}
	return Specifiers{raw: trimmed, specs: specs}, nil
}

// Match reports whether v satisfies the specifier set.
// Unparsable versions never match a non-empty set.
func (s Specifiers) Match(v string) bool {
	if s.any {
		return true
	}
	parsed, err := Parse(v)
	if err != nil {
		return false
	}
	return s.specs.Check(parsed)
}

// Any reports whether the set matches every version.
func (s Specifiers) Any() bool { return s.any }

// String returns the original specifier text.
func (s Specifiers) String() string { return s.raw }

// Sort orders versions ascending per PEP 440, in place. Versions that fail
// to parse sort before all parsable ones, lexically among themselves; an
// index can serve arbitrary strings as versions and ordering still has to
// be total.
func Sort(versions []string) {
	type entry struct {
		raw    string
		parsed Version
		ok     bool
	}

	entries := make([]entry, 0, len(versions))
	for _, raw := range versions {
		v, err := Parse(raw)
		entries = append(entries, entry{raw: raw, parsed: v, ok: err == nil})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case !a.ok && !b.ok:
			return a.raw < b.raw
		case !a.ok:
			return true
		case !b.ok:
			return false
		default:
			return a.parsed.LessThan(b.parsed)
		}
	})

	for i, e := range entries {
		versions[i] = e.raw
	}
}
