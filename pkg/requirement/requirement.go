// Package requirement parses Python requirement expressions and seed
// manifests.
//
// The parser accepts the subset of PEP 508 that an index-driven install can
// satisfy: a package name, optional extras, an optional comma-joined version
// specifier set, and an optional environment marker. URL references, VCS
// references, local paths, and editable installs are rejected with a
// descriptive error; the resolver records such inputs as unparsed rather
// than aborting a run.
package requirement

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	normalizeRE = regexp.MustCompile(`[-_.]+`)
	// Longest alternative first: Go regexps are leftmost-first, and the
	// name is matched as a prefix of the whole expression.
	nameRE      = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9]|[A-Za-z0-9])`)
	specifierRE = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)\s*([A-Za-z0-9.!+*_-]+)$`)
)

// NormalizeName returns the PEP 503 normalized form of a package name:
// lowercased, with runs of ".", "-" and "_" collapsed to a single "-".
// Index lookups and visited-set keys must use the normalized form.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRE.ReplaceAllString(name, "-"))
}

// Specifier is a single version clause of a requirement, e.g. ">=1.0".
type Specifier struct {
	Operator string
	Version  string
}

// Requirement is a parsed requirement expression.
type Requirement struct {
	// Raw is the input with surrounding whitespace and trailing comment removed.
	Raw string
	// Name is the package name as written (not normalized).
	Name string
	// Extras lists requested extras, e.g. ["security", "socks"].
	Extras []string
	// Specifiers holds the version clauses in input order.
	Specifiers []Specifier
	// Marker is the raw environment marker after ";", if any.
	Marker string
}

// NormalizedName returns the PEP 503 normalized package name.
func (r *Requirement) NormalizedName() string {
	return NormalizeName(r.Name)
}

// SpecifierString returns the comma-joined version specifier set.
// An empty string means the requirement accepts any version.
func (r *Requirement) SpecifierString() string {
	if len(r.Specifiers) == 0 {
		return ""
	}
	parts := make([]string, len(r.Specifiers))
	for i, s := range r.Specifiers {
		parts[i] = s.Operator + s.Version
	}
	return strings.Join(parts, ",")
}

// String reassembles the requirement as name + specifier set.
func (r *Requirement) String() string {
	return r.Name + r.SpecifierString()
}

// Parse parses a single requirement expression.
//
// Accepted forms:
//
//	requests
//	requests[security]
//	requests>=2.0,<3.0
//	requests [socks] >= 2.0 ; python_version < "3.8"
//	flask==1.0  # trailing comment
func Parse(raw string) (*Requirement, error) {
	input := strings.TrimSpace(raw)
	input = stripComment(input)

	if input == "" {
		return nil, fmt.Errorf("empty requirement")
	}
	if strings.HasPrefix(input, "-") {
		return nil, fmt.Errorf("option %q is not a requirement", firstToken(input))
	}
	// VCS references embed a URL, so this check must run first.
	for _, vcs := range []string{"git+", "hg+", "svn+", "bzr+"} {
		if strings.HasPrefix(input, vcs) {
			return nil, fmt.Errorf("VCS requirements are not supported")
		}
	}
	if strings.Contains(input, "://") {
		return nil, fmt.Errorf("URL requirements are not supported")
	}
	if strings.HasPrefix(input, "/") || strings.HasPrefix(input, "./") ||
		strings.HasPrefix(input, "../") || strings.HasPrefix(input, "~") {
		return nil, fmt.Errorf("local path requirements are not supported")
	}

	req := &Requirement{Raw: input}

	// Environment marker comes after the first ";".
	if idx := strings.Index(input, ";"); idx >= 0 {
		req.Marker = strings.TrimSpace(input[idx+1:])
		input = strings.TrimSpace(input[:idx])
		if input == "" {
			return nil, fmt.Errorf("requirement has a marker but no package")
		}
	}

	name := nameRE.FindString(input)
	if name == "" {
		return nil, fmt.Errorf("invalid package name in %q", input)
	}
	req.Name = name
	rest := strings.TrimSpace(input[len(name):])

	// Extras: [extra1,extra2]
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return nil, fmt.Errorf("unterminated extras in %q", input)
		}
		for _, e := range strings.Split(rest[1:end], ",") {
			if e = strings.TrimSpace(e); e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	// PEP 508 allows the specifier set to be parenthesized.
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}

	if rest == "" {
		return req, nil
	}

	for _, clause := range strings.Split(rest, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, fmt.Errorf("empty version clause in %q", input)
		}
		m := specifierRE.FindStringSubmatch(clause)
		if m == nil {
			return nil, fmt.Errorf("invalid version clause %q", clause)
		}
		req.Specifiers = append(req.Specifiers, Specifier{Operator: m[1], Version: m[2]})
	}

	return req, nil
}

// stripComment removes a trailing "#" comment. The "#" must start the line
// or follow whitespace, so version strings like "1.0+local#x" stay intact.
func stripComment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t') {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

func firstToken(s string) string {
	if idx := strings.IndexAny(s, " \t"); idx >= 0 {
		return s[:idx]
	}
	return s
}
