package solver

import (
	"github.com/matzehuels/solvent/pkg/pyenv"
	"github.com/matzehuels/solvent/pkg/requirement"
)

// ErrorType classifies a failed package inspection.
type ErrorType string

const (
	// ErrorTypeCommand marks a pip or pipdeptree invocation that failed.
	ErrorTypeCommand ErrorType = "command_error"

	// ErrorTypeNotSitePackage marks a package that installed cleanly but
	// never appeared in the environment inventory.
	ErrorTypeNotSitePackage ErrorType = "not_site_package"
)

// PassResult is the outcome of resolving all requirements against one
// package index. Every slice is present in the marshalled JSON even when
// empty.
type PassResult struct {
	Tree        []DependencyEntry       `json:"tree"`
	Errors      []ResolutionError       `json:"errors"`
	Unparsed    []UnparsedRequirement   `json:"unparsed"`
	Unresolved  []UnresolvedRequirement `json:"unresolved"`
	Environment []EnvironmentPackage    `json:"environment"`
}

// DependencyEntry is one successfully inspected package version.
type DependencyEntry struct {
	Name         string       `json:"package_name"`
	Version      string       `json:"package_version"`
	IndexURL     string       `json:"index_url"`
	SHA256       []string     `json:"sha256"`
	Dependencies []Dependency `json:"dependencies"`
}

// Dependency is one declared dependency of an inspected package, together
// with the versions every configured index resolves for its range.
type Dependency struct {
	Name             string             `json:"package_name"`
	RequiredVersion  string             `json:"required_version"`
	ResolvedVersions []ResolvedVersions `json:"resolved_versions"`
}

// ResolvedVersions lists the versions one index resolves for a dependency
// range. PassResult carries exactly one element per configured index, in
// configuration order.
type ResolvedVersions struct {
	Index    string   `json:"index"`
	Versions []string `json:"versions"`
}

// ResolutionError records a package version whose inspection failed. The
// failure is local to this entry, the pass continues past it.
type ResolutionError struct {
	Name    string         `json:"package_name"`
	Index   string         `json:"index"`
	Version string         `json:"version"`
	Type    ErrorType      `json:"type"`
	Details map[string]any `json:"details"`
}

// UnparsedRequirement records an input requirement string that could not
// be parsed.
type UnparsedRequirement struct {
	Requirement string `json:"requirement"`
	Details     string `json:"details"`
}

// UnresolvedRequirement records a parsed requirement for which the pass's
// index offered no matching version.
type UnresolvedRequirement struct {
	Name        string `json:"package_name"`
	VersionSpec string `json:"version_spec"`
	Index       string `json:"index"`
}

// EnvironmentPackage is one package of the virtualenv baseline captured
// before any inspection mutates the environment.
type EnvironmentPackage struct {
	Name         string                  `json:"package_name"`
	Version      string                  `json:"package_version"`
	Dependencies []EnvironmentDependency `json:"dependencies"`
}

// EnvironmentDependency is one declared dependency of a baseline package.
type EnvironmentDependency struct {
	Name            string `json:"package_name"`
	RequiredVersion string `json:"required_version"`
}

// PackageKey identifies one package version independent of name spelling.
// The visited set keys on it, so every (name, version) is inspected at
// most once per pass.
type PackageKey struct {
	Name    string
	Version string
}

// NewPackageKey builds a key with the name normalized per PEP 503.
func NewPackageKey(name, version string) PackageKey {
	return PackageKey{Name: requirement.NormalizeName(name), Version: version}
}

func newPassResult() *PassResult {
	return &PassResult{
		Tree:        []DependencyEntry{},
		Errors:      []ResolutionError{},
		Unparsed:    []UnparsedRequirement{},
		Unresolved:  []UnresolvedRequirement{},
		Environment: []EnvironmentPackage{},
	}
}

func environmentPackages(infos []pyenv.PackageInfo) []EnvironmentPackage {
	out := make([]EnvironmentPackage, 0, len(infos))
	for _, info := range infos {
		pkg := EnvironmentPackage{
			Name:         info.Name,
			Version:      info.Version,
			Dependencies: make([]EnvironmentDependency, 0, len(info.Dependencies)),
		}
		for _, dep := range info.Dependencies {
			pkg.Dependencies = append(pkg.Dependencies, EnvironmentDependency{
				Name:            dep.Name,
				RequiredVersion: dep.Range,
			})
		}
		out = append(out, pkg)
	}
	return out
}
