package solver

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/index"
	"github.com/matzehuels/solvent/pkg/pep440"
	"github.com/matzehuels/solvent/pkg/requirement"
)

// VersionSolver resolves requirement strings to concrete versions against
// one fixed index. One solver exists per configured index and is reused
// for the whole resolution.
type VersionSolver struct {
	source *index.Source
	logger *log.Logger
}

// NewVersionSolver builds a solver for one index.
func NewVersionSolver(source *index.Source, logger *log.Logger) *VersionSolver {
	return &VersionSolver{source: source, logger: logger}
}

// Source returns the index this solver resolves against.
func (s *VersionSolver) Source() *index.Source {
	return s.source
}

// Solve resolves each requirement string to the available versions matching
// its specifiers, keyed by normalized package name and sorted ascending.
// With allVersions false only the newest matching version is kept. A
// package unknown to the index surfaces as index.ErrNotFound.
func (s *VersionSolver) Solve(ctx context.Context, requirements []string, allVersions bool) (map[string][]string, error) {
	resolved := make(map[string][]string, len(requirements))

	for _, raw := range requirements {
		req, err := requirement.Parse(raw)
		if err != nil {
			return nil, err
		}

		specs, err := pep440.ParseSpecifiers(req.SpecifierString())
		if err != nil {
			return nil, solventerrors.Wrap(solventerrors.ErrCodeInvalidRequirement, err,
				"invalid version specifiers in %q", raw)
		}

		available, err := s.source.AllVersions(ctx, req.Name)
		if err != nil {
			return nil, err
		}

		matching := make([]string, 0, len(available))
		for _, v := range available {
			if specs.Match(v) {
				matching = append(matching, v)
			}
		}
		if !allVersions && len(matching) > 1 {
			matching = matching[len(matching)-1:]
		}

		resolved[req.NormalizedName()] = matching
	}

	return resolved, nil
}

// resolveVersions resolves one package range at one index. A package
// unknown to the index and a transient resolution failure both yield an
// empty slice, they differ only in what gets logged. The returned slice
// is never nil.
func resolveVersions(ctx context.Context, vs *VersionSolver, logger *log.Logger, name, spec string) []string {
	resolved, err := vs.Solve(ctx, []string{name + spec}, true)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			logger.Info("no versions found for package",
				"package", name, "spec", spec, "index", vs.Source().URL())
		} else {
			logger.Error("failed to resolve versions",
				"package", name, "spec", spec, "index", vs.Source().URL(), "err", err)
		}
		return []string{}
	}

	for _, versions := range resolved {
		return versions
	}
	return []string{}
}
