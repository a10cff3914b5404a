package solver

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/solvent/pkg/cmdutil"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/observability"
	"github.com/matzehuels/solvent/pkg/pyenv"
	"github.com/matzehuels/solvent/pkg/requirement"
)

// queuedPackage is one pinned package version awaiting inspection. The
// original name spelling is kept for the pip invocation, the visited set
// uses the normalized key.
type queuedPackage struct {
	name    string
	version string
}

// pass resolves all requirements against one index. It owns the visited
// set and the work queue; nothing in it is shared across passes or
// goroutines, the traversal is deliberately sequential.
type pass struct {
	solver     *VersionSolver
	all        []*VersionSolver
	env        environment
	exclude    mapset.Set[string]
	transitive bool
	logger     *log.Logger

	visited mapset.Set[PackageKey]
	queue   []queuedPackage
	result  *PassResult
}

func newPass(vs *VersionSolver, all []*VersionSolver, env environment, exclude mapset.Set[string], transitive bool, logger *log.Logger) *pass {
	return &pass{
		solver:     vs,
		all:        all,
		env:        env,
		exclude:    exclude,
		transitive: transitive,
		logger:     logger,
		visited:    mapset.NewThreadUnsafeSet[PackageKey](),
		result:     newPassResult(),
	}
}

// run seeds the queue from the input requirements, captures the
// environment baseline and drains the queue until empty.
func (p *pass) run(ctx context.Context, requirements []string) (*PassResult, error) {
	start := time.Now()
	observability.Solver().OnPassStart(ctx, p.index(), len(requirements))

	p.seed(ctx, requirements)

	if err := p.snapshot(ctx); err != nil {
		return nil, err
	}

	p.drain(ctx)
	observability.Solver().OnPassComplete(ctx, p.index(),
		len(p.result.Tree), len(p.result.Errors), time.Since(start))
	return p.result, nil
}

func (p *pass) index() string {
	return p.solver.Source().URL()
}

// enqueue admits a package version unless its key has been seen before.
func (p *pass) enqueue(name, version string) {
	key := NewPackageKey(name, version)
	if p.visited.Contains(key) {
		return
	}
	p.visited.Add(key)
	p.queue = append(p.queue, queuedPackage{name: name, version: version})
}

// seed parses the input requirements and resolves each one against this
// pass's index. Parse failures land in unparsed, requirements without a
// matching version in unresolved, everything else enters the queue.
// Excluded names are skipped here and only here, a later transitive
// discovery of the same name is still admitted.
func (p *pass) seed(ctx context.Context, requirements []string) {
	for _, raw := range requirements {
		p.logger.Debug("parsing requirement", "requirement", raw)

		req, err := requirement.Parse(raw)
		if err != nil {
			p.result.Unparsed = append(p.result.Unparsed, UnparsedRequirement{
				Requirement: raw,
				Details:     err.Error(),
			})
			continue
		}

		if p.exclude.Contains(req.NormalizedName()) {
			p.logger.Debug("skipping excluded package", "package", req.Name)
			continue
		}

		spec := req.SpecifierString()
		versions := resolveVersions(ctx, p.solver, p.logger, req.Name, spec)
		if len(versions) == 0 {
			p.logger.Warn("no versions resolved for requirement",
				"package", req.Name, "spec", spec, "index", p.index())
			p.result.Unresolved = append(p.result.Unresolved, UnresolvedRequirement{
				Name:        req.Name,
				VersionSpec: spec,
				Index:       p.index(),
			})
			continue
		}

		for _, version := range versions {
			p.enqueue(req.Name, version)
		}
	}
}

// snapshot records the environment inventory before any inspection
// mutates it.
func (p *pass) snapshot(ctx context.Context) error {
	infos, err := p.env.Snapshot(ctx)
	if err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeEnvironment, err, "failed to capture environment inventory")
	}
	p.result.Environment = environmentPackages(infos)
	return nil
}

// drain inspects queued packages until the queue is empty. The queue is
// popped from the tail, so freshly discovered dependencies are inspected
// before older siblings. Inspection failures are recorded per entry and
// never abort the pass.
func (p *pass) drain(ctx context.Context) {
	for len(p.queue) > 0 {
		item := p.queue[len(p.queue)-1]
		p.queue = p.queue[:len(p.queue)-1]

		p.logger.Info("inspecting package",
			"index", p.index(), "package", item.name, "version", item.version)

		probeStart := time.Now()
		observability.Solver().OnProbeStart(ctx, item.name, item.version)
		info, err := p.env.Probe(ctx, item.name, item.version, p.index())
		observability.Solver().OnProbeComplete(ctx, item.name, item.version, time.Since(probeStart), err)
		if err != nil {
			p.recordProbeError(item, err)
			continue
		}

		entry := p.newEntry(ctx, info)
		entry.Dependencies = p.resolveDependencies(ctx, info.Dependencies)
		p.result.Tree = append(p.result.Tree, entry)
	}
}

// recordProbeError maps a failed inspection onto the errors array.
func (p *pass) recordProbeError(item queuedPackage, err error) {
	var cmdErr *cmdutil.CommandError

	switch {
	case errors.As(err, &cmdErr):
		p.logger.Debug("package inspection failed",
			"package", item.name, "version", item.version, "index", p.index(), "err", err)
		p.result.Errors = append(p.result.Errors, ResolutionError{
			Name:    item.name,
			Index:   p.index(),
			Version: item.version,
			Type:    ErrorTypeCommand,
			Details: cmdErr.Details(),
		})
	case errors.Is(err, pyenv.ErrNotSitePackage):
		p.result.Errors = append(p.result.Errors, ResolutionError{
			Name:    item.name,
			Index:   p.index(),
			Version: item.version,
			Type:    ErrorTypeNotSitePackage,
			Details: map[string]any{
				"message": "failed to get information about installed package, probably not a site package",
			},
		})
	default:
		p.result.Errors = append(p.result.Errors, ResolutionError{
			Name:    item.name,
			Index:   p.index(),
			Version: item.version,
			Type:    ErrorTypeCommand,
			Details: map[string]any{"message": err.Error()},
		})
	}
}

// newEntry builds the tree entry for an inspected package, attaching the
// index it was installed from and the sha256 digests of its release
// files. A failed hash lookup keeps an empty list.
func (p *pass) newEntry(ctx context.Context, info *pyenv.PackageInfo) DependencyEntry {
	entry := DependencyEntry{
		Name:         info.Name,
		Version:      info.Version,
		IndexURL:     p.index(),
		SHA256:       []string{},
		Dependencies: []Dependency{},
	}

	hashes, err := p.solver.Source().Hashes(ctx, info.Name, info.Version)
	if err != nil {
		p.logger.Warn("failed to fetch release hashes",
			"package", info.Name, "version", info.Version, "index", p.index(), "err", err)
		return entry
	}
	entry.SHA256 = hashes
	return entry
}

// resolveDependencies resolves each declared dependency range against
// every configured index, in configuration order. In transitive mode any
// version resolved at any index is admitted to the queue, so admission is
// the union across indices.
func (p *pass) resolveDependencies(ctx context.Context, deps []pyenv.DependencyInfo) []Dependency {
	out := make([]Dependency, 0, len(deps))

	for _, dep := range deps {
		resolved := make([]ResolvedVersions, 0, len(p.all))

		for _, vs := range p.all {
			indexURL := vs.Source().URL()
			p.logger.Info("resolving dependency versions",
				"package", dep.Name, "range", dep.Range, "index", indexURL)

			versions := resolveVersions(ctx, vs, p.logger, dep.Name, dep.Range)
			p.logger.Debug("resolved dependency versions",
				"package", dep.Name, "range", dep.Range, "index", indexURL, "versions", versions)

			resolved = append(resolved, ResolvedVersions{Index: indexURL, Versions: versions})

			if !p.transitive {
				continue
			}
			for _, version := range versions {
				p.enqueue(dep.Name, version)
			}
		}

		out = append(out, Dependency{
			Name:             dep.Name,
			RequiredVersion:  dep.Range,
			ResolvedVersions: resolved,
		})
	}

	return out
}
