// Package solver builds transitive dependency graphs for Python
// requirements by observing real installations instead of trusting
// declared metadata.
//
// For every configured package index the solver runs one pass: it
// resolves the input requirements to concrete versions, installs each
// version into a throwaway virtualenv and records the dependencies the
// installation actually produced. Discovered dependencies are resolved
// against every configured index and, in transitive mode, fed back into
// the work queue until nothing new turns up.
//
// Failures stay local to the entry that caused them. An unparsable
// requirement, a requirement no version matches and a package whose
// installation or inspection fails are all recorded in the PassResult
// while the pass moves on. Only a malformed Python version fails a
// Resolve call before any work starts.
//
// # Usage
//
//	results, err := solver.Resolve(ctx, solver.Options{
//	    Requirements:  []string{"requests>=2.28"},
//	    IndexURLs:     []string{"https://pypi.org/simple"},
//	    PythonVersion: 3,
//	    Transitive:    true,
//	})
//	if err != nil {
//	    return err
//	}
//
// One PassResult is returned per configured index, in input order.
package solver

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/solvent/pkg/cache"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/index"
	"github.com/matzehuels/solvent/pkg/pyenv"
	"github.com/matzehuels/solvent/pkg/requirement"
)

// DefaultIndexURL is the index used when none is configured.
const DefaultIndexURL = "https://pypi.org/simple"

// Options configures one Resolve call.
type Options struct {
	// Requirements are the raw requirement strings to resolve.
	Requirements []string

	// IndexURLs are the package indices to run passes against, in order.
	// Defaults to DefaultIndexURL when empty.
	IndexURLs []string

	// PythonVersion selects the interpreter major version, 2 or 3.
	PythonVersion int

	// ExcludePackages are names never admitted as seeds. Exclusion applies
	// to the input requirements only, not to transitive discoveries.
	ExcludePackages []string

	// Transitive controls whether discovered dependencies are inspected
	// in turn.
	Transitive bool

	// WorkDir hosts the virtualenvs. A temporary directory per pass is
	// used when empty.
	WorkDir string

	// Logger receives progress output. Defaults to a discard logger.
	Logger *log.Logger

	// Cache backs the index metadata lookups. Defaults to no caching.
	Cache cache.Cache

	// CacheTTL bounds the age of cached index metadata.
	CacheTTL time.Duration
}

// environment is the part of pyenv.Environment a pass drives.
type environment interface {
	Snapshot(ctx context.Context) ([]pyenv.PackageInfo, error)
	Probe(ctx context.Context, name, version, indexURL string) (*pyenv.PackageInfo, error)
	Close() error
}

type envFactory func(ctx context.Context, opts pyenv.Options) (environment, error)

func newEnvironment(ctx context.Context, opts pyenv.Options) (environment, error) {
	return pyenv.New(ctx, opts)
}

// Resolve runs one pass per configured index and returns the results in
// index order. It fails without running any pass when PythonVersion is
// neither 2 nor 3; a pass aborts only when its environment cannot be
// prepared.
func Resolve(ctx context.Context, opts Options) ([]PassResult, error) {
	b, err := newBuilder(opts)
	if err != nil {
		return nil, err
	}
	return b.run(ctx)
}

// builder holds the per-call state shared by all passes: one Source and
// one VersionSolver per index, both stateless and reused.
type builder struct {
	solvers       []*VersionSolver
	requirements  []string
	exclude       mapset.Set[string]
	transitive    bool
	pythonVersion int
	workDir       string
	logger        *log.Logger
	newEnv        envFactory
}

func newBuilder(opts Options) (*builder, error) {
	if err := solventerrors.ValidatePythonVersion(opts.PythonVersion); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	indexURLs := opts.IndexURLs
	if len(indexURLs) == 0 {
		indexURLs = []string{DefaultIndexURL}
	}

	client := index.NewClient(opts.Cache, opts.CacheTTL)
	solvers := make([]*VersionSolver, 0, len(indexURLs))
	for _, u := range indexURLs {
		solvers = append(solvers, NewVersionSolver(index.NewSource(u, client), logger))
	}

	exclude := mapset.NewThreadUnsafeSet[string]()
	for _, name := range opts.ExcludePackages {
		exclude.Add(requirement.NormalizeName(name))
	}

	return &builder{
		solvers:       solvers,
		requirements:  opts.Requirements,
		exclude:       exclude,
		transitive:    opts.Transitive,
		pythonVersion: opts.PythonVersion,
		workDir:       opts.WorkDir,
		logger:        logger,
		newEnv:        newEnvironment,
	}, nil
}

func (b *builder) run(ctx context.Context) ([]PassResult, error) {
	results := make([]PassResult, 0, len(b.solvers))

	for _, vs := range b.solvers {
		result, err := b.runPass(ctx, vs)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	return results, nil
}

// runPass prepares a fresh environment and resolves all requirements
// against one index.
func (b *builder) runPass(ctx context.Context, vs *VersionSolver) (*PassResult, error) {
	env, err := b.newEnv(ctx, pyenv.Options{
		Dir:           b.workDir,
		PythonVersion: b.pythonVersion,
		Logger:        b.logger,
	})
	if err != nil {
		return nil, err
	}
	defer env.Close()

	p := newPass(vs, b.solvers, env, b.exclude, b.transitive, b.logger)
	return p.run(ctx, b.requirements)
}
