// Package pyenv manages the throwaway Python environments used to inspect
// packages. Each Environment owns one virtualenv with pipdeptree installed
// into it. Probing a package installs it into the virtualenv and reads the
// dependency metadata pip recorded, so the reported dependencies are exactly
// what an installation produces rather than what static metadata claims.
//
// # Probe lifecycle
//
// Probe runs a fixed sequence against the environment's interpreter:
//
//  1. Record the currently installed version of the package, if any.
//  2. pip install --force-reinstall --no-cache-dir --no-deps name==version,
//     pinned to the requested index.
//  3. Read the package entry back from pipdeptree.
//  4. Restore the previous state: reinstall the recorded version, or
//     uninstall the package when it was absent before the probe.
//
// Restoration runs whenever the install in step 2 succeeded, even when the
// inspection in step 3 fails, and a failed restoration is reported as a
// warning rather than an error. A package that installs cleanly but never
// shows up in the pipdeptree inventory yields ErrNotSitePackage.
//
// # Usage
//
//	env, err := pyenv.New(ctx, pyenv.Options{PythonVersion: 3})
//	if err != nil {
//	    return err
//	}
//	defer env.Close()
//
//	baseline, err := env.Snapshot(ctx)
//	if err != nil {
//	    return err
//	}
//
//	info, err := env.Probe(ctx, "requests", "2.28.1", "https://pypi.org/simple")
package pyenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/solvent/pkg/cmdutil"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/requirement"
)

// ErrNotSitePackage is returned by Probe when pip reports a successful
// install but the package never appears in the pipdeptree inventory,
// which usually means the artifact is not a site package.
var ErrNotSitePackage = errors.New("package not visible in environment inventory")

// CommandRunner executes interpreter and tooling commands for an
// Environment. *cmdutil.Runner satisfies it.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*cmdutil.Result, error)
	RunJSON(ctx context.Context, v any, name string, args ...string) error
}

// Options configures a new Environment.
type Options struct {
	// Dir is the parent directory for the virtualenv. When empty a
	// temporary directory is created and removed again on Close.
	Dir string

	// PythonVersion selects the interpreter major version, 2 or 3.
	PythonVersion int

	// Logger receives debug and warning output. Defaults to a discard logger.
	Logger *log.Logger

	// Runner executes commands. Defaults to a cmdutil.Runner rooted in Dir.
	Runner CommandRunner
}

// Environment is one virtualenv prepared for package probing.
type Environment struct {
	dir    string
	owned  bool
	python string
	runner CommandRunner
	logger *log.Logger
}

// PackageInfo describes one installed package as reported by pipdeptree.
type PackageInfo struct {
	// Key is the lowercase identifier pipdeptree uses for the package.
	Key string

	// Name is the package name as recorded in its metadata.
	Name string

	// Version is the installed version.
	Version string

	// Dependencies lists the package's declared runtime dependencies.
	Dependencies []DependencyInfo
}

// DependencyInfo is one declared dependency of an installed package.
type DependencyInfo struct {
	// Name is the dependency's package name.
	Name string

	// Range is the declared version range, empty when unconstrained.
	Range string
}

// New creates a virtualenv for the requested Python version and installs
// pipdeptree into it. The returned Environment must be closed when no
// longer needed.
func New(ctx context.Context, opts Options) (*Environment, error) {
	if err := solventerrors.ValidatePythonVersion(opts.PythonVersion); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	dir := opts.Dir
	owned := false
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "solvent-env-")
		if err != nil {
			return nil, solventerrors.Wrap(solventerrors.ErrCodeEnvironment, err, "failed to create environment directory")
		}
		owned = true
	}

	runner := opts.Runner
	if runner == nil {
		runner = &cmdutil.Runner{Dir: dir, Logger: logger}
	}

	interpreter := fmt.Sprintf("python%d", opts.PythonVersion)
	venv := filepath.Join(dir, "venv")
	env := &Environment{
		dir:    dir,
		owned:  owned,
		python: filepath.Join(venv, "bin", interpreter),
		runner: runner,
		logger: logger,
	}

	logger.Debug("creating virtualenv", "dir", venv, "interpreter", interpreter)
	if _, err := runner.Run(ctx, "virtualenv", "-p", interpreter, venv); err != nil {
		env.Close()
		return nil, solventerrors.Wrap(solventerrors.ErrCodeEnvironment, err, "failed to create virtualenv")
	}

	if _, err := runner.Run(ctx, env.python, "-m", "pip", "install", "pipdeptree"); err != nil {
		env.Close()
		return nil, solventerrors.Wrap(solventerrors.ErrCodeEnvironment, err, "failed to install pipdeptree")
	}

	return env, nil
}

// Python returns the path of the environment's interpreter.
func (e *Environment) Python() string {
	return e.python
}

// Snapshot returns the full package inventory of the environment.
func (e *Environment) Snapshot(ctx context.Context) ([]PackageInfo, error) {
	entries, err := e.inventory(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]PackageInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, convertEntry(entry))
	}
	return infos, nil
}

// InstalledVersion reports the installed version of a package, with found
// set to false when the package is absent.
func (e *Environment) InstalledVersion(ctx context.Context, name string) (version string, found bool, err error) {
	info, err := e.lookup(ctx, name)
	if err != nil {
		return "", false, err
	}
	if info == nil {
		return "", false, nil
	}
	return info.Version, true, nil
}

// Probe installs one pinned package from the given index and returns the
// dependency metadata pipdeptree reports for it. The environment is
// restored to its prior state afterwards; a failed restoration is logged
// as a warning and does not fail the probe.
func (e *Environment) Probe(ctx context.Context, name, version, indexURL string) (*PackageInfo, error) {
	prior, err := e.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("installing package", "package", name, "version", version, "index_url", indexURL)
	args := []string{"-m", "pip", "install", "--force-reinstall", "--no-cache-dir", "--no-deps", fmt.Sprintf("%s==%s", name, version)}
	if indexURL != "" {
		args = append(args, "--index-url", indexURL)
	}
	if _, err := e.runner.Run(ctx, e.python, args...); err != nil {
		return nil, err
	}
	defer e.restore(ctx, name, prior)

	info, err := e.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		e.logger.Warn("package not found in environment inventory", "package", name, "version", version)
		return nil, ErrNotSitePackage
	}

	if info.Version != version {
		e.logger.Warn("installed version differs from requested version",
			"package", name, "requested", version, "installed", info.Version)
	}
	if info.Name != name {
		e.logger.Warn("installed package name differs from requested name",
			"requested", name, "installed", info.Name)
	}

	return info, nil
}

// Close releases the environment, removing its directory when it was
// created by New.
func (e *Environment) Close() error {
	if !e.owned {
		return nil
	}
	if err := os.RemoveAll(e.dir); err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeEnvironment, err, "failed to remove environment directory")
	}
	return nil
}

// restore reinstalls the version recorded before a probe, or uninstalls
// the package when it was absent. Failures are warnings only.
func (e *Environment) restore(ctx context.Context, name string, prior *PackageInfo) {
	if prior != nil {
		e.logger.Debug("restoring previous version", "package", name, "version", prior.Version)
		spec := fmt.Sprintf("%s==%s", name, prior.Version)
		if _, err := e.runner.Run(ctx, e.python, "-m", "pip", "install", "--force-reinstall", "--no-cache-dir", "--no-deps", spec); err != nil {
			e.logger.Warn("failed to restore previous version, later probes in this environment may be affected",
				"package", name, "version", prior.Version, "err", err)
		}
		return
	}

	e.logger.Debug("removing probed package", "package", name)
	if _, err := e.runner.Run(ctx, e.python, "-m", "pip", "uninstall", "--yes", name); err != nil {
		e.logger.Warn("failed to remove probed package, later probes in this environment may be affected",
			"package", name, "err", err)
	}
}

// lookup returns the inventory entry for one package, or nil when absent.
func (e *Environment) lookup(ctx context.Context, name string) (*PackageInfo, error) {
	entries, err := e.inventory(ctx)
	if err != nil {
		return nil, err
	}

	want := requirement.NormalizeName(name)
	for _, entry := range entries {
		if requirement.NormalizeName(entry.Package.Key) == want {
			info := convertEntry(entry)
			return &info, nil
		}
	}
	return nil, nil
}

func (e *Environment) inventory(ctx context.Context) ([]treeEntry, error) {
	var entries []treeEntry
	if err := e.runner.RunJSON(ctx, &entries, e.python, "-m", "pipdeptree", "--json"); err != nil {
		return nil, err
	}
	return entries, nil
}

// Wire format of pipdeptree --json output.
type treeEntry struct {
	Package      treePackage      `json:"package"`
	Dependencies []treeDependency `json:"dependencies"`
}

type treePackage struct {
	Key     string `json:"key"`
	Name    string `json:"package_name"`
	Version string `json:"installed_version"`
}

type treeDependency struct {
	Key     string `json:"key"`
	Name    string `json:"package_name"`
	Version string `json:"installed_version"`
	Range   string `json:"required_version"`
}

func convertEntry(entry treeEntry) PackageInfo {
	info := PackageInfo{
		Key:          entry.Package.Key,
		Name:         entry.Package.Name,
		Version:      entry.Package.Version,
		Dependencies: make([]DependencyInfo, 0, len(entry.Dependencies)),
	}
	for _, dep := range entry.Dependencies {
		info.Dependencies = append(info.Dependencies, DependencyInfo{
			Name:  dep.Name,
			Range: normalizeRange(dep.Range),
		})
	}
	return info
}

// pipdeptree reports an unconstrained dependency as "Any".
func normalizeRange(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "any") {
		return ""
	}
	return s
}
