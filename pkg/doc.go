// Package pkg provides the core libraries for Solvent dependency resolution.
//
// # Overview
//
// Solvent answers one question about Python packaging: given a set of
// requirements and one or more package indices, which concrete versions can
// be installed, and what does each of them actually depend on? Instead of
// trusting declared metadata, Solvent installs every candidate version into
// a throwaway virtual environment and records what the installer produced.
// The pkg directory is organized into four main areas:
//
//  1. [solver] - Resolution passes over package indices (the core)
//  2. [index], [pyenv], [requirement], [pep440] - Python packaging primitives
//  3. [document], [depgraph] - Result persistence and graph export
//  4. [cache], [httputil], [cmdutil], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through Solvent:
//
//	Requirements (CLI args, requirements.txt, Pipfile, pyproject.toml)
//	         ↓
//	    [requirement] package (parse names and version specifiers)
//	         ↓
//	    [index] package (list candidate versions per index)
//	         ↓
//	    [pyenv] package (install candidates, read installed metadata)
//	         ↓
//	    [solver] package (walk the dependency tree, collect results)
//	         ↓
//	    JSON documents, DOT/SVG/PNG graphs
//
// # Quick Start
//
// Resolve requirements and persist the result as a document:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/solvent/pkg/document"
//	    "github.com/matzehuels/solvent/pkg/solver"
//	)
//
//	// 1. Resolve against the default index
//	results, _ := solver.Resolve(context.Background(), solver.Options{
//	    Requirements:  []string{"flask==2.0.1"},
//	    IndexURLs:     []string{solver.DefaultIndexURL},
//	    PythonVersion: 3,
//	    Transitive:    true,
//	})
//
//	// 2. Wrap the passes in a document
//	doc := document.New(results, document.Meta{
//	    PythonVersion: 3,
//	    Requirements:  []string{"flask==2.0.1"},
//	    Transitive:    true,
//	})
//
//	// 3. Write it to disk
//	_ = doc.Write("flask.json")
//
// # Main Packages
//
// ## Core Resolution
//
// [solver] - One resolution pass per configured index. Each pass seeds a
// work queue from the parsed requirements, installs queued versions into an
// ephemeral virtual environment, reads the installed dependency tree back,
// and cross-resolves every discovered dependency against all indices.
// Failures are recorded per package and never abort a pass.
//
// [index] - Package index clients for the PyPI JSON API and the PEP 503
// simple API. A shared rate-limited HTTP client with retry and caching
// backs every source.
//
// [pyenv] - Virtual environment management. Creates environments with
// virtualenv, installs pinned versions with pip, and reads the installed
// tree with pipdeptree. Probes restore any previously installed version of
// the same package afterwards.
//
// [requirement] - Requirement string parsing (name, extras, specifier set,
// markers) and manifest loading for requirements.txt, Pipfile, and
// pyproject.toml.
//
// [pep440] - Version parsing and specifier matching per PEP 440, including
// pre-release admission rules.
//
// ## Results
//
// [document] - Resolution documents: metadata plus the per-index passes.
// JSON serialization and two [document.Store] backends, filesystem and
// MongoDB.
//
// [depgraph] - Builds a deduplicated package graph from resolution results
// and exports it as DOT, SVG, or PNG via Graphviz.
//
// ## Infrastructure
//
// [cache] - Cache backends for index metadata: file, Redis, and null. Keys
// are hashed, entries carry a TTL.
//
// [httputil] - Rate-limited HTTP client and retry with exponential backoff.
//
// [cmdutil] - Subprocess execution with captured output and typed command
// errors.
//
// [errors] - Error codes, wrapping helpers, and input validators shared by
// all packages.
//
// [observability] - Hook interfaces for resolution, cache, and HTTP events
// with no-op defaults. Backends are registered by main, never by libraries.
//
// [buildinfo] - Build metadata injected via ldflags.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/solver/...      # Specific package
//	go test -run Example          # Examples only
//
// [solver]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/solver
// [index]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/index
// [pyenv]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/pyenv
// [requirement]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/requirement
// [pep440]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/pep440
// [document]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/document
// [document.Store]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/document#Store
// [depgraph]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/depgraph
// [cache]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/httputil
// [cmdutil]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/cmdutil
// [errors]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/solvent/pkg/buildinfo
package pkg
