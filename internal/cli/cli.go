// Package cli implements the solvent command-line interface.
//
// This package provides commands for resolving Python requirements into
// observed dependency documents, exporting stored documents as DOT, SVG,
// or PNG graphs, serving the HTTP API, and managing the index metadata
// cache. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - resolve: Run the resolver against one or more package indices
//   - export: Turn a stored document into DOT, SVG, PNG, or JSON output
//   - documents: List documents kept in a store
//   - serve: Expose the resolver over HTTP
//   - cache: Manage the index metadata cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The
// logger lives on the CLI struct and is handed to every collaborator
// through its Options.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/solvent/pkg/buildinfo"
	"github.com/matzehuels/solvent/pkg/cache"
	"github.com/matzehuels/solvent/pkg/document"
	"github.com/matzehuels/solvent/pkg/solver"
)

const (
	// appName is the application name used for directories and display.
	appName = "solvent"

	// defaultCacheTTL bounds how long index metadata (available versions,
	// release hashes) is served from cache.
	defaultCacheTTL = time.Hour
)

// Log levels re-exported so main.go does not import charmbracelet/log.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI carries the state shared by every command.
type CLI struct {
	Logger *log.Logger
}

// New builds a CLI logging to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel adjusts the logger after construction, for --verbose.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "solvent",
		Short:        "Solvent resolves Python dependency graphs by observing installations",
		Long:         `Solvent builds transitive dependency graphs for Python requirements by installing each package version into a throwaway virtualenv and recording what the installation actually pulled in, instead of trusting declared metadata.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.documentsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache builds the index metadata cache backend. SOLVENT_REDIS_URL
// selects Redis; otherwise a file cache under the XDG cache directory is
// used. An unreachable Redis degrades to the file cache with a warning.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := os.Getenv("SOLVENT_REDIS_URL"); url != "" {
		backend, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			return backend, nil
		}
		c.Logger.Warn("redis cache unavailable, using file cache", "error", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openStore opens the document store named by uri, falling back to the
// SOLVENT_STORE environment variable. Returns nil when neither is set.
func (c *CLI) openStore(ctx context.Context, uri string) (document.Store, error) {
	if uri == "" {
		uri = os.Getenv("SOLVENT_STORE")
	}
	if uri == "" {
		return nil, nil
	}
	return document.OpenStore(ctx, uri)
}

// cacheDir returns the index metadata cache location, honoring
// XDG_CACHE_HOME and defaulting to ~/.cache/solvent.
func cacheDir() (string, error) {
	if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// indexURLs applies the default index when none was given on the command
// line: SOLVENT_INDEX_URL if set, the public PyPI simple index otherwise.
func indexURLs(flagged []string) []string {
	if len(flagged) > 0 {
		return flagged
	}
	if url := os.Getenv("SOLVENT_INDEX_URL"); url != "" {
		return []string{url}
	}
	return []string{solver.DefaultIndexURL}
}
