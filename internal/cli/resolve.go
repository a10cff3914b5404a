package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/solvent/pkg/document"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/observability"
	"github.com/matzehuels/solvent/pkg/requirement"
	"github.com/matzehuels/solvent/pkg/solver"
)

// resolveParams collects the validated inputs of the resolve command.
type resolveParams struct {
	requirements  []string
	indexURLs     []string
	pythonVersion int
	exclude       []string
	transitive    bool
	output        string
	storeURI      string
	noCache       bool
	workDir       string
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		files         []string
		indexes       []string
		pythonVersion int
		exclude       []string
		noTransitive  bool
		output        string
		storeURI      string
		noCache       bool
		workDir       string
	)

	cmd := &cobra.Command{
		Use:   "resolve [REQUIREMENT...]",
		Short: "Resolve Python requirements by observing real installations",
		Long: `Resolve Python requirements into an observed dependency document.

Each requirement is resolved against every configured package index. For
every matching version the resolver installs the package into a throwaway
virtualenv and records the dependencies the installation actually
produced. In transitive mode (the default) discovered dependencies are
fed back into the queue until nothing new turns up.

Requirements are taken from the command line, from manifest files passed
via --requirements (requirements.txt, Pipfile, pyproject.toml), or both.

The result is a JSON document with one entry per index. It is written to
stdout unless --output names a file, and additionally saved when --store
or SOLVENT_STORE names a document store.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requirements, err := collectRequirements(args, files)
			if err != nil {
				return err
			}
			return c.runResolve(cmd.Context(), resolveParams{
				requirements:  requirements,
				indexURLs:     indexURLs(indexes),
				pythonVersion: pythonVersion,
				exclude:       exclude,
				transitive:    !noTransitive,
				output:        output,
				storeURI:      storeURI,
				noCache:       noCache,
				workDir:       workDir,
			})
		},
	}

	cmd.Flags().StringArrayVarP(&files, "requirements", "r", nil, "manifest file with requirements (repeatable)")
	cmd.Flags().StringArrayVarP(&indexes, "index", "i", nil, "package index URL (repeatable, default "+solver.DefaultIndexURL+")")
	cmd.Flags().IntVar(&pythonVersion, "python-version", 3, "interpreter major version (2 or 3)")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "package name never used as a seed (repeatable)")
	cmd.Flags().BoolVar(&noTransitive, "no-transitive", false, "resolve the input requirements only")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&storeURI, "store", "", "document store (directory or mongodb:// URI)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable index metadata caching")
	cmd.Flags().StringVar(&workDir, "workdir", "", "directory hosting the virtualenvs (default temporary)")

	return cmd
}

// collectRequirements merges command-line requirements with manifest files.
func collectRequirements(args, files []string) ([]string, error) {
	requirements := append([]string(nil), args...)
	for _, file := range files {
		loaded, err := requirement.LoadFile(file)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
		requirements = append(requirements, loaded...)
	}
	if len(requirements) == 0 {
		return nil, solventerrors.New(solventerrors.ErrCodeInvalidInput,
			"no requirements given; pass them as arguments or via --requirements")
	}
	return requirements, nil
}

// runResolve validates inputs, runs the resolver and writes the document.
func (c *CLI) runResolve(ctx context.Context, params resolveParams) error {
	if err := solventerrors.ValidatePythonVersion(params.pythonVersion); err != nil {
		return err
	}
	for _, indexURL := range params.indexURLs {
		if err := solventerrors.ValidateIndexURL(indexURL); err != nil {
			return err
		}
	}

	backend, err := c.newCache(ctx, params.noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer backend.Close()

	// When the document goes to stdout all decoration stays off it.
	toStdout := params.output == "" || params.output == "-"

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d requirements against %d indices...",
		len(params.requirements), len(params.indexURLs)))
	spinner.Start()

	// Pass and probe events update the spinner while the solver runs.
	observability.SetSolverHooks(newSpinnerHooks(spinner, c.Logger, len(params.indexURLs)))
	defer observability.SetSolverHooks(observability.NoopSolverHooks{})

	prog := newProgress(c.Logger)
	started := time.Now()
	results, err := solver.Resolve(ctx, solver.Options{
		Requirements:    params.requirements,
		IndexURLs:       params.indexURLs,
		PythonVersion:   params.pythonVersion,
		ExcludePackages: params.exclude,
		Transitive:      params.transitive,
		WorkDir:         params.workDir,
		Logger:          c.Logger,
		Cache:           backend,
		CacheTTL:        defaultCacheTTL,
	})
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Resolution failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Resolved %d passes", len(results)))

	doc := document.New(results, document.Meta{
		Duration:      time.Since(started).Seconds(),
		PythonVersion: params.pythonVersion,
		IndexURLs:     params.indexURLs,
		Requirements:  params.requirements,
		Transitive:    params.transitive,
	})

	if storeErr := c.storeDocument(ctx, params.storeURI, doc); storeErr != nil {
		c.Logger.Warn("failed to store document", "document_id", doc.Metadata.ID, "error", storeErr)
	}

	if toStdout {
		return doc.WriteJSON(os.Stdout)
	}

	printResolveSummary(doc, time.Since(started))
	if err := doc.Write(params.output); err != nil {
		return err
	}
	printFile(params.output)
	printNewline()
	printNextStep("Export the graph", "solvent export "+params.output)
	return nil
}

// storeDocument saves doc when a store is configured via flag or
// environment. A nil error with no store configured is the common case.
func (c *CLI) storeDocument(ctx context.Context, uri string, doc *document.Document) error {
	store, err := c.openStore(ctx, uri)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, doc); err != nil {
		return err
	}
	c.Logger.Info("document stored", "document_id", doc.Metadata.ID)
	return nil
}

// printResolveSummary prints per-pass statistics after a resolution.
func printResolveSummary(doc *document.Document, elapsed time.Duration) {
	printSuccess("Resolved %d requirements in %s",
		len(doc.Metadata.Requirements), elapsed.Round(time.Millisecond))
	for i, pass := range doc.Result {
		indexURL := ""
		if i < len(doc.Metadata.IndexURLs) {
			indexURL = doc.Metadata.IndexURLs[i]
		}
		printPassStats(indexURL, len(pass.Tree), len(pass.Errors), len(pass.Unresolved))
	}
	if len(doc.Result) > 0 && len(doc.Result[0].Unparsed) > 0 {
		printWarning("%d requirements could not be parsed", len(doc.Result[0].Unparsed))
	}
}
