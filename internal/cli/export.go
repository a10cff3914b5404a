package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/solvent/pkg/depgraph"
	"github.com/matzehuels/solvent/pkg/document"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
)

// Export formats.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPNG  = "png"
	formatJSON = "json"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format   string
		output   string
		storeURI string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export [DOCUMENT]",
		Short: "Export a resolution document as a dependency graph",
		Long: `Export a resolution document as DOT, SVG, PNG, or JSON.

DOCUMENT is a path to a document JSON file, or the id of a document in
the configured store. When DOCUMENT is omitted and a store is available,
an interactive picker lists the stored documents.

The graph contains one node per package version. Solid nodes were
inspected by the resolver; dashed nodes were resolved from an index but
never installed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return c.runExport(cmd.Context(), ref, format, output, storeURI, detailed)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg, png, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout for dot/json, <id>.<format> otherwise)")
	cmd.Flags().StringVar(&storeURI, "store", "", "document store (directory or mongodb:// URI)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include index provenance in node labels")

	return cmd
}

// runExport loads the document and writes it in the requested format.
func (c *CLI) runExport(ctx context.Context, ref, format, output, storeURI string, detailed bool) error {
	if err := validateExportFormat(format); err != nil {
		return err
	}

	doc, err := c.loadDocument(ctx, ref, storeURI)
	if err != nil {
		return err
	}
	if doc == nil {
		// Picker dismissed without a selection.
		return nil
	}
	loggerFromContext(ctx).Debug("loaded document", "document_id", doc.Metadata.ID, "passes", len(doc.Result))

	if format == formatJSON {
		if output == "" || output == "-" {
			return doc.WriteJSON(os.Stdout)
		}
		if err := doc.Write(output); err != nil {
			return err
		}
		printFile(output)
		return nil
	}

	g := depgraph.FromResults(doc.Result)
	dot := depgraph.ToDOT(g, depgraph.Options{Detailed: detailed})

	if format == formatDOT {
		if output == "" || output == "-" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
		return nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()

	var data []byte
	if format == formatSVG {
		data, err = depgraph.RenderSVG(dot)
	} else {
		data, err = depgraph.RenderPNG(dot)
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	path := output
	if path == "" {
		path = doc.Metadata.ID + "." + format
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Rendered %d nodes, %d edges", len(g.Nodes()), len(g.Edges()))
	printFile(path)
	return nil
}

// loadDocument resolves a document reference: an existing file path wins,
// then a store id. An empty reference opens the interactive picker.
func (c *CLI) loadDocument(ctx context.Context, ref, storeURI string) (*document.Document, error) {
	if ref != "" {
		if _, err := os.Stat(ref); err == nil {
			return document.Read(ref)
		}
		store, err := c.openStore(ctx, storeURI)
		if err != nil {
			return nil, err
		}
		if store == nil {
			return nil, solventerrors.New(solventerrors.ErrCodeInvalidInput,
				"%s is not a file and no document store is configured", ref)
		}
		defer store.Close()
		return store.Get(ctx, ref)
	}

	store, err := c.openStore(ctx, storeURI)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, solventerrors.New(solventerrors.ErrCodeInvalidInput,
			"pass a document file or configure a store to pick from")
	}
	defer store.Close()

	metas, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, solventerrors.New(solventerrors.ErrCodeNotFound, "the store has no documents")
	}

	selected, err := pickDocument(metas)
	if err != nil || selected == nil {
		return nil, err
	}
	return store.Get(ctx, selected.ID)
}

func validateExportFormat(format string) error {
	switch format {
	case formatDOT, formatSVG, formatPNG, formatJSON:
		return nil
	}
	return solventerrors.New(solventerrors.ErrCodeInvalidFormat,
		"unsupported format %q, use dot, svg, png, or json", format)
}
