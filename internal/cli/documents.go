package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	solventerrors "github.com/matzehuels/solvent/pkg/errors"
)

// documentsCommand creates the documents listing command.
func (c *CLI) documentsCommand() *cobra.Command {
	var storeURI string

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents in the configured store",
		Long: `List resolution documents kept in a store, newest first.

The store is named by --store or the SOLVENT_STORE environment variable:
a directory path selects the file store, a mongodb:// URI selects
MongoDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDocuments(cmd.Context(), storeURI)
		},
	}
	cmd.Flags().StringVar(&storeURI, "store", "", "document store (directory or mongodb:// URI)")

	return cmd
}

func (c *CLI) runDocuments(ctx context.Context, storeURI string) error {
	store, err := c.openStore(ctx, storeURI)
	if err != nil {
		return err
	}
	if store == nil {
		return solventerrors.New(solventerrors.ErrCodeInvalidInput,
			"no document store configured; pass --store or set SOLVENT_STORE")
	}
	defer store.Close()

	metas, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		printInfo("The store has no documents")
		return nil
	}

	for _, meta := range metas {
		fmt.Println(StyleHighlight.Render(meta.ID) + "  " + StyleDim.Render(formatRelativeTime(meta.Datetime)))
		printDetail("py%d · %s", meta.PythonVersion, truncate(strings.Join(meta.Requirements, ", "), 60))
	}
	printNewline()
	printNextStep("Export a document", "solvent export <id>")
	return nil
}
