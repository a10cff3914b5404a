package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/solvent/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		storeURI string
		workDir  string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolver over HTTP",
		Long: `Serve the resolver as a JSON API.

POST /api/v1/resolve runs a resolution synchronously. When a store is
configured via --store or SOLVENT_STORE, results are persisted and the
document endpoints list and fetch them. The server shuts down gracefully
on SIGINT and SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, storeURI, workDir, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&storeURI, "store", "", "document store (directory or mongodb:// URI)")
	cmd.Flags().StringVar(&workDir, "workdir", "", "directory hosting the virtualenvs (default temporary)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable index metadata caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, storeURI, workDir string, noCache bool) error {
	logger := loggerFromContext(ctx)

	backend, err := c.newCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer backend.Close()

	store, err := c.openStore(ctx, storeURI)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	server := api.New(api.Options{
		Logger:   logger,
		Store:    store,
		Cache:    backend,
		CacheTTL: defaultCacheTTL,
		WorkDir:  workDir,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printInfo("Serving on %s", addr)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
