package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracevec/tracevec/internal/api"
	"github.com/tracevec/tracevec/pkg/vectorize"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cfg := c.Config.Serve
	opts := c.Config.Vectorize

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vectorization HTTP API",
		Long: `Run the vectorization HTTP API.

Endpoints:
  POST /v1/vectorize   vectorize a base64-encoded image
  GET  /v1/info        engine capabilities and defaults
  GET  /healthz        liveness probe

The server shuts down gracefully on SIGINT/SIGTERM, letting in-flight
requests finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "maximum request body size")

	return cmd
}

// runServe starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (c *CLI) runServe(ctx context.Context, cfg ServeConfig, opts vectorize.Options) error {
	handler := api.New(c.Logger, opts, cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
