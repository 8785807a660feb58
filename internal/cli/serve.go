package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphprod/pkg/api"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the serve command, which exposes the session store
// over HTTP until the process is interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes sessions, canonicalization and statistics over HTTP.

Routes:
  GET    /healthz
  POST   /canonicalize
  POST   /stats
  GET    /sessions
  PUT    /sessions/{name}
  GET    /sessions/{name}
  DELETE /sessions/{name}
  GET    /sessions/{name}/stats
  POST   /sessions/{name}/apply
  GET    /sessions/{name}/render?format=svg|dot`,
		Example: `  graphprod serve --addr :8080 --store redis --redis-addr localhost:6379`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(store, c.Logger).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      2 * time.Minute,
			}
			return c.listen(ctx, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	c.addStoreFlags(cmd)
	return cmd
}

// listen runs srv until ctx is cancelled, then shuts it down gracefully.
func (c *CLI) listen(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", srv.Addr, "store", c.storeCfg.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
