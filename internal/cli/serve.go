package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/api"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived runs over HTTP",
		Long: `Serve archived runs over a read-only JSON API until interrupted.

Endpoints: /health, /runs, /runs/:id, /runs/:id/keys,
/runs/:id/variables/:name, /runs/:id/summary, /runs/:id/trace/:name and
/runs/:id/autocorr/:name.

Examples:
  posterior serve
  posterior serve --addr 0.0.0.0:9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	addr := opts.Addr
	if addr == "" {
		addr = opts.Config.Server.Addr
	}

	sess, err := openSession(opts.RootOptions, true)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer sess.Close()

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	hopts := []api.Option{
		api.WithLogger(opts.Logger),
		api.WithDefaultHDIProb(opts.Config.Summary.HDIProb),
	}
	if sess.cache != nil {
		hopts = append(hopts, api.WithCache(sess.cache))
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(api.NewHandlers(sess.runs, hopts...)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		opts.Logger.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
		opts.Logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "shutdown failed", err)
	}
	return nil
}
