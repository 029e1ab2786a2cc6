package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ventolog/ventolog/internal/api"
	"github.com/ventolog/ventolog/internal/config"
	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/logging"
	"github.com/ventolog/ventolog/internal/schema"
	"github.com/ventolog/ventolog/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	DataFile string
	Addr     string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the ventolog HTTP API.

Configuration comes from the environment and an optional config file;
flags override the listen address and data file for this invocation.

Example:
  ventolog serve
  ventolog serve --data /tmp/data.json --listen 127.0.0.1:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataFile, "data", "", "path to the JSON data file (overrides config)")
	cmd.Flags().StringVar(&opts.Addr, "listen", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.DataFile != "" {
		cfg.Storage.DataFile = opts.DataFile
	}
	addr := cfg.ListenAddr()
	if opts.Addr != "" {
		addr = opts.Addr
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}

	v, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile payload schema", err)
	}

	st := store.Open(cfg.Storage.DataFile)
	srv := api.New(ledger.New(st), v, logger, api.Config{
		AllowedOrigins: cfg.Origins(),
		RateLimits:     cfg.HTTP.RateLimits,
		Production:     cfg.Server.Production,
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Use the command's context as parent so tests can stop the server.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Infof("shutdown signal: %s", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP listening on %s data=%s", addr, cfg.Storage.DataFile)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)

	select {
	case err := <-errCh:
		return WrapExitError(ExitFailure, "http server error", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "http shutdown", err)
	}
	logger.Info("server stopped")
	return nil
}
