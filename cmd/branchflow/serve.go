package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/branchflow/internal/metrics"
	httpAdapter "github.com/aretw0/branchflow/pkg/adapters/http"
	"github.com/aretw0/branchflow/pkg/workspace"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves validation and routing over a JSON API, stores flows in the configured
backend and streams flow changes over SSE. The OpenAPI document is at
/openapi.yaml and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.close()

		collector := metrics.New()
		engine := newEngine(cfg, collector.Hooks())
		streams := httpAdapter.NewStreamManager(logger)

		opts := []workspace.Option{
			workspace.WithAnalyzer(engine),
			workspace.WithChangeListener(streams.OnChange),
			workspace.WithLogger(logger),
		}
		if b.locker != nil {
			opts = append(opts, workspace.WithLocker(b.locker))
		}
		flows := workspace.NewManager(b.store, opts...)

		handler := httpAdapter.NewHandler(engine, flows,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(collector.Handler()),
		)

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting branchflow server", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown", "timeout", cfg.Server.ShutdownTimeout)

			// Give outstanding requests a deadline for completion. SSE
			// streams never finish on their own, so Close follows a timeout.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("branchflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
}
