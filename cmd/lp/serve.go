package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/config"
	"github.com/matsen/learnpath/internal/httpapi"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 10 * time.Second

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from global config, then 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the learning path HTTP API",
	Long: `Serve the HTTP API over the workspace graph and learner database.

Endpoints:
  POST /build_graph      {"urls": [...]}
  POST /find_path        {"start", "goal", "weights", "learner_id"}
  POST /update_learner   {"concept_id", "mastery", "learner_id"}
  POST /add_interest     {"concept_id", "learner_id"}
  GET  /learner/{id}
  GET  /graph
  GET  /metrics          Prometheus metrics
  GET  /health

A previously built graph is loaded at startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	a := mustNewApp(root, true, nil)
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = config.GetHTTPAddr()
	}

	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.New(a.svc,
			httpapi.WithLogger(a.log),
			httpapi.WithMetrics(a.metrics),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("serving", "addr", addr, "workspace", root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			exitWithError(ExitError, "serving: %v", err)
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			exitWithError(ExitError, "shutdown: %v", err)
		}
	}
	return nil
}
