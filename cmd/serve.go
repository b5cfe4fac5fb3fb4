package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genyal/internal/server"
)

var (
	serveAddr      string
	serveWorkers   int
	serveQueue     int
	serveDataDir   string
	serveStoreKind string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	Long: `Starts the job server. Jobs are submitted to /api/v1/jobs, progress is streamed
over server-sent events and Prometheus metrics are exposed on /metrics.
With --data every completed job is recorded and traced.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Concurrent jobs (0 = number of CPUs)")
	serveCmd.Flags().IntVar(&serveQueue, "queue", 64, "Jobs waiting for a worker before submissions are rejected")
	serveCmd.Flags().StringVar(&serveDataDir, "data", "", "Data directory for run records and traces (empty disables persistence)")
	serveCmd.Flags().StringVar(&serveStoreKind, "store", "fs", "Run store: fs or sqlite")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{Workers: serveWorkers, QueueSize: serveQueue}
	if serveDataDir != "" {
		runStore, err := openStore(ctx, serveStoreKind, serveDataDir)
		if err != nil {
			return err
		}
		defer runStore.Close()
		opts.Store = runStore
		opts.TraceDir = serveDataDir
	}

	srv := server.NewServer(serveAddr, opts)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
