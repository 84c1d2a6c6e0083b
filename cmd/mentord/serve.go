package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mentord/internal/config"
	httpserver "github.com/fyrsmithlabs/mentord/internal/http"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP control surface",
		Long: `Start the mentord HTTP server.

Endpoints:
  GET  /health                 liveness and telemetry health
  GET  /metrics                Prometheus metrics
  GET  /api/v1/session         current session snapshot
  GET  /api/v1/trace           current session trace
  GET  /api/v1/memory          learning memory items
  POST /api/v1/submit          submit a text, image or audio problem
  POST /api/v1/similar/:id     submit a similar problem from the last solution
  POST /api/v1/review/resolve  confirm or correct a low-confidence parse
  POST /api/v1/review/cancel   abandon a pending review
  POST /api/v1/reset           start over
  PUT  /api/v1/preferences     set the explanation level`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

// runServe starts the server and blocks until ctx is cancelled.
//
// This function:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Builds the agents, learner profile and learning memory
//  4. Starts the HTTP server
//  5. Shuts down gracefully on context cancellation
func runServe(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg, zapcore.AddSync(os.Stdout))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "starting mentord",
		zap.Int("port", cfg.Server.Port),
		zap.String("parser_model", cfg.Agents.ParserModel),
		zap.String("solver_model", cfg.Agents.SolverModel),
		zap.Bool("telemetry", tel.IsEnabled()),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout),
	)

	p, err := initPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(p.parser, p.solver, p.store, p.profile,
		orchestrator.WithLogger(logger.Named("orchestrator")),
		orchestrator.WithTracer(tel.Tracer("github.com/fyrsmithlabs/mentord/internal/orchestrator")),
		orchestrator.WithMetrics(orchestrator.NewMetrics(prometheus.DefaultRegisterer)),
		orchestrator.WithExplanationLevel(p.level),
	)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	srv, err := httpserver.NewServer(orch, logger.Named("http"), &httpserver.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Version:  version,
		Gatherer: prometheus.DefaultGatherer,
		Metrics:  httpserver.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Health:   tel.Health,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	logger.Info(shutdownCtx, "server shutdown complete")
	return nil
}
