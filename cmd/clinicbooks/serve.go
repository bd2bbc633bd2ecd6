package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/clinicbooks/clinicbooks/internal/app"
	bashttp "github.com/clinicbooks/clinicbooks/internal/bas/http"
	calchttp "github.com/clinicbooks/clinicbooks/internal/calc/http"
	"github.com/clinicbooks/clinicbooks/internal/observability"
	"github.com/clinicbooks/clinicbooks/internal/platform/cache"
	"github.com/clinicbooks/clinicbooks/jobs"
)

func newServeCommand() *cobra.Command {
	var shutdownTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.InTestMode() {
				slog.Default().Info("test mode detected, skipping runtime startup")
				return nil
			}
			return serve(cmd.Context(), shutdownTimeout)
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "maximum time to wait for in-flight requests")
	return cmd
}

func serve(parent context.Context, shutdownTimeout time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	metrics := observability.NewMetrics()
	rt.reports.WithObserver(metrics)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()

	// Rewarm the current quarter after the records layer invalidates a clinic.
	// Every instance hears the event; the queue's uniqueness window dedupes.
	if err := rt.reports.ListenForInvalidation(ctx, func(clinicID string) {
		q, year, err := rt.reports.CurrentQuarter(ctx, clinicID, time.Now())
		if err != nil {
			logger.Warn("bas rewarm: resolve quarter", slog.String("clinic", clinicID), slog.Any("error", err))
			return
		}
		if _, err := jobClient.EnqueueReport(ctx, clinicID, q, year); err != nil {
			logger.Warn("bas rewarm: enqueue", slog.String("clinic", clinicID), slog.Any("error", err))
		}
	}); err != nil {
		logger.Warn("bas invalidation listener", slog.Any("error", err))
	}

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		BASHandler:  bashttp.NewHandler(logger, rt.reports, jobClient, cfg.ReportRateLimit),
		CalcHandler: calchttp.NewHandler(logger, metrics, rt.ledger),
		JobHandler:  jobs.NewHandler(inspector, logger),
		Metrics:     metrics,
		Readiness: map[string]app.Pinger{
			"postgres": rt.pool,
			"redis":    cache.Pinger{Client: rt.redis},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
