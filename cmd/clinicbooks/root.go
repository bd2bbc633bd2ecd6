package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/clinicbooks/clinicbooks/internal/app"
	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/internal/ledger"
	"github.com/clinicbooks/clinicbooks/internal/platform/cache"
	"github.com/clinicbooks/clinicbooks/internal/platform/db"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinicbooks",
		Short:         "Dental clinic transaction calculations and BAS reporting.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newBASCommand(), newJobsCommand(), newMigrateCommand())
	return root
}

// runtime holds the shared stores opened by every command that touches data.
type runtime struct {
	cfg     *app.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	redis   *redis.Client
	ledger  ledger.Repository
	reports *bas.Service
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		pool.Close()
		return nil, err
	}

	repo := ledger.NewRepository(pool)
	reports := bas.NewService(repo, bas.NewConfigRepository(pool), bas.NewCache(client, cfg.BASCacheTTL), logger)
	return &runtime{cfg: cfg, logger: logger, pool: pool, redis: client, ledger: repo, reports: reports}, nil
}

func (r *runtime) Close() {
	if err := r.redis.Close(); err != nil {
		r.logger.Warn("redis close", slog.Any("error", err))
	}
	r.pool.Close()
}
