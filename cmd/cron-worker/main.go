package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/belacosmetics/storefront-backend/internal/bootstrap"
	"github.com/belacosmetics/storefront-backend/internal/cron"
	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/payments"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
)

func main() {
	ctx := context.Background()
	proc, err := bootstrap.Start("cron-worker")
	if err != nil {
		proc.Fatal(ctx, "cron worker startup failed", err)
	}
	defer proc.Close()
	cfg, logg := proc.Config, proc.Logger

	dbClient, err := proc.Database(ctx)
	if err != nil {
		proc.Fatal(ctx, "cron worker startup failed", err)
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		proc.Fatal(ctx, "cron worker startup failed", err)
	}

	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)

	expiry, err := cron.NewPendingPaymentExpiryJob(cron.PendingPaymentExpiryJobParams{
		Logger:            logg,
		DB:                dbClient,
		Payments:          payments.NewRepository(conn),
		Orders:            orders.NewRepository(conn),
		Outbox:            outbox.NewService(outboxRepo, logg),
		PendingPaymentTTL: cfg.Checkout.PendingPaymentTTL,
		BoletoGrace:       cfg.Checkout.BoletoGrace,
	})
	if err != nil {
		proc.Fatal(ctx, "pending payment expiry job misconfigured", err)
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:            logg,
		DB:                dbClient,
		Repository:        outboxRepo,
		Retention:         cfg.Outbox.RetentionDays,
		TerminalRetention: cfg.Outbox.TerminalRetentionDays,
		MaxAttempts:       cfg.Outbox.MaxAttempts,
		BatchSize:         cfg.Outbox.PurgeBatchSize,
	})
	if err != nil {
		proc.Fatal(ctx, "outbox retention job misconfigured", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		proc.Fatal(ctx, "cron lock misconfigured", err)
	}

	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(expiry, retention),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.LockTTL,
	})
	if err != nil {
		proc.Fatal(ctx, "cron scheduler misconfigured", err)
	}

	runCtx, stop := proc.SignalContext()
	defer stop()
	logg.Info(logg.WithField(runCtx, "interval", cfg.Cron.Interval.String()), "cron worker running")

	if err := scheduler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		proc.Fatal(runCtx, "cron worker stopped", err)
	}
	logg.Info(runCtx, "cron worker stopped")
}

// lockName scopes cron locks per environment.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
