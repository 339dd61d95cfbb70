package main

import (
	"context"
	"errors"

	"github.com/belacosmetics/storefront-backend/internal/bootstrap"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
	"github.com/belacosmetics/storefront-backend/pkg/outbox/registry"
	"github.com/belacosmetics/storefront-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	proc, err := bootstrap.Start("outbox-publisher")
	if err != nil {
		proc.Fatal(ctx, "outbox publisher startup failed", err)
	}
	defer proc.Close()
	cfg, logg := proc.Config, proc.Logger

	dbClient, err := proc.Database(ctx)
	if err != nil {
		proc.Fatal(ctx, "outbox publisher startup failed", err)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		proc.Fatal(ctx, "pubsub client unavailable", err)
	}
	proc.Defer("pubsub", pubsubClient)

	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		proc.Fatal(ctx, "event registry misconfigured", err)
	}

	relay, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		PubSub:     pubsubClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   events,
	})
	if err != nil {
		proc.Fatal(ctx, "outbox relay misconfigured", err)
	}

	runCtx, stop := proc.SignalContext()
	defer stop()
	logg.Info(logg.WithFields(runCtx, map[string]any{
		"batch_size":   cfg.Outbox.BatchSize,
		"max_attempts": cfg.Outbox.MaxAttempts,
	}), "outbox relay running")

	if err := relay.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		proc.Fatal(runCtx, "outbox relay stopped", err)
	}
	logg.Info(runCtx, "outbox relay stopped")
}
