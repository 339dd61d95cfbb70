// Package bootstrap holds the startup sequence shared by every binary:
// .env loading, config, the leveled logger, shared connections and an
// ordered shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/belacosmetics/storefront-backend/pkg/config"
	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/migrate"
	"github.com/belacosmetics/storefront-backend/pkg/redis"
)

// Process is the running binary's shared state.
type Process struct {
	Name   string
	Config *config.Config
	Logger *logger.Logger

	closers []namedCloser
	exit    func(int)
}

type namedCloser struct {
	name string
	io.Closer
}

// Start loads .env and config and builds the configured logger. On error the
// returned Process still carries a default logger so callers can Fatal.
func Start(name string) (*Process, error) {
	p := &Process{
		Name:   name,
		Logger: logger.New(logger.Options{ServiceName: name}),
		exit:   os.Exit,
	}
	if err := godotenv.Load(); err != nil {
		p.Logger.Debug(context.Background(), "no .env file, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return p, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = name
	p.Config = cfg
	p.Logger = logger.New(logger.Options{
		ServiceName: name,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	return p, nil
}

// Database connects to Postgres and, in dev, applies pending migrations.
func (p *Process) Database(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, p.Config.DB, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	p.Defer("database", client)
	if err := migrate.MaybeRunDev(ctx, p.Config, p.Logger, client); err != nil {
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return client, nil
}

func (p *Process) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, p.Config.Redis, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	p.Defer("redis", client)
	return client, nil
}

// Defer registers c to be closed by Close, after anything registered later.
func (p *Process) Defer(name string, c io.Closer) {
	if c != nil {
		p.closers = append(p.closers, namedCloser{name: name, Closer: c})
	}
}

// Close releases deferred resources in reverse order and logs failures.
func (p *Process) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.Close(); err != nil {
			p.Logger.Error(p.Logger.WithField(context.Background(), "resource", c.name), "close failed", err)
		}
	}
	p.closers = nil
}

// Fatal logs err, releases resources and exits with status 1.
func (p *Process) Fatal(ctx context.Context, msg string, err error) {
	p.Logger.Error(ctx, msg, err)
	p.Close()
	p.exit(1)
}

// SignalContext is canceled on SIGINT or SIGTERM and carries the env and
// service kind as log fields.
func (p *Process) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	fields := map[string]any{"service_kind": p.Name}
	if p.Config != nil {
		fields["env"] = p.Config.App.Env
	}
	return p.Logger.WithFields(ctx, fields), stop
}
