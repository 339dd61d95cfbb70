package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/belacosmetics/storefront-backend/internal/bootstrap"
	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/migrate"
)

// offline commands only touch the migrations directory.
var offline = map[string]func(dir, name string) error{
	"create": func(dir, name string) error {
		if name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(dir, name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(dir, _ string) error {
		if err := migrate.ValidateDir(dir); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	proc, err := bootstrap.Start("migrate")
	exitOn(context.Background(), proc.Logger, "load config", err)
	cfg, logg := proc.Config, proc.Logger

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if run, ok := offline[*cmd]; ok {
		exitOn(ctx, logg, *cmd, run(*dir, *name))
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "bootstrap database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "open sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, *dir, *cmd)
	case "version":
		if *version == "" {
			err = fmt.Errorf("missing -version for version command")
			break
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
	default:
		err = fmt.Errorf("unknown -cmd value: %s", *cmd)
	}
	exitOn(ctx, logg, *cmd, err)
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("migrate %s failed", step), err)
	fmt.Fprintf(os.Stderr, "migrate %s failed: %v\n", step, err)
	os.Exit(1)
}
