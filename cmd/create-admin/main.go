package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/belacosmetics/storefront-backend/internal/bootstrap"
	"github.com/belacosmetics/storefront-backend/internal/users"
	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// passwordEnv holds the new password; it is never taken from flags.
const passwordEnv = "STOREFRONT_ADMIN_PASSWORD"

func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email")
	role := flag.String("role", string(enums.UserRoleAdmin), "ADMIN or SUPER_ADMIN")
	flag.Parse()

	ctx := context.Background()
	proc, err := bootstrap.Start("create-admin")
	if err != nil {
		proc.Fatal(ctx, "failed to load config", err)
	}
	defer proc.Close()
	cfg, logg := proc.Config, proc.Logger

	parsedRole, err := enums.ParseUserRole(strings.ToUpper(strings.TrimSpace(*role)))
	if err != nil {
		logg.Error(ctx, "invalid role", err)
		os.Exit(2)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		proc.Fatal(ctx, "failed to connect database", err)
	}
	proc.Defer("database", dbClient)

	user, created, err := users.ProvisionAdmin(ctx, users.NewRepository(dbClient.DB()), users.AdminInput{
		Name:     *name,
		Email:    *email,
		Password: os.Getenv(passwordEnv),
		Role:     parsedRole,
	}, cfg.Password)
	if err != nil {
		proc.Fatal(ctx, "failed to provision admin", err)
	}

	action := "updated"
	if created {
		action = "created"
	}
	ctx = logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "role": user.Role})
	logg.Info(ctx, "admin account "+action)
	fmt.Printf("%s %s (%s)\n", action, user.Email, user.Role)
}
