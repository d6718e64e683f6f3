// Package main is the one-shot admin bootstrap. It creates the single
// privileged account from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME,
// hashing the password before storage. Re-running is a no-op when the
// email already exists; when email or password is absent it skips quietly,
// so it is safe to chain into every deploy.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/config"
	"github.com/civicdesk/complaint-server/internal/database"
	"github.com/civicdesk/complaint-server/internal/services"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "System Administrator"
	}

	if email == "" || password == "" {
		sugar.Info("Admin credentials not found in environment variables. Skipping admin initialization.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.ApplySchema(ctx, db); err != nil {
		sugar.Fatalf("Failed to apply schema: %v", err)
	}

	if err := services.NewAdminService(db, sugar).Bootstrap(ctx, email, password, name); err != nil {
		sugar.Fatalf("Failed to bootstrap admin: %v", err)
	}
}
