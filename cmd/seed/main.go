// Command seed creates the bootstrap super admin. It is idempotent:
// rerunning with an existing username is a no-op.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/simonhust/trailer/internal/auth"
	"github.com/simonhust/trailer/internal/config"
	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/logger"
)

func main() {
	var configPath string
	var username string
	var password string

	flag.StringVar(&configPath, "config", "config.yml", "Path to configuration file")
	flag.StringVar(&username, "username", "admin", "Username for the super admin")
	flag.StringVar(&password, "password", "", "Password for the super admin (required)")
	flag.Parse()

	if password == "" {
		password = os.Getenv("TRAILER_ADMIN_PASSWORD")
		if password == "" {
			fmt.Fprintln(os.Stderr, "Error: password is required. Use -password or TRAILER_ADMIN_PASSWORD")
			os.Exit(1)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Development: cfg.Debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}

	store := database.NewStore(db, log)
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error("failed to close store", logger.Error(closeErr))
		}
	}()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", logger.Error(err))
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", logger.Error(err))
		os.Exit(1)
	}

	adminRepo := database.NewAdminRepository(store.DB(), log)
	if err := adminRepo.EnsureSuperAdmin(ctx, username, hash); err != nil {
		log.Error("failed to create super admin", logger.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Super admin %q is present.\n", username)
}
