package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simonhust/trailer/internal/api"
	"github.com/simonhust/trailer/internal/auth"
	"github.com/simonhust/trailer/internal/config"
	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/logger"
	"github.com/simonhust/trailer/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trailer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting trailer service",
		logger.Int("port", cfg.Server.Port),
		logger.Bool("debug", cfg.Debug))

	// A failed initial connection aborts startup.
	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", logger.Error(err))
		return fmt.Errorf("connect database: %w", err)
	}

	store := database.NewStore(db, log)
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error("failed to close store", logger.Error(closeErr))
		}
	}()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	m := metrics.New()
	adminRepo := database.NewAdminRepository(store.DB(), log)

	if cfg.Bootstrap.AdminUsername != "" {
		hash, hashErr := auth.HashPassword(cfg.Bootstrap.AdminPassword)
		if hashErr != nil {
			return fmt.Errorf("hash bootstrap password: %w", hashErr)
		}
		if err := adminRepo.EnsureSuperAdmin(ctx, cfg.Bootstrap.AdminUsername, hash); err != nil {
			return err
		}
	}

	store.StartHeartbeat(cfg.Queue.HeartbeatInterval, func() {
		m.HeartbeatFailures.Inc()
	})

	server := api.NewServer(cfg, api.Deps{
		Submissions: database.NewSubmissionRepository(store.DB(), log, cfg.Queue.PendingCap, cfg.Queue.ReviewTimeout),
		Mappings:    database.NewMappingRepository(store.DB()),
		Admins:      adminRepo,
		JWT:         auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry),
		Metrics:     m,
		Logger:      log,
	})

	return runWithGracefulShutdown(ctx, server.HTTPServer(), log)
}

// runWithGracefulShutdown serves until SIGINT/SIGTERM, then drains the
// server. The store is closed afterwards by the deferred Close in run,
// so the heartbeat stops before the connection is released.
func runWithGracefulShutdown(ctx context.Context, srv *http.Server, log logger.Logger) error {
	errCh := make(chan error, 1)

	go func() {
		log.Info("http server listening", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("http server stopped")
	return nil
}
