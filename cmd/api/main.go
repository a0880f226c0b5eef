package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coupongen/internal/config"
	"coupongen/internal/coupon"
	"coupongen/internal/database"
	"coupongen/internal/export"
	"coupongen/internal/handler"
	"coupongen/internal/repository"
	"coupongen/internal/router"
	"coupongen/internal/service"
	"coupongen/internal/storage"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting coupongen API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local storage is always available; S3 takes over exports when enabled
	localStore, err := storage.NewLocalStorage(cfg.Storage.LocalPath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}

	var store storage.Storage = localStore
	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		}, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 storage, falling back to local file system only")
		} else {
			store = s3Store
			s3Loader = coupon.NewStorageLoader(s3Store, "s3", logger)
		}
	} else {
		logger.Info().Msg("using local file system for exports (S3 disabled)")
	}

	// Previously issued codes that must never be generated again
	exclusions, err := loadExclusions(ctx, cfg.Generator.ExclusionKeys,
		coupon.NewFallbackLoader(s3Loader, coupon.NewStorageLoader(localStore, "local", logger), logger), logger)
	if err != nil {
		return err
	}

	// Optional run persistence
	var couponRepo repository.CouponRepository
	if cfg.Database.Enabled {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		couponRepo = repository.NewCouponRepository(pool, logger)
		if err := couponRepo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
	} else {
		logger.Info().Msg("run persistence disabled")
	}

	// Initialize engine and services
	engine := coupon.NewEngine(&coupon.EngineConfig{
		Workers: cfg.Generator.Workers,
		Seed:    cfg.Generator.Seed,
		Seeded:  cfg.Generator.Seeded,
	}, logger)
	exporter := export.NewCSVExporter(logger)

	couponService := service.NewCouponService(engine, exporter, store, couponRepo, service.Config{
		MaxCount:   cfg.Generator.MaxCount,
		MaxLength:  cfg.Generator.MaxLength,
		Exclusions: exclusions,
	}, logger)

	// Initialize HTTP handlers
	couponHandler := handler.NewCouponHandler(couponService, logger)

	// Initialize router
	mux := router.New(couponHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server. Large CSV exports stream for longer than a normal
	// request, so there is no write timeout.
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func loadExclusions(ctx context.Context, keys []string, loader coupon.Loader, logger zerolog.Logger) (coupon.CouponSet, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	set, err := coupon.LoadAll(ctx, loader, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion files: %w", err)
	}

	logger.Info().
		Int("files", len(keys)).
		Int("codes", set.Size()).
		Msg("exclusion codes loaded")

	return set, nil
}
