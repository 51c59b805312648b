// Package main is the entry point for the body shop back-office service.
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

	"gitlab.com/yelinaung/bodyshop/internal/api"
	"gitlab.com/yelinaung/bodyshop/internal/cache"
	"gitlab.com/yelinaung/bodyshop/internal/catalog"
	"gitlab.com/yelinaung/bodyshop/internal/config"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/fixedexpense"
	"gitlab.com/yelinaung/bodyshop/internal/logger"
	"gitlab.com/yelinaung/bodyshop/internal/repository"
	"gitlab.com/yelinaung/bodyshop/internal/scheduler"
	"gitlab.com/yelinaung/bodyshop/internal/telemetry"
	"go.opentelemetry.io/otel"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("bodyshop %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.LogFormat == "json" {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:   cfg.ServiceName,
		OTLPEndpoint:  cfg.OTLPEndpoint,
		OTLPProtocol:  cfg.OTLPProtocol,
		TracesStdout:  cfg.TracesStdoutExporter,
		MetricsStdout: cfg.MetricsStdoutExporter,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	tenantCache := cache.New(cache.WithDefaultTTL(cfg.CacheDefaultTTL))
	if _, err := cache.RegisterMetrics(tenantCache, otel.Meter("gitlab.com/yelinaung/bodyshop/internal/cache")); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to register cache metrics")
	}

	tenantRepo := repository.NewTenantRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	expenseRepo := repository.NewExpenseRepository(pool)
	fixedRepo := repository.NewFixedExpenseRepository(pool)

	catalogService := catalog.NewService(catalogRepo, tenantCache,
		catalog.WithCatalogTTL(cfg.CacheCatalogTTL),
		catalog.WithLookupTTL(cfg.CacheLookupTTL),
	)
	generator := fixedexpense.NewGenerator(fixedRepo, fixedexpense.WithAtomic(cfg.FixedExpenseAtomic))

	sched := scheduler.New(ctx, logger.Log)
	if err := sched.AddJob(cfg.CacheSweepSchedule, cache.NewSweeper(tenantCache, logger.Log)); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to schedule cache sweep")
	}
	if cfg.FixedExpenseSchedule != "" {
		if err := sched.AddJob(cfg.FixedExpenseSchedule, fixedexpense.NewJob(generator, cfg.Location())); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to schedule fixed expense generation")
		}
	}
	sched.Start()
	defer sched.Stop()

	server := api.New(api.Config{
		Addr:      cfg.HTTPAddr,
		Log:       logger.Log,
		Catalog:   catalogService,
		Expenses:  expenseRepo,
		Tenants:   tenantRepo,
		Generator: generator,
		Cache:     tenantCache,
		Location:  cfg.Location(),
		Health:    pool.Ping,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Log.Info().Msg("Shutting down...")
	case err := <-errCh:
		logger.Log.Error().Err(err).Msg("HTTP server failed")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to shut down HTTP server")
	}
}
