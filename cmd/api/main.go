package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benhicks2/tt-scraper/internal/config"
	"github.com/benhicks2/tt-scraper/internal/crawler"
	"github.com/benhicks2/tt-scraper/internal/database"
	"github.com/benhicks2/tt-scraper/internal/handler"
	"github.com/benhicks2/tt-scraper/internal/model"
	"github.com/benhicks2/tt-scraper/internal/pricing"
	"github.com/benhicks2/tt-scraper/internal/repository"
	"github.com/benhicks2/tt-scraper/internal/router"
	"github.com/benhicks2/tt-scraper/internal/scheduler"
	"github.com/benhicks2/tt-scraper/internal/scraper"
	"github.com/benhicks2/tt-scraper/internal/service"
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
	logger.Info().Msg("starting equipment price tracker")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize store and services
	repo := repository.NewEquipmentRepository(pool, logger)
	normalizer := pricing.NewNormalizer(cfg.Pricing.EURToUSDRate, logger)
	ingestService := service.NewIngestService(repo, normalizer, logger)
	queryService := service.NewQueryService(
		repo,
		cfg.Query.PageSize,
		time.Duration(cfg.Query.StalenessDays)*24*time.Hour,
		logger,
	)

	// Register one spider per vendor per category
	registry := scraper.NewRegistry(
		scraper.NewMegaspinSource(model.CategoryRubber, cfg.Crawler, logger),
		scraper.NewMegaspinSource(model.CategoryBlade, cfg.Crawler, logger),
		scraper.NewTT11Source(model.CategoryRubber, cfg.Crawler, logger),
		scraper.NewTT11Source(model.CategoryBlade, cfg.Crawler, logger),
	)
	runner := crawler.NewRunner(registry, ingestService, cfg.Crawler.Workers, logger)

	// Periodic re-crawls, when enabled
	if cfg.Crawler.ScheduleEnabled {
		go scheduler.Run(ctx, runner, scheduler.Config{
			Interval: time.Duration(cfg.Crawler.ScheduleMinutes) * time.Minute,
		}, logger)
	}

	// Initialize HTTP handler and router
	equipmentHandler := handler.NewEquipmentHandler(queryService, runner, logger)
	mux := router.New(equipmentHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server. PUT /{collection} runs a crawl synchronously in the
	// request, so the write timeout has to cover a full crawl.
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
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

		// Stop the scheduler and any in-flight crawl between observations
		cancel()

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
