// Package scheduler re-crawls every equipment category on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/benhicks2/tt-scraper/internal/crawler"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/rs/zerolog"
)

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration
}

// Run starts the scheduler and blocks until ctx is cancelled. One pass runs
// immediately; later passes tick at the configured interval. A run may be
// stopped between category batches but never mid-observation.
func Run(ctx context.Context, runner *crawler.Runner, cfg Config, logger zerolog.Logger) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	logger = logger.With().Str("component", "scheduler").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("scheduler started")

	crawlAll(ctx, runner, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler stopping")
			return
		case <-ticker.C:
			crawlAll(ctx, runner, logger)
		}
	}
}

func crawlAll(ctx context.Context, runner *crawler.Runner, logger zerolog.Logger) {
	for _, category := range model.Categories {
		if ctx.Err() != nil {
			return
		}

		stats, err := runner.Run(ctx, category)
		if err != nil {
			logger.Error().Err(err).Str("category", string(category)).Msg("scheduled crawl failed")
			continue
		}
		logger.Info().
			Str("category", string(category)).
			Str("run_id", stats.RunID).
			Int("ingested", stats.Ingested).
			Int("failed", stats.Failed).
			Msg("scheduled crawl finished")
	}
}
