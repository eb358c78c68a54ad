// Package crawler runs batch crawl runs: every registered source for a
// category is scraped and its observations fed through the ingest service.
package crawler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/benhicks2/tt-scraper/internal/model"
	"github.com/benhicks2/tt-scraper/internal/scraper"
	"github.com/benhicks2/tt-scraper/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Stats summarises one crawl run.
type Stats struct {
	RunID         string `json:"runId"`
	Sources       int    `json:"sources"`
	SourcesFailed int    `json:"sourcesFailed"`
	Observed      int    `json:"observed"`
	Ingested      int    `json:"ingested"`
	Failed        int    `json:"failed"`
}

// Runner executes crawl runs for a category.
type Runner struct {
	registry *scraper.Registry
	ingest   service.IngestService
	workers  int
	logger   zerolog.Logger
}

// NewRunner creates a crawl runner. workers bounds how many observations are
// ingested concurrently; values below one are raised to one.
func NewRunner(registry *scraper.Registry, ingest service.IngestService, workers int, logger zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		registry: registry,
		ingest:   ingest,
		workers:  workers,
		logger:   logger.With().Str("component", "crawler").Logger(),
	}
}

// Run scrapes every source registered for the category and ingests the
// observations. Observations for different products merge independently, so
// ingestion fans out across a bounded worker pool. Failed observations and
// failed sources are counted in the stats but do not abort the batch;
// retrying is the scheduler's concern, not the merge engine's. A cancelled
// context stops the run between observations, never mid-merge.
func (r *Runner) Run(ctx context.Context, category model.Category) (Stats, error) {
	if _, err := model.ParseCategory(string(category)); err != nil {
		return Stats{}, err
	}

	sources := r.registry.For(category)
	if len(sources) == 0 {
		return Stats{}, fmt.Errorf("no sources registered for category %q", category)
	}

	runID := uuid.New().String()
	logger := r.logger.With().Str("run_id", runID).Str("category", string(category)).Logger()
	logger.Info().Int("sources", len(sources)).Msg("crawl run started")

	var observed, ingested, failed, sourcesFailed atomic.Int64

	obsCh := make(chan model.Observation, r.workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(obsCh)
		for _, src := range sources {
			srcLogger := logger.With().Str("source", src.Name()).Logger()
			err := src.Scrape(gctx, func(obs model.Observation) {
				observed.Add(1)
				select {
				case obsCh <- obs:
				case <-gctx.Done():
				}
			})
			if err != nil {
				sourcesFailed.Add(1)
				srcLogger.Error().Err(err).Msg("source crawl failed")
				if gctx.Err() != nil {
					return gctx.Err()
				}
				continue
			}
			srcLogger.Info().Msg("source crawl finished")
		}
		return nil
	})

	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			for obs := range obsCh {
				if err := r.ingest.Ingest(gctx, obs); err != nil {
					failed.Add(1)
					logger.Error().Err(err).
						Str("name", obs.Name).
						Str("url", obs.URL).
						Msg("failed to ingest observation")
					continue
				}
				ingested.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()

	stats := Stats{
		RunID:         runID,
		Sources:       len(sources),
		SourcesFailed: int(sourcesFailed.Load()),
		Observed:      int(observed.Load()),
		Ingested:      int(ingested.Load()),
		Failed:        int(failed.Load()),
	}

	logger.Info().
		Int("sources_failed", stats.SourcesFailed).
		Int("observed", stats.Observed).
		Int("ingested", stats.Ingested).
		Int("failed", stats.Failed).
		Msg("crawl run finished")

	return stats, err
}
