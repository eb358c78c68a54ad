// Package scraper holds the vendor spiders that turn equipment listing pages
// into price observations.
package scraper

import (
	"context"
	"time"

	"github.com/benhicks2/tt-scraper/internal/config"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/gocolly/colly/v2"
)

// EmitFunc receives one scraped observation. Implementations may block; the
// spider emits synchronously.
type EmitFunc func(obs model.Observation)

// Source is one vendor spider for one equipment category.
type Source interface {
	// Name identifies the source in logs (e.g. "rubber_megaspin").
	Name() string

	// Category is the equipment category this source scrapes.
	Category() model.Category

	// Scrape crawls the vendor's listing pages and emits every observation
	// found. It returns once the crawl is complete or the context is done.
	Scrape(ctx context.Context, emit EmitFunc) error
}

// Registry maps categories to their registered sources, replacing runtime
// spider dispatch by string name.
type Registry struct {
	sources map[model.Category][]Source
}

// NewRegistry creates a registry holding the given sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[model.Category][]Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds a source to the registry.
func (r *Registry) Register(s Source) {
	r.sources[s.Category()] = append(r.sources[s.Category()], s)
}

// For returns the sources registered for a category.
func (r *Registry) For(category model.Category) []Source {
	return r.sources[category]
}

// newCollector builds a collector with the shared crawl policy: polite delays,
// bounded parallelism, and a context check before every request.
func newCollector(ctx context.Context, cfg config.CrawlerConfig, domains ...string) *colly.Collector {
	options := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
	}
	if len(domains) > 0 {
		options = append(options, colly.AllowedDomains(domains...))
	}

	c := colly.NewCollector(options...)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       time.Duration(cfg.DelaySeconds) * time.Second,
		RandomDelay: time.Duration(cfg.DelaySeconds) * time.Second,
	})

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}
