package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/benhicks2/tt-scraper/internal/config"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const megaspinDomain = "www.megaspin.net"

// MegaspinSource scrapes equipment listings from Megaspin. Prices are listed
// in USD with the dollars and cents in separate elements.
type MegaspinSource struct {
	category model.Category
	startURL string
	domain   string
	cfg      config.CrawlerConfig
	logger   zerolog.Logger
}

// NewMegaspinSource creates a Megaspin spider for the given category.
func NewMegaspinSource(category model.Category, cfg config.CrawlerConfig, logger zerolog.Logger) *MegaspinSource {
	return &MegaspinSource{
		category: category,
		startURL: fmt.Sprintf("https://%s/store/default.asp?cid=%ss&type=All", megaspinDomain, category),
		domain:   megaspinDomain,
		cfg:      cfg,
		logger:   logger.With().Str("source", string(category)+"_megaspin").Logger(),
	}
}

func (s *MegaspinSource) Name() string {
	return string(s.category) + "_megaspin"
}

func (s *MegaspinSource) Category() model.Category {
	return s.category
}

// Scrape crawls the category listing and emits one observation per product
// card. Product links are relative, so the vendor URL is rebuilt against the
// store domain.
func (s *MegaspinSource) Scrape(ctx context.Context, emit EmitFunc) error {
	c := newCollector(ctx, s.cfg, s.domain)

	c.OnHTML(".product-list > .product-card", func(e *colly.HTMLElement) {
		name := strings.TrimSpace(e.ChildText(".product-name > a"))
		href := e.ChildAttr(".product-name > a", "href")
		dollars := strings.TrimSpace(e.ChildText(".product-price > .main_price_usd"))
		cents := strings.TrimSpace(e.ChildText(".product-price > .main_price_usd_cents"))
		if name == "" || href == "" {
			s.logger.Debug().Str("url", e.Request.URL.String()).Msg("skipping incomplete product card")
			return
		}

		emit(model.Observation{
			Name:     name,
			URL:      "https://" + s.domain + href,
			Price:    dollars + cents,
			Category: s.category,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		s.logger.Error().Err(err).
			Str("url", r.Request.URL.String()).
			Int("status", r.StatusCode).
			Msg("request failed")
	})

	s.logger.Info().Str("url", s.startURL).Msg("starting crawl")
	if err := c.Visit(s.startURL); err != nil {
		return fmt.Errorf("visit %s: %w", s.startURL, err)
	}
	c.Wait()

	return ctx.Err()
}
