package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/benhicks2/tt-scraper/internal/config"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const tt11Domain = "www.tabletennis11.com"

// TT11Source scrapes equipment listings from Tabletennis11. The site prices
// in several currencies; a currency cookie pins responses to USD. Listings
// paginate with a next link, followed up to the configured page cap.
type TT11Source struct {
	category model.Category
	startURL string
	domain   string
	cfg      config.CrawlerConfig
	logger   zerolog.Logger
}

// NewTT11Source creates a Tabletennis11 spider for the given category.
func NewTT11Source(category model.Category, cfg config.CrawlerConfig, logger zerolog.Logger) *TT11Source {
	return &TT11Source{
		category: category,
		startURL: fmt.Sprintf("https://%s/other_eng/%ss", tt11Domain, category),
		domain:   tt11Domain,
		cfg:      cfg,
		logger:   logger.With().Str("source", string(category)+"_tt11").Logger(),
	}
}

func (s *TT11Source) Name() string {
	return string(s.category) + "_tt11"
}

func (s *TT11Source) Category() model.Category {
	return s.category
}

// Scrape crawls the listing pages and emits one observation per item wrapper.
func (s *TT11Source) Scrape(ctx context.Context, emit EmitFunc) error {
	c := newCollector(ctx, s.cfg, s.domain)

	if err := c.SetCookies(s.startURL, []*http.Cookie{{Name: "currency", Value: "USD"}}); err != nil {
		return fmt.Errorf("set currency cookie: %w", err)
	}

	page := 1

	c.OnHTML("div.item-wrapper", func(e *colly.HTMLElement) {
		name := strings.TrimSpace(e.ChildText(".product-name > a"))
		url := e.ChildAttr(".product-name > a", "href")
		price := strings.TrimSpace(e.ChildText(".price"))
		if name == "" || url == "" {
			s.logger.Debug().Str("url", e.Request.URL.String()).Msg("skipping incomplete item wrapper")
			return
		}

		emit(model.Observation{
			Name:     name,
			URL:      e.Request.AbsoluteURL(url),
			Price:    price,
			Category: s.category,
		})
	})

	c.OnHTML("li > a.next", func(e *colly.HTMLElement) {
		page++
		if page > s.cfg.MaxPages {
			s.logger.Debug().Int("max_pages", s.cfg.MaxPages).Msg("page cap reached")
			return
		}
		nextURL := fmt.Sprintf("%s?p=%d", s.startURL, page)
		if err := e.Request.Visit(nextURL); err != nil {
			s.logger.Error().Err(err).Str("url", nextURL).Msg("failed to follow next page")
		}
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
