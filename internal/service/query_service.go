package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benhicks2/tt-scraper/internal/model"
	"github.com/benhicks2/tt-scraper/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of products per search page.
const DefaultPageSize = 10

// DefaultStalenessWindow flags vendor entries not refreshed within this
// window as possibly outdated. The boundary is inclusive: an entry exactly
// this old is stale.
const DefaultStalenessWindow = 30 * 24 * time.Hour

// queryService implements QueryService.
type queryService struct {
	repo      repository.EquipmentRepository
	pageSize  int
	staleness time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewQueryService creates a new query service. Non-positive pageSize or
// staleness fall back to the defaults.
func NewQueryService(repo repository.EquipmentRepository, pageSize int, staleness time.Duration, logger zerolog.Logger) QueryService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if staleness <= 0 {
		staleness = DefaultStalenessWindow
	}
	return &queryService{
		repo:      repo,
		pageSize:  pageSize,
		staleness: staleness,
		now:       time.Now,
		logger:    logger.With().Str("service", "query").Logger(),
	}
}

// ListCategories returns the collection names that currently hold data.
func (s *queryService) ListCategories(ctx context.Context) ([]string, error) {
	collections, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %v", model.ErrStorageUnavailable, err)
	}
	return collections, nil
}

// ListNames returns every distinct product name in a category.
func (s *queryService) ListNames(ctx context.Context, category string) ([]string, error) {
	cat, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	names, err := s.repo.DistinctNames(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("%w: list names: %v", model.ErrStorageUnavailable, err)
	}

	s.logger.Debug().
		Str("category", category).
		Int("count", len(names)).
		Msg("listed distinct names")

	return names, nil
}

// Search returns one page of products whose name contains the query. A query
// matching nothing on its first page is NotFound; an exhausted cursor is an
// empty page with no cursor, so callers can tell "no data" from "end of
// pagination".
func (s *queryService) Search(ctx context.Context, category, name, cursor string) (*model.SearchPage, error) {
	cat, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrNameRequired
	}

	items, err := s.repo.Search(ctx, cat, name, cursor, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", model.ErrStorageUnavailable, err)
	}

	if len(items) == 0 {
		if cursor == "" {
			return nil, model.ErrNotFound
		}
		return &model.SearchPage{Items: []model.Product{}}, nil
	}

	// A unique match gets staleness annotations on its entries. The whole
	// query has to match one product: a one-item continuation page of a
	// larger result set does not qualify.
	if cursor == "" && len(items) == 1 && len(items) < s.pageSize {
		s.annotateStaleness(&items[0])
	}

	page := &model.SearchPage{Items: items}
	if len(items) == s.pageSize {
		page.Next = items[len(items)-1].ID
	}

	s.logger.Debug().
		Str("category", category).
		Str("name", name).
		Int("count", len(items)).
		Bool("has_next", page.Next != "").
		Msg("search page served")

	return page, nil
}

// GetByID returns a single product with staleness-annotated entries.
func (s *queryService) GetByID(ctx context.Context, category, id string) (*model.Product, error) {
	cat, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	if id == "" {
		return nil, model.ErrNotFound
	}

	product, err := s.repo.GetProduct(ctx, cat, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get product: %v", model.ErrStorageUnavailable, err)
	}
	if product == nil {
		return nil, model.ErrNotFound
	}

	s.annotateStaleness(product)

	return product, nil
}

// Delete removes the one product matched by name and site substring. Zero
// matches and multiple matches are both rejected rather than silently
// deleting.
func (s *queryService) Delete(ctx context.Context, category, name, site string) error {
	cat, err := model.ParseCategory(category)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	site = strings.TrimSpace(site)
	if name == "" {
		return model.ErrNameRequired
	}
	if site == "" {
		return model.ErrSiteRequired
	}

	count, err := s.repo.CountMatches(ctx, cat, name, site)
	if err != nil {
		return fmt.Errorf("%w: count matches: %v", model.ErrStorageUnavailable, err)
	}
	if count == 0 {
		return model.ErrNotFound
	}
	if count > 1 {
		s.logger.Debug().
			Str("name", name).
			Str("site", site).
			Int("matches", count).
			Msg("delete rejected, ambiguous match")
		return model.ErrAmbiguousMatch
	}

	deleted, err := s.repo.DeleteMatch(ctx, cat, name, site)
	if err != nil {
		return fmt.Errorf("%w: delete: %v", model.ErrStorageUnavailable, err)
	}
	if deleted == 0 {
		// Removed concurrently between the count and the delete.
		return model.ErrNotFound
	}

	s.logger.Info().
		Str("category", category).
		Str("name", name).
		Str("site", site).
		Msg("deleted product")

	return nil
}

// annotateStaleness derives each entry's isStale flag at query time.
func (s *queryService) annotateStaleness(p *model.Product) {
	now := s.now()
	for i := range p.Entries {
		p.Entries[i].IsStale = now.Sub(p.Entries[i].LastUpdated) >= s.staleness
	}
}
