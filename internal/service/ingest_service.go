package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benhicks2/tt-scraper/internal/identity"
	"github.com/benhicks2/tt-scraper/internal/model"
	"github.com/benhicks2/tt-scraper/internal/pricing"
	"github.com/benhicks2/tt-scraper/internal/repository"

	"github.com/rs/zerolog"
)

// ingestService implements IngestService.
type ingestService struct {
	repo       repository.EquipmentRepository
	normalizer *pricing.Normalizer
	now        func() time.Time
	logger     zerolog.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(repo repository.EquipmentRepository, normalizer *pricing.Normalizer, logger zerolog.Logger) IngestService {
	return &ingestService{
		repo:       repo,
		normalizer: normalizer,
		now:        time.Now,
		logger:     logger.With().Str("service", "ingest").Logger(),
	}
}

// Ingest upserts one observation using a three-tier fallback:
//
//  1. overwrite the matching vendor entry's price and timestamp in place
//  2. if nothing matched, push a new entry onto the existing product
//  3. if that matched nothing either, insert a brand-new product
//
// A later tier only runs when the prior one matched nothing; reordering the
// tiers changes correctness under concurrent writers. After tier 1 or 2 the
// product is re-read and its all-time-low price lowered if the observation is
// cheaper. That last read-then-write is the one tolerated race: a stale read
// can only miss an update, never corrupt one, and the next ingestion of the
// same product repairs it.
func (s *ingestService) Ingest(ctx context.Context, obs model.Observation) error {
	if _, err := model.ParseCategory(string(obs.Category)); err != nil {
		s.logger.Warn().Str("category", string(obs.Category)).Msg("observation has invalid category")
		return model.ErrInvalidCategory
	}

	if strings.TrimSpace(obs.Name) == "" ||
		strings.TrimSpace(obs.URL) == "" ||
		strings.TrimSpace(obs.Price) == "" {
		s.logger.Warn().
			Str("name", obs.Name).
			Str("url", obs.URL).
			Str("price", obs.Price).
			Msg("rejecting malformed observation")
		return model.ErrInvalidObservation
	}

	productID, err := identity.ProductID(obs.Name)
	if err != nil {
		return err
	}
	entryID, err := identity.EntryID(obs.URL)
	if err != nil {
		return err
	}

	observedAt := s.now()

	// Tier 1: refresh a vendor entry we already know.
	matched, err := s.repo.UpdateEntryPrice(ctx, obs.Category, productID, entryID, obs.Price, observedAt)
	if err != nil {
		return fmt.Errorf("%w: update entry: %v", model.ErrStorageUnavailable, err)
	}

	if !matched {
		// Tier 2: new vendor for a product we already track.
		entry := model.VendorEntry{
			ID:          entryID,
			URL:         obs.URL,
			Price:       obs.Price,
			LastUpdated: observedAt,
		}
		matched, err = s.repo.PushEntry(ctx, obs.Category, productID, entry)
		if err != nil {
			return fmt.Errorf("%w: push entry: %v", model.ErrStorageUnavailable, err)
		}

		if !matched {
			// Tier 3: first sighting of this product.
			s.logger.Info().
				Str("name", obs.Name).
				Str("product_id", productID).
				Msg("inserting new product")
			product := model.Product{
				ID:              productID,
				Name:            obs.Name,
				AllTimeLowPrice: obs.Price,
				Entries:         []model.VendorEntry{entry},
			}
			if err := s.repo.InsertProduct(ctx, obs.Category, product); err != nil {
				return fmt.Errorf("%w: insert product: %v", model.ErrStorageUnavailable, err)
			}
			return nil
		}

		s.logger.Info().
			Str("name", obs.Name).
			Str("product_id", productID).
			Msg("pushed new vendor entry")
	}

	return s.refreshAllTimeLow(ctx, obs, productID)
}

// refreshAllTimeLow lowers the product's recorded all-time-low price when the
// observation is cheaper. An incomparable price never replaces a recorded one.
func (s *ingestService) refreshAllTimeLow(ctx context.Context, obs model.Observation, productID string) error {
	product, err := s.repo.GetProduct(ctx, obs.Category, productID)
	if err != nil {
		return fmt.Errorf("%w: read product: %v", model.ErrStorageUnavailable, err)
	}
	if product == nil {
		// Deleted between the update and the read; the next crawl recreates it.
		s.logger.Debug().Str("product_id", productID).Msg("product vanished before low-price check")
		return nil
	}

	switch s.normalizer.Compare(obs.Price, product.AllTimeLowPrice) {
	case pricing.Lower:
		s.logger.Info().
			Str("name", product.Name).
			Str("product_id", productID).
			Str("price", obs.Price).
			Str("previous_low", product.AllTimeLowPrice).
			Msg("updating all-time-low price")
		if err := s.repo.UpdateAllTimeLow(ctx, obs.Category, productID, obs.Price); err != nil {
			return fmt.Errorf("%w: update all-time low: %v", model.ErrStorageUnavailable, err)
		}
	case pricing.Incomparable:
		s.logger.Warn().
			Str("product_id", productID).
			Str("price", obs.Price).
			Str("recorded_low", product.AllTimeLowPrice).
			Msg("skipping all-time-low update, prices incomparable")
	}

	return nil
}
