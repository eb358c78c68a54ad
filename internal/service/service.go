package service

import (
	"context"

	"github.com/benhicks2/tt-scraper/internal/model"
)

// IngestService merges scraped price observations into the equipment store.
type IngestService interface {
	// Ingest upserts one observation. It is idempotent: re-ingesting a
	// byte-identical observation leaves the store unchanged apart from the
	// entry's refreshed timestamp.
	Ingest(ctx context.Context, obs model.Observation) error
}

// QueryService serves read requests over the equipment store.
type QueryService interface {
	// ListCategories returns the collection names that currently hold data.
	ListCategories(ctx context.Context) ([]string, error)

	// ListNames returns every distinct product name in a category. An empty
	// category is an empty slice, not an error.
	ListNames(ctx context.Context, category string) ([]string, error)

	// Search returns one page of products whose name contains the query,
	// starting after the cursor when one is given.
	Search(ctx context.Context, category, name, cursor string) (*model.SearchPage, error)

	// GetByID returns a single product with staleness-annotated entries.
	GetByID(ctx context.Context, category, id string) (*model.Product, error)

	// Delete removes the one product matched by name and site substring.
	// Zero matches and multiple matches are both rejected.
	Delete(ctx context.Context, category, name, site string) error
}
