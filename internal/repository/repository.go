package repository

import (
	"context"
	"time"

	"github.com/benhicks2/tt-scraper/internal/model"
)

// EquipmentRepository defines the persistence boundary for equipment products
// and their embedded vendor entries. The store exclusively owns all product
// data; callers hold no copies beyond the scope of a single request.
//
// UpdateEntryPrice, PushEntry and InsertProduct are the three tiers of the
// merge fallback. Each is a single atomic store operation; a later tier must
// only be attempted when the prior one matched nothing.
type EquipmentRepository interface {
	// UpdateEntryPrice overwrites an existing vendor entry's price and
	// timestamp in place. Returns false when no product/entry pair matched.
	UpdateEntryPrice(ctx context.Context, category model.Category, productID, entryID, price string, observedAt time.Time) (bool, error)

	// PushEntry appends a vendor entry to an existing product. Returns false
	// when the product does not exist.
	PushEntry(ctx context.Context, category model.Category, productID string, entry model.VendorEntry) (bool, error)

	// InsertProduct creates a new product together with its initial entries.
	InsertProduct(ctx context.Context, category model.Category, product model.Product) error

	// GetProduct retrieves one product with all its entries in insertion
	// order, or nil when it does not exist.
	GetProduct(ctx context.Context, category model.Category, id string) (*model.Product, error)

	// UpdateAllTimeLow overwrites a product's all-time-low price.
	UpdateAllTimeLow(ctx context.Context, category model.Category, id, price string) error

	// DistinctNames returns every distinct product name in a category,
	// sorted. An empty category yields an empty slice, not an error.
	DistinctNames(ctx context.Context, category model.Category) ([]string, error)

	// Search returns products whose name contains the query
	// (case-insensitive), ordered by similarity score then by id, starting
	// after the cursor product when one is given.
	Search(ctx context.Context, category model.Category, name, cursor string, limit int) ([]model.Product, error)

	// CountMatches counts product/entry pairs whose name and entry URL
	// contain the given substrings (case-insensitive).
	CountMatches(ctx context.Context, category model.Category, name, site string) (int, error)

	// DeleteMatch removes the products matched by name and site substrings,
	// returning the number of products deleted. Callers must have verified
	// the match is unique via CountMatches.
	DeleteMatch(ctx context.Context, category model.Category, name, site string) (int64, error)

	// Categories returns the collection names that currently hold data.
	Categories(ctx context.Context) ([]string, error)
}
