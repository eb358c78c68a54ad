package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// likeEscaper makes user input literal inside ILIKE patterns. Backslash is
// Postgres's default LIKE escape character, so `%`, `_`, and `\` in a query
// match themselves instead of acting as wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// equipmentRepository implements EquipmentRepository using PostgreSQL.
type equipmentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewEquipmentRepository creates a new PostgreSQL-backed equipment repository.
func NewEquipmentRepository(pool *pgxpool.Pool, logger zerolog.Logger) EquipmentRepository {
	return &equipmentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "equipment").Logger(),
	}
}

// UpdateEntryPrice overwrites an existing vendor entry's price and timestamp
// in place. This is tier one of the merge fallback: a single atomic UPDATE,
// which also serialises concurrent refreshes of the same URL.
func (r *equipmentRepository) UpdateEntryPrice(ctx context.Context, category model.Category, productID, entryID, price string, observedAt time.Time) (bool, error) {
	query := `
		UPDATE vendor_entries
		SET price = $4, last_updated = $5
		WHERE category = $1 AND product_id = $2 AND id = $3
	`

	tag, err := r.pool.Exec(ctx, query, string(category), productID, entryID, price, observedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID).
			Str("entry_id", entryID).
			Msg("failed to update vendor entry")
		return false, fmt.Errorf("failed to update vendor entry: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// PushEntry appends a vendor entry to an existing product. Tier two: the
// insert is guarded by the product's existence so a missing product matches
// nothing instead of failing, and the ON CONFLICT clause absorbs the race
// where two crawlers push the same new URL at once.
func (r *equipmentRepository) PushEntry(ctx context.Context, category model.Category, productID string, entry model.VendorEntry) (bool, error) {
	query := `
		INSERT INTO vendor_entries (category, product_id, id, url, price, last_updated)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (
			SELECT 1 FROM products WHERE category = $1 AND id = $2
		)
		ON CONFLICT (category, product_id, id) DO UPDATE
		SET price = EXCLUDED.price, last_updated = EXCLUDED.last_updated
	`

	tag, err := r.pool.Exec(ctx, query,
		string(category), productID, entry.ID, entry.URL, entry.Price, entry.LastUpdated)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID).
			Str("entry_id", entry.ID).
			Msg("failed to push vendor entry")
		return false, fmt.Errorf("failed to push vendor entry: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// InsertProduct creates a new product with its initial entries. Tier three:
// runs in a transaction; if a concurrent writer created the product first, the
// DO NOTHING conflict clause turns this into an entry push against it.
func (r *equipmentRepository) InsertProduct(ctx context.Context, category model.Category, product model.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	productQuery := `
		INSERT INTO products (category, id, name, all_time_low_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category, id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, productQuery,
		string(category), product.ID, product.Name, product.AllTimeLowPrice); err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to insert product")
		return fmt.Errorf("failed to insert product: %w", err)
	}

	entryQuery := `
		INSERT INTO vendor_entries (category, product_id, id, url, price, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category, product_id, id) DO UPDATE
		SET price = EXCLUDED.price, last_updated = EXCLUDED.last_updated
	`
	for _, entry := range product.Entries {
		if _, err := tx.Exec(ctx, entryQuery,
			string(category), product.ID, entry.ID, entry.URL, entry.Price, entry.LastUpdated); err != nil {
			r.logger.Error().Err(err).
				Str("product_id", product.ID).
				Str("entry_id", entry.ID).
				Msg("failed to insert vendor entry")
			return fmt.Errorf("failed to insert vendor entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to commit product insert")
		return fmt.Errorf("failed to commit product insert: %w", err)
	}

	return nil
}

// GetProduct retrieves one product with its entries in insertion order.
func (r *equipmentRepository) GetProduct(ctx context.Context, category model.Category, id string) (*model.Product, error) {
	query := `
		SELECT id, name, all_time_low_price
		FROM products
		WHERE category = $1 AND id = $2
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, string(category), id).Scan(&p.ID, &p.Name, &p.AllTimeLowPrice)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	entries, err := r.entriesFor(ctx, category, []string{id})
	if err != nil {
		return nil, err
	}
	p.Entries = entries[id]

	return &p, nil
}

// UpdateAllTimeLow overwrites a product's all-time-low price.
func (r *equipmentRepository) UpdateAllTimeLow(ctx context.Context, category model.Category, id, price string) error {
	query := `
		UPDATE products
		SET all_time_low_price = $3
		WHERE category = $1 AND id = $2
	`

	if _, err := r.pool.Exec(ctx, query, string(category), id, price); err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to update all-time-low price")
		return fmt.Errorf("failed to update all-time-low price: %w", err)
	}

	return nil
}

// DistinctNames returns every distinct product name in a category.
func (r *equipmentRepository) DistinctNames(ctx context.Context, category model.Category) ([]string, error) {
	query := `
		SELECT DISTINCT name
		FROM products
		WHERE category = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, string(category))
	if err != nil {
		r.logger.Error().Err(err).Str("category", string(category)).Msg("failed to query distinct names")
		return nil, fmt.Errorf("failed to query distinct names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan name row")
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating name rows")
		return nil, fmt.Errorf("error iterating names: %w", err)
	}

	return names, nil
}

// Search returns products whose name contains the query, ordered by trigram
// similarity then by id for a stable sort. The cursor is the id of the last
// product from the previous page; its score is recomputed from the stored
// name, so the id alone is enough to resume the scan. A cursor whose product
// was deleted or renamed out of the match set between pages restarts from the
// top of the remaining matches instead of silently ending pagination.
func (r *equipmentRepository) Search(ctx context.Context, category model.Category, name, cursor string, limit int) ([]model.Product, error) {
	query := `
		WITH matches AS (
			SELECT id, name, all_time_low_price, similarity(name, $2) AS score
			FROM products
			WHERE category = $1 AND name ILIKE '%' || $3 || '%'
		)
		SELECT m.id, m.name, m.all_time_low_price
		FROM matches m
		WHERE $4 = ''
		   OR NOT EXISTS (SELECT 1 FROM matches WHERE id = $4)
		   OR m.score < (SELECT score FROM matches WHERE id = $4)
		   OR (m.score = (SELECT score FROM matches WHERE id = $4) AND m.id > $4)
		ORDER BY m.score DESC, m.id ASC
		LIMIT $5
	`

	rows, err := r.pool.Query(ctx, query, string(category), name, likeEscaper.Replace(name), cursor, limit)
	if err != nil {
		r.logger.Error().Err(err).
			Str("category", string(category)).
			Str("name", name).
			Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	var ids []string
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.AllTimeLowPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if len(products) == 0 {
		return products, nil
	}

	entries, err := r.entriesFor(ctx, category, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Entries = entries[products[i].ID]
	}

	return products, nil
}

// CountMatches counts product/entry pairs matched by name and site substring.
func (r *equipmentRepository) CountMatches(ctx context.Context, category model.Category, name, site string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM products p
		JOIN vendor_entries e
		  ON e.category = p.category AND e.product_id = p.id
		WHERE p.category = $1
		  AND p.name ILIKE '%' || $2 || '%'
		  AND e.url ILIKE '%' || $3 || '%'
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, string(category), likeEscaper.Replace(name), likeEscaper.Replace(site)).Scan(&count); err != nil {
		r.logger.Error().Err(err).
			Str("name", name).
			Str("site", site).
			Msg("failed to count matches")
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}

	return count, nil
}

// DeleteMatch removes the products matched by name and site substrings.
// Entries cascade with their product.
func (r *equipmentRepository) DeleteMatch(ctx context.Context, category model.Category, name, site string) (int64, error) {
	query := `
		DELETE FROM products p
		USING vendor_entries e
		WHERE e.category = p.category AND e.product_id = p.id
		  AND p.category = $1
		  AND p.name ILIKE '%' || $2 || '%'
		  AND e.url ILIKE '%' || $3 || '%'
	`

	tag, err := r.pool.Exec(ctx, query, string(category), likeEscaper.Replace(name), likeEscaper.Replace(site))
	if err != nil {
		r.logger.Error().Err(err).
			Str("name", name).
			Str("site", site).
			Msg("failed to delete match")
		return 0, fmt.Errorf("failed to delete match: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Categories returns the collection names that currently hold data.
func (r *equipmentRepository) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM products
		ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	collections := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		collections = append(collections, model.Category(category).CollectionName())
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category rows")
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return collections, nil
}

// entriesFor loads the vendor entries for a set of products, keyed by product
// id, preserving insertion order within each product.
func (r *equipmentRepository) entriesFor(ctx context.Context, category model.Category, productIDs []string) (map[string][]model.VendorEntry, error) {
	query := `
		SELECT product_id, id, url, price, last_updated
		FROM vendor_entries
		WHERE category = $1 AND product_id = ANY($2)
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query, string(category), productIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("products", len(productIDs)).Msg("failed to query vendor entries")
		return nil, fmt.Errorf("failed to query vendor entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]model.VendorEntry, len(productIDs))
	for rows.Next() {
		var productID string
		var e model.VendorEntry
		if err := rows.Scan(&productID, &e.ID, &e.URL, &e.Price, &e.LastUpdated); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan vendor entry row")
			return nil, fmt.Errorf("failed to scan vendor entry: %w", err)
		}
		entries[productID] = append(entries[productID], e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating vendor entry rows")
		return nil, fmt.Errorf("error iterating vendor entries: %w", err)
	}

	return entries, nil
}
