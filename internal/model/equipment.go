package model

import "time"

// Category identifies an equipment type. Each category maps to its own
// collection of products in the store.
type Category string

const (
	CategoryRubber Category = "rubber"
	CategoryBlade  Category = "blade"
)

// Categories lists every supported equipment category.
var Categories = []Category{CategoryRubber, CategoryBlade}

// ParseCategory validates a category string (e.g. from a URL segment or an
// observation) and returns the typed value.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryRubber, CategoryBlade:
		return Category(s), nil
	}
	return "", ErrInvalidCategory
}

// CollectionName returns the plural collection name used in the store and in
// API routes ("rubbers", "blades").
func (c Category) CollectionName() string {
	return string(c) + "s"
}

// Product is one distinct equipment item, tracked across vendors. The ID is
// derived from the case-folded, trimmed name, so re-scrapes of the same item
// under different capitalisation resolve to one product.
type Product struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	AllTimeLowPrice string        `json:"allTimeLowPrice"`
	Entries         []VendorEntry `json:"entries"`
}

// VendorEntry is one vendor's latest observation for a product. The ID is
// derived from the URL verbatim; two URLs differing only by a trailing slash
// are distinct vendors.
type VendorEntry struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Price       string    `json:"price"`
	LastUpdated time.Time `json:"lastUpdated"`

	// IsStale is derived at query time, never persisted.
	IsStale bool `json:"isStale,omitempty"`
}

// Observation is a single scraped price sighting handed to the merge engine.
type Observation struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Price    string   `json:"price"`
	Category Category `json:"category"`
}

// SearchPage is one page of search results. Next carries the ID of the last
// returned product and is passed back as the cursor for the following page;
// an empty Next means there are no more results.
type SearchPage struct {
	Items []Product `json:"items"`
	Next  string    `json:"next,omitempty"`
}
