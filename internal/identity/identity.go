// Package identity derives content-addressed identifiers for products and
// vendor entries. Identifiers are SHA-256 hex digests, so identical logical
// entities always resolve to the same ID across crawl runs.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"

	"github.com/benhicks2/tt-scraper/internal/model"
)

var foldCaser = cases.Fold()

// ProductID returns the identifier for a product name. The name is
// case-folded and trimmed before hashing, so "Tenergy 05" and
// " tenergy 05 " map to the same product.
func ProductID(name string) (string, error) {
	normalised := foldCaser.String(strings.TrimSpace(name))
	if normalised == "" {
		return "", model.ErrEmptyInput
	}
	return digest(normalised), nil
}

// EntryID returns the identifier for a vendor URL. The URL is hashed
// verbatim: two URLs differing only by a trailing slash are distinct vendors.
func EntryID(url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", model.ErrEmptyInput
	}
	return digest(url), nil
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
