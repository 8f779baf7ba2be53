package crawler

import (
	"fmt"
	"strconv"
	"strings"
)

// IDLength is the number of hex characters kept from the content digest.
const IDLength = 12

// Key prefixes of the storage wire format.
const (
	ItemKeyPrefix     = "item:"
	CategoryKeyPrefix = "category:"
)

// NormalizeCategory lowercases and trims a category label.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// IdentityKey renders the normalized identity of an item:
// "<lowercased title>|<lowercased category>|<price>".
func (i CatalogItem) IdentityKey() string {
	return strings.ToLower(i.Title) + "|" + strings.ToLower(i.Category) + "|" + FormatPrice(i.Price)
}

// FormatPrice renders a price as the shortest round-tripping decimal that
// always carries a fractional part, e.g. 20 -> "20.0", 51.77 -> "51.77".
func FormatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ContentID derives the content-addressed id of item using hasher. The id
// is the first IDLength characters of the hex digest of IdentityKey.
func ContentID(hasher Hasher, item CatalogItem) (string, error) {
	digest, err := hasher.Hash([]byte(item.IdentityKey()))
	if err != nil {
		return "", fmt.Errorf("hash item identity: %w", err)
	}
	if len(digest) < IDLength {
		return "", fmt.Errorf("digest %q shorter than %d characters", digest, IDLength)
	}
	return digest[:IDLength], nil
}

// ItemKey returns the storage key for an item id.
func ItemKey(id string) string {
	return ItemKeyPrefix + id
}

// CategoryKey returns the index key for a category label.
func CategoryKey(category string) string {
	return CategoryKeyPrefix + NormalizeCategory(category)
}

// IDFromItemKey strips the item prefix from a storage key.
func IDFromItemKey(key string) string {
	return strings.TrimPrefix(key, ItemKeyPrefix)
}
