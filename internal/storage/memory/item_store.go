// Package memory holds in-process stores for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// ItemStore is an in-memory crawler.ItemStore with the same content-addressed
// semantics as the Redis store.
type ItemStore struct {
	hasher crawler.Hasher

	mu         sync.RWMutex
	items      map[string]crawler.CatalogItem
	categories map[string]map[string]struct{}
}

// NewItemStore constructs an ItemStore.
func NewItemStore(hasher crawler.Hasher) *ItemStore {
	return &ItemStore{
		hasher:     hasher,
		items:      make(map[string]crawler.CatalogItem),
		categories: make(map[string]map[string]struct{}),
	}
}

// Store persists item unless a record with the same id exists.
func (s *ItemStore) Store(_ context.Context, item crawler.CatalogItem) (string, bool, error) {
	item.Category = crawler.NormalizeCategory(item.Category)
	id, err := crawler.ContentID(s.hasher, item)
	if err != nil {
		return "", false, fmt.Errorf("store item: %w", err)
	}
	key := crawler.ItemKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; exists {
		return id, false, nil
	}
	item.ID = id
	s.items[key] = item
	members, ok := s.categories[item.Category]
	if !ok {
		members = make(map[string]struct{})
		s.categories[item.Category] = members
	}
	members[key] = struct{}{}
	return id, true, nil
}

// Get returns all items, or the members of category when non-empty.
func (s *ItemStore) Get(_ context.Context, category string) ([]crawler.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []crawler.CatalogItem{}
	if category != "" {
		for key := range s.categories[crawler.NormalizeCategory(category)] {
			if item, ok := s.items[key]; ok {
				out = append(out, item)
			}
		}
	} else {
		for _, item := range s.items {
			out = append(out, item)
		}
	}
	SortItems(out)
	return out, nil
}

// Categories lists the known categories in order.
func (s *ItemStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.categories))
	for name := range s.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Clear drops every item and index entry.
func (s *ItemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]crawler.CatalogItem)
	s.categories = make(map[string]map[string]struct{})
	return nil
}

// Ping always succeeds.
func (s *ItemStore) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored items.
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// SortItems orders items by title, then id.
func SortItems(items []crawler.CatalogItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Title != items[j].Title {
			return items[i].Title < items[j].Title
		}
		return items[i].ID < items[j].ID
	})
}
