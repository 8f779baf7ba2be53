package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

const (
	scanCount = 200
	mgetBatch = 500
)

// record is the JSON value stored under item:<id>.
type record struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	ImageURL string  `json:"image_url"`
}

// Store is a crawler.ItemStore backed by Redis string keys and category sets.
type Store struct {
	client redis.UniversalClient
	hasher crawler.Hasher
	logger *zap.Logger
}

// New wraps an existing client. The client is shared, not owned.
func New(client redis.UniversalClient, hasher crawler.Hasher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, hasher: hasher, logger: logger}
}

// Store writes the item and its index entry in one MULTI/EXEC. SETNX leaves
// an existing record untouched, in which case created is false.
func (s *Store) Store(ctx context.Context, item crawler.CatalogItem) (string, bool, error) {
	item.Category = crawler.NormalizeCategory(item.Category)
	id, err := crawler.ContentID(s.hasher, item)
	if err != nil {
		return "", false, fmt.Errorf("store item: %w", err)
	}
	payload, err := json.Marshal(record{
		Title:    item.Title,
		Price:    item.Price,
		Category: item.Category,
		ImageURL: item.ImageURL,
	})
	if err != nil {
		return "", false, fmt.Errorf("marshal item %s: %w", id, err)
	}

	key := crawler.ItemKey(id)
	var setCmd *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		setCmd = pipe.SetNX(ctx, key, payload, 0)
		pipe.SAdd(ctx, crawler.CategoryKey(item.Category), key)
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("store %s: %w: %w", key, crawler.ErrStoreUnavailable, err)
	}
	created := setCmd.Val()
	if !created {
		s.logger.Debug("item already stored",
			zap.String("id", id),
			zap.String("title", item.Title),
			zap.String("discarded_image_url", item.ImageURL),
		)
	}
	return id, created, nil
}

// Get returns every item, or the members of category when non-empty, sorted
// by title then id. Values that fail to decode are skipped.
func (s *Store) Get(ctx context.Context, category string) ([]crawler.CatalogItem, error) {
	var (
		keys []string
		err  error
	)
	if category != "" {
		keys, err = s.client.SMembers(ctx, crawler.CategoryKey(category)).Result()
		if err != nil {
			return nil, fmt.Errorf("read category %q: %w: %w", category, crawler.ErrStoreUnavailable, err)
		}
	} else {
		keys, err = s.scan(ctx, crawler.ItemKeyPrefix+"*")
		if err != nil {
			return nil, err
		}
	}

	items := make([]crawler.CatalogItem, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		end := min(start+mgetBatch, len(keys))
		batch := keys[start:end]
		values, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("read items: %w: %w", crawler.ErrStoreUnavailable, err)
		}
		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				continue
			}
			var rec record
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				s.logger.Warn("skipping undecodable item", zap.String("key", batch[i]), zap.Error(err))
				continue
			}
			items = append(items, crawler.CatalogItem{
				ID:       crawler.IDFromItemKey(batch[i]),
				Title:    rec.Title,
				Price:    rec.Price,
				Category: rec.Category,
				ImageURL: rec.ImageURL,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Title != items[j].Title {
			return items[i].Title < items[j].Title
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Categories lists the category names present in the index.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	keys, err := s.scan(ctx, crawler.CategoryKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, crawler.CategoryKeyPrefix))
	}
	sort.Strings(out)
	return out, nil
}

// Clear wipes the selected database.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("flush: %w: %w", crawler.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w: %w", crawler.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context, match string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	iter := s.client.Scan(ctx, 0, match, scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// SCAN may return a key more than once.
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w: %w", match, crawler.ErrStoreUnavailable, err)
	}
	return keys, nil
}
