// Package catalog crawls a paginated product catalog into the item store.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/dispatcher"
	"github.com/JakeFAU/catalog-crawler/internal/extract"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Config bounds one crawl.
type Config struct {
	BaseURL  string
	MinItems int
	MaxItems int
	// MaxPrice is exclusive: items priced at or above it are dropped.
	MaxPrice float64
	Delay    time.Duration
}

// Deps are the collaborators of an Engine. Recorder is optional.
type Deps struct {
	Fetcher  crawler.Fetcher
	Store    crawler.ItemStore
	Pool     *dispatcher.Pool
	Clock    crawler.Clock
	IDs      crawler.IDGenerator
	Recorder crawler.RunRecorder
	Logger   *zap.Logger
}

// Engine runs breadth-first catalog crawls.
type Engine struct {
	cfg  Config
	deps Deps
}

// New validates the configuration and builds an Engine.
func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog base url is required")
	}
	if cfg.MaxItems <= 0 {
		return nil, errors.New("catalog max items must be > 0")
	}
	if deps.Fetcher == nil || deps.Store == nil || deps.Clock == nil {
		return nil, errors.New("catalog engine requires a fetcher, store and clock")
	}
	if deps.Pool == nil {
		deps.Pool = dispatcher.New(dispatcher.Policy{Workers: 1})
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, deps: deps}, nil
}

// Run clears the store and crawls from the base URL until MaxItems items have
// been stored or the frontier is exhausted. On a fatal error the partial
// result is returned together with the error.
func (e *Engine) Run(ctx context.Context) (crawler.CrawlResult, error) {
	result := crawler.CrawlResult{
		RunID:     e.newRunID(),
		StartedAt: e.deps.Clock.Now(),
	}
	logger := e.deps.Logger.With(zap.String("run_id", result.RunID))
	logger.Info("catalog crawl started", zap.String("base_url", e.cfg.BaseURL), zap.Int("max_items", e.cfg.MaxItems))

	if err := e.deps.Store.Clear(ctx); err != nil {
		return e.finish(ctx, logger, result, storeErr("clear store", err))
	}

	front := newFrontier(e.cfg.BaseURL)
	for result.Collected < e.cfg.MaxItems {
		pageURL, ok := front.pop()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, logger, result, fmt.Errorf("crawl canceled: %w", err))
		}
		result.PagesVisited++

		items, next, err := e.crawlPage(ctx, logger, pageURL)
		if err != nil {
			return e.finish(ctx, logger, result, err)
		}
		for _, item := range items {
			if result.Collected >= e.cfg.MaxItems {
				break
			}
			id, created, err := e.deps.Store.Store(ctx, item)
			if err != nil {
				return e.finish(ctx, logger, result, storeErr("store item", err))
			}
			result.Collected++
			if created {
				result.Created++
				metrics.ObserveItem(metrics.ItemStored)
			} else {
				metrics.ObserveItem(metrics.ItemDuplicate)
				logger.Debug("duplicate item discarded", zap.String("id", id), zap.String("title", item.Title))
			}
		}
		front.push(next)

		if result.Collected < e.cfg.MaxItems && front.hasNext() && e.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return e.finish(ctx, logger, result, fmt.Errorf("crawl canceled: %w", ctx.Err()))
			case <-e.deps.Clock.After(e.cfg.Delay):
			}
		}
	}
	return e.finish(ctx, logger, result, nil)
}

// crawlPage fetches one listing page and extracts its items concurrently.
// Soft failures yield fewer items; only fatal errors are returned.
func (e *Engine) crawlPage(ctx context.Context, logger *zap.Logger, pageURL string) ([]crawler.CatalogItem, string, error) {
	doc, err := e.fetchDocument(ctx, pageURL)
	if err != nil {
		if isFatal(ctx, err) {
			return nil, "", err
		}
		metrics.ObserveCatalogPage("failed")
		logger.Warn("listing page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil, "", nil
	}
	metrics.ObserveCatalogPage("ok")

	links, next := extract.CatalogPage(doc, pageURL)
	logger.Debug("listing page parsed", zap.String("url", pageURL), zap.Int("links", len(links)), zap.String("next", next))

	found, err := dispatcher.Map(ctx, e.deps.Pool, links,
		func(ctx context.Context, _ int, link string) (*crawler.CatalogItem, error) {
			return e.extractItem(ctx, logger, link)
		})
	if err != nil {
		return nil, "", err
	}

	items := make([]crawler.CatalogItem, 0, len(found))
	for _, item := range found {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, next, nil
}

func (e *Engine) extractItem(ctx context.Context, logger *zap.Logger, link string) (*crawler.CatalogItem, error) {
	doc, err := e.fetchDocument(ctx, link)
	if err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		metrics.ObserveItem(metrics.ItemInvalid)
		logger.Warn("detail page fetch failed", zap.String("url", link), zap.Error(err))
		return nil, nil
	}
	item, err := extract.CatalogItem(doc, link)
	if err != nil {
		metrics.ObserveItem(metrics.ItemInvalid)
		logger.Warn("detail page skipped", zap.String("url", link), zap.Error(err))
		return nil, nil
	}
	if item.Price >= e.cfg.MaxPrice {
		metrics.ObserveItem(metrics.ItemFiltered)
		return nil, nil
	}
	return &item, nil
}

func (e *Engine) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := e.deps.Fetcher.Fetch(ctx, crawler.FetchRequest{URL: url})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", url, crawler.ErrFetchFailed, err)
	}
	return doc, nil
}

func (e *Engine) finish(ctx context.Context, logger *zap.Logger, result crawler.CrawlResult, err error) (crawler.CrawlResult, error) {
	result.FinishedAt = e.deps.Clock.Now()
	switch {
	case err != nil:
		result.Status = crawler.RunStatusAborted
		result.ErrorText = err.Error()
		logger.Error("catalog crawl aborted", zap.Int("collected", result.Collected), zap.Error(err))
	case result.Collected < e.cfg.MinItems:
		result.Status = crawler.RunStatusShort
		logger.Warn("catalog crawl finished below minimum",
			zap.Int("collected", result.Collected),
			zap.Int("min_items", e.cfg.MinItems),
		)
	default:
		result.Status = crawler.RunStatusSucceeded
		logger.Info("catalog crawl finished",
			zap.Int("collected", result.Collected),
			zap.Int("created", result.Created),
			zap.Int("pages", result.PagesVisited),
		)
	}
	metrics.ObserveRun(string(result.Status))

	if e.deps.Recorder != nil && result.RunID != "" {
		if recErr := e.deps.Recorder.RecordRun(context.WithoutCancel(ctx), result); recErr != nil {
			logger.Warn("failed to record crawl run", zap.Error(recErr))
		}
	}
	return result, err
}

func (e *Engine) newRunID() string {
	if e.deps.IDs == nil {
		return ""
	}
	id, err := e.deps.IDs.NewID()
	if err != nil {
		e.deps.Logger.Warn("failed to generate run id", zap.Error(err))
		return ""
	}
	return id
}

func isFatal(ctx context.Context, err error) bool {
	return errors.Is(err, crawler.ErrFetcherUnavailable) || ctx.Err() != nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, crawler.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, crawler.ErrStoreUnavailable, err)
}
