// Package app exposes the crawler's core operations behind one service and
// wires its long-lived dependencies.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// CatalogRunner runs one catalog crawl.
type CatalogRunner interface {
	Run(ctx context.Context) (crawler.CrawlResult, error)
}

// HeadlineFetcher collects ranked headlines.
type HeadlineFetcher interface {
	Fetch(ctx context.Context, pageCount int) ([]crawler.Headline, error)
}

// RunHistory looks up recorded crawl runs.
type RunHistory interface {
	GetRun(ctx context.Context, runID string) (crawler.CrawlResult, error)
	ListRuns(ctx context.Context) []crawler.CrawlResult
}

// Service is the core-facing contract used by the HTTP adapter.
type Service struct {
	catalog   CatalogRunner
	store     crawler.ItemStore
	headlines HeadlineFetcher
	runs      RunHistory
	logger    *zap.Logger
}

// NewService builds a Service.
func NewService(catalog CatalogRunner, store crawler.ItemStore, headlines HeadlineFetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, store: store, headlines: headlines, logger: logger}
}

// WithRunHistory attaches the lookup used by ListRuns and GetRun.
func (s *Service) WithRunHistory(runs RunHistory) *Service {
	s.runs = runs
	return s
}

// CrawlCatalog reindexes the catalog and returns how many items were collected.
func (s *Service) CrawlCatalog(ctx context.Context) (int, error) {
	result, err := s.CrawlCatalogResult(ctx)
	return result.Collected, err
}

// CrawlCatalogResult reindexes the catalog and returns the full run summary.
func (s *Service) CrawlCatalogResult(ctx context.Context) (crawler.CrawlResult, error) {
	result, err := s.catalog.Run(ctx)
	if err != nil {
		return result, fmt.Errorf("crawl catalog: %w", err)
	}
	return result, nil
}

// QueryItems returns stored items, optionally restricted to one category.
func (s *Service) QueryItems(ctx context.Context, category string) ([]crawler.CatalogItem, error) {
	items, err := s.store.Get(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return items, nil
}

// ListCategories returns the known category names.
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FetchHeadlines returns the headlines of the first pageCount listing pages.
func (s *Service) FetchHeadlines(ctx context.Context, pageCount int) ([]crawler.Headline, error) {
	headlines, err := s.headlines.Fetch(ctx, pageCount)
	if err != nil {
		return nil, fmt.Errorf("fetch headlines: %w", err)
	}
	return headlines, nil
}

// ListRuns returns the recorded crawl runs, oldest first.
func (s *Service) ListRuns(ctx context.Context) ([]crawler.CrawlResult, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(ctx), nil
}

// GetRun returns one recorded crawl run.
func (s *Service) GetRun(ctx context.Context, runID string) (crawler.CrawlResult, error) {
	if s.runs == nil {
		return crawler.CrawlResult{}, fmt.Errorf("run %q: %w", runID, crawler.ErrRunNotFound)
	}
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return crawler.CrawlResult{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Ready reports whether the item store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// fanoutRecorder hands every run summary to each recorder in turn.
type fanoutRecorder []crawler.RunRecorder

func (f fanoutRecorder) RecordRun(ctx context.Context, result crawler.CrawlResult) error {
	var errs []error
	for _, r := range f {
		if err := r.RecordRun(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
