package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// RunStore keeps crawl run summaries in memory, keyed by run id.
type RunStore struct {
	mu    sync.RWMutex
	order []string
	runs  map[string]crawler.CrawlResult
}

// NewRunStore constructs a RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]crawler.CrawlResult)}
}

// RecordRun inserts or replaces the summary for result.RunID.
func (s *RunStore) RecordRun(_ context.Context, result crawler.CrawlResult) error {
	if result.RunID == "" {
		return errors.New("run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[result.RunID]; !exists {
		s.order = append(s.order, result.RunID)
	}
	s.runs[result.RunID] = result
	return nil
}

// GetRun fetches a run by id.
func (s *RunStore) GetRun(_ context.Context, runID string) (crawler.CrawlResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return crawler.CrawlResult{}, fmt.Errorf("run %q: %w", runID, crawler.ErrRunNotFound)
	}
	return run, nil
}

// ListRuns returns every recorded run in insertion order.
func (s *RunStore) ListRuns(_ context.Context) []crawler.CrawlResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.CrawlResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.runs[id])
	}
	return out
}
