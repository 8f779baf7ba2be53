package headless

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// Static renders by fetching and parsing the raw document. The wait step
// becomes a presence check for the selector.
type Static struct {
	fetcher crawler.Fetcher
}

// NewStatic wraps fetcher as a crawler.Renderer.
func NewStatic(fetcher crawler.Fetcher) *Static {
	return &Static{fetcher: fetcher}
}

// Open returns a session bound to the wrapped fetcher.
func (s *Static) Open(ctx context.Context) (crawler.Session, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("open static session: no fetcher: %w", crawler.ErrSessionUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open static session: %w: %w", crawler.ErrSessionUnavailable, err)
	}
	return &staticSession{fetcher: s.fetcher}, nil
}

type staticSession struct {
	fetcher crawler.Fetcher
	closed  atomic.Bool
}

func (s *staticSession) Render(ctx context.Context, rawURL, waitSelector string, _ time.Duration) (*goquery.Document, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("render %s: session closed: %w", rawURL, crawler.ErrSessionUnavailable)
	}
	resp, err := s.fetcher.Fetch(ctx, crawler.FetchRequest{URL: rawURL})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if u, err := url.Parse(resp.URL); err == nil && resp.URL != "" {
		doc.Url = u
	}
	if waitSelector != "" && doc.Find(waitSelector).Length() == 0 {
		return nil, fmt.Errorf("wait for %q on %s: %w", waitSelector, rawURL, crawler.ErrSelectorTimeout)
	}
	return doc, nil
}

func (s *staticSession) Close() error {
	s.closed.Store(true)
	return nil
}
