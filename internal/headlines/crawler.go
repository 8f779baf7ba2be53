// Package headlines collects ranked story rows from a paginated news listing.
package headlines

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/dispatcher"
	"github.com/JakeFAU/catalog-crawler/internal/extract"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Page count bounds accepted by Fetch.
const (
	MinPages = 1
	MaxPages = 10
)

// Config locates the listing and bounds the wait for story rows.
type Config struct {
	BaseURL string
	Wait    time.Duration
}

// Crawler renders listing pages in parallel, one session per page.
type Crawler struct {
	cfg      Config
	renderer crawler.Renderer
	pool     *dispatcher.Pool
	logger   *zap.Logger
}

// New builds a Crawler.
func New(cfg Config, renderer crawler.Renderer, pool *dispatcher.Pool, logger *zap.Logger) (*Crawler, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("headlines base url is required")
	}
	if renderer == nil {
		return nil, errors.New("headlines renderer is required")
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 10 * time.Second
	}
	if pool == nil {
		pool = dispatcher.New(dispatcher.Policy{Workers: 3})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{cfg: cfg, renderer: renderer, pool: pool, logger: logger}, nil
}

// Fetch collects the headlines of the first pageCount listing pages, sorted by
// score descending. Equal scores keep page order, then row order.
// Pages that fail to render contribute nothing.
func (c *Crawler) Fetch(ctx context.Context, pageCount int) ([]crawler.Headline, error) {
	if pageCount < MinPages || pageCount > MaxPages {
		return nil, fmt.Errorf("fetch %d pages: %w", pageCount, crawler.ErrInvalidPageCount)
	}

	pages := make([]int, pageCount)
	for i := range pages {
		pages[i] = i + 1
	}
	perPage, err := dispatcher.Map(ctx, c.pool, pages,
		func(ctx context.Context, _ int, page int) ([]crawler.Headline, error) {
			return c.fetchPage(ctx, page), nil
		})
	if err != nil {
		return nil, fmt.Errorf("fetch headlines: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch headlines: %w", err)
	}

	out := []crawler.Headline{}
	for _, rows := range perPage {
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	c.logger.Info("headlines fetched", zap.Int("pages", pageCount), zap.Int("count", len(out)))
	return out, nil
}

func (c *Crawler) fetchPage(ctx context.Context, page int) []crawler.Headline {
	pageURL, err := crawler.PageURL(c.cfg.BaseURL, page)
	if err != nil {
		metrics.ObserveHeadlinePage("failed")
		c.logger.Warn("invalid listing url", zap.Int("page", page), zap.Error(err))
		return nil
	}
	logger := c.logger.With(zap.Int("page", page), zap.String("url", pageURL))

	session, err := c.renderer.Open(ctx)
	if err != nil {
		metrics.ObserveHeadlinePage("session_failed")
		logger.Warn("rendering session unavailable", zap.Error(err))
		return nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug("session close failed", zap.Error(err))
		}
	}()

	doc, err := session.Render(ctx, pageURL, extract.RowSelector, c.cfg.Wait)
	if err != nil {
		if errors.Is(err, crawler.ErrSelectorTimeout) {
			metrics.ObserveHeadlinePage("timeout")
			logger.Warn("story rows never appeared", zap.Duration("wait", c.cfg.Wait))
			return nil
		}
		metrics.ObserveHeadlinePage("failed")
		logger.Warn("listing render failed", zap.Error(err))
		return nil
	}

	rows := extract.Headlines(doc, pageURL)
	metrics.ObserveHeadlinePage("ok")
	logger.Debug("listing page extracted", zap.Int("rows", len(rows)))
	return rows
}
