// Package headless renders pages in a browser (chromedp) or statically (fetch + parse)
// behind the crawler.Renderer contract.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultOpenTimeout       = 15 * time.Second
)

// Config controls the behavior of the chromedp renderer.
type Config struct {
	// Endpoint is a remote DevTools URL (ws://host:9222). Empty launches a local Chrome.
	Endpoint          string
	UserAgent         string
	NavigationTimeout time.Duration
	// OpenTimeout bounds connecting to the browser and preparing the tab.
	OpenTimeout time.Duration
}

// Renderer opens chromedp sessions. Every session owns its own browser connection.
type Renderer struct {
	cfg         Config
	remote      bool
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromedp creates a renderer backed by chromedp.
func NewChromedp(cfg Config) *Renderer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}

	if cfg.Endpoint != "" {
		allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cfg.Endpoint)
		return &Renderer{cfg: cfg, remote: true, allocator: allocCtx, allocCancel: allocCancel}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Renderer{cfg: cfg, allocator: allocCtx, allocCancel: allocCancel}
}

// Close cancels the allocator context, tearing down every open session.
func (r *Renderer) Close() {
	r.allocCancel()
}

// Open connects a new browser session.
func (r *Renderer) Open(ctx context.Context) (crawler.Session, error) {
	return r.open(ctx)
}

func (r *Renderer) open(ctx context.Context) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open session: %w: %w", crawler.ErrSessionUnavailable, err)
	}
	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	// The first Run allocates the browser. A deadline on taskCtx would outlive
	// setup and close the tab, so the wait is bounded by cancel hooks instead.
	stopCaller := context.AfterFunc(ctx, taskCancel)
	timer := time.AfterFunc(r.cfg.OpenTimeout, taskCancel)
	err := chromedp.Run(taskCtx, r.setupAction())
	callerLive := stopCaller()
	timerLive := timer.Stop()
	switch {
	case !callerLive:
		taskCancel()
		return nil, fmt.Errorf("open session: %w: %w", crawler.ErrSessionUnavailable, context.Cause(ctx))
	case !timerLive:
		taskCancel()
		return nil, fmt.Errorf("open session: %w: no response within %s", crawler.ErrSessionUnavailable, r.cfg.OpenTimeout)
	case err != nil:
		taskCancel()
		return nil, fmt.Errorf("open session: %w: %w", crawler.ErrSessionUnavailable, err)
	}
	return &session{
		ctx:        taskCtx,
		cancel:     taskCancel,
		navTimeout: r.cfg.NavigationTimeout,
		meta:       meta,
	}, nil
}

func (r *Renderer) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if r.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// Fetch renders request.URL in a throwaway session so the renderer can back
// the catalog crawler as a crawler.Fetcher.
func (r *Renderer) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	s, err := r.open(ctx)
	if err != nil {
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: %w: %w", request.URL, crawler.ErrFetchFailed, err)
	}
	defer func() { _ = s.Close() }()

	if len(request.Headers) > 0 {
		if err := chromedp.Run(s.ctx, network.SetExtraHTTPHeaders(toNetworkHeaders(request.Headers))); err != nil {
			return crawler.FetchResponse{}, fmt.Errorf("fetch %s: set extra headers: %w: %w", request.URL, crawler.ErrFetchFailed, err)
		}
	}

	start := time.Now()
	html, finalURL, err := s.renderHTML(ctx, request.URL, "body", s.navTimeout)
	if err != nil {
		if errors.Is(err, crawler.ErrFetchFailed) {
			return crawler.FetchResponse{}, err
		}
		return crawler.FetchResponse{}, fmt.Errorf("%w: %w", crawler.ErrFetchFailed, err)
	}

	status, headers, responseURL := s.meta.snapshotWithFallbacks(request.URL, finalURL)
	if headers == nil {
		headers = http.Header{}
	}
	if status >= http.StatusBadRequest {
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: status %d: %w", request.URL, status, crawler.ErrFetchFailed)
	}
	return crawler.FetchResponse{
		URL:          responseURL,
		StatusCode:   status,
		Headers:      headers,
		Body:         []byte(html),
		Duration:     time.Since(start),
		UsedHeadless: true,
	}, nil
}

type session struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
	meta       *responseMeta
	closeOnce  sync.Once
}

// Render navigates to rawURL, waits for waitSelector, and parses the rendered DOM.
func (s *session) Render(ctx context.Context, rawURL, waitSelector string, wait time.Duration) (*goquery.Document, error) {
	html, finalURL, err := s.renderHTML(ctx, rawURL, waitSelector, wait)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered %s: %w", rawURL, err)
	}
	if u, err := url.Parse(finalURL); err == nil && finalURL != "" {
		doc.Url = u
	}
	return doc, nil
}

func (s *session) renderHTML(ctx context.Context, rawURL, waitSelector string, wait time.Duration) (string, string, error) {
	start := time.Now()
	navCtx, navCancel := s.bound(ctx, s.navTimeout)
	defer navCancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(rawURL)); err != nil {
		return "", "", fmt.Errorf("navigate %s: %w: %w", rawURL, crawler.ErrFetchFailed, err)
	}

	if waitSelector != "" {
		waitCtx, waitCancel := s.bound(ctx, wait)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
		waitCancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return "", "", fmt.Errorf("wait for %q on %s: %w", waitSelector, rawURL, crawler.ErrSelectorTimeout)
			}
			return "", "", fmt.Errorf("wait for %q on %s: %w", waitSelector, rawURL, err)
		}
	}

	var html, finalURL string
	readCtx, readCancel := s.bound(ctx, s.navTimeout)
	defer readCancel()
	if err := chromedp.Run(readCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", "", fmt.Errorf("read rendered %s: %w", rawURL, err)
	}
	metrics.ObserveFetch("headless", rawURL, time.Since(start))
	return html, finalURL, nil
}

// bound derives a timeout child of the session context that also ends with ctx.
func (s *session) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	child, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return child, func() {
		stop()
		cancel()
	}
}

// Close releases the browser connection. It is safe to call more than once.
func (s *session) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

type responseMeta struct {
	mu      sync.RWMutex
	status  int
	headers http.Header
	url     string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{
		headers: http.Header{},
	}
}

func (m *responseMeta) capture(event *network.EventResponseReceived) {
	if event.Type != network.ResourceTypeDocument || event.Response == nil {
		return
	}
	headers := http.Header{}
	for key, value := range event.Response.Headers {
		switch v := value.(type) {
		case string:
			headers.Add(key, v)
		case []any:
			for _, entry := range v {
				headers.Add(key, fmt.Sprint(entry))
			}
		default:
			headers.Add(key, fmt.Sprint(v))
		}
	}
	m.mu.Lock()
	m.status = int(event.Response.Status)
	m.headers = headers
	m.url = event.Response.URL
	m.mu.Unlock()
}

func (m *responseMeta) captureEvent(ev any) {
	if resp, ok := ev.(*network.EventResponseReceived); ok {
		m.capture(resp)
	}
}

func (m *responseMeta) snapshotWithFallbacks(requestURL, finalURL string) (int, http.Header, string) {
	m.mu.RLock()
	status, headers, responseURL := m.status, m.headers.Clone(), m.url
	m.mu.RUnlock()

	switch {
	case responseURL != "":
	case finalURL != "":
		responseURL = finalURL
	default:
		responseURL = requestURL
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, headers, responseURL
}

func toNetworkHeaders(h http.Header) network.Headers {
	headers := network.Headers{}
	for key, values := range h {
		switch len(values) {
		case 0:
		case 1:
			headers[key] = values[0]
		default:
			headers[key] = strings.Join(values, ", ")
		}
	}
	return headers
}
