// Package metrics exposes Prometheus collectors for the catalog crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item outcomes recorded by ObserveItem.
const (
	ItemStored    = "stored"
	ItemDuplicate = "duplicate"
	ItemFiltered  = "filtered"
	ItemInvalid   = "invalid"
)

var (
	catalogPagesTotal             *prometheus.CounterVec
	catalogItemsTotal             *prometheus.CounterVec
	catalogRunsTotal              *prometheus.CounterVec
	headlinePagesTotal            *prometheus.CounterVec
	fetchDurationSeconds          *prometheus.HistogramVec
	httpRequestsTotal             *prometheus.CounterVec
	httpRequestDurationSeconds    *prometheus.HistogramVec
	crawlerRateLimitDelaysSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		catalogPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_pages_total",
				Help: "Total number of catalog listing pages processed, labeled by status.",
			},
			[]string{"status"},
		)

		catalogItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_items_total",
				Help: "Total number of catalog items seen, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		catalogRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_runs_total",
				Help: "Total number of catalog crawls, labeled by final status.",
			},
			[]string{"status"},
		)

		headlinePagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headline_pages_total",
				Help: "Total number of headline listing pages rendered, labeled by status.",
			},
			[]string{"status"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fetch_duration_seconds",
				Help:    "Histogram of document fetch latencies, labeled by backend and site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"backend", "site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)

		crawlerRateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveCatalogPage counts a processed listing page.
func ObserveCatalogPage(status string) {
	Init()
	catalogPagesTotal.WithLabelValues(status).Inc()
}

// ObserveItem counts a catalog item by outcome.
func ObserveItem(outcome string) {
	Init()
	catalogItemsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun counts a finished catalog crawl.
func ObserveRun(status string) {
	Init()
	catalogRunsTotal.WithLabelValues(status).Inc()
}

// ObserveHeadlinePage counts a rendered headline page.
func ObserveHeadlinePage(status string) {
	Init()
	headlinePagesTotal.WithLabelValues(status).Inc()
}

// ObserveFetch records the latency of one document fetch.
func ObserveFetch(backend, rawURL string, duration time.Duration) {
	Init()
	fetchDurationSeconds.WithLabelValues(backend, SanitizeSite(rawURL)).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	crawlerRateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
