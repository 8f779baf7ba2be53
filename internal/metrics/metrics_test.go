package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Books.ToScrape.com/index.html", "books.toscrape.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	first := catalogItemsTotal
	Init()
	if catalogItemsTotal != first {
		t.Fatal("Init() replaced collectors on second call")
	}
}

func TestObserversIncrementCounters(t *testing.T) {
	Init()

	before := testutil.ToFloat64(catalogItemsTotal.WithLabelValues(ItemFiltered))
	ObserveItem(ItemFiltered)
	ObserveItem(ItemFiltered)
	if got := testutil.ToFloat64(catalogItemsTotal.WithLabelValues(ItemFiltered)); got != before+2 {
		t.Errorf("expected filtered items to grow by 2, got %f -> %f", before, got)
	}

	beforePages := testutil.ToFloat64(catalogPagesTotal.WithLabelValues("failed"))
	ObserveCatalogPage("failed")
	if got := testutil.ToFloat64(catalogPagesTotal.WithLabelValues("failed")); got != beforePages+1 {
		t.Errorf("expected failed pages to grow by 1, got %f", got)
	}

	beforeRuns := testutil.ToFloat64(catalogRunsTotal.WithLabelValues("short"))
	ObserveRun("short")
	if got := testutil.ToFloat64(catalogRunsTotal.WithLabelValues("short")); got != beforeRuns+1 {
		t.Errorf("expected short runs to grow by 1, got %f", got)
	}

	beforeHeadlines := testutil.ToFloat64(headlinePagesTotal.WithLabelValues("timeout"))
	ObserveHeadlinePage("timeout")
	if got := testutil.ToFloat64(headlinePagesTotal.WithLabelValues("timeout")); got != beforeHeadlines+1 {
		t.Errorf("expected timeout headline pages to grow by 1, got %f", got)
	}

	ObserveFetch("http", "https://books.toscrape.com/", 120*time.Millisecond)
	if n := testutil.CollectAndCount(fetchDurationSeconds); n == 0 {
		t.Error("expected fetch duration to be observed")
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	for _, tc := range []string{"http://example.com", "https://books.toscrape.com", "ftp://example.com"} {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
