package crawler

import (
	"net/http"
	"time"
)

// CatalogItem is one product record extracted from a catalog detail page.
type CatalogItem struct {
	ID       string  `json:"id,omitempty"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	ImageURL string  `json:"image_url"`
}

// Headline is one ranked row from the news listing. Score is always present
// and is zero when the listing did not expose a parsable value.
type Headline struct {
	Title string `json:"title"`
	Score int    `json:"score"`
	URL   string `json:"url"`
}

// RunStatus describes how a catalog crawl finished.
type RunStatus string

// Run status values recorded on CrawlResult.
const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusShort     RunStatus = "short"
	RunStatusAborted   RunStatus = "aborted"
)

// CrawlResult summarizes one catalog crawl.
// Collected counts every successful store call, including writes that hit an
// existing record; Created counts only writes that produced a new record.
type CrawlResult struct {
	RunID        string    `json:"run_id"`
	Collected    int       `json:"collected"`
	Created      int       `json:"created"`
	PagesVisited int       `json:"pages_visited"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       RunStatus `json:"status"`
	ErrorText    string    `json:"error_text,omitempty"`
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
// Body is always UTF-8.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
