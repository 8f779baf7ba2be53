package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher fetches a URL and returns the decoded body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Renderer opens isolated rendering sessions. A session is owned by exactly
// one task and must be closed by it.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session renders a URL and exposes the resulting DOM for selector queries.
type Session interface {
	// Render navigates to url and waits up to wait for waitSelector to
	// appear. It returns ErrSelectorTimeout when the marker never shows up.
	Render(ctx context.Context, url, waitSelector string, wait time.Duration) (*goquery.Document, error)
	Close() error
}

// ItemStore is the content-addressable catalog store plus its category index.
type ItemStore interface {
	// Store persists item under its content id. When a record already exists
	// it is left untouched and created is false.
	Store(ctx context.Context, item CatalogItem) (id string, created bool, err error)
	// Get returns every item, or only the members of category when non-empty.
	Get(ctx context.Context, category string) ([]CatalogItem, error)
	Categories(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// RunRecorder persists crawl run summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, result CrawlResult) error
}

// Hasher computes digests for content addressing.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time and schedules waits (useful for testing).
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// IDGenerator produces run and request IDs.
type IDGenerator interface {
	NewID() (string, error)
}
