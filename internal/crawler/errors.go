package crawler

import "errors"

// Failure taxonomy shared by the crawl pipeline. Implementations wrap these
// with fmt.Errorf("...: %w") so callers can classify with errors.Is.
var (
	// ErrFetchFailed marks a timeout, transport error, or non-success status
	// for a single URL. Soft: the unit yields nothing and the crawl continues.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrFetcherUnavailable means the fetch adapter itself can no longer serve
	// requests. Fatal to a catalog crawl.
	ErrFetcherUnavailable = errors.New("fetcher unavailable")

	// ErrExtractionFailed marks a document missing a required field or
	// carrying an unparsable price. Soft: the item is skipped.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrInvalidPageCount rejects a headline request outside [1,10].
	ErrInvalidPageCount = errors.New("page count must be between 1 and 10")

	// ErrSessionUnavailable means a rendering session could not be opened.
	// Fatal only to the task that needed it.
	ErrSessionUnavailable = errors.New("rendering session unavailable")

	// ErrSelectorTimeout means the expected marker never appeared in the
	// rendered document within the wait limit.
	ErrSelectorTimeout = errors.New("selector wait timed out")

	// ErrStoreUnavailable means the persistence backend failed. Fatal to a
	// catalog crawl.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRunNotFound means no crawl run is recorded under the requested id.
	ErrRunNotFound = errors.New("run not found")
)
