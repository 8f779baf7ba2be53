package headless

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

const newsPage = `<html><body><table>
<tr class="athing" id="1"><td class="title"><span class="titleline"><a href="https://example.com/a">Story A</a></span></td></tr>
<tr><td class="subtext"><span class="score">42 points</span></td></tr>
</table></body></html>`

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.urls = append(f.urls, req.URL)
	if f.err != nil {
		return crawler.FetchResponse{}, f.err
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte(f.body)}, nil
}

func TestStaticRenderFindsSelector(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: newsPage}
	s, err := NewStatic(fetcher).Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	doc, err := s.Render(context.Background(), "https://news.ycombinator.com/news?p=2", "tr.athing", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("tr.athing").Length())
	require.NotNil(t, doc.Url)
	assert.Equal(t, "/news", doc.Url.Path)
	assert.Equal(t, []string{"https://news.ycombinator.com/news?p=2"}, fetcher.urls)
}

func TestStaticRenderMissingSelector(t *testing.T) {
	t.Parallel()

	s, err := NewStatic(&fakeFetcher{body: "<html><body>rate limited</body></html>"}).Open(context.Background())
	require.NoError(t, err)

	_, err = s.Render(context.Background(), "https://news.ycombinator.com/news", "tr.athing", time.Second)
	require.ErrorIs(t, err, crawler.ErrSelectorTimeout)
}

func TestStaticRenderFetchError(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("fetch https://news.ycombinator.com/news: fetch failed")
	s, err := NewStatic(&fakeFetcher{err: fetchErr}).Open(context.Background())
	require.NoError(t, err)

	_, err = s.Render(context.Background(), "https://news.ycombinator.com/news", "tr.athing", time.Second)
	require.ErrorIs(t, err, fetchErr)
}

func TestStaticSessionClosed(t *testing.T) {
	t.Parallel()

	s, err := NewStatic(&fakeFetcher{body: newsPage}).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Render(context.Background(), "https://news.ycombinator.com/news", "tr.athing", time.Second)
	require.ErrorIs(t, err, crawler.ErrSessionUnavailable)
}

func TestStaticOpenErrors(t *testing.T) {
	t.Parallel()

	_, err := NewStatic(nil).Open(context.Background())
	require.ErrorIs(t, err, crawler.ErrSessionUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStatic(&fakeFetcher{}).Open(ctx)
	require.ErrorIs(t, err, crawler.ErrSessionUnavailable)
}
