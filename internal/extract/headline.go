package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// RowSelector marks one story row on the news listing.
const RowSelector = "tr.athing"

const (
	titleLinkSelector   = "span.titleline > a"
	legacyTitleSelector = "td.title a"
	scoreSelector       = "span.score"
)

// Headlines extracts the story rows of one news listing page in document
// order. Rows without a title or an href are dropped. The score lives in the row
// that immediately follows the story row; when absent or unparsable it is 0.
func Headlines(doc *goquery.Document, pageURL string) []crawler.Headline {
	if doc == nil {
		return nil
	}
	var out []crawler.Headline
	doc.Find(RowSelector).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(titleLinkSelector).First()
		if link.Length() == 0 {
			link = row.Find(legacyTitleSelector).First()
		}
		title := strings.TrimSpace(link.Text())
		if link.Length() == 0 || title == "" {
			return
		}
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return
		}
		abs, err := crawler.ResolveURL(pageURL, href)
		if err != nil {
			abs = href
		}
		score := 0
		if scoreText := row.Next().Find(scoreSelector).First(); scoreText.Length() > 0 {
			score = leadingInt(scoreText.Text())
		}
		out = append(out, crawler.Headline{Title: title, Score: score, URL: abs})
	})
	return out
}
