package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

const (
	itemLinkSelector = "article.product_pod h3 a"
	nextLinkSelector = "li.next a"
)

// CatalogPage returns the absolute item links of a listing page in document
// order plus the absolute next-page link ("" on the last page).
// Links that cannot be resolved are skipped.
func CatalogPage(doc *goquery.Document, pageURL string) (links []string, next string) {
	if doc == nil {
		return nil, ""
	}
	doc.Find(itemLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if abs, err := crawler.ResolveURL(pageURL, href); err == nil && abs != "" {
			links = append(links, abs)
		}
	})
	if href, ok := doc.Find(nextLinkSelector).First().Attr("href"); ok {
		if abs, err := crawler.ResolveURL(pageURL, href); err == nil {
			next = abs
		}
	}
	return links, next
}
