package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// Selectors of a catalog detail page.
const (
	titleSelector    = "h1"
	priceSelector    = "p.price_color"
	categorySelector = "ul.breadcrumb li:nth-child(3) a"
	imageSelector    = "div.item.active img"
)

// CatalogItem extracts one product from a detail page. Missing title, price or
// category, or an unparsable price, yields an error wrapping
// crawler.ErrExtractionFailed. A missing or unresolvable image leaves ImageURL
// empty.
func CatalogItem(doc *goquery.Document, sourceURL string) (crawler.CatalogItem, error) {
	if doc == nil {
		return crawler.CatalogItem{}, fmt.Errorf("%s: nil document: %w", sourceURL, crawler.ErrExtractionFailed)
	}

	title := firstText(doc.Selection, titleSelector)
	if title == "" {
		return crawler.CatalogItem{}, fmt.Errorf("%s: missing title: %w", sourceURL, crawler.ErrExtractionFailed)
	}
	rawPrice := firstText(doc.Selection, priceSelector)
	if rawPrice == "" {
		return crawler.CatalogItem{}, fmt.Errorf("%s: missing price: %w", sourceURL, crawler.ErrExtractionFailed)
	}
	price, err := ParsePrice(rawPrice)
	if err != nil {
		return crawler.CatalogItem{}, fmt.Errorf("%s: %w: %w", sourceURL, crawler.ErrExtractionFailed, err)
	}
	category := crawler.NormalizeCategory(firstText(doc.Selection, categorySelector))
	if category == "" {
		return crawler.CatalogItem{}, fmt.Errorf("%s: missing category: %w", sourceURL, crawler.ErrExtractionFailed)
	}

	var imageURL string
	if src := strings.TrimSpace(doc.Find(imageSelector).First().AttrOr("src", "")); src != "" {
		if resolved, err := crawler.ResolveURL(sourceURL, src); err == nil {
			imageURL = resolved
		}
	}

	return crawler.CatalogItem{
		Title:    title,
		Price:    price,
		Category: category,
		ImageURL: imageURL,
	}, nil
}

func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}
