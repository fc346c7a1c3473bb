package scraper

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// listingPageURL renders the Bitrix AJAX listing endpoint for one page of a
// collection.
func listingPageURL(collectionURL string, page int) string {
	return fmt.Sprintf("%s?PAGEN_2=%d&AJAX_REQUEST=Y&ajax_get=Y&bitrix_include_areas=N&BLOCK=goods-list-inner", collectionURL, page)
}

// CrawlCollection walks a collection's listing pages starting at page 1 and
// accumulates every parsed product and combination. It stops when the current
// page index reaches the page count observed from the pagination controls, or
// at the configured hard ceiling. A page whose fetch exhausts its retries is
// skipped and the crawl advances, trading completeness for forward progress.
func (s *Scraper) CrawlCollection(ctx context.Context, collection domain.Collection) ([]domain.ProductRecord, []domain.CombinationRecord) {
	var products []domain.ProductRecord
	var combinations []domain.CombinationRecord

	lastPage := false
	for page := 1; !lastPage && page < s.maxPages; page++ {
		body, err := s.fetcher.Fetch(ctx, listingPageURL(collection.ShopURL, page))
		if err != nil {
			s.logger.Warn("listing page unavailable, skipping",
				"collection", collection.Title, "page", page, "err", err)
			continue
		}

		pageProducts, pageCombinations := s.ParseProducts(ctx, body)
		products = append(products, pageProducts...)
		combinations = append(combinations, pageCombinations...)

		if page >= pageCount(body) {
			lastPage = true
		}
	}

	s.logger.Debug("collection crawled",
		"collection", collection.Title, "products", len(products), "combinations", len(combinations))
	return products, combinations
}

// pageCount derives the total page count from the pagination controls: the
// current page is rendered without a link, so the total is the link count
// plus one. A page without controls counts as the only page.
func pageCount(page []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return 1
	}
	return doc.Find(paginationItemSel).Length() + 1
}
