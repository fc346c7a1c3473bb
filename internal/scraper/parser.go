package scraper

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// The shop runs on Bitrix; these selectors target its rendered catalog markup.
const (
	collectionItemSel  = "div.grid-list__item"
	collectionLinkSel  = "a.ui-card__link"
	collectionTitleSel = "div.brands-list__image-wrapper"

	productItemSel  = "div.catalog-block__inner"
	productInfoSel  = "div.catalog-block__info"
	productTitleSel = "div.catalog-block__info-title span"
	productPriceSel = `meta[itemprop="price"]`
	preOrderSel     = "div.sticker__item--preorder"
	limitedSel      = "div.sticker__item--limited"
	productImageSel = "img.img-responsive"

	skuPropsSel = "div.sku-props"
	skuValueSel = "div.sku-props__value"

	paginationItemSel = "a.module-pagination__item"
)

// ParseCollections extracts collection records from the brand index page.
// Malformed entries are logged and skipped without aborting the batch.
func (s *Scraper) ParseCollections(page []byte) []domain.CollectionRecord {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		s.logger.Error("parse collection index", "err", err)
		return nil
	}

	var records []domain.CollectionRecord
	doc.Find(collectionItemSel).Each(func(_ int, sel *goquery.Selection) {
		rec, err := parseCollection(sel, s.baseURL)
		if err != nil {
			s.logger.Warn("skipping malformed collection entry", "err", err)
			return
		}
		records = append(records, rec)
	})
	return records
}

func parseCollection(sel *goquery.Selection, baseURL string) (domain.CollectionRecord, error) {
	// Element ids look like "bx_1234567_89"; the trailing segment is the
	// shop's collection id.
	rawID, ok := sel.Attr("id")
	if !ok {
		return domain.CollectionRecord{}, fmt.Errorf("missing id attribute")
	}
	parts := strings.Split(rawID, "_")
	if len(parts) < 3 {
		return domain.CollectionRecord{}, fmt.Errorf("unexpected id format %q", rawID)
	}
	shopID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return domain.CollectionRecord{}, fmt.Errorf("collection id %q: %w", rawID, err)
	}

	href, ok := sel.Find(collectionLinkSel).Attr("href")
	if !ok {
		return domain.CollectionRecord{}, fmt.Errorf("collection %d: missing link", shopID)
	}

	title := strings.TrimSpace(sel.Find(collectionTitleSel).Text())
	if title == "" {
		return domain.CollectionRecord{}, fmt.Errorf("collection %d: empty title", shopID)
	}

	return domain.CollectionRecord{
		ShopID:  shopID,
		ShopURL: baseURL + href,
		Title:   title,
	}, nil
}

// ParseProducts extracts product and combination records from one listing
// page. A malformed product entry is logged and skipped; it never aborts the
// rest of the page. Products carrying a size selector take the selector's
// group id as their natural id, and each size option derives its own id from
// the group id plus its one-based ordinal.
func (s *Scraper) ParseProducts(ctx context.Context, page []byte) ([]domain.ProductRecord, []domain.CombinationRecord) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		s.logger.Error("parse listing page", "err", err)
		return nil, nil
	}

	var products []domain.ProductRecord
	var combinations []domain.CombinationRecord

	doc.Find(productItemSel).Each(func(_ int, sel *goquery.Selection) {
		product, combos, err := s.parseProduct(ctx, sel)
		if err != nil {
			s.logger.Warn("skipping malformed product entry", "err", err)
			return
		}
		products = append(products, product)
		combinations = append(combinations, combos...)
	})
	return products, combinations
}

func (s *Scraper) parseProduct(ctx context.Context, sel *goquery.Selection) (domain.ProductRecord, []domain.CombinationRecord, error) {
	rawID, ok := sel.Find(productInfoSel).Attr("data-id")
	if !ok {
		return domain.ProductRecord{}, nil, fmt.Errorf("missing data-id")
	}
	shopID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return domain.ProductRecord{}, nil, fmt.Errorf("product id %q: %w", rawID, err)
	}

	href, ok := sel.Find("a").First().Attr("href")
	if !ok {
		return domain.ProductRecord{}, nil, fmt.Errorf("product %d: missing link", shopID)
	}
	shopURL := s.baseURL + href

	title := strings.TrimSpace(sel.Find(productTitleSel).First().Text())
	if title == "" {
		return domain.ProductRecord{}, nil, fmt.Errorf("product %d: empty title", shopID)
	}

	price, err := parsePrice(sel)
	if err != nil {
		// Some listing cards omit the price meta tag; the product's own
		// detail page always carries it.
		price, err = s.fetchDetailPrice(ctx, shopURL)
		if err != nil {
			return domain.ProductRecord{}, nil, fmt.Errorf("product %d: %w", shopID, err)
		}
	}

	preOrder := sel.Find(preOrderSel).Length() > 0
	limited := sel.Find(limitedSel).Length() > 0
	imageURL := s.mirrorImage(ctx, shopID, sel)

	var combinations []domain.CombinationRecord
	if props := sel.Find(skuPropsSel).First(); props.Length() > 0 {
		rawGroup, ok := props.Attr("data-item-id")
		if ok {
			groupID, err := strconv.ParseInt(rawGroup, 10, 64)
			if err != nil {
				return domain.ProductRecord{}, nil, fmt.Errorf("sku group id %q: %w", rawGroup, err)
			}
			// The size selector's group id supersedes the card's data-id as
			// the product's natural key.
			shopID = groupID
			props.Find(skuValueSel).Each(func(i int, value *goquery.Selection) {
				var size *string
				if v, ok := value.Attr("data-title"); ok {
					size = &v
				}
				combinations = append(combinations, domain.CombinationRecord{
					ShopID:        groupID + int64(i) + 1,
					Number:        i + 1,
					Size:          size,
					Price:         price,
					ProductShopID: groupID,
				})
			})
		}
	}

	product := domain.ProductRecord{
		ShopID:   shopID,
		ShopURL:  shopURL,
		Title:    title,
		PreOrder: preOrder,
		Limited:  limited,
		Price:    price,
		ImageURL: imageURL,
	}
	return product, combinations, nil
}

func parsePrice(sel *goquery.Selection) (int64, error) {
	content, ok := sel.Find(productPriceSel).First().Attr("content")
	if !ok {
		return 0, fmt.Errorf("missing price meta")
	}
	price, err := strconv.ParseInt(content, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", content, err)
	}
	return price, nil
}

// fetchDetailPrice issues one detail-page fetch to recover a price the listing
// card omitted. The fetch is bounded by the fetcher's own retry policy.
func (s *Scraper) fetchDetailPrice(ctx context.Context, productURL string) (int64, error) {
	page, err := s.fetcher.Fetch(ctx, productURL)
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return 0, err
	}
	return parsePrice(doc.Selection)
}

// mirrorImage downloads the product image and uploads it to the object store,
// returning the stored URL. Best effort: on any failure the product keeps an
// empty image URL.
func (s *Scraper) mirrorImage(ctx context.Context, shopID int64, sel *goquery.Selection) string {
	if s.images == nil {
		return ""
	}
	src, ok := sel.Find(productImageSel).First().Attr("data-src")
	if !ok || src == "" {
		return ""
	}

	body, err := s.fetcher.Fetch(ctx, s.baseURL+src)
	if err != nil {
		s.logger.Warn("product image download failed", "shop_id", shopID, "err", err)
		return ""
	}

	key := fmt.Sprintf("product/%d%s", shopID, path.Ext(src))
	url, err := s.images.Upload(ctx, key, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("product image upload failed", "shop_id", shopID, "err", err)
		return ""
	}
	return url
}
