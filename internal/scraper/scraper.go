package scraper

import (
	"context"
	"io"
	"log/slog"

	"github.com/NemoKam/VSrapInformer/internal/config"
	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// ImageStore mirrors downloaded product images into object storage.
type ImageStore interface {
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
}

// Scraper extracts the shop's catalog: the collection index plus paginated
// per-collection listing pages.
type Scraper struct {
	fetcher  *Fetcher
	baseURL  string
	maxPages int
	images   ImageStore
	logger   *slog.Logger
}

// New builds a Scraper. images may be nil, in which case product image
// mirroring is disabled and products keep empty image URLs.
func New(cfg *config.Config, fetcher *Fetcher, images ImageStore, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetcher:  fetcher,
		baseURL:  cfg.ShopBaseURL,
		maxPages: cfg.ScraperMaxPages,
		images:   images,
		logger:   logger,
	}
}

// FetchCollections retrieves and parses the brand index page. A fetch failure
// here is fatal to a reconciliation run: without the index there is nothing to
// crawl.
func (s *Scraper) FetchCollections(ctx context.Context) ([]domain.CollectionRecord, error) {
	page, err := s.fetcher.Fetch(ctx, s.baseURL+"/brands/")
	if err != nil {
		return nil, err
	}
	return s.ParseCollections(page), nil
}
