package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

type crawler interface {
	FetchCollections(ctx context.Context) ([]domain.CollectionRecord, error)
	CrawlCollection(ctx context.Context, collection domain.Collection) ([]domain.ProductRecord, []domain.CombinationRecord)
}

type collectionStore interface {
	Upsert(ctx context.Context, recs []domain.CollectionRecord) ([]int64, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Collection, error)
	AddProducts(ctx context.Context, collectionID int64, productIDs []int64) error
}

type productStore interface {
	Upsert(ctx context.Context, recs []domain.ProductRecord) ([]int64, error)
}

type combinationStore interface {
	Upsert(ctx context.Context, recs []domain.CombinationRecord) error
}

// Service runs the full catalog reconciliation: fetch the collection index,
// crawl every collection concurrently, then write each collection's results
// back sequentially. Failures are isolated per record, per page, and per
// collection; only a missing collection index aborts a run.
type Service struct {
	crawler      crawler
	collections  collectionStore
	products     productStore
	combinations combinationStore
	logger       *slog.Logger
}

func NewService(c crawler, collections collectionStore, products productStore, combinations combinationStore, logger *slog.Logger) *Service {
	return &Service{
		crawler:      c,
		collections:  collections,
		products:     products,
		combinations: combinations,
		logger:       logger,
	}
}

// crawlResult is one collection's accumulated crawl output. Each crawl task
// owns its result exclusively until the join, so no locking is needed.
type crawlResult struct {
	collection   domain.Collection
	products     []domain.ProductRecord
	combinations []domain.CombinationRecord
}

// Run executes one reconciliation pass and returns only after every
// collection has been crawled and reconciled. It fails only when the
// collection index itself cannot be obtained.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("reconciliation started")

	records, err := s.crawler.FetchCollections(ctx)
	if err != nil {
		return fmt.Errorf("fetch collection index: %w", err)
	}

	ids, err := s.collections.Upsert(ctx, records)
	if err != nil {
		return fmt.Errorf("upsert collections: %w", err)
	}
	// Re-read by id: upsert returns ids in implementation-defined order, so
	// live entities are re-derived from storage rather than matched by
	// position.
	collections, err := s.collections.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("read back collections: %w", err)
	}
	s.logger.Info("collections updated", "count", len(collections))

	// One crawl task per collection. All tasks run to completion: a failing
	// collection yields an empty result and must not cancel its siblings.
	results := make([]crawlResult, len(collections))
	var wg sync.WaitGroup
	for i, collection := range collections {
		wg.Add(1)
		go func(i int, collection domain.Collection) {
			defer wg.Done()
			products, combinations := s.crawler.CrawlCollection(ctx, collection)
			results[i] = crawlResult{collection: collection, products: products, combinations: combinations}
		}(i, collection)
	}
	wg.Wait()

	for _, result := range results {
		s.reconcileCollection(ctx, result)
	}

	s.logger.Info("reconciliation finished")
	return nil
}

// reconcileCollection writes one collection's crawl output: products first so
// the combinations' foreign keys on product natural ids resolve, then the
// membership set, then the combinations. Every failure is logged and confined
// to this collection.
func (s *Service) reconcileCollection(ctx context.Context, result crawlResult) {
	title := result.collection.Title

	if len(result.products) > 0 {
		productIDs, err := s.products.Upsert(ctx, result.products)
		if err != nil {
			s.logger.Error("product upsert failed, skipping collection",
				"collection", title, "err", err)
			return
		}
		if err := s.collections.AddProducts(ctx, result.collection.ID, productIDs); err != nil {
			s.logger.Error("membership update failed", "collection", title, "err", err)
		}
		s.logger.Debug("products updated", "collection", title, "count", len(productIDs))
	}

	if len(result.combinations) > 0 {
		if err := s.combinations.Upsert(ctx, result.combinations); err != nil {
			s.logger.Error("combination upsert failed",
				"collection", title, "err", err)
			return
		}
		s.logger.Debug("combinations updated", "collection", title, "count", len(result.combinations))
	}
}
