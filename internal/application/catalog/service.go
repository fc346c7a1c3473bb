package catalog

import (
	"context"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

type Service interface {
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	ListProducts(ctx context.Context, collectionID *int64, titleQuery string) ([]domain.Product, error)
	GetCombination(ctx context.Context, combinationID int64) (*domain.Combination, error)
}

type collectionStore interface {
	List(ctx context.Context) ([]domain.Collection, error)
}

type productStore interface {
	List(ctx context.Context, collectionID *int64, titleQuery string) ([]domain.Product, error)
}

type combinationStore interface {
	Get(ctx context.Context, id int64) (*domain.Combination, error)
}

type service struct {
	collections  collectionStore
	products     productStore
	combinations combinationStore
}

func NewService(collections collectionStore, products productStore, combinations combinationStore) Service {
	return &service{collections: collections, products: products, combinations: combinations}
}

func (s *service) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	return s.collections.List(ctx)
}

func (s *service) ListProducts(ctx context.Context, collectionID *int64, titleQuery string) ([]domain.Product, error) {
	return s.products.List(ctx, collectionID, titleQuery)
}

func (s *service) GetCombination(ctx context.Context, combinationID int64) (*domain.Combination, error) {
	return s.combinations.Get(ctx, combinationID)
}
