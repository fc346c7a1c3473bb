package tracking

import (
	"context"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

type Service interface {
	List(ctx context.Context, userID int64) ([]domain.Combination, error)
	ListProducts(ctx context.Context, userID int64) ([]domain.Product, error)
	Track(ctx context.Context, userID, combinationID int64) (*domain.Combination, error)
	Untrack(ctx context.Context, userID, combinationID int64) error
}

type combinationStore interface {
	Get(ctx context.Context, id int64) (*domain.Combination, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Combination, error)
	AddToUser(ctx context.Context, userID, combinationID int64) error
	RemoveFromUser(ctx context.Context, userID, combinationID int64) error
}

type productStore interface {
	ListTrackedByUser(ctx context.Context, userID int64) ([]domain.Product, error)
}

type service struct {
	repo     combinationStore
	products productStore
}

func NewService(repo combinationStore, products productStore) Service {
	return &service{repo: repo, products: products}
}

func (s *service) List(ctx context.Context, userID int64) ([]domain.Combination, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListProducts returns the parent products of the user's tracked combinations.
func (s *service) ListProducts(ctx context.Context, userID int64) ([]domain.Product, error) {
	return s.products.ListTrackedByUser(ctx, userID)
}

// Track subscribes a user to a combination. Tracking the same combination
// twice is a no-op, not an error.
func (s *service) Track(ctx context.Context, userID, combinationID int64) (*domain.Combination, error) {
	c, err := s.repo.Get(ctx, combinationID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddToUser(ctx, userID, combinationID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Untrack(ctx context.Context, userID, combinationID int64) error {
	return s.repo.RemoveFromUser(ctx, userID, combinationID)
}
