package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// --- mocks ---

type mockCrawler struct{ mock.Mock }

func (m *mockCrawler) FetchCollections(ctx context.Context) ([]domain.CollectionRecord, error) {
	args := m.Called(ctx)
	if recs, _ := args.Get(0).([]domain.CollectionRecord); recs != nil {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCrawler) CrawlCollection(ctx context.Context, c domain.Collection) ([]domain.ProductRecord, []domain.CombinationRecord) {
	args := m.Called(ctx, c)
	products, _ := args.Get(0).([]domain.ProductRecord)
	combinations, _ := args.Get(1).([]domain.CombinationRecord)
	return products, combinations
}

type mockCollectionStore struct{ mock.Mock }

func (m *mockCollectionStore) Upsert(ctx context.Context, recs []domain.CollectionRecord) ([]int64, error) {
	args := m.Called(ctx, recs)
	if ids, _ := args.Get(0).([]int64); ids != nil {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCollectionStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Collection, error) {
	args := m.Called(ctx, ids)
	if cs, _ := args.Get(0).([]domain.Collection); cs != nil {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCollectionStore) AddProducts(ctx context.Context, collectionID int64, productIDs []int64) error {
	return m.Called(ctx, collectionID, productIDs).Error(0)
}

// callRecorder tracks the order of storage writes across mocks.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

type mockProductStore struct {
	mock.Mock
	recorder *callRecorder
}

func (m *mockProductStore) Upsert(ctx context.Context, recs []domain.ProductRecord) ([]int64, error) {
	if m.recorder != nil {
		m.recorder.record("products")
	}
	args := m.Called(ctx, recs)
	if ids, _ := args.Get(0).([]int64); ids != nil {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCombinationStore struct {
	mock.Mock
	recorder *callRecorder
}

func (m *mockCombinationStore) Upsert(ctx context.Context, recs []domain.CombinationRecord) error {
	if m.recorder != nil {
		m.recorder.record("combinations")
	}
	return m.Called(ctx, recs).Error(0)
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collection(id, shopID int64, title string) domain.Collection {
	return domain.Collection{ID: id, ShopID: shopID, Title: title}
}

func productRecs(shopIDs ...int64) []domain.ProductRecord {
	recs := make([]domain.ProductRecord, len(shopIDs))
	for i, id := range shopIDs {
		recs[i] = domain.ProductRecord{ShopID: id, Title: "p", Price: 100}
	}
	return recs
}

func combinationRecs(shopIDs ...int64) []domain.CombinationRecord {
	recs := make([]domain.CombinationRecord, len(shopIDs))
	for i, id := range shopIDs {
		recs[i] = domain.CombinationRecord{ShopID: id, Number: 1, Price: 100, ProductShopID: id - 1}
	}
	return recs
}

// --- Run ---

func TestRun_IndexFetchFailure_IsFatal(t *testing.T) {
	cr := &mockCrawler{}
	cr.On("FetchCollections", mock.Anything).Return(nil, errors.New("storefront down"))

	svc := NewService(cr, &mockCollectionStore{}, &mockProductStore{}, &mockCombinationStore{}, testLogger())
	err := svc.Run(context.Background())

	require.Error(t, err)
}

func TestRun_HappyPath_ProductsBeforeCombinations(t *testing.T) {
	cr := &mockCrawler{}
	cs := &mockCollectionStore{}
	rec := &callRecorder{}
	ps := &mockProductStore{recorder: rec}
	cb := &mockCombinationStore{recorder: rec}

	colA := collection(1, 10, "A")
	cr.On("FetchCollections", mock.Anything).Return([]domain.CollectionRecord{{ShopID: 10, Title: "A"}}, nil)
	cs.On("Upsert", mock.Anything, mock.Anything).Return([]int64{1}, nil)
	cs.On("GetByIDs", mock.Anything, []int64{1}).Return([]domain.Collection{colA}, nil)
	cr.On("CrawlCollection", mock.Anything, colA).Return(productRecs(100), combinationRecs(101))
	ps.On("Upsert", mock.Anything, mock.Anything).Return([]int64{5}, nil)
	cs.On("AddProducts", mock.Anything, int64(1), []int64{5}).Return(nil)
	cb.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(cr, cs, ps, cb, testLogger())
	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, []string{"products", "combinations"}, rec.calls)
	cs.AssertExpectations(t)
	ps.AssertExpectations(t)
	cb.AssertExpectations(t)
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	cr := &mockCrawler{}
	cs := &mockCollectionStore{}
	ps := &mockProductStore{}
	cb := &mockCombinationStore{}

	colA := collection(1, 10, "A")
	colB := collection(2, 20, "B")
	colC := collection(3, 30, "C")

	cr.On("FetchCollections", mock.Anything).Return([]domain.CollectionRecord{
		{ShopID: 10, Title: "A"}, {ShopID: 20, Title: "B"}, {ShopID: 30, Title: "C"},
	}, nil)
	cs.On("Upsert", mock.Anything, mock.Anything).Return([]int64{1, 2, 3}, nil)
	cs.On("GetByIDs", mock.Anything, []int64{1, 2, 3}).
		Return([]domain.Collection{colA, colB, colC}, nil)

	recsA, recsB, recsC := productRecs(100), productRecs(200), productRecs(300)
	cr.On("CrawlCollection", mock.Anything, colA).Return(recsA, combinationRecs(101))
	cr.On("CrawlCollection", mock.Anything, colB).Return(recsB, combinationRecs(201))
	cr.On("CrawlCollection", mock.Anything, colC).Return(recsC, combinationRecs(301))

	ps.On("Upsert", mock.Anything, recsA).Return([]int64{11}, nil)
	ps.On("Upsert", mock.Anything, recsB).Return(nil, errors.New("deadlock"))
	ps.On("Upsert", mock.Anything, recsC).Return([]int64{33}, nil)
	cs.On("AddProducts", mock.Anything, int64(1), []int64{11}).Return(nil)
	cs.On("AddProducts", mock.Anything, int64(3), []int64{33}).Return(nil)
	cb.On("Upsert", mock.Anything, combinationRecs(101)).Return(nil)
	cb.On("Upsert", mock.Anything, combinationRecs(301)).Return(nil)

	svc := NewService(cr, cs, ps, cb, testLogger())
	require.NoError(t, svc.Run(context.Background()))

	// B's failure skipped its membership and combinations but left A and C
	// fully committed.
	cs.AssertNotCalled(t, "AddProducts", mock.Anything, int64(2), mock.Anything)
	cb.AssertNotCalled(t, "Upsert", mock.Anything, combinationRecs(201))
	ps.AssertExpectations(t)
	cb.AssertExpectations(t)
}

func TestRun_EmptyCollectionCrawl_WritesNothing(t *testing.T) {
	cr := &mockCrawler{}
	cs := &mockCollectionStore{}
	ps := &mockProductStore{}
	cb := &mockCombinationStore{}

	colA := collection(1, 10, "A")
	cr.On("FetchCollections", mock.Anything).Return([]domain.CollectionRecord{{ShopID: 10, Title: "A"}}, nil)
	cs.On("Upsert", mock.Anything, mock.Anything).Return([]int64{1}, nil)
	cs.On("GetByIDs", mock.Anything, []int64{1}).Return([]domain.Collection{colA}, nil)
	cr.On("CrawlCollection", mock.Anything, colA).Return(nil, nil)

	svc := NewService(cr, cs, ps, cb, testLogger())
	require.NoError(t, svc.Run(context.Background()))

	ps.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	cb.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
