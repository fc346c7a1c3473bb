package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// CollectionRepo provides typed Postgres operations for the collections table
// and the collection-product membership table.
type CollectionRepo struct {
	pool *pgxpool.Pool
}

func NewCollectionRepo(pool *pgxpool.Pool) *CollectionRepo {
	return &CollectionRepo{pool: pool}
}

var collectionUpsertSQL = buildUpsertSQL(
	"collections", "shop_id",
	[]string{"shop_id", "shop_url", "title"},
	true,
)

// Upsert writes the records keyed by shop_id and returns the surrogate ids of
// the affected rows. Duplicate shop_ids within the batch are collapsed.
func (r *CollectionRepo) Upsert(ctx context.Context, recs []domain.CollectionRecord) ([]int64, error) {
	rows := make([][]any, 0, len(recs))
	seen := make(map[int64]struct{}, len(recs))
	for _, rec := range recs {
		if _, ok := seen[rec.ShopID]; ok {
			continue
		}
		seen[rec.ShopID] = struct{}{}
		rows = append(rows, []any{rec.ShopID, rec.ShopURL, rec.Title})
	}
	return sendUpsertBatch(ctx, r.pool, collectionUpsertSQL, rows, true)
}

func (r *CollectionRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Collection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, shop_id, shop_url, title, created_at, updated_at
		 FROM collections WHERE id = ANY($1) ORDER BY title`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCollections(rows)
}

func (r *CollectionRepo) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, shop_id, shop_url, title, created_at, updated_at
		 FROM collections ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCollections(rows)
}

// AddProducts attaches products to a collection's membership set. Membership
// is additive: existing pairs are left untouched and never removed here.
func (r *CollectionRepo) AddProducts(ctx context.Context, collectionID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO collection_products (collection_id, product_id)
		 SELECT $1, unnest($2::BIGINT[])
		 ON CONFLICT DO NOTHING`, collectionID, productIDs)
	if err != nil {
		return fmt.Errorf("add collection products: %w", err)
	}
	return nil
}

func scanCollections(rows pgx.Rows) ([]domain.Collection, error) {
	var out []domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.ShopID, &c.ShopURL, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
