package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// ProductRepo provides typed Postgres operations for the products table.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

var productUpsertSQL = buildUpsertSQL(
	"products", "shop_id",
	[]string{"shop_id", "shop_url", "title", "pre_order", "limited", "price", "image_url"},
	true,
)

// Upsert writes the records keyed by shop_id and returns the surrogate ids of
// the affected rows. Duplicate shop_ids within the batch are collapsed.
func (r *ProductRepo) Upsert(ctx context.Context, recs []domain.ProductRecord) ([]int64, error) {
	rows := make([][]any, 0, len(recs))
	seen := make(map[int64]struct{}, len(recs))
	for _, rec := range recs {
		if _, ok := seen[rec.ShopID]; ok {
			continue
		}
		seen[rec.ShopID] = struct{}{}
		rows = append(rows, []any{rec.ShopID, rec.ShopURL, rec.Title, rec.PreOrder, rec.Limited, rec.Price, rec.ImageURL})
	}
	return sendUpsertBatch(ctx, r.pool, productUpsertSQL, rows, true)
}

// List returns products, optionally restricted to one collection's membership
// and filtered by substring containment on the title (case-insensitive).
func (r *ProductRepo) List(ctx context.Context, collectionID *int64, titleQuery string) ([]domain.Product, error) {
	sql := `SELECT p.id, p.shop_id, p.shop_url, p.title, p.pre_order, p.limited, p.price, p.image_url, p.created_at, p.updated_at
		FROM products p`
	args := []any{}
	where := ""
	if collectionID != nil {
		sql += ` JOIN collection_products cp ON cp.product_id = p.id`
		args = append(args, *collectionID)
		where = ` WHERE cp.collection_id = $1`
	}
	if titleQuery != "" {
		args = append(args, "%"+titleQuery+"%")
		if where == "" {
			where = ` WHERE p.title ILIKE $1`
		} else {
			where += ` AND p.title ILIKE $2`
		}
	}
	rows, err := r.pool.Query(ctx, sql+where+` ORDER BY p.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListTrackedByUser returns the parent products of every combination the user
// tracks, without duplicates.
func (r *ProductRepo) ListTrackedByUser(ctx context.Context, userID int64) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT p.id, p.shop_id, p.shop_url, p.title, p.pre_order, p.limited, p.price, p.image_url, p.created_at, p.updated_at
		 FROM products p
		 JOIN combinations c ON c.product_shop_id = p.shop_id
		 JOIN user_combinations uc ON uc.combination_id = c.id
		 WHERE uc.user_id = $1 ORDER BY p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.ShopURL, &p.Title, &p.PreOrder, &p.Limited, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
