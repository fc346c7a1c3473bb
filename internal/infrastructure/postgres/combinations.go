package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// CombinationRepo provides typed Postgres operations for the combinations
// table and the user-combination tracking table.
type CombinationRepo struct {
	pool *pgxpool.Pool
}

func NewCombinationRepo(pool *pgxpool.Pool) *CombinationRepo {
	return &CombinationRepo{pool: pool}
}

var combinationUpsertSQL = buildUpsertSQL(
	"combinations", "shop_id",
	[]string{"shop_id", "number", "size", "price", "product_shop_id"},
	false,
)

// Upsert writes the records keyed by shop_id. Parent products must already be
// upserted: product_shop_id is a foreign key on products.shop_id.
func (r *CombinationRepo) Upsert(ctx context.Context, recs []domain.CombinationRecord) error {
	rows := make([][]any, 0, len(recs))
	seen := make(map[int64]struct{}, len(recs))
	for _, rec := range recs {
		if _, ok := seen[rec.ShopID]; ok {
			continue
		}
		seen[rec.ShopID] = struct{}{}
		rows = append(rows, []any{rec.ShopID, rec.Number, rec.Size, rec.Price, rec.ProductShopID})
	}
	_, err := sendUpsertBatch(ctx, r.pool, combinationUpsertSQL, rows, false)
	return err
}

func (r *CombinationRepo) Get(ctx context.Context, id int64) (*domain.Combination, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, shop_id, number, size, price, product_shop_id, created_at, updated_at
		 FROM combinations WHERE id = $1`, id)
	var c domain.Combination
	err := row.Scan(&c.ID, &c.ShopID, &c.Number, &c.Size, &c.Price, &c.ProductShopID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("combination %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the combinations a user tracks.
func (r *CombinationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Combination, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.shop_id, c.number, c.size, c.price, c.product_shop_id, c.created_at, c.updated_at
		 FROM combinations c
		 JOIN user_combinations uc ON uc.combination_id = c.id
		 WHERE uc.user_id = $1 ORDER BY c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Combination
	for rows.Next() {
		var c domain.Combination
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Number, &c.Size, &c.Price, &c.ProductShopID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CombinationRepo) AddToUser(ctx context.Context, userID, combinationID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_combinations (user_id, combination_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, combinationID)
	return err
}

func (r *CombinationRepo) RemoveFromUser(ctx context.Context, userID, combinationID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_combinations WHERE user_id = $1 AND combination_id = $2`,
		userID, combinationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("combination %d not tracked: %w", combinationID, domain.ErrNotFound)
	}
	return nil
}
