package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildUpsertSQL renders a single-row natural-key upsert statement.
// Every non-key column is overwritten on conflict and updated_at is bumped,
// so re-running a scrape refreshes rows in place instead of duplicating them.
func buildUpsertSQL(table string, keyCol string, cols []string, returnID bool) string {
	placeholders := make([]string, len(cols))
	assignments := make([]string, 0, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != keyCol {
			assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}
	assignments = append(assignments, "updated_at = now()")

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		keyCol,
		strings.Join(assignments, ", "),
	)
	if returnID {
		sql += " RETURNING id"
	}
	return sql
}

// sendUpsertBatch queues one upsert statement per row on a single transaction
// and returns the surrogate ids of the affected rows when returnIDs is set.
// The whole batch commits or rolls back as a unit; id order is the queue order
// and carries no promise of matching any caller-side ordering.
func sendUpsertBatch(ctx context.Context, pool *pgxpool.Pool, sql string, rows [][]any, returnIDs bool) ([]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, args := range rows {
		b.Queue(sql, args...)
	}
	br := tx.SendBatch(ctx, b)

	var ids []int64
	if returnIDs {
		ids = make([]int64, 0, len(rows))
	}
	for range rows {
		if returnIDs {
			var id int64
			if err := br.QueryRow().Scan(&id); err != nil {
				_ = br.Close()
				return nil, fmt.Errorf("upsert batch: %w", err)
			}
			ids = append(ids, id)
		} else {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return nil, fmt.Errorf("upsert batch: %w", err)
			}
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("close upsert batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert tx: %w", err)
	}
	return ids, nil
}
