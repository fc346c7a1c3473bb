package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`DO $$ BEGIN
		CREATE TYPE code_channel AS ENUM ('email', 'phone_number');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`CREATE TABLE IF NOT EXISTS collections (
		id         BIGSERIAL PRIMARY KEY,
		shop_id    BIGINT NOT NULL UNIQUE,
		shop_url   TEXT NOT NULL,
		title      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id         BIGSERIAL PRIMARY KEY,
		shop_id    BIGINT NOT NULL UNIQUE,
		shop_url   TEXT NOT NULL,
		title      TEXT NOT NULL,
		pre_order  BOOLEAN NOT NULL DEFAULT FALSE,
		limited    BOOLEAN NOT NULL DEFAULT FALSE,
		price      BIGINT NOT NULL,
		image_url  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS combinations (
		id              BIGSERIAL PRIMARY KEY,
		shop_id         BIGINT NOT NULL UNIQUE,
		number          INT NOT NULL,
		size            TEXT,
		price           BIGINT NOT NULL,
		product_shop_id BIGINT NOT NULL REFERENCES products(shop_id) ON DELETE CASCADE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS collection_products (
		collection_id BIGINT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		product_id    BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		PRIMARY KEY (collection_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGSERIAL PRIMARY KEY,
		email          TEXT,
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		phone_number   TEXT,
		phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash  TEXT NOT NULL,
		expires_at     TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS codes (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		channel    code_channel NOT NULL,
		code       TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id                 TEXT PRIMARY KEY,
		user_id            BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		refresh_token      TEXT NOT NULL UNIQUE,
		refresh_expires_at TIMESTAMPTZ NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_combinations (
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		combination_id BIGINT NOT NULL REFERENCES combinations(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, combination_id)
	)`,
}

// Bootstrap creates the database schema if it does not exist.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
