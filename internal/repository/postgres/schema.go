package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		category TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id         BIGSERIAL PRIMARY KEY,
		product_id TEXT NOT NULL,
		date       DATE NOT NULL,
		quantity   INTEGER NOT NULL CHECK (quantity >= 0),
		revenue    NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (revenue >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_product_date ON sales (product_id, date)`,
	`CREATE TABLE IF NOT EXISTS forecasts (
		id              BIGSERIAL PRIMARY KEY,
		scope           TEXT NOT NULL CHECK (scope IN ('total', 'category', 'product')),
		scope_id        TEXT NULL,
		date            DATE NOT NULL,
		predicted_value DOUBLE PRECISION NOT NULL,
		lower_bound     DOUBLE PRECISION NOT NULL,
		upper_bound     DOUBLE PRECISION NOT NULL,
		model_metadata  JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_forecasts_scope_date ON forecasts (scope, scope_id, date DESC, id DESC)`,
}

// Migrate creates the tables used by the service. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
