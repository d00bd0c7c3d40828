package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/metrics"
)

// Importer bulk loads catalog and ledger rows into Postgres. The handle must
// be opened with the pgx stdlib driver.
type Importer struct {
	db *sql.DB
}

func NewImporter(db *sql.DB) *Importer {
	return &Importer{db: db}
}

const upsertProductQuery = `
	INSERT INTO products (id, name, category)
	VALUES ($1, $2, $3)
	ON CONFLICT (id)
	DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category
`

const ensureProductQuery = `
	INSERT INTO products (id, name, category)
	VALUES ($1, $1, $2)
	ON CONFLICT (id) DO NOTHING
`

// ImportProducts upserts the catalog in one transaction.
func (i *Importer) ImportProducts(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	err := i.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range products {
			batch.Queue(upsertProductQuery, p.ID, p.Name, p.Category)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		metrics.IngestRows.WithLabelValues("products", "failed").Add(float64(len(products)))
		return 0, fmt.Errorf("failed to import products: %w", err)
	}

	metrics.IngestRows.WithLabelValues("products", "loaded").Add(float64(len(products)))
	return len(products), nil
}

// ImportSales appends rows to the ledger with COPY. Products named by a row
// that carries a category are created when missing. The whole call is one
// transaction.
func (i *Importer) ImportSales(ctx context.Context, rows []SaleRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var copied int64
	err := i.withTx(ctx, func(tx pgx.Tx) error {
		seen := make(map[string]struct{})
		batch := &pgx.Batch{}
		for _, r := range rows {
			if r.Category == "" {
				continue
			}
			if _, ok := seen[r.ProductID]; ok {
				continue
			}
			seen[r.ProductID] = struct{}{}
			batch.Queue(ensureProductQuery, r.ProductID, r.Category)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("ensure products: %w", err)
			}
			log.Debug().Int("products", batch.Len()).Msg("ensured products referenced by sales")
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"sales"},
			[]string{"product_id", "date", "quantity", "revenue"},
			pgx.CopyFromSlice(len(rows), func(idx int) ([]any, error) {
				r := rows[idx]
				return []any{r.ProductID, r.Date, r.Quantity, r.Revenue}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy sales: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		metrics.IngestRows.WithLabelValues("sales", "failed").Add(float64(len(rows)))
		return 0, fmt.Errorf("failed to import sales: %w", err)
	}

	metrics.IngestRows.WithLabelValues("sales", "loaded").Add(float64(copied))
	return copied, nil
}

func (i *Importer) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	conn, err := i.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		stdConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("importer requires the pgx driver, got %T", driverConn)
		}

		return pgx.BeginFunc(ctx, stdConn.Conn(), fn)
	})
}
