package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/ingest"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository/memory"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/vendacerta/backend-go/pkg/logger"
)

const (
	backendPostgres = "postgres"
	backendMemory   = "memory"
)

type stores struct {
	backend   string
	sales     repository.SalesRepository
	products  repository.ProductRepository
	forecasts repository.ForecastRepository
	closer    func() error
}

func (s *stores) Close() {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to close storage")
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.App.StoreBackend {
	case backendMemory:
		return openMemoryStores(cfg.App.DataDir)
	case backendPostgres, "":
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			backend:   backendPostgres,
			sales:     postgres.NewSalesRepository(db.DB),
			products:  postgres.NewProductRepository(db.DB),
			forecasts: postgres.NewForecastRepository(db),
			closer:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.App.StoreBackend)
	}
}

// openMemoryStores serves from process memory, preloading products.csv and
// sales.csv from dataDir when they exist.
func openMemoryStores(dataDir string) (*stores, error) {
	ledger := memory.NewSalesStore()

	products, err := readCSV(filepath.Join(dataDir, "products.csv"), ingest.ReadProducts)
	if err != nil {
		return nil, err
	}
	ledger.AddProducts(products...)

	rows, err := readCSV(filepath.Join(dataDir, "sales.csv"), ingest.ReadSales)
	if err != nil {
		return nil, err
	}
	records := make([]domain.SaleRecord, 0, len(rows))
	for _, row := range rows {
		if row.Category != "" {
			ledger.AddProducts(domain.Product{ID: row.ProductID, Name: row.ProductID, Category: row.Category})
		}
		records = append(records, row.SaleRecord)
	}
	ledger.AddSales(records...)

	logger.Log.Info().
		Int("products", len(products)).
		Int("sales", len(records)).
		Str("dir", dataDir).
		Msg("Loaded in-memory ledger")

	return &stores{
		backend:   backendMemory,
		sales:     ledger,
		products:  ledger,
		forecasts: memory.NewForecastStore(),
	}, nil
}

func readCSV[T any](path string, read func(io.Reader) ([]T, ingest.Report, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items, report, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if report.Skipped > 0 {
		logger.Log.Warn().
			Str("file", path).
			Int("skipped", report.Skipped).
			Msg("Skipped malformed rows")
	}
	return items, nil
}
