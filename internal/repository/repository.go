package repository

import (
	"context"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

// SalesRepository is the read side of the sales ledger.
type SalesRepository interface {
	// History returns every record matching the filter, oldest first. There is no implicit limit.
	History(ctx context.Context, filter domain.SalesFilter) ([]domain.SaleRecord, error)
}

// ProductRepository is the product catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	IDsByCategory(ctx context.Context, category string) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

// ForecastRepository stores forecast points append-only.
type ForecastRepository interface {
	// Save appends all points or none of them.
	Save(ctx context.Context, points []domain.ForecastPoint) error
	// Latest returns up to limit points for the scope, newest date first.
	Latest(ctx context.Context, scope domain.Scope, scopeID *string, limit int) ([]domain.ForecastPoint, error)
}
